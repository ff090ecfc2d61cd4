package emitter

import (
	"context"
	"sort"
	"sync"

	"github.com/dshills/emitter/topic"
)

// Manager is the listener registry and dispatcher. It maps event names to
// priority-ordered queues, holds predeclared event templates, and walks
// the fixed phase order on every trigger:
//
//	direct -> parent -> prefix -> prefix.* -> *
//
// The parent manager contributes only its direct-match queue for the
// triggered name; its own hierarchical and wildcard queues are not
// consulted. That asymmetry is part of the dispatch contract.
//
// The registry is guarded by a read-write lock: registration takes the
// write lock, dispatch reads a snapshot and invokes listeners without
// holding it. The intended pattern is registration at startup followed by
// concurrent triggers. The parent chain must be cycle-free; the manager
// does not detect cycles.
type Manager struct {
	mu        sync.RWMutex
	queues    map[string]*Queue
	templates map[string]*Event
	parent    *Manager
	proto     *Event
}

// NewManager creates an empty manager with a blank basic-event prototype.
func NewManager() *Manager {
	return &Manager{
		queues:    make(map[string]*Queue),
		templates: make(map[string]*Event),
		proto:     NewEvent(""),
	}
}

// SetParent installs a parent manager consulted during the parent phase.
// The parent is shared, not owned; it must outlive this manager.
func (m *Manager) SetParent(parent *Manager) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parent = parent
}

// Parent returns the parent manager, or nil.
func (m *Manager) Parent() *Manager {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parent
}

// SetBasicEvent replaces the prototype cloned for name-only triggers.
// A nil argument restores the blank prototype.
func (m *Manager) SetBasicEvent(e *Event) {
	if e == nil {
		e = NewEvent("")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proto = e
}

// BasicEvent returns the prototype cloned for name-only triggers.
func (m *Manager) BasicEvent() *Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.proto
}

// Reset clears every queue, every template, and the parent reference.
// The parent's own state is untouched.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues = make(map[string]*Queue)
	m.templates = make(map[string]*Event)
	m.parent = nil
}

// AddListener registers a listener against events described by the
// polymorphic definition:
//
//   - string: a single event name at normal priority
//   - map[string]Priority or map[string]int: event names with per-event
//     priorities
//   - []string: event names sharing normal priority
//   - Priority or int: a default priority only, used when the listener is
//     a Subscriber; for any other listener there is no event to bind and
//     the call is a no-op
//   - nil: no binding (no-op) unless the listener is a Subscriber
//
// Event names are trimmed of leading and trailing dots and spaces; names
// empty after trimming are skipped. A listener that is a Subscriber is
// expanded into one lazy (subscriber, method) listener per declared
// binding instead of being registered itself. A factory function
// (func() (any, error)) is wrapped in a Lazy adapter.
//
// AddListener reports whether at least one binding was registered.
// Malformed input is never an error, only a false return.
func (m *Manager) AddListener(listener any, definition any) bool {
	if listener == nil {
		return false
	}
	listener = normalizeListener(listener)

	defPriority := PriorityNormal
	switch d := definition.(type) {
	case Priority:
		defPriority = d
		definition = nil
	case int:
		defPriority = Priority(d)
		definition = nil
	}

	if sub, ok := listener.(Subscriber); ok {
		return m.addSubscriber(sub, defPriority)
	}

	switch d := definition.(type) {
	case string:
		return m.attach(d, listener, defPriority)
	case map[string]Priority:
		added := false
		for name, priority := range d {
			if m.attach(name, listener, priority) {
				added = true
			}
		}
		return added
	case map[string]int:
		added := false
		for name, priority := range d {
			if m.attach(name, listener, Priority(priority)) {
				added = true
			}
		}
		return added
	case []string:
		added := false
		for _, name := range d {
			if m.attach(name, listener, defPriority) {
				added = true
			}
		}
		return added
	}
	return false
}

// Attach registers a listener for one event name at the given priority.
func (m *Manager) Attach(name string, listener any, priority Priority) bool {
	if listener == nil {
		return false
	}
	return m.attach(name, normalizeListener(listener), priority)
}

// Detach removes a listener from one event's queue.
func (m *Manager) Detach(name string, listener any) bool {
	return m.RemoveListener(listener, name)
}

// AddSubscriber expands a subscriber's declared bindings, registering one
// lazy (subscriber, method) listener per event at the declared priority.
func (m *Manager) AddSubscriber(s Subscriber) bool {
	return m.addSubscriber(s, PriorityNormal)
}

// addSubscriber performs subscriber expansion. A binding with the zero
// priority inherits defPriority, which covers AddListener(sub, priority).
func (m *Manager) addSubscriber(s Subscriber, defPriority Priority) bool {
	if s == nil {
		return false
	}
	added := false
	for name, binding := range s.SubscribedEvents() {
		if binding.Method == "" {
			continue
		}
		priority := binding.Priority
		if priority == PriorityNormal {
			priority = defPriority
		}
		if m.attach(name, NewLazyMethod(s, binding.Method), priority) {
			added = true
		}
	}
	return added
}

// attach inserts a listener into the queue for one trimmed event name.
func (m *Manager) attach(name string, listener any, priority Priority) bool {
	name = topic.Trim(name)
	if name == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		q = NewQueue()
		m.queues[name] = q
	}
	q.Add(listener, priority)
	return true
}

// RemoveListener removes a listener from the named queues, or from every
// queue when no names are given. Removing an absent listener is not an
// error; RemoveListener always returns true.
func (m *Manager) RemoveListener(listener any, names ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(names) == 0 {
		for name, q := range m.queues {
			q.Remove(listener)
			if q.Len() == 0 {
				delete(m.queues, name)
			}
		}
		return true
	}

	for _, name := range names {
		name = topic.Trim(name)
		if q, ok := m.queues[name]; ok {
			q.Remove(listener)
			if q.Len() == 0 {
				delete(m.queues, name)
			}
		}
	}
	return true
}

// ClearListeners drops the named queues entirely, or every queue when no
// names are given.
func (m *Manager) ClearListeners(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(names) == 0 {
		m.queues = make(map[string]*Queue)
		return
	}
	for _, name := range names {
		delete(m.queues, topic.Trim(name))
	}
}

// HasListener reports whether the listener is registered for any of the
// named events, or for any event at all when no names are given.
func (m *Manager) HasListener(listener any, names ...string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(names) == 0 {
		for _, q := range m.queues {
			if q.Has(listener) {
				return true
			}
		}
		return false
	}
	for _, name := range names {
		if q, ok := m.queues[topic.Trim(name)]; ok && q.Has(listener) {
			return true
		}
	}
	return false
}

// HasListeners reports whether any listener is registered for the event.
func (m *Manager) HasListeners(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.queues[topic.Trim(name)]
	return ok && q.Len() > 0
}

// ListenerPriority returns the priority the listener holds in the named
// event's queue.
func (m *Manager) ListenerPriority(listener any, name string) (Priority, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.queues[topic.Trim(name)]
	if !ok {
		return 0, false
	}
	return q.Priority(listener)
}

// EventListeners returns the event's listeners in priority order.
// The slice is a snapshot.
func (m *Manager) EventListeners(name string) []any {
	return m.snapshot(topic.Trim(name))
}

// CountListeners returns the number of listeners for the named event, or
// across every queue when no name is given.
func (m *Manager) CountListeners(names ...string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(names) == 0 {
		total := 0
		for _, q := range m.queues {
			total += q.Len()
		}
		return total
	}
	total := 0
	for _, name := range names {
		if q, ok := m.queues[topic.Trim(name)]; ok {
			total += q.Len()
		}
	}
	return total
}

// ListenedEvents returns every event name with a non-empty queue, sorted.
func (m *Manager) ListenedEvents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.queues))
	for name := range m.queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddEvent stores an event template for its own name. It reports false if
// the name is empty or a template already exists under it.
func (m *Manager) AddEvent(e *Event) bool {
	if e == nil {
		return false
	}
	name := topic.Trim(e.Name())
	if name == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.templates[name]; exists {
		return false
	}
	m.templates[name] = e
	return true
}

// SetEvent stores an event template, replacing any existing one.
func (m *Manager) SetEvent(e *Event) bool {
	if e == nil {
		return false
	}
	name := topic.Trim(e.Name())
	if name == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[name] = e
	return true
}

// GetEvent returns the template stored under name.
func (m *Manager) GetEvent(name string) (*Event, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.templates[topic.Trim(name)]
	return e, ok
}

// RemoveEvent drops the template stored under name.
func (m *Manager) RemoveEvent(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, topic.Trim(name))
}

// HasEvent reports whether a template exists under name.
func (m *Manager) HasEvent(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.templates[topic.Trim(name)]
	return ok
}

// CountEvents returns the number of stored templates.
func (m *Manager) CountEvents() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.templates)
}

// Trigger dispatches an event identified by name or supplied as an
// *Event. A name with a stored template dispatches the template itself;
// any other name dispatches a clone of the basic-event prototype. The
// target is set on the event, non-nil params replace the event's params,
// and the propagation-stop flag is cleared so every trigger call starts
// an independent pass.
//
// The returned event carries all listener mutations. A listener error
// aborts the remaining listeners and phases and is returned unmodified
// alongside the event as dispatched so far.
func (m *Manager) Trigger(ctx context.Context, eventOrName any, target any, params *Params) (*Event, error) {
	e, err := m.wrap(eventOrName)
	if err != nil {
		return nil, err
	}
	name := topic.Trim(e.Name())
	if name == "" {
		return nil, ErrEmptyName
	}

	e.SetTarget(target)
	if params != nil {
		e.SetParams(params)
	}
	e.StopPropagation(false)

	return m.dispatch(ctx, e, name)
}

// TriggerEvent dispatches a caller-constructed event as-is, resetting
// only the propagation-stop flag.
func (m *Manager) TriggerEvent(ctx context.Context, e *Event) (*Event, error) {
	if e == nil {
		return nil, ErrNilEvent
	}
	name := topic.Trim(e.Name())
	if name == "" {
		return nil, ErrEmptyName
	}
	e.StopPropagation(false)
	return m.dispatch(ctx, e, name)
}

// TriggerBatch triggers each named event in order, giving every event its
// own clone of the common params. Results are collected positionally. A
// listener error aborts the batch; events already dispatched are returned
// with the error.
func (m *Manager) TriggerBatch(ctx context.Context, names []string, common *Params) ([]*Event, error) {
	results := make([]*Event, 0, len(names))
	for _, name := range names {
		var p *Params
		if common != nil {
			p = common.Clone()
		}
		e, err := m.Trigger(ctx, name, nil, p)
		if err != nil {
			return results, err
		}
		results = append(results, e)
	}
	return results, nil
}

// wrap resolves Trigger's polymorphic argument to an Event instance.
func (m *Manager) wrap(eventOrName any) (*Event, error) {
	switch v := eventOrName.(type) {
	case *Event:
		if v == nil {
			return nil, ErrNilEvent
		}
		return v, nil
	case string:
		name := topic.Trim(v)
		if t, ok := m.GetEvent(name); ok {
			return t, nil
		}
		e := m.BasicEvent().Clone()
		e.SetName(name)
		return e, nil
	}
	return nil, ErrInvalidTrigger
}

// dispatch walks the phase order, checking the stop flag before every
// listener invocation and between phases.
func (m *Manager) dispatch(ctx context.Context, e *Event, name string) (*Event, error) {
	// Direct phase.
	if err := m.run(ctx, e, m.snapshot(name), ""); err != nil {
		return e, err
	}
	if e.IsPropagationStopped() {
		return e, nil
	}

	// Parent phase: the parent contributes its direct-match queue only.
	if parent := m.Parent(); parent != nil {
		if err := m.run(ctx, e, parent.snapshot(name), ""); err != nil {
			return e, err
		}
		if e.IsPropagationStopped() {
			return e, nil
		}
	}

	// Hierarchical phases: prefix queue, then the prefix group wildcard,
	// both with the final segment as the method hint.
	if prefix, method, ok := topic.Split(name); ok {
		if err := m.run(ctx, e, m.snapshot(prefix), method); err != nil {
			return e, err
		}
		if e.IsPropagationStopped() {
			return e, nil
		}

		if group := topic.Group(prefix); group != name {
			if err := m.run(ctx, e, m.snapshot(group), method); err != nil {
				return e, err
			}
			if e.IsPropagationStopped() {
				return e, nil
			}
		}
	}

	// Global phase.
	if name != topic.Wildcard {
		if err := m.run(ctx, e, m.snapshot(topic.Wildcard), ""); err != nil {
			return e, err
		}
	}
	return e, nil
}

// run invokes a queue snapshot in order. The stop flag is consulted
// before each invocation, never after the fact.
func (m *Manager) run(ctx context.Context, e *Event, listeners []any, hint string) error {
	for _, l := range listeners {
		if e.IsPropagationStopped() {
			return nil
		}
		if err := invoke(ctx, l, e, hint); err != nil {
			return err
		}
	}
	return nil
}

// snapshot copies the named queue's listeners under the read lock.
func (m *Manager) snapshot(name string) []any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.queues[name]
	if !ok {
		return nil
	}
	return q.Listeners()
}

// normalizeListener wraps factory functions in a Lazy adapter. Every
// other value is adapted at invocation time by the shape-resolution
// rules.
func normalizeListener(listener any) any {
	if factory, ok := listener.(func() (any, error)); ok {
		return NewLazy(factory)
	}
	return listener
}
