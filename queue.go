package emitter

import "reflect"

// Priority is the integer ordering key for listeners within a queue.
// Higher priorities run first; listeners with equal priority run in
// registration order.
type Priority int

// Standard priority levels. Any int value is accepted; these are the
// conventional bands.
const (
	// PriorityCritical runs before everything else.
	PriorityCritical Priority = 200

	// PriorityHigh runs before the default band.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 0

	// PriorityLow runs last.
	PriorityLow Priority = -100
)

// String returns a human-readable priority band name.
func (p Priority) String() string {
	switch {
	case p >= PriorityCritical:
		return "critical"
	case p >= PriorityHigh:
		return "high"
	case p >= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// entry is one registered listener within a queue.
type entry struct {
	listener any
	key      listenerKey
	owner    listenerKey // identity of a lazy listener's target, if any
	priority Priority
}

// Queue is the ordered listener collection for a single event name.
// Entries stay sorted by descending priority with insertion order breaking
// ties. A listener appears at most once; re-adding it moves it to the
// position its new priority dictates.
//
// Queue itself is not synchronized. The Manager guards its queues with a
// read-write lock and hands dispatch a snapshot.
type Queue struct {
	entries []entry
}

// NewQueue creates an empty listener queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add inserts the listener at the position its priority dictates, after
// any existing entries of equal priority. A listener already present is
// repositioned, never duplicated; a lazy wrapper shares identity with its
// target or factory, so re-wrapping the same value repositions too.
// Identity follows keyOf: uncomparable value types collapse to a single
// type-keyed entry, so register pointers when distinct instances of such
// a type must coexist in one queue.
func (q *Queue) Add(listener any, priority Priority) {
	key := keyOf(listener)
	owner := ownerOf(listener)
	q.removeMatch(key, owner)

	e := entry{
		listener: listener,
		key:      key,
		owner:    owner,
		priority: priority,
	}

	idx := len(q.entries)
	for i, cur := range q.entries {
		if cur.priority < priority {
			idx = i
			break
		}
	}
	q.entries = append(q.entries, entry{})
	copy(q.entries[idx+1:], q.entries[idx:])
	q.entries[idx] = e
}

// Remove removes the listener from the queue. Lazy listeners registered on
// behalf of a target (subscriber bindings) are also removed when the
// target itself is given. Removing an absent listener is a no-op.
func (q *Queue) Remove(listener any) {
	key := keyOf(listener)
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.key == key || (e.owner != listenerKey{} && e.owner == key) {
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
}

// removeMatch drops entries carrying the same identity, either directly
// or through a lazy wrapper's owner, so re-adding repositions instead of
// duplicating.
func (q *Queue) removeMatch(key, owner listenerKey) {
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.key == key || (owner != listenerKey{} && e.owner == owner) {
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
}

// Has reports whether the listener (or a lazy listener bound to it) is in
// the queue.
func (q *Queue) Has(listener any) bool {
	key := keyOf(listener)
	for _, e := range q.entries {
		if e.key == key || (e.owner != listenerKey{} && e.owner == key) {
			return true
		}
	}
	return false
}

// Priority returns the registered priority for the listener.
func (q *Queue) Priority(listener any) (Priority, bool) {
	key := keyOf(listener)
	for _, e := range q.entries {
		if e.key == key || (e.owner != listenerKey{} && e.owner == key) {
			return e.priority, true
		}
	}
	return 0, false
}

// Listeners returns the listeners in priority order. The slice is a copy;
// dispatch iterates such snapshots exclusively.
func (q *Queue) Listeners() []any {
	out := make([]any, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.listener
	}
	return out
}

// Len returns the number of registered listeners.
func (q *Queue) Len() int {
	return len(q.entries)
}

// listenerKey is a comparable identity for a registered listener value.
type listenerKey struct {
	typ     reflect.Type
	ptr     uintptr
	value   any
	byValue bool
}

// keyOf derives a comparable identity key for a listener. Reference kinds
// (funcs, pointers, maps, slices, channels) key on their pointer; other
// comparable values key on the value itself. Two closures produced by the
// same function literal share a code pointer and therefore an identity,
// and uncomparable value types (a struct carrying a slice, passed by
// value) collapse to one type-keyed identity. Callers needing distinct
// identities for such listeners should register pointers.
func keyOf(listener any) listenerKey {
	if listener == nil {
		return listenerKey{}
	}
	v := reflect.ValueOf(listener)
	switch v.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return listenerKey{typ: v.Type(), ptr: v.Pointer()}
	}
	if v.Type().Comparable() {
		return listenerKey{typ: v.Type(), value: listener, byValue: true}
	}
	// Uncomparable value types collapse to their type.
	return listenerKey{typ: v.Type()}
}

// ownerOf returns the identity of a lazy listener's concrete target, or
// of its factory when no target is bound, so the original value handed to
// registration can be removed or queried directly. Non-lazy listeners
// have no owner.
func ownerOf(listener any) listenerKey {
	lz, ok := listener.(*Lazy)
	if !ok {
		return listenerKey{}
	}
	switch {
	case lz.target != nil:
		return keyOf(lz.target)
	case lz.factory != nil:
		return keyOf(lz.factory)
	}
	return listenerKey{}
}
