package emitter

import (
	"time"

	"github.com/google/uuid"
)

// Event is the mutable occurrence record passed to listeners during one
// dispatch. A single Event instance flows through every phase of a trigger
// call; listeners may mutate its parameters, retarget it, or stop further
// propagation, and all mutations are visible to the trigger caller.
//
// Events are not safe for concurrent mutation. Dispatch is synchronous and
// runs on the calling goroutine.
type Event struct {
	name    string
	id      string
	created time.Time
	target  any
	params  *Params
	stopped bool
}

// NewEvent creates an event with the given name, a fresh ID and an empty
// parameter set.
func NewEvent(name string) *Event {
	return &Event{
		name:    name,
		id:      uuid.NewString(),
		created: time.Now(),
		params:  NewParams(),
	}
}

// Name returns the event name.
func (e *Event) Name() string {
	return e.name
}

// SetName replaces the event name. The name is fixed once dispatch begins;
// renaming is only meaningful between trigger calls.
func (e *Event) SetName(name string) {
	e.name = name
}

// ID returns the unique identifier assigned at creation.
func (e *Event) ID() string {
	return e.id
}

// Created returns the creation timestamp.
func (e *Event) Created() time.Time {
	return e.created
}

// Target returns the object or label that raised the event, or nil.
func (e *Event) Target() any {
	return e.target
}

// SetTarget records the object or label that raised the event.
func (e *Event) SetTarget(target any) {
	e.target = target
}

// Params returns the event's parameter set, creating it on first use.
func (e *Event) Params() *Params {
	if e.params == nil {
		e.params = NewParams()
	}
	return e.params
}

// SetParams replaces the parameter set. A nil argument resets to empty.
func (e *Event) SetParams(p *Params) {
	if p == nil {
		p = NewParams()
	}
	e.params = p
}

// Param returns a single parameter value.
func (e *Event) Param(key string) (any, bool) {
	return e.Params().Get(key)
}

// SetParam stores a single parameter value.
func (e *Event) SetParam(key string, value any) {
	e.Params().Set(key, value)
}

// HasParam reports whether a parameter is present.
func (e *Event) HasParam(key string) bool {
	return e.Params().Has(key)
}

// DeleteParam removes a parameter; absent keys are a no-op.
func (e *Event) DeleteParam(key string) {
	e.Params().Delete(key)
}

// ParamNames returns parameter keys in insertion order.
func (e *Event) ParamNames() []string {
	return e.Params().Names()
}

// StopPropagation sets or clears the cooperative stop flag. During one
// trigger call the flag is monotonic: once a listener sets it, no further
// listener in that call is invoked. The manager resets it at the start of
// every trigger.
func (e *Event) StopPropagation(stop bool) {
	e.stopped = stop
}

// IsPropagationStopped reports whether a listener has halted dispatch.
func (e *Event) IsPropagationStopped() bool {
	return e.stopped
}

// Clone returns an independent copy with a fresh ID and timestamp, copied
// parameters and a cleared stop flag. The basic-event prototype is cloned
// this way for every name-only trigger.
func (e *Event) Clone() *Event {
	out := NewEvent(e.name)
	out.target = e.target
	if e.params != nil {
		out.params = e.params.Clone()
	}
	return out
}
