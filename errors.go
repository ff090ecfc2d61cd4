package emitter

import "errors"

// Sentinel errors for the dispatcher.
var (
	// ErrEmptyName is returned when a trigger resolves to an empty event name.
	ErrEmptyName = errors.New("event name is empty")

	// ErrInvalidTrigger is returned when Trigger is given something that is
	// neither an event name nor an *Event.
	ErrInvalidTrigger = errors.New("trigger expects an event name or *Event")

	// ErrNilEvent is returned when TriggerEvent is given a nil event.
	ErrNilEvent = errors.New("event is nil")

	// ErrNilFactory is returned when a Lazy is built without a factory or target.
	ErrNilFactory = errors.New("lazy listener has no factory")
)

// LazyError wraps a failure to materialize a lazy listener with the event
// name that was being dispatched.
type LazyError struct {
	// EventName is the event whose dispatch required the materialization.
	EventName string

	// Err is the underlying factory error.
	Err error
}

// Error implements the error interface.
func (e *LazyError) Error() string {
	return "resolving lazy listener for event " + e.EventName + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *LazyError) Unwrap() error {
	return e.Err
}
