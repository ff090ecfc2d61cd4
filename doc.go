// Package emitter provides an in-process, synchronous event dispatcher.
//
// Components register interest in named events with a priority, producers
// trigger events by name or by Event value, and registered listeners run
// on the calling goroutine in descending-priority order. There is no
// queueing, no transport and no retry: the dispatcher is an intra-process
// surface, and a failing listener surfaces its error to the trigger
// caller.
//
// # Event Names
//
// Names are hierarchical with dot notation ("user.created", "app.start").
// Triggering a hierarchical name fans out through a fixed phase order:
//
//	app.start      - the exact queue
//	(parent)       - the parent manager's exact queue, if a parent is set
//	app            - the prefix queue, with method hint "start"
//	app.*          - the prefix group wildcard, with method hint "start"
//	*              - the global wildcard
//
// The stop flag is checked before every listener invocation, so a
// listener that calls Event.StopPropagation halts both the rest of its
// queue and all later phases for that trigger.
//
// # Listener Shapes
//
// A queue holds heterogeneous listener shapes behind one resolution
// order: the Handler interface, an exported method named after the
// dispatch hint or flat event name, the Callable interface, and plain
// functions. Values matching no shape are skipped silently. Lazy defers
// listener construction until the first event, and Subscriber declares
// several event-to-method bindings in one registration.
//
// # Basic Usage
//
//	m := emitter.NewManager()
//	m.Attach("user.created", func(e *emitter.Event) {
//		id, _ := e.Param("id")
//		fmt.Println("created", id)
//	}, emitter.PriorityNormal)
//
//	evt, err := m.Trigger(ctx, "user.created", nil,
//		emitter.NewParams().Set("id", 1))
//
// # Concurrency
//
// The registry is guarded by a read-write lock. The intended pattern is
// single-writer registration at startup followed by many concurrent
// trigger calls; individual Event values must not be shared between
// concurrent triggers.
//
// # Subpackages
//
//   - topic: event-name helpers and wildcard conventions
//   - config: declarative event templates and priorities from TOML/YAML
//   - script: Lua-scripted listeners
package emitter
