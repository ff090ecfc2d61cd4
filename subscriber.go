package emitter

// Binding declares one event-to-method mapping in a subscriber. The zero
// Priority is PriorityNormal, so a bare method name needs no explicit
// priority.
type Binding struct {
	// Method is the name of the subscriber method to invoke. Lookup uses
	// the exported form of the name.
	Method string

	// Priority orders the binding within the event's queue.
	Priority Priority
}

// On builds a binding at normal priority.
func On(method string) Binding {
	return Binding{Method: method}
}

// OnWithPriority builds a binding at an explicit priority.
func OnWithPriority(method string, priority Priority) Binding {
	return Binding{Method: method, Priority: priority}
}

// Subscriber declares multiple event bindings in one registration. The
// manager expands the declaration into one lazy (subscriber, method)
// listener per event, all flowing through the normal queue path.
type Subscriber interface {
	// SubscribedEvents maps event names to the bindings that should
	// receive them.
	SubscribedEvents() map[string]Binding
}
