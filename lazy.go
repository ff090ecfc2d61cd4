package emitter

import "sync"

// Lazy defers construction of a listener until an event actually arrives.
// It wraps either a factory function or an existing target paired with a
// method name (the shape subscriber expansion produces). By default the
// factory result is cached after the first materialization; EachCall mode
// re-runs the factory on every invocation.
type Lazy struct {
	target  any
	method  string
	factory func() (any, error)
	each    bool

	mu       sync.Mutex
	resolved any
	done     bool
}

// LazyOption configures a Lazy listener.
type LazyOption func(*Lazy)

// EachCall makes the factory run on every invocation instead of caching
// the first result.
func EachCall() LazyOption {
	return func(l *Lazy) {
		l.each = true
	}
}

// NewLazy wraps a factory. The factory runs on first invocation; its
// result becomes the listener resolved through the normal shape rules.
func NewLazy(factory func() (any, error), opts ...LazyOption) *Lazy {
	l := &Lazy{factory: factory}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewLazyMethod binds an existing target to one of its methods. Dispatch
// calls that method regardless of any method hint. Subscriber expansion
// registers one of these per declared binding.
func NewLazyMethod(target any, method string) *Lazy {
	return &Lazy{target: target, method: method}
}

// Method returns the bound method name, or "" for factory-based wrappers.
func (l *Lazy) Method() string {
	return l.method
}

// Materialize produces the concrete listener target. Factory errors
// surface to the trigger caller; a cached result is reused unless EachCall
// was set.
func (l *Lazy) Materialize() (any, error) {
	if l.target != nil {
		return l.target, nil
	}
	if l.factory == nil {
		return nil, ErrNilFactory
	}
	if l.each {
		return l.factory()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return l.resolved, nil
	}
	resolved, err := l.factory()
	if err != nil {
		return nil, err
	}
	l.resolved = resolved
	l.done = true
	return resolved, nil
}
