package emitter

import (
	"context"
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/emitter/topic"
)

// Handler is the single-capability listener interface. A value implementing
// Handler is always invoked through Handle, ahead of every other shape.
type Handler interface {
	Handle(ctx context.Context, e *Event) error
}

// ListenerFunc adapts a plain function to the Handler interface.
type ListenerFunc func(ctx context.Context, e *Event) error

// Handle implements Handler.
func (f ListenerFunc) Handle(ctx context.Context, e *Event) error {
	return f(ctx, e)
}

// Callable is the generic invocation capability, consulted after Handle
// and method lookup have both missed.
type Callable interface {
	Call(ctx context.Context, e *Event) error
}

// invoke resolves a listener's shape and calls it with the event. Shapes
// are probed in fixed precedence:
//
//  1. Lazy listeners materialize their target first, then re-resolve.
//  2. Handler.Handle.
//  3. An exported method named after the dispatch method hint.
//  4. For flat event names, an exported method named after the event.
//  5. Callable.Call.
//  6. Plain functions (func(ctx, *Event) error, func(*Event) error,
//     func(*Event)).
//
// A listener matching none of these is skipped silently, so heterogeneous
// shapes can share one queue.
func invoke(ctx context.Context, listener any, e *Event, hint string) error {
	if listener == nil {
		return nil
	}

	if lz, ok := listener.(*Lazy); ok {
		target, err := lz.Materialize()
		if err != nil {
			return &LazyError{EventName: e.Name(), Err: err}
		}
		if lz.method != "" {
			if fn, ok := methodOf(target, lz.method); ok {
				return fn(ctx, e)
			}
			return nil
		}
		return invoke(ctx, target, e, hint)
	}

	if h, ok := listener.(Handler); ok {
		return h.Handle(ctx, e)
	}

	if hint != "" {
		if fn, ok := methodOf(listener, hint); ok {
			return fn(ctx, e)
		}
	}

	if topic.IsFlat(e.Name()) {
		if fn, ok := methodOf(listener, e.Name()); ok {
			return fn(ctx, e)
		}
	}

	if c, ok := listener.(Callable); ok {
		return c.Call(ctx, e)
	}

	if fn, ok := asFunc(listener); ok {
		return fn(ctx, e)
	}

	return nil
}

// methodOf looks up an exported method on the listener whose name is the
// exported form of name (first rune upper-cased, since only exported
// methods are reachable) and whose signature is an accepted listener
// shape. The method is returned normalized to the full signature.
func methodOf(listener any, name string) (ListenerFunc, bool) {
	if listener == nil || name == "" {
		return nil, false
	}
	v := reflect.ValueOf(listener)
	m := v.MethodByName(exportName(name))
	if !m.IsValid() {
		return nil, false
	}
	return asFunc(m.Interface())
}

// asFunc normalizes the accepted plain-function shapes to ListenerFunc.
func asFunc(v any) (ListenerFunc, bool) {
	switch fn := v.(type) {
	case ListenerFunc:
		return fn, true
	case func(ctx context.Context, e *Event) error:
		return fn, true
	case func(e *Event) error:
		return func(_ context.Context, e *Event) error { return fn(e) }, true
	case func(e *Event):
		return func(_ context.Context, e *Event) error { fn(e); return nil }, true
	}
	return nil, false
}

// exportName upper-cases the first rune so a lower-case dispatch hint
// ("start") reaches the exported method ("Start"). An already exported
// name passes through unchanged.
func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
