package emitter

import "sort"

// Params is a mutable string-to-value mapping that preserves insertion
// order. Listeners read and mutate it during dispatch; iteration and JSON
// encoding always follow the order in which keys were first set.
//
// Params is not safe for concurrent mutation. Dispatch is synchronous and
// single-threaded per trigger call, so no locking is needed on the hot path.
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams creates an empty parameter set.
func NewParams() *Params {
	return &Params{values: make(map[string]any)}
}

// ParamsFromMap builds a parameter set from a plain map. Go maps have no
// iteration order, so keys are inserted in sorted order for determinism.
func ParamsFromMap(m map[string]any) *Params {
	p := NewParams()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.Set(k, m[k])
	}
	return p
}

// Set stores a value under key. A new key is appended to the iteration
// order; an existing key keeps its original position.
func (p *Params) Set(key string, value any) *Params {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get returns the value stored under key.
func (p *Params) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Delete removes key and its position in the iteration order.
// Deleting an absent key is a no-op.
func (p *Params) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of stored keys.
func (p *Params) Len() int {
	return len(p.keys)
}

// Names returns the keys in insertion order. The slice is a copy.
func (p *Params) Names() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Each calls fn for every key/value pair in insertion order.
// Iteration stops early when fn returns false.
func (p *Params) Each(fn func(key string, value any) bool) {
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// Clone returns a shallow copy: keys and order are independent, values are
// shared.
func (p *Params) Clone() *Params {
	out := NewParams()
	for _, k := range p.keys {
		out.Set(k, p.values[k])
	}
	return out
}

// Map returns the contents as a plain map. Order is lost; the map is a copy.
func (p *Params) Map() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}
