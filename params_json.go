package emitter

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidJSON is returned when ParamsFromJSON is given malformed input
// or a document whose top level is not an object.
var ErrInvalidJSON = errors.New("params JSON must be a valid object")

// ParamsFromJSON decodes a JSON object into a parameter set. gjson walks
// the object in document order, so the resulting Params iterate in the
// same order the keys appear in the source document.
func ParamsFromJSON(data []byte) (*Params, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, ErrInvalidJSON
	}

	p := NewParams()
	doc.ForEach(func(key, value gjson.Result) bool {
		p.Set(key.String(), value.Value())
		return true
	})
	return p, nil
}

// MarshalJSON encodes the parameter set as a JSON object whose keys appear
// in insertion order. Keys are set one at a time through sjson so the
// builder controls ordering.
func (p *Params) MarshalJSON() ([]byte, error) {
	out := []byte("{}")
	var err error
	p.Each(func(key string, value any) bool {
		out, err = sjson.SetBytes(out, escapePath(key), value)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// escapePath protects sjson path metacharacters in a literal key.
func escapePath(key string) string {
	if !strings.ContainsAny(key, ".*?|#@\\") {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
