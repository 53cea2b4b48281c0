package operation

import (
	"fmt"
	"reflect"
)

// HeadersKey is the reserved Bag key carrying caller header overrides.
const HeadersKey = "headers"

// Bag is the per-call parameter map. Keys are parameter names as declared
// in Spec.Params, plus the optional HeadersKey.
type Bag map[string]any

// Headers returns the caller's header overrides. Both map[string]string and
// the map[string]any shape produced by JSON decoding are accepted.
func (b Bag) Headers() map[string]string {
	switch h := b[HeadersKey].(type) {
	case map[string]string:
		return h
	case map[string]any:
		out := make(map[string]string, len(h))
		for k, v := range h {
			if v == nil {
				continue
			}
			out[k] = fmt.Sprint(v)
		}
		return out
	default:
		return nil
	}
}

// WithHeaders sets the header overrides and returns the bag.
func (b Bag) WithHeaders(h map[string]string) Bag {
	if len(h) > 0 {
		b[HeadersKey] = h
	}
	return b
}

// present reports whether the bag holds a usable value for name.
func (b Bag) present(name string) bool {
	v, ok := b[name]
	return ok && !isAbsent(v)
}

// isAbsent treats nil, typed nil references and empty strings as missing.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
