package operation

import (
	"net/http"
	"sort"
)

// MergeHeaders combines header layers in increasing precedence. A key in a
// later layer replaces the same header name from an earlier one; names are
// compared as HTTP does, ignoring case, and the later spelling is kept.
// Inputs are never modified.
func MergeHeaders(layers ...map[string]string) map[string]string {
	n := 0
	for _, l := range layers {
		n += len(l)
	}
	out := make(map[string]string, n)
	names := make(map[string]string, n) // canonical name -> key held in out
	for _, l := range layers {
		keys := make([]string, 0, len(l))
		for k := range l {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			canon := http.CanonicalHeaderKey(k)
			if prev, ok := names[canon]; ok && prev != k {
				delete(out, prev)
			}
			names[canon] = k
			out[k] = l[k]
		}
	}
	return out
}

// HeaderValue looks name up in h ignoring case.
func HeaderValue(h map[string]string, name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	canon := http.CanonicalHeaderKey(name)
	for k, v := range h {
		if http.CanonicalHeaderKey(k) == canon {
			return v
		}
	}
	return ""
}
