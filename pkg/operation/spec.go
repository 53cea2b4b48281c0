// Package operation holds the request pipeline shared by every API call:
// validate the caller's parameters, build a transport-ready request
// descriptor, and hand it to an injected Executor.
package operation

// Location says where a parameter ends up in the outgoing request.
type Location int

const (
	InPath Location = iota
	InQuery
	InBody
)

func (l Location) String() string {
	switch l {
	case InPath:
		return "path"
	case InQuery:
		return "query"
	case InBody:
		return "body"
	default:
		return "unknown"
	}
}

// Param declares one named input of an operation.
type Param struct {
	Name     string // key in the Bag, e.g. "secretType"
	Wire     string // placeholder, query key or body field, e.g. "secret_type"; defaults to Name
	In       Location
	Required bool
}

// WireName returns the name used on the wire.
func (p Param) WireName() string {
	if p.Wire != "" {
		return p.Wire
	}
	return p.Name
}

// BodyMode controls how body parameters are assembled.
type BodyMode int

const (
	// NoBody sends no request body.
	NoBody BodyMode = iota
	// BodyPassThrough sends the single InBody parameter value as-is.
	BodyPassThrough
	// BodyFields sends an object built from the present InBody parameters.
	BodyFields
)

// MediaJSON is the media type used by every JSON operation.
const MediaJSON = "application/json"

// Spec is the static description of one REST operation. Specs are
// package-level values and must not be modified after init.
type Spec struct {
	ID          string
	Method      string
	Path        string
	Params      []Param
	Body        BodyMode
	Accept      string
	ContentType string
}

// Required returns the names of required parameters in declaration order.
func (s Spec) Required() []string {
	var names []string
	for _, p := range s.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Param looks up a declared parameter by bag name.
func (s Spec) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Mutating reports whether the operation changes server state.
func (s Spec) Mutating() bool {
	switch s.Method {
	case "GET", "HEAD", "OPTIONS":
		return false
	default:
		return true
	}
}

// defaultHeaders returns the content-negotiation headers declared by the operation.
func (s Spec) defaultHeaders() map[string]string {
	h := make(map[string]string, 2)
	if s.Accept != "" {
		h["Accept"] = s.Accept
	}
	if s.ContentType != "" {
		h["Content-Type"] = s.ContentType
	}
	return h
}
