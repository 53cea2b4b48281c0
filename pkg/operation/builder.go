package operation

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// RequestDescriptor is a fully resolved request, ready for an Executor.
// The builder allocates fresh maps on every call; executors must treat the
// descriptor as read-only.
type RequestDescriptor struct {
	OperationID string
	Method      string
	URL         string            // path relative to the service URL, placeholders resolved
	Query       map[string]string // nil when the operation sends no query parameters
	Body        any               // nil for bodyless operations
	Headers     map[string]string
}

// Builder turns a Spec and a Bag into a RequestDescriptor. The zero value
// builds requests without SDK diagnostic headers.
type Builder struct {
	Service   string // e.g. "secrets_manager"
	Version   string // e.g. "V1"
	UserAgent string
}

// Build is Builder{}.Build.
func Build(spec Spec, bag Bag) RequestDescriptor {
	return Builder{}.Build(spec, bag)
}

// Build resolves spec against bag. The bag must already have passed Check;
// an unresolvable path placeholder means the Spec table itself is wrong and
// Build panics.
func (b Builder) Build(spec Spec, bag Bag) RequestDescriptor {
	return RequestDescriptor{
		OperationID: spec.ID,
		Method:      spec.Method,
		URL:         resolvePath(spec, bag),
		Query:       buildQuery(spec, bag),
		Body:        buildBody(spec, bag),
		Headers:     MergeHeaders(spec.defaultHeaders(), b.sdkHeaders(spec.ID), bag.Headers()),
	}
}

// sdkHeaders identifies the SDK and the operation to the server.
func (b Builder) sdkHeaders(operationID string) map[string]string {
	h := make(map[string]string, 2)
	if b.UserAgent != "" {
		h["User-Agent"] = b.UserAgent
	}
	if b.Service != "" {
		h["X-IBMCloud-SDK-Analytics"] = fmt.Sprintf("service_name=%s;service_version=%s;operation_id=%s",
			b.Service, b.Version, operationID)
	}
	return h
}

func resolvePath(spec Spec, bag Bag) string {
	byWire := make(map[string]Param)
	for _, p := range spec.Params {
		if p.In == InPath {
			byWire[p.WireName()] = p
		}
	}

	path := placeholderRe.ReplaceAllStringFunc(spec.Path, func(m string) string {
		wire := m[1 : len(m)-1]
		p, ok := byWire[wire]
		if !ok {
			panic(fmt.Sprintf("operation %s: placeholder {%s} has no path parameter", spec.ID, wire))
		}
		if !bag.present(p.Name) {
			panic(fmt.Sprintf("operation %s: path parameter %q has no value", spec.ID, p.Name))
		}
		return url.PathEscape(FormatValue(bag[p.Name]))
	})
	if strings.ContainsAny(path, "{}") {
		panic(fmt.Sprintf("operation %s: unresolved placeholder in %q", spec.ID, path))
	}
	return path
}

func buildQuery(spec Spec, bag Bag) map[string]string {
	var q map[string]string
	for _, p := range spec.Params {
		if p.In != InQuery || !bag.present(p.Name) {
			continue
		}
		if q == nil {
			q = make(map[string]string)
		}
		q[p.WireName()] = FormatValue(bag[p.Name])
	}
	return q
}

func buildBody(spec Spec, bag Bag) any {
	switch spec.Body {
	case BodyPassThrough:
		for _, p := range spec.Params {
			if p.In == InBody && bag.present(p.Name) {
				return bag[p.Name]
			}
		}
		return nil
	case BodyFields:
		body := make(map[string]any)
		for _, p := range spec.Params {
			if p.In == InBody && bag.present(p.Name) {
				body[p.WireName()] = bag[p.Name]
			}
		}
		return body
	default:
		return nil
	}
}

// FormatValue renders a path or query value. Slices are joined with commas.
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	case fmt.Stringer:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return FormatValue(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
