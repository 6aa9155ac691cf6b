package transport

import (
	"fmt"
	"net/url"
)

// Endpoint describes one backend route. Path may contain fmt verbs filled by With.
type Endpoint struct {
	Method string
	Path   string
	Auth   bool

	route string
}

// With fills the path template. String arguments are path-escaped.
func (e Endpoint) With(args ...any) Endpoint {
	escaped := make([]any, len(args))
	for i, a := range args {
		if s, ok := a.(string); ok {
			escaped[i] = url.PathEscape(s)
			continue
		}
		escaped[i] = a
	}
	out := e
	out.route = e.Route()
	out.Path = fmt.Sprintf(e.Path, escaped...)
	return out
}

// WithQuery appends non-empty query parameters.
func (e Endpoint) WithQuery(q url.Values) Endpoint {
	if len(q) == 0 {
		return e
	}
	out := e
	out.route = e.Route()
	out.Path = e.Path + "?" + q.Encode()
	return out
}

// Route is the unfilled template, used as a metrics label.
func (e Endpoint) Route() string {
	if e.route != "" {
		return e.route
	}
	return e.Path
}

func (e Endpoint) String() string {
	return e.Method + " " + e.Path
}
