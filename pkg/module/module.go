// Package module mounts prefixed HTTP modules, each with its own inner mux
// and middleware stack, alongside natively registered handlers.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/assay/pkg/middleware"
)

// Module serves every request under a single-segment prefix by stripping the
// prefix and delegating to an inner handler wrapped in the module's middleware.
type Module struct {
	prefix string
	router http.Handler
	stack  middleware.Stack
}

// New creates a Module for prefix (e.g. "/api"). The prefix must start with
// a slash and contain no further segments.
func New(prefix string, router http.Handler) (*Module, error) {
	if prefix == "" || !strings.HasPrefix(prefix, "/") || strings.Count(prefix, "/") != 1 {
		return nil, fmt.Errorf("module prefix must be a single /segment: %q", prefix)
	}
	return &Module{prefix: prefix, router: router}, nil
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use adds middleware to the module's stack.
func (m *Module) Use(mw middleware.Middleware) {
	m.stack.Use(mw)
}

// Handler returns the inner router wrapped with the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.stack.Apply(m.router)
}

// Serve dispatches req to the inner router with the prefix removed from its path.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	inner := req.Clone(req.Context())
	inner.URL.Path = strings.TrimPrefix(req.URL.Path, m.prefix)
	if inner.URL.Path == "" {
		inner.URL.Path = "/"
	}
	inner.URL.RawPath = ""
	m.Handler().ServeHTTP(w, inner)
}
