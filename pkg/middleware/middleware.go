// Package middleware provides the HTTP middleware applied to API modules:
// CORS, request logging, and request metrics.
package middleware

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Stack is an ordered list of middleware. The first entry added is the
// outermost wrapper.
type Stack []Middleware

// Use appends mw to the stack.
func (s *Stack) Use(mw Middleware) {
	*s = append(*s, mw)
}

// Apply wraps handler with every middleware in the stack.
func (s Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s) - 1; i >= 0; i-- {
		handler = s[i](handler)
	}
	return handler
}
