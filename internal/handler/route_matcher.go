package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

// Templates for requests that don't map to a route
const (
	UnknownRoute     = "unknown"
	MethodNotAllowed = "method not allowed"
)

// Route identifies the route a request was matched to, keeping metric and span cardinality bounded
type Route struct {
	Method   string
	Template string
}

func (r Route) String() string {
	return r.Method + " " + r.Template
}

// RouteMatcher matches a request to its route
type RouteMatcher interface {
	Match(r *http.Request) Route
}

// MuxRouteMatcher matches routes for a mux router
type MuxRouteMatcher struct {
	Router *mux.Router
}

// Match names a request by its route name, or its path template when the route has no name
func (m *MuxRouteMatcher) Match(r *http.Request) Route {
	route := Route{Method: r.Method, Template: UnknownRoute}

	var match mux.RouteMatch
	// Route is nil on a NotFoundHandler match
	if !m.Router.Match(r, &match) || match.Route == nil {
		if errors.Is(match.MatchErr, mux.ErrMethodMismatch) {
			route.Template = MethodNotAllowed
		}

		return route
	}

	if name := match.Route.GetName(); name != "" {
		route.Template = name
	} else if tmpl, err := match.Route.GetPathTemplate(); err == nil {
		route.Template = tmpl
	}

	return route
}
