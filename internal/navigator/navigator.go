// Package navigator owns the dashboard's current route and the view mounted
// for it. Components that need to change route receive the Navigator
// interface rather than reaching for the Router directly.
package navigator

import (
	"context"
	"log"
	"sync"

	"ledgerdash.mini/ldm/internal/metrics"
)

// Route is a client-side path. The set is fixed.
type Route string

const (
	RouteHome    Route = "/"
	RouteChain   Route = "/blockchain"
	RouteCompose Route = "/transact"
	RoutePool    Route = "/transactions-pool"
)

// Routes lists every known route in menu order.
var Routes = []Route{RouteHome, RouteChain, RouteCompose, RoutePool}

// Valid reports whether r is one of the fixed routes.
func (r Route) Valid() bool {
	for _, known := range Routes {
		if r == known {
			return true
		}
	}
	return false
}

// Navigator lets a component request a route change.
type Navigator interface {
	Push(route Route)
	CurrentRoute() Route
}

// View is anything the Router can mount for a route.
type View interface {
	Mount(ctx context.Context)
	Unmount()
}

// Factory builds a fresh view instance for one mount.
type Factory func(nav Navigator) View

// Router implements Navigator. Pushing a new route unmounts the active view
// and mounts a new instance for the destination.
type Router struct {
	mu        sync.Mutex
	ctx       context.Context
	current   Route
	active    View
	factories map[Route]Factory
}

// NewRouter creates a router with no active route. ctx bounds every view it
// mounts.
func NewRouter(ctx context.Context, factories map[Route]Factory) *Router {
	return &Router{
		ctx:       ctx,
		factories: factories,
	}
}

// Push switches to route. Pushing the current route does nothing.
func (r *Router) Push(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !route.Valid() {
		log.Printf("navigator: ignoring push to unknown route %q", route)
		return
	}
	if route == r.current && r.active != nil {
		return
	}

	factory, ok := r.factories[route]
	if !ok {
		log.Printf("navigator: no view registered for %q", route)
		return
	}

	if r.active != nil {
		r.active.Unmount()
	}
	r.current = route
	r.active = factory(r)
	r.active.Mount(r.ctx)
	metrics.RecordNavigation(string(route))
}

// CurrentRoute returns the route most recently pushed.
func (r *Router) CurrentRoute() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Active returns the mounted view and its route.
func (r *Router) Active() (Route, View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.active
}

// Close unmounts the active view.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		r.active.Unmount()
		r.active = nil
	}
}
