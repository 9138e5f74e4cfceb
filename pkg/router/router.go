// Package router wraps chi with named routes and guarded prefix groups.
//
//	api := r.Group("/api")
//	staff := api.Group("", middleware.RequireStaff).As("staff")
//	staff.Post("/products", "products.store", ctx.Wrap(pc.Store))
package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

type Middleware func(http.Handler) http.Handler

// RouteInfo describes one registered route. Access is the label of the group
// the route was mounted on ("public" when none was set).
type RouteInfo struct {
	Method string
	Path   string
	Name   string
	Access string
}

type Router struct {
	mux chi.Router

	mu    sync.RWMutex
	names map[string]string
	infos []RouteInfo
}

// Group mounts routes under a prefix behind a middleware stack.
type Group struct {
	router      *Router
	prefix      string
	access      string
	middlewares []Middleware
}

func New() *Router {
	return &Router{mux: chi.NewRouter(), names: make(map[string]string)}
}

func (r *Router) Handler() http.Handler { return r.mux }

// Use adds global middleware. It must be called before any route is added.
func (r *Router) Use(middlewares ...Middleware) {
	for _, mw := range middlewares {
		r.mux.Use(mw)
	}
}

func (r *Router) Group(prefix string, middlewares ...Middleware) *Group {
	return &Group{
		router:      r,
		prefix:      joinPath(prefix),
		access:      "public",
		middlewares: append([]Middleware(nil), middlewares...),
	}
}

// Handle mounts a plain http.Handler outside any group, e.g. /metrics.
func (r *Router) Handle(method, path, name string, handler http.Handler) {
	r.register(method, joinPath(path), name, "public", handler)
}

// NotFound sets the handler for unmatched paths.
func (r *Router) NotFound(h http.HandlerFunc) { r.mux.NotFound(h) }

// MethodNotAllowed sets the handler for known paths hit with the wrong verb.
func (r *Router) MethodNotAllowed(h http.HandlerFunc) { r.mux.MethodNotAllowed(h) }

// Routes lists every registered route sorted by path, then method.
func (r *Router) Routes() []RouteInfo {
	r.mu.RLock()
	out := append([]RouteInfo(nil), r.infos...)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// register panics on a reused route name; names are fixed at startup so this
// is a programming error.
func (r *Router) register(method, path, name, access string, h http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name != "" {
		if prev, dup := r.names[name]; dup {
			panic(fmt.Sprintf("router: route name %q used for %s and %s", name, prev, method+" "+path))
		}
		r.names[name] = method + " " + path
	}
	r.mux.Method(method, path, h)
	r.infos = append(r.infos, RouteInfo{Method: method, Path: path, Name: name, Access: access})
}

// Group nests a sub-group that inherits prefix, middleware and access label.
func (g *Group) Group(prefix string, middlewares ...Middleware) *Group {
	return &Group{
		router:      g.router,
		prefix:      joinPath(g.prefix, prefix),
		access:      g.access,
		middlewares: append(append([]Middleware(nil), g.middlewares...), middlewares...),
	}
}

// As labels the group's routes for route listings.
func (g *Group) As(access string) *Group {
	g.access = access
	return g
}

func (g *Group) Get(path, name string, handler http.HandlerFunc) {
	g.mount(http.MethodGet, path, name, handler)
}

func (g *Group) Post(path, name string, handler http.HandlerFunc) {
	g.mount(http.MethodPost, path, name, handler)
}

func (g *Group) Put(path, name string, handler http.HandlerFunc) {
	g.mount(http.MethodPut, path, name, handler)
}

func (g *Group) Delete(path, name string, handler http.HandlerFunc) {
	g.mount(http.MethodDelete, path, name, handler)
}

func (g *Group) mount(method, path, name string, handler http.Handler) {
	h := handler
	for i := len(g.middlewares) - 1; i >= 0; i-- {
		h = g.middlewares[i](h)
	}
	g.router.register(method, joinPath(g.prefix, path), name, g.access, h)
}

func joinPath(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.Trim(part, "/"); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return "/" + strings.Join(segments, "/")
}
