// Package router mounts the API route table on a gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Guard builds the middleware that enforces a capability on one route
type Guard func(capability string) gin.HandlerFunc

// RouteRegistrar mounts a set of routes under the versioned API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup, guard Guard)
}

// Router collects registrars and API-wide middleware until Setup mounts them
// under /api/<version>. Root routes such as /health stay outside.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	guard      Guard
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" path segment
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// WithGuard enforces route capabilities. Without it capabilities are only
// recorded.
func WithGuard(guard Guard) RouterOption {
	return func(r *Router) { r.guard = guard }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware that runs on API routes only, before any guard
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts everything registered so far. Call it once.
func (r *Router) Setup() {
	api := r.engine.Group("/api/"+r.apiVersion, r.middleware...)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api, r.guard)
	}
}

// Route describes one endpoint of a DomainGroup
type Route struct {
	Method     string
	Path       string
	Capability string
}

type boundRoute struct {
	Route
	handlers []gin.HandlerFunc
}

// DomainGroup collects the routes of one domain under a common prefix.
// Every route names the capability a caller needs; an empty capability
// means any authenticated caller.
type DomainGroup struct {
	name       string
	prefix     string
	routes     []boundRoute
	middleware []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to every route of the group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) add(method, path, capability string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, boundRoute{
		Route:    Route{Method: method, Path: path, Capability: capability},
		handlers: handlers,
	})
	return dg
}

func (dg *DomainGroup) GET(path, capability string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodGet, path, capability, handlers)
}

func (dg *DomainGroup) POST(path, capability string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPost, path, capability, handlers)
}

func (dg *DomainGroup) PUT(path, capability string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPut, path, capability, handlers)
}

func (dg *DomainGroup) DELETE(path, capability string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodDelete, path, capability, handlers)
}

// RegisterRoutes mounts the group. The capability guard, when present, runs
// after the group middleware and before the handlers.
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup, guard Guard) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, rt := range dg.routes {
		chain := rt.handlers
		if guard != nil && rt.Capability != "" {
			chain = append([]gin.HandlerFunc{guard(rt.Capability)}, chain...)
		}
		group.Handle(rt.Method, rt.Path, chain...)
	}
}

// Routes lists the endpoints with the group prefix applied
func (dg *DomainGroup) Routes() []Route {
	out := make([]Route, len(dg.routes))
	for i, rt := range dg.routes {
		out[i] = rt.Route
		out[i].Path = joinPath(dg.prefix, rt.Path)
	}
	return out
}

func (dg *DomainGroup) Name() string   { return dg.name }
func (dg *DomainGroup) Prefix() string { return dg.prefix }

func joinPath(prefix, path string) string {
	switch {
	case path == "" || path == "/":
		return prefix
	case prefix == "" || prefix == "/":
		return path
	}
	return prefix + path
}
