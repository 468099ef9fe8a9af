package trellis

// RouteDef declares one route for table-driven registration. A zero Method
// means ALL.
type RouteDef struct {
	Method  Verb
	Path    string
	Handler Handler
}

// Routable is implemented by types that declare their routes as an ordered
// table. Table order is registration order, so it is also match precedence.
type Routable interface {
	Routes() []RouteDef
}

// BuildRouter assembles a router from r's declared routes.
func BuildRouter(r Routable) *Router {
	return ApplyRoutes(NewRouter(), r.Routes())
}

// ApplyRoutes registers defs on router in order and returns router.
func ApplyRoutes(router *Router, defs []RouteDef) *Router {
	for _, def := range defs {
		mask := def.Method
		if mask == 0 {
			mask = ALL
		}
		router.Register(mask, Compile(def.Path), def.Handler)
	}
	return router
}
