package xhttp

import (
	"github.com/fasthttp/router"
)

type Router = router.Router
type Group = router.Group

// NewRouter returns a new Router
func NewRouter() *Router {
	return router.New()
}

// CreateDefaultRouter returns a router with fixed path redirects and matched route
// paths saved on the request (the metrics middleware labels by them).
// notFound replaces both the 404 and the 405 handlers, nil keeps NotFoundHandler.
func CreateDefaultRouter(notFound RequestHandler) *Router {
	if notFound == nil {
		notFound = NotFoundHandler
	}
	r := NewRouter()
	r.RedirectFixedPath = true
	r.RedirectTrailingSlash = true
	r.SaveMatchedRoutePath = true
	r.NotFound = notFound
	r.MethodNotAllowed = notFound
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = true
	return r
}

// NotFoundHandler is the default 404 handler
func NotFoundHandler(ctx *RequestCtx) {
	ctx.Error(StatusText(StatusNotFound), StatusNotFound)
}

// MatchedRoute returns the route pattern that served the request, "unmatched" otherwise.
func MatchedRoute(ctx *RequestCtx) string {
	if v, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && v != "" {
		return v
	}
	return "unmatched"
}
