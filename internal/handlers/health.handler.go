package handlers

import (
	"context"

	xhttp "github.com/nimasrn/hacienda/pkg/http"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      HealthChecker
	version string
}

func NewHealthHandler(db HealthChecker, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// RegisterHealthRoutes mounts the welcome document and the health check on the
// root router, outside /api.
func RegisterHealthRoutes(r *xhttp.Router, h *HealthHandler) {
	r.GET("/", h.Welcome)
	r.GET("/api", h.Welcome)
	r.GET("/health", h.GetHealth)
}

type welcome struct {
	Message       string            `json:"message"`
	Version       string            `json:"version"`
	Endpoints     map[string]string `json:"endpoints"`
	Documentation string            `json:"documentation"`
}

func (h *HealthHandler) Welcome(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, xhttp.StatusOK, welcome{
		Message: "API REST de Hacienda",
		Version: h.version,
		Endpoints: map[string]string{
			"users":        "/api/users",
			"properties":   "/api/properties",
			"transactions": "/api/transactions",
			"payments":     "/api/payments",
			"stats":        "/api/stats",
			"export":       "/api/export/all",
			"login":        "/api/auth/login",
		},
		Documentation: "Usa Postman para probar los endpoints",
	})
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			writeFailure(ctx, xhttp.StatusServiceUnavailable, "Base de datos no disponible", internalDetail(err))
			return
		}
	}
	ctx.Response.SetBodyString("success")
}
