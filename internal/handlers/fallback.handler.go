package handlers

import (
	"fmt"

	xhttp "github.com/nimasrn/hacienda/pkg/http"
)

var availableEndpoints = []string{
	"GET /",
	"GET /health",
	"GET /api/users",
	"GET /api/users/:id",
	"POST /api/users",
	"POST /api/auth/login",
	"GET /api/properties",
	"GET /api/properties/user/:userId",
	"POST /api/properties",
	"GET /api/transactions",
	"GET /api/transactions/user/:userId",
	"POST /api/transactions",
	"GET /api/payments",
	"GET /api/payments/user/:userId",
	"POST /api/payments",
	"GET /api/stats",
	"GET /api/export/all",
}

type notFoundResponse struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message"`
	AvailableEndpoints []string `json:"availableEndpoints"`
}

func NotFound(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, xhttp.StatusNotFound, notFoundResponse{
		Success:            false,
		Message:            "Endpoint no encontrado",
		AvailableEndpoints: availableEndpoints,
	})
}

// Panic is the xhttp.PanicHandler of the api.
func Panic(ctx *xhttp.RequestCtx, recovered any) {
	writeFailure(ctx, xhttp.StatusInternalServerError, "Error interno del servidor", internalDetail(fmt.Errorf("%v", recovered)))
}
