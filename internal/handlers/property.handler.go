package handlers

import (
	"context"

	"github.com/nimasrn/hacienda/internal/model"
	xhttp "github.com/nimasrn/hacienda/pkg/http"
)

type PropertyService interface {
	List(ctx context.Context) ([]*model.Property, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Property, error)
	Create(ctx context.Context, req model.PropertyCreateRequest) (*model.Property, error)
}

type PropertyHandler struct {
	svc PropertyService
}

func NewPropertyHandler(svc PropertyService) *PropertyHandler {
	return &PropertyHandler{svc: svc}
}

func RegisterPropertyRoutes(g *xhttp.Group, h *PropertyHandler) {
	g.GET("/properties", h.ListProperties)
	g.GET("/properties/user/{userId}", h.ListPropertiesByUser)
	g.POST("/properties", h.CreateProperty)
}

func (h *PropertyHandler) ListProperties(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx)
	if err != nil {
		writeError(ctx, err, "Error al obtener propiedades")
		return
	}
	writeList(ctx, items)
}

func (h *PropertyHandler) ListPropertiesByUser(ctx *xhttp.RequestCtx) {
	userID, ok := pathInt64(ctx, "userId")
	if !ok {
		return
	}
	items, err := h.svc.ListByUser(ctx, userID)
	if err != nil {
		writeError(ctx, err, "Error al obtener propiedades del usuario")
		return
	}
	writeList(ctx, items)
}

func (h *PropertyHandler) CreateProperty(ctx *xhttp.RequestCtx) {
	var req model.PropertyCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadJSON(ctx, err)
		return
	}
	p, err := h.svc.Create(ctx, req)
	if err != nil {
		writeError(ctx, err, "Error al crear propiedad")
		return
	}
	writeCreated(ctx, p.ID, "Propiedad creada exitosamente")
}
