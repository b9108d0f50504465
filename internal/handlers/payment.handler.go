package handlers

import (
	"context"

	"github.com/nimasrn/hacienda/internal/model"
	xhttp "github.com/nimasrn/hacienda/pkg/http"
)

type PaymentService interface {
	List(ctx context.Context) ([]*model.Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Payment, error)
	Create(ctx context.Context, req model.PaymentCreateRequest, key string) (*model.Payment, bool, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func RegisterPaymentRoutes(g *xhttp.Group, h *PaymentHandler) {
	g.GET("/payments", h.ListPayments)
	g.GET("/payments/user/{userId}", h.ListPaymentsByUser)
	g.POST("/payments", h.CreatePayment)
}

func (h *PaymentHandler) ListPayments(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx)
	if err != nil {
		writeError(ctx, err, "Error al obtener pagos")
		return
	}
	writeList(ctx, items)
}

func (h *PaymentHandler) ListPaymentsByUser(ctx *xhttp.RequestCtx) {
	userID, ok := pathInt64(ctx, "userId")
	if !ok {
		return
	}
	items, err := h.svc.ListByUser(ctx, userID)
	if err != nil {
		writeError(ctx, err, "Error al obtener pagos del usuario")
		return
	}
	writeList(ctx, items)
}

// CreatePayment honours an Idempotency-Key header. A replayed key answers 200
// with the id of the first payment.
func (h *PaymentHandler) CreatePayment(ctx *xhttp.RequestCtx) {
	var req model.PaymentCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadJSON(ctx, err)
		return
	}
	key := string(ctx.Request.Header.Peek(HeaderIdempotencyKey))
	p, replayed, err := h.svc.Create(ctx, req, key)
	if err != nil {
		writeError(ctx, err, "Error al registrar pago")
		return
	}
	if replayed {
		env := model.OK(model.CreatedID{ID: p.ID})
		env.Message = "Pago ya registrado"
		writeJSON(ctx, xhttp.StatusOK, env)
		return
	}
	writeCreated(ctx, p.ID, "Pago registrado exitosamente")
}
