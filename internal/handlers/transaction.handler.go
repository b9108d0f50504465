package handlers

import (
	"context"

	"github.com/nimasrn/hacienda/internal/model"
	xhttp "github.com/nimasrn/hacienda/pkg/http"
)

type TransactionService interface {
	List(ctx context.Context) ([]*model.Transaction, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Transaction, error)
	Create(ctx context.Context, req model.TransactionCreateRequest) (*model.Transaction, error)
}

type TransactionHandler struct {
	svc TransactionService
}

func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

func RegisterTransactionRoutes(g *xhttp.Group, h *TransactionHandler) {
	g.GET("/transactions", h.ListTransactions)
	g.GET("/transactions/user/{userId}", h.ListTransactionsByUser)
	g.POST("/transactions", h.CreateTransaction)
}

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx)
	if err != nil {
		writeError(ctx, err, "Error al obtener transacciones")
		return
	}
	writeList(ctx, items)
}

func (h *TransactionHandler) ListTransactionsByUser(ctx *xhttp.RequestCtx) {
	userID, ok := pathInt64(ctx, "userId")
	if !ok {
		return
	}
	items, err := h.svc.ListByUser(ctx, userID)
	if err != nil {
		writeError(ctx, err, "Error al obtener transacciones del usuario")
		return
	}
	writeList(ctx, items)
}

func (h *TransactionHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	var req model.TransactionCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadJSON(ctx, err)
		return
	}
	txn, err := h.svc.Create(ctx, req)
	if err != nil {
		writeError(ctx, err, "Error al crear transacción")
		return
	}
	writeCreated(ctx, txn.ID, "Transacción creada exitosamente")
}
