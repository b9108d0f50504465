package handlers

import (
	"context"

	"github.com/nimasrn/hacienda/internal/model"
	xhttp "github.com/nimasrn/hacienda/pkg/http"
)

type ReportService interface {
	Stats(ctx context.Context) (*model.Stats, error)
	Export(ctx context.Context) (*model.Dataset, error)
}

type ReportHandler struct {
	svc ReportService
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func RegisterReportRoutes(g *xhttp.Group, h *ReportHandler) {
	g.GET("/stats", h.GetStats)
	g.GET("/export/all", h.ExportAll)
}

func (h *ReportHandler) GetStats(ctx *xhttp.RequestCtx) {
	st, err := h.svc.Stats(ctx)
	if err != nil {
		writeError(ctx, err, "Error al obtener estadísticas")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, model.OK(st))
}

func (h *ReportHandler) ExportAll(ctx *xhttp.RequestCtx) {
	d, err := h.svc.Export(ctx)
	if err != nil {
		writeError(ctx, err, "Error al exportar datos")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, model.Export{Success: true, ExportDate: now(), Data: *d})
}
