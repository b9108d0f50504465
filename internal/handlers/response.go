package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/services"
	xhttp "github.com/nimasrn/hacienda/pkg/http"
	"github.com/nimasrn/hacienda/pkg/logger"
)

// DetailedErrors exposes internal error text in 500 responses. Only set it in development.
var DetailedErrors = false

const HeaderIdempotencyKey = "Idempotency-Key"

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		status = xhttp.StatusInternalServerError
		b = []byte(`{"success":false,"message":"Error interno del servidor"}`)
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeList[T any](ctx *xhttp.RequestCtx, items []T) {
	writeJSON(ctx, xhttp.StatusOK, model.List(items))
}

func writeCreated(ctx *xhttp.RequestCtx, id int64, message string) {
	env := model.OK(model.CreatedID{ID: id})
	env.Message = message
	writeJSON(ctx, xhttp.StatusCreated, env)
}

func writeFailure(ctx *xhttp.RequestCtx, status int, message, detail string) {
	writeJSON(ctx, status, model.Failure{Message: message, Error: detail})
}

// writeError maps service errors to status codes. message is used for the
// unexpected case.
func writeError(ctx *xhttp.RequestCtx, err error, message string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(ctx, xhttp.StatusBadRequest, model.Failure{Message: verr.Message, Fields: verr.Fields})
	case errors.Is(err, services.ErrUnknownReference):
		writeFailure(ctx, xhttp.StatusBadRequest, err.Error(), "")
	case errors.Is(err, services.ErrNotFound):
		writeFailure(ctx, xhttp.StatusNotFound, message, "")
	case errors.Is(err, services.ErrConflict):
		writeFailure(ctx, xhttp.StatusConflict, message, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeFailure(ctx, xhttp.StatusUnauthorized, "Credenciales inválidas", "")
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
		writeFailure(ctx, xhttp.StatusInternalServerError, message, internalDetail(err))
	}
}

func internalDetail(err error) string {
	if DetailedErrors {
		return err.Error()
	}
	return "Error interno"
}

func writeBadJSON(ctx *xhttp.RequestCtx, err error) {
	writeFailure(ctx, xhttp.StatusBadRequest, "JSON inválido", err.Error())
}

// pathInt64 reads a numeric route parameter.
func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, bool) {
	v, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		writeFailure(ctx, xhttp.StatusBadRequest, "Identificador inválido: "+name, "")
		return 0, false
	}
	return id, true
}

func now() time.Time {
	return time.Now().UTC()
}
