package handlers

import (
	"context"

	"github.com/nimasrn/hacienda/internal/model"
	xhttp "github.com/nimasrn/hacienda/pkg/http"
)

type UserService interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, req model.UserCreateRequest) (*model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.User, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func RegisterUserRoutes(g *xhttp.Group, h *UserHandler) {
	g.GET("/users", h.ListUsers)
	g.GET("/users/{id}", h.GetUser)
	g.POST("/users", h.CreateUser)
	g.POST("/auth/login", h.Login)
}

func (h *UserHandler) ListUsers(ctx *xhttp.RequestCtx) {
	users, err := h.svc.List(ctx)
	if err != nil {
		writeError(ctx, err, "Error al obtener usuarios")
		return
	}
	writeList(ctx, users)
}

func (h *UserHandler) GetUser(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	u, err := h.svc.Get(ctx, id)
	if err != nil {
		writeError(ctx, err, "Usuario no encontrado")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, model.OK(u))
}

func (h *UserHandler) CreateUser(ctx *xhttp.RequestCtx) {
	var req model.UserCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadJSON(ctx, err)
		return
	}
	u, err := h.svc.Create(ctx, req)
	if err != nil {
		writeError(ctx, err, "Error al crear usuario")
		return
	}
	writeCreated(ctx, u.ID, "Usuario creado exitosamente")
}

func (h *UserHandler) Login(ctx *xhttp.RequestCtx) {
	var req model.LoginRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadJSON(ctx, err)
		return
	}
	u, err := h.svc.Login(ctx, req)
	if err != nil {
		writeError(ctx, err, "Error al iniciar sesión")
		return
	}
	env := model.OK(u)
	env.Message = "Bienvenido " + u.FullName
	writeJSON(ctx, xhttp.StatusOK, env)
}
