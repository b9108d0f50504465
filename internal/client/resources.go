package client

import (
	"context"
	"strconv"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/valyala/fasthttp"
)

func (c *Client) GetAllUsers(ctx context.Context) model.Envelope[[]*model.User] {
	return call[[]*model.User](ctx, c, fasthttp.MethodGet, "/users", nil, nil)
}

func (c *Client) GetUserByID(ctx context.Context, id int64) model.Envelope[*model.User] {
	return call[*model.User](ctx, c, fasthttp.MethodGet, "/users/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) CreateUser(ctx context.Context, req model.UserCreateRequest) model.Envelope[model.CreatedID] {
	if env, failed := validationFailure[model.CreatedID]([]string{"cedula", "password", "name", "fullName"}, req); failed {
		return env
	}
	return call[model.CreatedID](ctx, c, fasthttp.MethodPost, "/users", req, nil)
}

// Login checks the credentials on the server.
func (c *Client) Login(ctx context.Context, cedula, password string) model.Envelope[*model.User] {
	req := model.LoginRequest{Cedula: cedula, Password: password}
	if env, failed := validationFailure[*model.User]([]string{"cedula", "password"}, req); failed {
		return env
	}
	return call[*model.User](ctx, c, fasthttp.MethodPost, "/auth/login", req, nil)
}

func (c *Client) GetAllProperties(ctx context.Context) model.Envelope[[]*model.Property] {
	return call[[]*model.Property](ctx, c, fasthttp.MethodGet, "/properties", nil, nil)
}

func (c *Client) GetPropertiesByUser(ctx context.Context, userID int64) model.Envelope[[]*model.Property] {
	return call[[]*model.Property](ctx, c, fasthttp.MethodGet, "/properties/user/"+strconv.FormatInt(userID, 10), nil, nil)
}

func (c *Client) CreateProperty(ctx context.Context, req model.PropertyCreateRequest) model.Envelope[model.CreatedID] {
	if env, failed := validationFailure[model.CreatedID]([]string{"userId", "propertyNumber", "propertyType", "address"}, req); failed {
		return env
	}
	return call[model.CreatedID](ctx, c, fasthttp.MethodPost, "/properties", req, nil)
}

func (c *Client) GetAllTransactions(ctx context.Context) model.Envelope[[]*model.Transaction] {
	return call[[]*model.Transaction](ctx, c, fasthttp.MethodGet, "/transactions", nil, nil)
}

func (c *Client) GetTransactionsByUser(ctx context.Context, userID int64) model.Envelope[[]*model.Transaction] {
	return call[[]*model.Transaction](ctx, c, fasthttp.MethodGet, "/transactions/user/"+strconv.FormatInt(userID, 10), nil, nil)
}

func (c *Client) CreateTransaction(ctx context.Context, req model.TransactionCreateRequest) model.Envelope[model.CreatedID] {
	if env, failed := validationFailure[model.CreatedID]([]string{"userId", "referencia", "estado", "fecha", "valor", "concepto"}, req); failed {
		return env
	}
	return call[model.CreatedID](ctx, c, fasthttp.MethodPost, "/transactions", req, nil)
}

func (c *Client) GetAllPayments(ctx context.Context) model.Envelope[[]*model.Payment] {
	return call[[]*model.Payment](ctx, c, fasthttp.MethodGet, "/payments", nil, nil)
}

func (c *Client) GetPaymentsByUser(ctx context.Context, userID int64) model.Envelope[[]*model.Payment] {
	return call[[]*model.Payment](ctx, c, fasthttp.MethodGet, "/payments/user/"+strconv.FormatInt(userID, 10), nil, nil)
}

// CreatePayment registers a payment. A non empty key is sent as Idempotency-Key
// so a replay after a lost answer does not pay twice.
func (c *Client) CreatePayment(ctx context.Context, req model.PaymentCreateRequest, key string) model.Envelope[model.CreatedID] {
	if env, failed := validationFailure[model.CreatedID]([]string{"userId", "transactionId", "paymentMethod", "amount"}, req); failed {
		return env
	}
	var headers map[string]string
	if key != "" {
		headers = map[string]string{HeaderIdempotencyKey: key}
	}
	return call[model.CreatedID](ctx, c, fasthttp.MethodPost, "/payments", req, headers)
}

func (c *Client) GetStats(ctx context.Context) model.Envelope[*model.Stats] {
	return call[*model.Stats](ctx, c, fasthttp.MethodGet, "/stats", nil, nil)
}

// ExportAllData downloads the full dataset, ExportDate is set on success.
func (c *Client) ExportAllData(ctx context.Context) model.Envelope[model.Dataset] {
	return call[model.Dataset](ctx, c, fasthttp.MethodGet, "/export/all", nil, nil)
}
