package client

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/valyala/fasthttp"
)

const HeaderIdempotencyKey = "Idempotency-Key"

const (
	msgConnection  = "Error de conexión con el servidor"
	msgBadResponse = "Respuesta inválida del servidor"
)

type Config struct {
	// api root, e.g. http://localhost:3000/api
	BaseURL  string
	Timeout  time.Duration
	MaxConns int
	// optional dialer, tests plug an in-memory listener here
	Dial fasthttp.DialFunc
}

// Client talks to the Hacienda REST api. Calls never return Go errors, every
// outcome is an envelope.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 16
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http: &fasthttp.Client{
			Name:                "hacienda-client",
			MaxConnsPerHost:     cfg.MaxConns,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			Dial:                cfg.Dial,
		},
	}
}

func (c *Client) SetBaseURL(u string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(u, "/")
	c.mu.Unlock()
	logger.Info("api base url changed", "url", u)
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// rootURL is the server root, the base url without its /api suffix.
func (c *Client) rootURL() string {
	return strings.TrimSuffix(c.BaseURL(), "/api") + "/"
}

// CheckConnection reports whether the server root answers with a 2xx.
func (c *Client) CheckConnection(ctx context.Context) bool {
	status, _, err := c.doRequest(ctx, fasthttp.MethodGet, c.rootURL(), nil, nil)
	if err != nil {
		logger.Debug("connection check failed", "url", c.rootURL(), "error", err)
		return false
	}
	return status >= 200 && status < 300
}

func (c *Client) doRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, err
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return resp.StatusCode(), result, nil
}

// call sends one request below the base url and decodes the envelope.
func call[T any](ctx context.Context, c *Client, method, path string, payload any, headers map[string]string) model.Envelope[T] {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return model.Fail[T](fasthttp.StatusBadRequest, "Error al preparar la solicitud", err.Error())
		}
		body = b
	}

	status, raw, err := c.doRequest(ctx, method, c.BaseURL()+path, body, headers)
	if err != nil {
		logger.Warn("api request failed", "method", method, "path", path, "error", err)
		return model.Fail[T](0, msgConnection, err.Error())
	}

	var env model.Envelope[T]
	decodeErr := json.Unmarshal(raw, &env)
	env.StatusCode = status

	if status < 200 || status >= 300 {
		env.Success = false
		if env.Error == "" {
			env.Error = "HTTP " + strconv.Itoa(status)
		}
		if env.Message == "" {
			env.Message = fasthttp.StatusMessage(status)
		}
		return env
	}
	if decodeErr != nil {
		return model.Fail[T](status, msgBadResponse, decodeErr.Error())
	}
	return env
}

func validationFailure[T any](required []string, req any) (model.Envelope[T], bool) {
	missing, invalid, err := model.FieldErrors(req)
	if err != nil {
		return model.Fail[T](fasthttp.StatusBadRequest, "Solicitud inválida", err.Error()), true
	}
	if !model.HasErrors(missing, invalid) {
		return model.Envelope[T]{}, false
	}
	env := model.Fail[T](fasthttp.StatusBadRequest, "Campos requeridos: "+strings.Join(required, ", "), "validation")
	env.Fields = append(missing, invalid...)
	return env, true
}
