package xhttp

import (
	"net"
	"reflect"
	"runtime"
	"time"

	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/valyala/fasthttp"
)

type ServerOption struct {
	// keep idle connections short lived, mobile clients reconnect anyway
	IdleTimeout time.Duration

	// 0 disables the limit
	MaxRequestBodySize int

	ReadBufferSize  int
	WriteBufferSize int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration

	Concurrency   int
	MaxConnsPerIP int

	Name   string
	Logger logger.Logger
}

var DefaultServerOption = ServerOption{
	IdleTimeout:        time.Second * 10,
	MaxRequestBodySize: 8 * 1024 * 1024, // bulk imports post whole datasets
	ReadBufferSize:     1024 * 16,
	WriteBufferSize:    1024 * 16,
	ReadTimeout:        time.Second * 10,
	WriteTimeout:       time.Second * 10,
	Concurrency:        10_000,
	MaxConnsPerIP:      1_000,
}

type Server = fasthttp.Server

type Engine struct {
	*Router
	*Server
	option ServerOption
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	var lg fasthttp.Logger = options.Logger
	if options.Logger == nil {
		lg = logger.GetLogger()
	}
	return &fasthttp.Server{
		Name:                  options.Name,
		Concurrency:           options.Concurrency,
		ReadBufferSize:        options.ReadBufferSize,
		WriteBufferSize:       options.WriteBufferSize,
		ReadTimeout:           options.ReadTimeout,
		WriteTimeout:          options.WriteTimeout,
		IdleTimeout:           options.IdleTimeout,
		MaxConnsPerIP:         options.MaxConnsPerIP,
		MaxRequestBodySize:    options.MaxRequestBodySize,
		TCPKeepalive:          true,
		NoDefaultServerHeader: true,
		NoDefaultContentType:  true,
		CloseOnShutdown:       true,
		Logger:                lg,
		ErrorHandler: func(ctx *RequestCtx, err error) {
			logger.Warn("[xhttp] request error", "error", err)
			ctx.Error(StatusText(StatusBadRequest), StatusBadRequest)
		},
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: NewRouter(),
		option: options,
	}
}

// CreateServer builds an engine with the default options and router.
func CreateServer() *Engine {
	s := NewServer(DefaultServerOption)
	s.Router = CreateDefaultRouter(nil)
	return s
}

func (e *Engine) ListenAndServe(addr string) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	e.Server.Logger.Printf("[xhttp] server is listening on %s", addr)
	return e.Server.ListenAndServe(addr)
}

// Serve runs the engine on an existing listener, tests pass an in-memory one.
func (e *Engine) Serve(ln net.Listener) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	return e.Server.Serve(ln)
}

func (e *Engine) DoRouting() error {
	for method, route := range e.Router.List() {
		for _, r := range route {
			logger.Debug("[xhttp] route", "method", method, "path", r)
		}
	}
	e.Server.Handler = e.Handler()
	return nil
}

// Handler returns the router wrapped in the middleware chain. The first
// middleware passed to Use is the outermost one.
func (e *Engine) Handler() RequestHandler {
	h := e.Router.Handler
	for i := len(e.middle) - 1; i >= 0; i-- {
		h = e.middle[i](h)
		logger.Debug("[xhttp] middleware registered", "position", i+1, "name", runtime.FuncForPC(reflect.ValueOf(e.middle[i]).Pointer()).Name())
	}
	return h
}

// Use adds middleware to the end of the chain.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (e *Engine) Shutdown() {
	logger.Info("[xhttp] server is shutting down")
	if err := e.Server.Shutdown(); err != nil {
		logger.Error("[xhttp] error while shutting down", "error", err)
	}
}
