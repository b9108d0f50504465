package helpers

import (
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/nimasrn/hacienda/internal/handlers"
	"github.com/nimasrn/hacienda/internal/idempotency"
	"github.com/nimasrn/hacienda/internal/passwords"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/internal/services"
	"github.com/nimasrn/hacienda/pkg/db"
	xhttp "github.com/nimasrn/hacienda/pkg/http"
	"github.com/valyala/fasthttp/fasthttputil"
	"golang.org/x/crypto/bcrypt"
)

var ErrNetworkDown = errors.New("network is down")

// TestAPI is the full api stack served over an in-memory listener.
type TestAPI struct {
	Store   *db.DB
	BaseURL string

	ln   *fasthttputil.InmemoryListener
	down atomic.Bool
}

// StartTestAPI serves the api on a fresh sqlite store. withIdempotency backs
// Idempotency-Key with miniredis.
func StartTestAPI(t *testing.T, withIdempotency bool) *TestAPI {
	t.Helper()
	store := SetupTestDB(t)

	users := repository.NewUserRepository(store)
	props := repository.NewPropertyRepository(store)
	txns := repository.NewTransactionRepository(store)
	payments := repository.NewPaymentRepository(store)

	var idem services.IdempotencyStore
	if withIdempotency {
		_, adapter := SetupTestRedis(t)
		idem = idempotency.NewStore(adapter, idempotency.DefaultConfig())
	}

	r := xhttp.CreateDefaultRouter(handlers.NotFound)
	handlers.RegisterHealthRoutes(r, handlers.NewHealthHandler(store, "test"))
	api := r.Group("/api")
	handlers.RegisterUserRoutes(api, handlers.NewUserHandler(services.NewUserService(users, passwords.New(bcrypt.MinCost))))
	handlers.RegisterPropertyRoutes(api, handlers.NewPropertyHandler(services.NewPropertyService(props, users)))
	handlers.RegisterTransactionRoutes(api, handlers.NewTransactionHandler(services.NewTransactionService(txns, users)))
	handlers.RegisterPaymentRoutes(api, handlers.NewPaymentHandler(services.NewPaymentService(payments, txns, idem)))
	handlers.RegisterReportRoutes(api, handlers.NewReportHandler(services.NewReportService(users, props, txns, payments)))

	e := xhttp.CreateServer()
	e.Router = r
	e.Use(xhttp.RecoverMiddleware(handlers.Panic))

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = e.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	return &TestAPI{Store: store, BaseURL: "http://hacienda.test/api", ln: ln}
}

// Dial is a fasthttp.DialFunc reaching the in-memory server.
func (a *TestAPI) Dial(addr string) (net.Conn, error) {
	if a.down.Load() {
		return nil, ErrNetworkDown
	}
	conn, err := a.ln.Dial()
	if err != nil {
		return nil, err
	}
	return &switchedConn{Conn: conn, api: a}, nil
}

// switchedConn fails kept-alive connections too once the network goes down.
type switchedConn struct {
	net.Conn
	api *TestAPI
}

func (c *switchedConn) Read(b []byte) (int, error) {
	if c.api.down.Load() {
		return 0, ErrNetworkDown
	}
	return c.Conn.Read(b)
}

func (c *switchedConn) Write(b []byte) (int, error) {
	if c.api.down.Load() {
		return 0, ErrNetworkDown
	}
	return c.Conn.Write(b)
}

// SetDown makes every new connection fail until called with false.
func (a *TestAPI) SetDown(down bool) {
	a.down.Store(down)
}
