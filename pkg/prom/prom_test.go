package prom

import (
	"strings"
	"testing"

	xhttp "github.com/nimasrn/hacienda/pkg/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func useFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	registerer, gatherer = reg, reg
	t.Cleanup(func() {
		registerer, gatherer = prometheus.DefaultRegisterer, prometheus.DefaultGatherer
		MetricSystemEnabled = false
	})
}

func TestDisabledMetricsAreNoops(t *testing.T) {
	MetricSystemEnabled = false
	assert.NotPanics(t, func() {
		IncPaymentRegistered("api", "completed")
		IncCounter("missing", "metric")
	})
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	useFreshRegistry(t)
	require.NoError(t, Create("localhost", "test", "hacienda"))

	r := xhttp.CreateDefaultRouter(nil)
	r.GET("/api/users/{id}", func(ctx *xhttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
	})
	h := HTTPMetricsMiddleware(r.Handler)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/api/users/7")
	h(ctx)

	scrape := &fasthttp.RequestCtx{}
	scrape.Request.SetRequestURI("/metrics")
	Handler()(scrape)

	body := string(scrape.Response.Body())
	assert.Contains(t, body, `route="/api/users/{id}"`)
	assert.Contains(t, body, `status="200"`)
}

func TestHandlerExposesMetrics(t *testing.T) {
	useFreshRegistry(t)
	require.NoError(t, Create("localhost", "test", "hacienda"))
	IncOutboxReplayed("payment", "replayed")

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/metrics")
	Handler()(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.True(t, strings.Contains(string(ctx.Response.Body()), "hacienda_outbox_replayed_total"))
}

func TestOutboxGaugeAndSyncCounter(t *testing.T) {
	useFreshRegistry(t)
	require.NoError(t, Create("localhost", "test", "hacienda"))

	SetOutboxEntries("pending", 3)
	SetOutboxEntries("pending", 1)
	SetOutboxEntries("conflict", 2)
	IncSyncRuns()
	IncSyncRuns()

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/metrics")
	Handler()(ctx)

	body := string(ctx.Response.Body())
	assert.Regexp(t, `hacienda_outbox_entries\{[^}]*status="pending"[^}]*\} 1\n`, body)
	assert.Regexp(t, `hacienda_outbox_entries\{[^}]*status="conflict"[^}]*\} 2\n`, body)
	assert.Regexp(t, `hacienda_sync_runs_total\{[^}]*\} 2\n`, body)
}
