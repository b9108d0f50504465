package prom

import (
	"strconv"
	"sync"
	"time"

	xhttp "github.com/nimasrn/hacienda/pkg/http"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemHTTP     = "http"
	SystemPayments = "payments"
	SystemOutbox   = "outbox"
	SystemSync     = "sync"
)

const (
	MetricHTTPRequestsTotal   = "requests_total"
	MetricHTTPRequestDuration = "request_duration_seconds"
	MetricPaymentsRegistered  = "registered_total"
	MetricOutboxReplayed      = "replayed_total"
	MetricOutboxEntries       = "entries"
	MetricSyncRuns            = "runs_total"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var registerer prometheus.Registerer = prometheus.DefaultRegisterer
var gatherer prometheus.Gatherer = prometheus.DefaultGatherer

var MetricSystemEnabled = false

var MetricCollectionCounters = make(map[string]prometheus.Counter)
var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers the application metrics. Until it is called every Add/Inc is a no-op.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	if nameSpace != "" {
		namespace = nameSpace
	}

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemHTTP, MetricHTTPRequestsTotal, []string{"method", "route", "status"}))
	hasError(createHistogramVec(SystemHTTP, MetricHTTPRequestDuration, []string{"method", "route"}))
	hasError(createCounterVec(SystemPayments, MetricPaymentsRegistered, []string{"source", "status"}))
	hasError(createCounterVec(SystemOutbox, MetricOutboxReplayed, []string{"kind", "outcome"}))
	hasError(createGaugeVec(SystemOutbox, MetricOutboxEntries, []string{"status"}))
	hasError(createCounter(SystemSync, MetricSyncRuns))

	MetricSystemEnabled = err == nil
	return err
}

// Handler exposes the registry in the prometheus text format.
func Handler() xhttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// ListenAndServer blocks serving the metrics endpoint on its own listener.
func ListenAndServer(addr string, url string) {
	if url == "" {
		url = "/metrics"
	}
	s := xhttp.CreateServer()
	s.GET(url, Handler())
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Error("[metrics-server] http listen error", "error", err)
	}
}

// HTTPMetricsMiddleware counts requests and observes latency per matched route.
func HTTPMetricsMiddleware(next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		if !MetricSystemEnabled {
			return
		}
		method := string(ctx.Method())
		route := xhttp.MatchedRoute(ctx)
		IncCounterVec(SystemHTTP, MetricHTTPRequestsTotal, method, route, strconv.Itoa(ctx.Response.StatusCode()))
		AddHistogramVec(SystemHTTP, MetricHTTPRequestDuration, time.Since(start).Seconds(), method, route)
	}
}

func opts(subsystem, name string) prometheus.Opts {
	return prometheus.Opts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        subsystem + " " + name,
		ConstLabels: defaultLabels,
	}
}

func createCounter(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	c := prometheus.NewCounter(prometheus.CounterOpts(opts(subsystem, name)))
	MetricCollectionCounters[subsystem+name] = c
	return registerer.Register(c)
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	c := prometheus.NewCounterVec(prometheus.CounterOpts(opts(subsystem, name)), labels)
	MetricCollectionCounterVec[subsystem+name] = c
	return registerer.Register(c)
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	o := opts(subsystem, name)
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   o.Namespace,
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: o.ConstLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	MetricCollectionHistogramVec[subsystem+name] = h
	return registerer.Register(h)
}

func createGaugeVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts(opts(subsystem, name)), labels)
	MetricCollectionGaugeVec[subsystem+name] = g
	return registerer.Register(g)
}

func IncCounter(subsystem, name string) {
	AddCounter(subsystem, name, 1)
}

func AddCounter(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounters[subsystem+name]; ok {
		v.Add(number)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func SetGaugeVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionGaugeVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Set(num)
		return
	}
	logger.Warn("[metrics-server] gauge not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func IncPaymentRegistered(source, status string) {
	IncCounterVec(SystemPayments, MetricPaymentsRegistered, source, status)
}

func IncOutboxReplayed(kind, outcome string) {
	IncCounterVec(SystemOutbox, MetricOutboxReplayed, kind, outcome)
}

// SetOutboxEntries publishes how many outbox entries sit in each status.
func SetOutboxEntries(status string, n int64) {
	SetGaugeVec(SystemOutbox, MetricOutboxEntries, float64(n), status)
}

func IncSyncRuns() {
	IncCounter(SystemSync, MetricSyncRuns)
}
