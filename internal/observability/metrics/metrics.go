package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (o Outcome) String() string {
	return string(o)
}

func outcomeOf(err error) Outcome {
	if err != nil {
		return Error
	}
	return Success
}

// Metrics holds the client's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	transactions        *prometheus.CounterVec
	confirmationLatency *prometheus.HistogramVec
	pollDuration        *prometheus.HistogramVec
	refreshDuration     *prometheus.HistogramVec
	eventsProcessed     *prometheus.CounterVec
	busy                prometheus.Gauge
	connected           prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldlock_transactions_total",
				Help: "Orchestrated transactions by kind and final status.",
			},
			[]string{"kind", "status"},
		),
		confirmationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldlock_confirmation_duration_seconds",
				Help:    "Time from submission to confirmation or failure.",
				Buckets: defaultHistogramBucketsSeconds,
			},
			[]string{"kind", "status"},
		),
		pollDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldlock_poll_duration_seconds",
				Help:    "Histogram of poll cycle durations in seconds.",
				Buckets: defaultHistogramBucketsSeconds,
			},
			[]string{"status"},
		),
		refreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldlock_refresh_duration_seconds",
				Help:    "Histogram of cache refresh durations by target.",
				Buckets: defaultHistogramBucketsSeconds,
			},
			[]string{"target", "status"},
		),
		eventsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldlock_contract_events_total",
				Help: "Decoded contract events by name.",
			},
			[]string{"event"},
		),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yieldlock_transactions_in_flight",
			Help: "Number of submitted transactions awaiting confirmation.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yieldlock_session_connected",
			Help: "1 while a wallet session is connected.",
		}),
	}

	m.registry.MustRegister(
		m.transactions,
		m.confirmationLatency,
		m.pollDuration,
		m.refreshDuration,
		m.eventsProcessed,
		m.busy,
		m.connected,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordTransaction(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(kind, status).Inc()
	m.confirmationLatency.WithLabelValues(kind, status).Observe(d.Seconds())
}

func (m *Metrics) RecordPollCycle(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.pollDuration.WithLabelValues(outcomeOf(err).String()).Observe(d.Seconds())
}

func (m *Metrics) RecordRefresh(target string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.refreshDuration.WithLabelValues(target, outcomeOf(err).String()).Observe(d.Seconds())
}

func (m *Metrics) IncContractEvent(name string) {
	if m == nil {
		return
	}
	m.eventsProcessed.WithLabelValues(name).Inc()
}

func (m *Metrics) AddInFlight(delta int) {
	if m == nil {
		return
	}
	m.busy.Add(float64(delta))
}

func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// Router returns a chi router serving /metrics.
func (m *Metrics) Router() *chi.Mux {
	router := chi.NewRouter()
	handler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	})
	return router
}

// Serve runs the metrics HTTP server until ctx is done.
func (m *Metrics) Serve(ctx context.Context, port int, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      m.Router(),
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), MetricRequestTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("starting metrics server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics on %s: %w", addr, err)
	}
	return nil
}
