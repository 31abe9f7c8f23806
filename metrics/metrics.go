package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/fxloop/loop"
	"github.com/rustyeddy/fxloop/strategies"
)

type Metrics struct {
	Registry *prometheus.Registry

	CyclesTotal   *prometheus.CounterVec
	OrdersTotal   *prometheus.CounterVec
	LastBarTime   *prometheus.GaugeVec
	CycleDuration prometheus.Histogram
}

// New registers the collectors on a fresh registry, so tests and several
// engines in one process never collide on the global one.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "fxloop_cycles_total", Help: "Decision cycles by outcome"},
			[]string{"kind", "reason"},
		),
		OrdersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "fxloop_orders_total", Help: "Orders submitted"},
			[]string{"instrument", "side", "status"},
		),
		LastBarTime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "fxloop_last_bar_timestamp_seconds", Help: "Open time of the last bar the loop consumed"},
			[]string{"instrument"},
		),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxloop_cycle_duration_seconds",
			Help:    "Wall time of one decision cycle",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
	m.Registry.MustRegister(
		m.CyclesTotal,
		m.OrdersTotal,
		m.LastBarTime,
		m.CycleDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr in the background. Shut the returned
// server down to stop it.
func (m *Metrics) Serve(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server")
		}
	}()
	return srv
}

// Reporter turns cycle outcomes into metric updates.
type Reporter struct {
	M *Metrics
}

var _ loop.Reporter = Reporter{}

func (r Reporter) Report(_ context.Context, o loop.Outcome) error {
	r.M.CyclesTotal.WithLabelValues(string(o.Kind), reasonLabel(o)).Inc()
	r.M.CycleDuration.Observe(o.Duration.Seconds())

	if o.Advanced && !o.BarTime.IsZero() {
		r.M.LastBarTime.WithLabelValues(o.Instrument).Set(float64(o.BarTime.Unix()))
	}
	if o.Order != nil && o.Plan != nil {
		side := "BUY"
		if o.Plan.Units < 0 {
			side = "SELL"
		}
		status := string(o.Order.Status)
		if status == "" {
			status = "ERROR"
		}
		r.M.OrdersTotal.WithLabelValues(o.Instrument, side, status).Inc()
	}
	return nil
}

// reasonLabel keeps the reason label to a fixed set. Strategies explain a
// missing signal in free text, which would mint a new series per value.
func reasonLabel(o loop.Outcome) string {
	if o.Kind != loop.NoSignal {
		return o.Reason
	}
	if o.Reason == strategies.InsufficientHistory {
		return "INSUFFICIENT_HISTORY"
	}
	return "NO_SIGNAL"
}
