// Package stats tracks listener counters and serves them to Prometheus.
package stats

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/baronhoot/rtl-433/internal/decoder"
)

// Metrics holds the listener's Prometheus counters.
type Metrics struct {
	rowsTotal     prometheus.Counter
	decodedTotal  *prometheus.CounterVec
	rejectedTotal *prometheus.CounterVec
	publishErrors prometheus.Counter
}

// New creates and registers the listener metrics on the default
// registry. Call it once per process.
func New() *Metrics {
	return &Metrics{
		rowsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rtl433_rows_total",
			Help: "Bit rows received from the capture source",
		}),
		decodedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rtl433_decoded_total",
			Help: "Frames decoded successfully, by device model",
		}, []string{"model"}),
		rejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rtl433_rejected_total",
			Help: "Rows no decoder claimed, by decode outcome",
		}, []string{"outcome"}),
		publishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rtl433_publish_errors_total",
			Help: "Records that failed to reach a sink",
		}),
	}
}

func (m *Metrics) RowReceived() {
	m.rowsTotal.Inc()
}

func (m *Metrics) Decoded(model string) {
	m.decodedTotal.WithLabelValues(model).Inc()
}

func (m *Metrics) Rejected(err error) {
	m.rejectedTotal.WithLabelValues(outcomeLabel(err)).Inc()
}

func (m *Metrics) PublishError() {
	m.publishErrors.Inc()
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, decoder.ErrAbortLength):
		return "abort_length"
	case errors.Is(err, decoder.ErrAbortEarly):
		return "abort_early"
	case errors.Is(err, decoder.ErrFailIntegrity):
		return "fail_integrity"
	default:
		return "other"
	}
}

// Serve exposes /metrics on addr until the context is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logrus.WithField("addr", addr).Info("metrics listener started")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
