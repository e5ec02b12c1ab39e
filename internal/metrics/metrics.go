// Package metrics exposes Prometheus counters for commands and plays and
// an optional /metrics HTTP listener.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Play outcomes.
const (
	PlayWon      = "won"
	PlayLost     = "lost"
	PlayRejected = "already_played"
	PlayFailed   = "storage_error"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	playsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plays_total",
			Help: "Daily play attempts labeled by outcome",
		},
		[]string{"outcome"},
	)
	panicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "handler_panics_total",
			Help: "Panics recovered in the update handler",
		},
	)
	duelsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duels_expired_total",
			Help: "Pending duels expired by the scheduler",
		},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordPlay counts one /jogar outcome.
func RecordPlay(outcome string) {
	playsTotal.WithLabelValues(outcome).Inc()
}

// RecordPanic counts a recovered handler panic.
func RecordPanic() {
	panicsTotal.Inc()
}

// RecordDuelsExpired adds n expired duels.
func RecordDuelsExpired(n int64) {
	if n > 0 {
		duelsExpiredTotal.Add(float64(n))
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Metrics listener started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
