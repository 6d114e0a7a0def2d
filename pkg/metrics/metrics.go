// Package metrics exposes the Prometheus registry and the optional /metrics
// listener. All metrics are defined in their respective packages via promauto
// to keep packages independent of each other.
//
// Fetch Metrics (pkg/client):
//   - pitchsplits_fetch_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - pitchsplits_fetch_request_duration_seconds{endpoint} (Histogram): Attempt duration by endpoint
//   - pitchsplits_fetch_errors_total{class} (Counter): Failed attempts by class (client, server, rate_limit, network, decode)
//   - pitchsplits_fetch_degraded_total{endpoint} (Counter): Fetches that degraded to an empty result
//   - pitchsplits_fetch_retries_total{error_class} (Counter): Retries by error class
//   - pitchsplits_fetch_retry_backoff_seconds{error_class} (Histogram): Backoff pauses
//   - pitchsplits_fetch_retry_exhausted_total{error_class} (Counter): Fetches that used every attempt
//
// Decode Metrics (internal/statsapi):
//   - pitchsplits_statsapi_elements_skipped_total (Counter): Malformed list elements dropped from a response
//
// Cache Metrics (pkg/cache):
//   - pitchsplits_cache_hits_total{layer="redis"} (Counter)
//   - pitchsplits_cache_misses_total (Counter)
//   - pitchsplits_cache_size_bytes{layer="redis"} (Gauge)
//   - pitchsplits_cache_errors_total{operation} (Counter)
//
// Batch Metrics (pkg/batch):
//   - pitchsplits_batch_tasks_total{result} (Counter): ok, failed, panic, cancelled
//   - pitchsplits_batch_tasks_in_flight (Gauge)
//
// Pipeline Metrics (internal/gamelog, internal/pipeline):
//   - pitchsplits_games_dropped_total{reason} (Counter): zero_innings, invalid_innings,
//     missing_game_pk, schedule_miss, incomplete_venue
//   - pitchsplits_rows_emitted_total (Counter)
//   - pitchsplits_pitcher_tasks_total{result} (Counter)
//   - pitchsplits_pipeline_stage_duration_seconds{stage} (Histogram)
//   - pitchsplits_export_rows (Gauge)
//
// Example Prometheus Queries:
//
//	# Share of fetches that degraded to no data
//	sum(rate(pitchsplits_fetch_degraded_total[5m])) / sum(rate(pitchsplits_fetch_requests_total[5m]))
//
//	# Games lost to incomplete venue data
//	pitchsplits_games_dropped_total{reason="incomplete_venue"}
//
//	# P95 attempt latency
//	histogram_quantile(0.95, rate(pitchsplits_fetch_request_duration_seconds_bucket[5m]))
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registerer used by every package.
// All metrics are registered automatically via promauto.
var Registry = prometheus.DefaultRegisterer

// Handler serves /metrics from the default gatherer and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})
	return mux
}

// Server is a /metrics listener kept alive for the duration of a run.
type Server struct {
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// Serve starts listening on addr and serving Handler in the background.
func Serve(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	s := &Server{
		srv: &http.Server{
			Handler:           Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		log.Info().Str("addr", ln.Addr().String()).Msg("Metrics server listening")
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
