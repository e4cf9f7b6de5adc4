// Package api serves read-only JSON views over the persisted event tables.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"cetusindexer/internal/metrics"
	"cetusindexer/internal/model"
	"cetusindexer/internal/storage/postgres"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Store is the read side of the event store.
type Store interface {
	ListSwaps(ctx context.Context, page postgres.Page) ([]model.SwapEvent, int64, error)
	ListLiquidity(ctx context.Context, table string, page postgres.Page) ([]model.LiquidityEvent, int64, error)
	Stats(ctx context.Context) (model.Stats, error)
	Volume(ctx context.Context) (model.Volume, error)
	Ping(ctx context.Context) error
}

type Server struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewServer(store Store, logger *zap.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{store: store, logger: logger, metrics: m}
}

// Router returns the API routes wrapped in CORS and request metrics.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/swaps", s.handleSwaps).Methods(http.MethodGet)
	api.HandleFunc("/add_liquidity", s.handleLiquidity(liquidityAdd)).Methods(http.MethodGet)
	api.HandleFunc("/remove_liquidity", s.handleLiquidity(liquidityRemove)).Methods(http.MethodGet)
	api.HandleFunc("/swaps/by_pool", s.handleSwapsByPool).Methods(http.MethodGet)
	api.HandleFunc("/add_liquidity/by_pool", s.handleLiquidityByPool(liquidityAdd)).Methods(http.MethodGet)
	api.HandleFunc("/remove_liquidity/by_pool", s.handleLiquidityByPool(liquidityRemove)).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/volume", s.handleVolume).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return WithCORS(r)
}

// ListenAndServe serves the router on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
