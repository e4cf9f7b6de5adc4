package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"cetusindexer/internal/model"
	"cetusindexer/internal/storage"
	"cetusindexer/internal/storage/postgres"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	// maxPage keeps (page-1)*per_page within int.
	maxPage = math.MaxInt / maxPerPage
)

var (
	errInvalidPage       = errors.New("page must be a positive integer within range")
	errInvalidPerPage    = errors.New("per_page must be a positive integer")
	errMissingIDContains = errors.New("id_contains is required")
)

type liquidityKind string

const (
	liquidityAdd    liquidityKind = storage.AddLiquidityTable
	liquidityRemove liquidityKind = storage.RemoveLiquidityTable
)

type swapsResponse struct {
	Swaps   []model.SwapEvent `json:"swaps"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

type liquidityResponse struct {
	Events  []model.LiquidityEvent `json:"events"`
	Total   int64                  `json:"total"`
	Page    int                    `json:"page"`
	PerPage int                    `json:"per_page"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// parsePage reads page and per_page; per_page is capped at maxPerPage.
func parsePage(r *http.Request) (postgres.Page, error) {
	qs := r.URL.Query()
	page := postgres.Page{Page: 1, PerPage: defaultPerPage}
	if v := qs.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxPage {
			return postgres.Page{}, errInvalidPage
		}
		page.Page = n
	}
	if v := qs.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return postgres.Page{}, errInvalidPerPage
		}
		page.PerPage = min(n, maxPerPage)
	}
	return page, nil
}

func parseFilteredPage(r *http.Request) (postgres.Page, error) {
	page, err := parsePage(r)
	if err != nil {
		return page, err
	}
	page.IDContains = r.URL.Query().Get("id_contains")
	if page.IDContains == "" {
		return page, errMissingIDContains
	}
	return page, nil
}

func (s *Server) handleSwaps(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.listSwaps(w, r, page)
}

func (s *Server) handleSwapsByPool(w http.ResponseWriter, r *http.Request) {
	page, err := parseFilteredPage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.listSwaps(w, r, page)
}

func (s *Server) listSwaps(w http.ResponseWriter, r *http.Request, page postgres.Page) {
	swaps, total, err := s.store.ListSwaps(r.Context(), page)
	if err != nil {
		s.internalError(w, "list swaps", err)
		return
	}
	if swaps == nil {
		swaps = []model.SwapEvent{}
	}
	writeJSON(w, http.StatusOK, swapsResponse{Swaps: swaps, Total: total, Page: page.Page, PerPage: page.PerPage})
}

func (s *Server) handleLiquidity(kind liquidityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.listLiquidity(w, r, kind, page)
	}
}

func (s *Server) handleLiquidityByPool(kind liquidityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parseFilteredPage(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.listLiquidity(w, r, kind, page)
	}
}

func (s *Server) listLiquidity(w http.ResponseWriter, r *http.Request, kind liquidityKind, page postgres.Page) {
	events, total, err := s.store.ListLiquidity(r.Context(), string(kind), page)
	if err != nil {
		s.internalError(w, "list "+string(kind), err)
		return
	}
	if events == nil {
		events = []model.LiquidityEvent{}
	}
	writeJSON(w, http.StatusOK, liquidityResponse{Events: events, Total: total, Page: page.Page, PerPage: page.PerPage})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.internalError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	volume, err := s.store.Volume(r.Context())
	if err != nil {
		s.internalError(w, "volume", err)
		return
	}
	writeJSON(w, http.StatusOK, volume)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "error", Message: "database unreachable", Version: Version})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Cetus indexer API is running", Version: Version})
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>Cetus Indexer API</title></head>
<body>
<h1>Cetus Indexer API</h1>
<ul>
<li>GET /api/swaps?page=1&amp;per_page=20</li>
<li>GET /api/add_liquidity?page=1&amp;per_page=20</li>
<li>GET /api/remove_liquidity?page=1&amp;per_page=20</li>
<li>GET /api/swaps/by_pool?id_contains=...</li>
<li>GET /api/add_liquidity/by_pool?id_contains=...</li>
<li>GET /api/remove_liquidity/by_pool?id_contains=...</li>
<li>GET /api/stats</li>
<li>GET /api/volume</li>
<li>GET /api/health</li>
<li>GET /metrics</li>
</ul>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexPage))
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("query failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
