package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cetusindexer/internal/metrics"
	"cetusindexer/internal/model"
	"cetusindexer/internal/storage"
	"cetusindexer/internal/storage/postgres"
)

type fakeStore struct {
	swaps     []model.SwapEvent
	liquidity map[string][]model.LiquidityEvent
	err       error

	lastPage  postgres.Page
	lastTable string
}

func (f *fakeStore) ListSwaps(_ context.Context, page postgres.Page) ([]model.SwapEvent, int64, error) {
	f.lastPage = page
	return f.swaps, int64(len(f.swaps)), f.err
}

func (f *fakeStore) ListLiquidity(_ context.Context, table string, page postgres.Page) ([]model.LiquidityEvent, int64, error) {
	f.lastPage = page
	f.lastTable = table
	events := f.liquidity[table]
	return events, int64(len(events)), f.err
}

func (f *fakeStore) Stats(context.Context) (model.Stats, error) {
	return model.Stats{TotalSwaps: int64(len(f.swaps))}, f.err
}

func (f *fakeStore) Volume(context.Context) (model.Volume, error) {
	return model.Volume{TotalVolumeIn: "18446744073709551614", TotalVolumeOut: "3", PoolStats: []model.PoolVolume{}}, f.err
}

func (f *fakeStore) Ping(context.Context) error {
	return f.err
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSwapsDefaultsAndShape(t *testing.T) {
	store := &fakeStore{swaps: []model.SwapEvent{{ID: "a-swap-0", AmountIn: 100, AmountOut: 95}}}
	h := NewServer(store, nil, nil).Router()

	rec := serve(t, h, "/api/swaps")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, postgres.Page{Page: 1, PerPage: 20}, store.lastPage)

	var body struct {
		Swaps   []model.SwapEvent `json:"swaps"`
		Total   int64             `json:"total"`
		Page    int               `json:"page"`
		PerPage int               `json:"per_page"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, store.swaps, body.Swaps)
	assert.EqualValues(t, 1, body.Total)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 20, body.PerPage)
}

func TestPaginationParams(t *testing.T) {
	store := &fakeStore{}
	h := NewServer(store, nil, nil).Router()

	rec := serve(t, h, "/api/swaps?page=3&per_page=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, postgres.Page{Page: 3, PerPage: maxPerPage}, store.lastPage)
	assert.Contains(t, rec.Body.String(), `"swaps":[]`)

	rec = serve(t, h, fmt.Sprintf("/api/swaps?page=%d&per_page=100", maxPage))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, postgres.Page{Page: maxPage, PerPage: maxPerPage}, store.lastPage)

	for _, target := range []string{
		"/api/swaps?page=0",
		"/api/swaps?page=x",
		"/api/add_liquidity?per_page=-1",
		"/api/swaps?page=9223372036854775807&per_page=100",
		fmt.Sprintf("/api/remove_liquidity/by_pool?id_contains=a&page=%d", maxPage+1),
	} {
		rec := serve(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestLiquidityRoutesSelectTable(t *testing.T) {
	store := &fakeStore{liquidity: map[string][]model.LiquidityEvent{
		storage.RemoveLiquidityTable: {{ID: "r-remove-0", Liquidity: "340282366920938463463374607431768211455"}},
	}}
	h := NewServer(store, nil, nil).Router()

	rec := serve(t, h, "/api/add_liquidity")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, storage.AddLiquidityTable, store.lastTable)
	assert.Contains(t, rec.Body.String(), `"events":[]`)

	rec = serve(t, h, "/api/remove_liquidity/by_pool?id_contains=r-remove")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, storage.RemoveLiquidityTable, store.lastTable)
	assert.Equal(t, "r-remove", store.lastPage.IDContains)
	assert.Contains(t, rec.Body.String(), `"liquidity":"340282366920938463463374607431768211455"`)
}

func TestByPoolRequiresFilter(t *testing.T) {
	h := NewServer(&fakeStore{}, nil, nil).Router()
	for _, target := range []string{"/api/swaps/by_pool", "/api/add_liquidity/by_pool?id_contains="} {
		rec := serve(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestStatsVolumeHealth(t *testing.T) {
	h := NewServer(&fakeStore{swaps: make([]model.SwapEvent, 2)}, nil, nil).Router()

	rec := serve(t, h, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_swaps":2,"total_add_liquidity":0,"total_remove_liquidity":0}`, rec.Body.String())

	rec = serve(t, h, "/api/volume")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_volume_in":"18446744073709551614","total_volume_out":"3","pool_stats":[]}`, rec.Body.String())

	rec = serve(t, h, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = serve(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/volume")
}

func TestStoreErrorsAreInternal(t *testing.T) {
	h := NewServer(&fakeStore{err: errors.New("connection refused")}, nil, nil).Router()

	for _, target := range []string{"/api/swaps", "/api/remove_liquidity", "/api/stats", "/api/volume"} {
		rec := serve(t, h, target)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, target)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	}

	rec := serve(t, h, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := NewServer(&fakeStore{}, nil, nil).Router()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/swaps", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestMetrics(t *testing.T) {
	m := metrics.New()
	h := NewServer(&fakeStore{}, nil, m).Router()

	serve(t, h, "/api/stats")
	rec := serve(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cetus_indexer_http_requests_total{method="GET",path="/api/stats",status="200"} 1`)
}
