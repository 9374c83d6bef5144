package v1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orders-dashboard/internal/domain"
	"orders-dashboard/internal/usecase"
	"orders-dashboard/pkg/storage"
)

type fakeGateway struct {
	mu        sync.Mutex
	fetchErr  error
	commitErr error
	pushErr   error
	commits   map[string]domain.OrderPatch
	pushed    []domain.Stats
}

func (g *fakeGateway) FetchAll(ctx context.Context) ([]domain.Order, domain.Stats, error) {
	if g.fetchErr != nil {
		return nil, domain.Stats{}, g.fetchErr
	}
	return []domain.Order{
		{ID: "A", Name: "Al", Phone: "0300-111", City: "Lahore", Status: domain.OrderStatusPending,
			Total: decimal.NewFromInt(100), ShippingFee: decimal.NewFromInt(10)},
		{ID: "B", Name: "Bo", Phone: "0311-222", City: "Karachi", Status: domain.OrderStatusDelivered,
			Total: decimal.NewFromInt(200), ShippingFee: decimal.NewFromInt(20)},
	}, domain.Stats{Total: 2, Pending: 1, Delivered: 1, LiveViews: 3}, nil
}

func (g *fakeGateway) CommitField(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.commitErr != nil {
		return nil, g.commitErr
	}
	if g.commits == nil {
		g.commits = map[string]domain.OrderPatch{}
	}
	g.commits[id] = patch
	return nil, nil
}

func (g *fakeGateway) PushStats(ctx context.Context, stats domain.Stats) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pushErr != nil {
		return g.pushErr
	}
	g.pushed = append(g.pushed, stats)
	return nil
}

func (g *fakeGateway) TrackView(ctx context.Context) {}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]int  `json:"meta"`
}

type testServer struct {
	mux       *http.ServeMux
	dashboard *usecase.Dashboard
	gateway   *fakeGateway
	exportDir string
}

func newTestServer(t *testing.T, gw *fakeGateway, load bool) *testServer {
	t.Helper()
	d := usecase.NewDashboard(gw, nil)
	if load {
		require.NoError(t, d.Load(context.Background()))
	}
	dir := t.TempDir()
	mux := http.NewServeMux()
	RegisterRoutes(mux, d, usecase.NewExportUsecase(storage.NewLocal(dir, "file://exports")))
	return &testServer{mux: mux, dashboard: d, gateway: gw, exportDir: dir}
}

func (s *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func decodeRows(t *testing.T, raw json.RawMessage) []domain.Row {
	t.Helper()
	var rows []domain.Row
	require.NoError(t, json.Unmarshal(raw, &rows))
	return rows
}

func TestListOrders(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, true)

	rec, env := s.do(t, http.MethodGet, "/api/v1/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 2, env.Meta["total"])

	rows := decodeRows(t, env.Data)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Order.ID)
	assert.True(t, rows[1].Order.Total.Equal(decimal.NewFromInt(200)))
}

func TestListOrders_SearchAndStatus(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, true)

	_, env := s.do(t, http.MethodGet, "/api/v1/orders?search=kar", "")
	rows := decodeRows(t, env.Data)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].Order.ID)

	_, env = s.do(t, http.MethodGet, "/api/v1/orders?status=shipped", "")
	assert.Empty(t, decodeRows(t, env.Data))
	assert.Equal(t, 0, env.Meta["total"])

	// The dashboard's own search and filter are untouched.
	assert.Equal(t, "", s.dashboard.Search())
	assert.Equal(t, domain.StatusFilterAll, s.dashboard.StatusFilter())
}

func TestListOrders_Limit(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, true)

	_, env := s.do(t, http.MethodGet, "/api/v1/orders?limit=1", "")
	rows := decodeRows(t, env.Data)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Order.ID)

	_, env = s.do(t, http.MethodGet, "/api/v1/orders?limit=abc", "")
	assert.Len(t, decodeRows(t, env.Data), 2)
}

func TestListOrders_BadFilter(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, true)

	rec, env := s.do(t, http.MethodGet, "/api/v1/orders?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "invalid status filter")
}

func TestListOrders_WhileLoading(t *testing.T) {
	s := newTestServer(t, &fakeGateway{fetchErr: errors.New("down")}, false)
	require.Error(t, s.dashboard.Load(context.Background()))

	rec, _ := s.do(t, http.MethodGet, "/api/v1/orders", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetOrder(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, true)

	rec, env := s.do(t, http.MethodGet, "/api/v1/orders/B", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var row domain.Row
	require.NoError(t, json.Unmarshal(env.Data, &row))
	assert.Equal(t, "Bo", row.Order.Name)

	rec, env = s.do(t, http.MethodGet, "/api/v1/orders/Z", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", env.Error)
}

func TestSetEditAndDiscard(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, true)

	rec, env := s.do(t, http.MethodPut, "/api/v1/orders/A/edits", `{"field":"trackingId","value":" TRK1 "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var row domain.Row
	require.NoError(t, json.Unmarshal(env.Data, &row))
	assert.True(t, row.Dirty)
	assert.Equal(t, "TRK1", row.Order.TrackingID)

	auth, err := s.dashboard.Authoritative("A")
	require.NoError(t, err)
	assert.Empty(t, auth.TrackingID)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/orders/A/edits", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.dashboard.Dirty("A"))
}

func TestSetEdit_Rejections(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, true)

	rec, _ := s.do(t, http.MethodPut, "/api/v1/orders/A/edits", `{"field":"name","value":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/orders/A/edits", `{"field":"progress","value":"150"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/orders/A/edits", `{"field":"orderStatus","value":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/orders/Z/edits", `{"field":"notes","value":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/orders/A/edits", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.False(t, s.dashboard.Dirty("A"))
}

func TestCommit(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestServer(t, gw, true)

	rec, env := s.do(t, http.MethodPost, "/api/v1/orders/A/commit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Nothing to commit", env.Message)

	s.do(t, http.MethodPut, "/api/v1/orders/A/edits", `{"field":"orderStatus","value":"delivered"}`)
	rec, env = s.do(t, http.MethodPost, "/api/v1/orders/A/commit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Order updated", env.Message)

	var row domain.Row
	require.NoError(t, json.Unmarshal(env.Data, &row))
	assert.False(t, row.Dirty)
	assert.Equal(t, domain.OrderStatusDelivered, row.Order.Status)

	require.Contains(t, gw.commits, "A")
	require.Len(t, gw.pushed, 1)
	assert.Equal(t, 2, gw.pushed[0].Delivered)
	assert.True(t, gw.pushed[0].TotalSales.Equal(decimal.NewFromInt(300)))
}

func TestCommit_Failure(t *testing.T) {
	s := newTestServer(t, &fakeGateway{commitErr: errors.New("backend down")}, true)

	s.do(t, http.MethodPut, "/api/v1/orders/A/edits", `{"field":"notes","value":"call first"}`)
	rec, env := s.do(t, http.MethodPost, "/api/v1/orders/A/commit", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, env.Error, "backend down")
	assert.True(t, s.dashboard.Dirty("A"))

	rec, _ = s.do(t, http.MethodPost, "/api/v1/orders/Z/commit", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestServer(t, gw, true)
	s.dashboard.ApplyConnectivity(true)

	rec, env := s.do(t, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Connected)
	assert.False(t, resp.Loading)
	assert.Equal(t, 2, resp.Stats.Total)
	assert.Equal(t, 3, resp.Stats.LiveViews)

	rec, env = s.do(t, http.MethodPost, "/api/v1/stats/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.True(t, stats.TotalSales.Equal(decimal.NewFromInt(200)))
	assert.True(t, stats.Profit.Equal(decimal.NewFromInt(180)))
	assert.Equal(t, 3, stats.LiveViews)
	assert.Len(t, gw.pushed, 1)
}

func TestStatsRefresh_PushFailure(t *testing.T) {
	s := newTestServer(t, &fakeGateway{pushErr: errors.New("nope")}, true)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/stats/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, true)

	rec, env := s.do(t, http.MethodPost, "/api/v1/export?status=delivered", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var res map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, strings.HasPrefix(res["url"], "file://exports/orders-"))

	data, err := os.ReadFile(filepath.Join(s.exportDir, res["key"]))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "B,Bo,"))

	rec, _ = s.do(t, http.MethodPost, "/api/v1/export?search=nobody", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExport_Unavailable(t *testing.T) {
	d := usecase.NewDashboard(&fakeGateway{}, nil)
	require.NoError(t, d.Load(context.Background()))
	mux := http.NewServeMux()
	RegisterRoutes(mux, d, usecase.NewExportUsecase(nil))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/export", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, false)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["loading"])
}
