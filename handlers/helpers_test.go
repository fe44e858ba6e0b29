package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/internal/observability"
	"github.com/upb/observability-demo-api/repositories/postgres"
	"github.com/upb/observability-demo-api/services/tenant"
	"github.com/upb/observability-demo-api/utils"
)

var testTenants = []string{"tenant-a", "tenant-b", "tenant-c"}

// testEnv bundles the collaborators every handler test needs: a sqlmock
// backed database, a mock clock and a private metrics registry.
type testEnv struct {
	mock      sqlmock.Sqlmock
	db        *postgres.DB
	clock     *clock.Mock
	metrics   *observability.Metrics
	validator *tenant.Validator
	logger    *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	return &testEnv{
		mock:      mock,
		db:        postgres.NewDBFromSQL(sqlDB, zap.NewNop()),
		clock:     clk,
		metrics:   observability.NewMetrics(prometheus.NewRegistry()),
		validator: tenant.NewValidator(testTenants),
		logger:    zap.NewNop(),
	}
}

// serve routes a single request through a chi router so URL params resolve.
func serve(method, pattern string, h http.HandlerFunc, target string, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}
