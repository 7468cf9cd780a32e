package stats

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/telemetry"
)

type viewerFunc func(ctx context.Context) (*hr.Snapshot, error)

func (f viewerFunc) View(ctx context.Context) (*hr.Snapshot, error) { return f(ctx) }

func newStatsRouter(v SnapshotViewer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(v, func() time.Time { return now }).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestDashboardEndpoint(t *testing.T) {
	snap := hr.DemoSnapshot(now)
	r := newStatsRouter(viewerFunc(func(context.Context) (*hr.Snapshot, error) { return snap, nil }))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got DashboardStats
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PendingApplications != 2 {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestDepartmentEndpointNotFound(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	snap := hr.DemoSnapshot(now)
	r := newStatsRouter(viewerFunc(func(context.Context) (*hr.Snapshot, error) { return snap, nil }))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/departments/Legal/stats", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/departments/Sales/stats", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestStatsEndpointStoreFailure(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	r := newStatsRouter(viewerFunc(func(context.Context) (*hr.Snapshot, error) { return nil, errors.New("db down") }))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/daily", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
