package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reel/internal/adapters/storage/localfs"
	"reel/internal/metrics"
	"reel/internal/models"
	"reel/internal/pkg/logger"
	"reel/internal/pkg/middleware"
	"reel/internal/repositories"
)

type nopStore struct{}

func (nopStore) Create(context.Context, *models.Render) error { return nil }
func (nopStore) Get(context.Context, string) (*models.Render, error) {
	return nil, repositories.ErrRenderNotFound
}
func (nopStore) List(context.Context, models.RenderStatus, int) ([]models.Render, error) {
	return []models.Render{}, nil
}
func (nopStore) MarkFailed(context.Context, string, string) error { return nil }
func (nopStore) Ping(context.Context) error                       { return nil }

type nopQueue struct{}

func (nopQueue) Push(context.Context, string) error { return nil }
func (nopQueue) Ping(context.Context) error         { return nil }

func newTestRouter(t *testing.T, m *metrics.Metrics) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Store:          nopStore{},
		Queue:          nopQueue{},
		SP:             localfs.New(t.TempDir()),
		Metrics:        m,
		Log:            logger.Discard(),
		AllowedOrigins: []string{"http://localhost:5173"},
	})
}

func TestRouterRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/renders", http.StatusOK},
		{http.MethodGet, "/renders/rnd_x", http.StatusNotFound},
		{http.MethodGet, "/renders/rnd_x/content", http.StatusNotFound},
		{http.MethodPost, "/renders", http.StatusBadRequest},
		{http.MethodGet, "/metrics", http.StatusNotFound},
		{http.MethodDelete, "/renders/rnd_x", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/renders", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestRouterContentExposesHeaders(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/renders/rnd_x/content", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	want := "X-Request-ID, Content-Disposition, Content-Length"
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != want {
		t.Errorf("expose headers = %q, want %q", got, want)
	}
}

func TestRouterMetrics(t *testing.T) {
	m := metrics.New()
	r := newTestRouter(t, m)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/renders/rnd_x", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	want := `reel_http_requests_total{code="404",route="/renders/{renderId}"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics missing %q", want)
	}
}
