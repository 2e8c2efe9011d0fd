package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
	"github.com/zhouzirui/talent-coach/backend/internal/report"
	"github.com/zhouzirui/talent-coach/backend/internal/service/ai"
	coachService "github.com/zhouzirui/talent-coach/backend/internal/service/coach"
	"github.com/zhouzirui/talent-coach/backend/internal/storage"
	"github.com/zhouzirui/talent-coach/backend/internal/service/session"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, _ ai.Purpose, vars map[string]string) (string, error) {
	return "echo " + vars[ai.VarQuery], nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithObjects(t, nil)
}

func newTestRouterWithObjects(t *testing.T, objects *storage.S3Store) http.Handler {
	t.Helper()
	personalities := coaching.NewMemoryStore(coaching.Seed())
	svc, err := coachService.NewService(coachService.Dependencies{
		Store:     session.NewStore(session.Options{}),
		Completer: echoCompleter{},
		Prompts:   ai.NewCoachPromptManager(personalities),
		Deliverer: report.NewDeliverer(t.TempDir()),
	})
	require.NoError(t, err)

	return NewRouter(Dependencies{
		Personalities: personalities,
		Coach:         svc,
		Objects:       objects,
		ReportFormat:  report.FormatPDF,
	})
}

func TestRouterMountsCoachRoutes(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/coach/turn", strings.NewReader(`{"session_id":"r1","query":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/coach/session/r1", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRouterUnknownSession(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/coach/session/unknown-id", nil))

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRouterCatalogAndHealth(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/coaches", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "supportive")

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRouterResumeFetchWithoutStorage(t *testing.T) {
	var unconfigured *storage.S3Store
	r := newTestRouterWithObjects(t, unconfigured)

	req := httptest.NewRequest(http.MethodPost, "/api/resumes/extract", strings.NewReader(`{"object_key":"cv.pdf"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), "object storage unavailable")
}
