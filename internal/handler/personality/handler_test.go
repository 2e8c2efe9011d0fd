package personality

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(coaching.NewMemoryStore(coaching.Seed())).RegisterRoutes(r)
	return r
}

func TestListCoaches(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/coaches", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var got []coaching.Personality
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Len(t, got, len(coaching.Seed()))
}

func TestGetCoach(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/coaches/strict", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var got coaching.Personality
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "strict", got.ID)
}

func TestGetCoachUnknown(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/coaches/nobody", nil))

	assert.Equal(t, http.StatusNotFound, resp.Code)
}
