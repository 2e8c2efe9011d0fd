package personality

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
	"github.com/zhouzirui/talent-coach/backend/pkg/utils"
)

// Handler serves the coach personality catalog.
type Handler struct {
	personalities coaching.PersonalityStore
}

// New builds a personality handler.
func New(personalities coaching.PersonalityStore) *Handler {
	return &Handler{
		personalities: personalities,
	}
}

// RegisterRoutes mounts the catalog routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/coaches", h.handleList)
	r.Get("/coaches/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personalities.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := h.personalities.FindByID(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "coach personality not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}
