package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
	"github.com/zhouzirui/talent-coach/backend/internal/report"
	coachService "github.com/zhouzirui/talent-coach/backend/internal/service/coach"
	"github.com/zhouzirui/talent-coach/backend/pkg/utils"
)

const maxFormMemory = 1 << 20

// Handler serves the coaching session endpoints.
type Handler struct {
	coachSvc      *coachService.Service
	defaultFormat report.Format
}

// New builds a coaching handler. Reports use defaultFormat when the request names none.
func New(coachSvc *coachService.Service, defaultFormat report.Format) *Handler {
	if defaultFormat == "" {
		defaultFormat = report.FormatPDF
	}
	return &Handler{
		coachSvc:      coachSvc,
		defaultFormat: defaultFormat,
	}
}

// RegisterRoutes mounts the coaching routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/turn", h.handleTurn)
	r.Get("/report", h.handleReport)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleDeleteSession)
}

type turnRequest struct {
	SessionID        string `json:"session_id"`
	CoachPersonality string `json:"coach_personality"`
	Level            string `json:"level"`
	FocusArea        string `json:"focus_area"`
	ScenarioType     string `json:"scenario_type"`
	Query            string `json:"query"`
}

func (t turnRequest) scenario() coaching.ScenarioConfig {
	return coaching.ScenarioConfig{
		CoachPersonality: t.CoachPersonality,
		Level:            t.Level,
		FocusArea:        t.FocusArea,
		ScenarioType:     t.ScenarioType,
	}
}

type turnResponse struct {
	coachService.TurnResult
	Success bool `json:"success"`
}

func decodeTurn(r *http.Request) (turnRequest, error) {
	var payload turnRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return payload, err
		}
		payload = turnRequest{
			SessionID:        r.FormValue("session_id"),
			CoachPersonality: r.FormValue("coach_personality"),
			Level:            r.FormValue("level"),
			FocusArea:        r.FormValue("focus_area"),
			ScenarioType:     r.FormValue("scenario_type"),
			Query:            r.FormValue("query"),
		}
		return payload, nil
	default:
		err := json.NewDecoder(r.Body).Decode(&payload)
		return payload, err
	}
}

// handleTurn runs one recruiter query through the coach.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeTurn(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.coachSvc.SubmitTurn(r.Context(), payload.SessionID, payload.scenario(), payload.Query)
	if err != nil {
		var validation *coachService.ValidationError
		if errors.As(err, &validation) {
			utils.RespondError(w, http.StatusBadRequest, validation.Message)
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("session_id", payload.SessionID).Msg("coaching turn failed")
		utils.RespondFailure(w, http.StatusInternalServerError, "Failed to process your input", err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, turnResponse{TurnResult: result, Success: true})
}

// handleReport compiles the session report and streams it as an attachment.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	format, err := report.ParseFormat(r.URL.Query().Get("format"), h.defaultFormat)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	served := false
	err = h.coachSvc.DeliverReport(r.Context(), sessionID, format, func(ctx context.Context, a report.Artifact) error {
		served = true
		w.Header().Set("Content-Type", a.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
		http.ServeContent(w, r, a.Name, a.ModTime, a.Body)
		return ctx.Err()
	})
	if err == nil || served {
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("session_id", sessionID).Msg("report download interrupted")
		}
		return
	}

	var validation *coachService.ValidationError
	switch {
	case errors.As(err, &validation):
		utils.RespondError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, coachService.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "No session found or session is empty")
	default:
		hlog.FromRequest(r).Error().Err(err).Str("session_id", sessionID).Msg("report generation failed")
		utils.RespondFailure(w, http.StatusInternalServerError, "Failed to generate report", err.Error())
	}
}

// handleGetSession returns the transcript of a session.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	current, err := h.coachSvc.GetSession(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "Session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session_id":    current.ID,
		"history":       current.Transcript,
		"message_count": current.Len(),
	})
}

// handleDeleteSession discards a session. Unknown ids succeed.
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.coachSvc.DeleteSession(r.Context(), sessionID)

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message":    "Session cleared",
		"session_id": sessionID,
	})
}
