package coach

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
	coachService "github.com/zhouzirui/talent-coach/backend/internal/service/coach"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler carries coaching turns over a long-lived connection.
type WebSocketHandler struct {
	coachSvc    *coachService.Service
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// NewWebSocketHandler builds the coaching websocket handler.
func NewWebSocketHandler(coachSvc *coachService.Service) *WebSocketHandler {
	return &WebSocketHandler{
		coachSvc: coachSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout: readTimeout,
	}
}

// RegisterWebSocketRoutes mounts the websocket endpoint on r.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// ConfigMessage selects the scenario used when the session is first created.
type ConfigMessage struct {
	CoachPersonality string `json:"coach_personality"`
	Level            string `json:"level"`
	FocusArea        string `json:"focus_area"`
	ScenarioType     string `json:"scenario_type"`
}

// TurnMessage is one recruiter query.
type TurnMessage struct {
	Query string `json:"query"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type connectionState struct {
	sessionID string
	scenario  coaching.ScenarioConfig
}

func newConnectionState(sessionID string, scenario coaching.ScenarioConfig) *connectionState {
	return &connectionState{
		sessionID: sessionID,
		scenario:  scenario,
	}
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	scenario := coaching.ScenarioConfig{
		CoachPersonality: r.URL.Query().Get("coach_personality"),
		Level:            r.URL.Query().Get("level"),
		FocusArea:        r.URL.Query().Get("focus_area"),
		ScenarioType:     r.URL.Query().Get("scenario_type"),
	}
	if existing, err := h.coachSvc.GetSession(sessionID); err == nil {
		scenario = existing.Config
	}
	state := newConnectionState(sessionID, scenario)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log.Info().Str("session_id", sessionID).Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.sendInfo(conn, sessionID, map[string]any{
		"type":   "connected",
		"config": state.scenario.WithDefaults(),
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket read failed")
			}
			return
		}

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, "session mismatch")
		} else {
			h.handleMessage(ctx, conn, state, &msg)
		}

		// Turns run inline and pongs are not read meanwhile.
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "config":
		h.handleConfigMessage(conn, state, msg.Data)
	case "turn":
		h.handleTurnMessage(ctx, conn, state, msg.Data)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleConfigMessage(conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		h.sendError(conn, "invalid config payload")
		return
	}

	h.applyConfig(state, cfg)

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":   "config",
		"config": state.scenario.WithDefaults(),
	})
}

// applyConfig updates the pending scenario. Once the session exists its
// original configuration stays in force.
func (h *WebSocketHandler) applyConfig(state *connectionState, cfg ConfigMessage) {
	if existing, err := h.coachSvc.GetSession(state.sessionID); err == nil {
		state.scenario = existing.Config
		return
	}
	if cfg.CoachPersonality != "" {
		state.scenario.CoachPersonality = cfg.CoachPersonality
	}
	if cfg.Level != "" {
		state.scenario.Level = cfg.Level
	}
	if cfg.FocusArea != "" {
		state.scenario.FocusArea = cfg.FocusArea
	}
	if cfg.ScenarioType != "" {
		state.scenario.ScenarioType = cfg.ScenarioType
	}
}

func (h *WebSocketHandler) handleTurnMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var turn TurnMessage
	if err := json.Unmarshal(raw, &turn); err != nil {
		h.sendError(conn, "invalid turn payload")
		return
	}

	result, err := h.coachSvc.SubmitTurn(ctx, state.sessionID, state.scenario, turn.Query)
	if err != nil {
		var validation *coachService.ValidationError
		if errors.As(err, &validation) {
			h.sendError(conn, validation.Message)
			return
		}
		log.Error().Err(err).Str("session_id", state.sessionID).Msg("websocket turn failed")
		h.sendError(conn, "Failed to process your input")
		return
	}

	h.send(conn, outgoingMessage{
		Type:      "response",
		SessionID: state.sessionID,
		Data:      result,
		Timestamp: time.Now().Unix(),
	})
}

func (h *WebSocketHandler) sendInfo(conn *websocket.Conn, sessionID string, data map[string]any) {
	h.send(conn, outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	})
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg outgoingMessage) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Str("session_id", msg.SessionID).Str("type", msg.Type).Msg("websocket write failed")
	}
}

// pingLoop uses WriteControl, which may run concurrently with WriteJSON.
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
