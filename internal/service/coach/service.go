package coach

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/talent-coach/backend/internal/database"
	"github.com/zhouzirui/talent-coach/backend/internal/events"
	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
	"github.com/zhouzirui/talent-coach/backend/internal/report"
	"github.com/zhouzirui/talent-coach/backend/internal/service/ai"
	"github.com/zhouzirui/talent-coach/backend/internal/service/session"
)

// WindowSize is the number of trailing transcript entries sent with each turn.
const WindowSize = 3

// Completer produces text for a prompt purpose.
type Completer interface {
	Complete(ctx context.Context, purpose ai.Purpose, vars map[string]string) (string, error)
}

// TurnArchive records appended transcript entries outside the live session.
type TurnArchive interface {
	InsertTurn(ctx context.Context, arg database.InsertTurnParams) error
}

// ReportDeliverer renders a document and hands it to a transport.
type ReportDeliverer interface {
	Deliver(ctx context.Context, doc report.Document, format report.Format, handoff report.Handoff) error
}

// Dependencies wires the coaching service. Store and Completer are required.
type Dependencies struct {
	Store     *session.Store
	Completer Completer
	Prompts   *ai.CoachPromptManager
	Deliverer ReportDeliverer
	Archive   TurnArchive
	Publisher events.Publisher
}

// Service drives coaching sessions: turns, reports and lifecycle.
type Service struct {
	store     *session.Store
	completer Completer
	prompts   *ai.CoachPromptManager
	deliverer ReportDeliverer
	archive   TurnArchive
	publisher events.Publisher
	now       func() time.Time
}

// NewService validates deps and builds the service.
func NewService(deps Dependencies) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Completer == nil {
		return nil, errors.New("completer is required")
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	deliverer := deps.Deliverer
	if deliverer == nil {
		deliverer = report.NewDeliverer("")
	}
	return &Service{
		store:     deps.Store,
		completer: deps.Completer,
		prompts:   deps.Prompts,
		deliverer: deliverer,
		archive:   deps.Archive,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// TurnResult is the outcome of a successful turn.
type TurnResult struct {
	Response      string `json:"response"`
	SessionID     string `json:"session_id"`
	HistoryLength int    `json:"history_length"`
}

// SubmitTurn runs one recruiter query through the coach. The session is created
// with cfg on first use; later calls keep the original configuration. Turns on
// the same session run one at a time. On failure the transcript is unchanged.
func (s *Service) SubmitTurn(ctx context.Context, sessionID string, cfg coaching.ScenarioConfig, query string) (TurnResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || strings.TrimSpace(query) == "" {
		return TurnResult{}, &ValidationError{Message: "Missing required fields: session_id and query are required"}
	}

	turn, err := s.lockSession(ctx, sessionID, cfg)
	if err != nil {
		return TurnResult{}, err
	}
	defer turn.Release()

	current := turn.Session()

	vars := TurnVars(current.Config, s.prompts.StyleNotes(current.Config.CoachPersonality), Window(current.Transcript, WindowSize), query)
	response, err := s.completer.Complete(ctx, ai.PurposeTurn, vars)
	if err != nil {
		return TurnResult{}, s.generationFailure(sessionID, StageTurn, err)
	}

	entry := coaching.FormatTurn(query, response)
	length, err := turn.Append(entry)
	if err != nil {
		return TurnResult{}, s.generationFailure(sessionID, StageAppend, err)
	}

	s.recordTurn(ctx, sessionID, length, entry)

	log.Info().
		Str("session_id", sessionID).
		Int("history_length", length).
		Msg("coaching turn appended")
	return TurnResult{Response: response, SessionID: sessionID, HistoryLength: length}, nil
}

// lockSession ensures the session exists and takes its turn lock. A session
// deleted between creation and locking is recreated once.
func (s *Service) lockSession(ctx context.Context, sessionID string, cfg coaching.ScenarioConfig) (*session.Turn, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if _, created := s.store.GetOrCreate(sessionID, cfg); created {
			log.Info().Str("session_id", sessionID).Msg("coaching session created")
		}
		turn, err := s.store.Lock(ctx, sessionID)
		if err == nil {
			return turn, nil
		}
		if !errors.Is(err, session.ErrSessionNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// recordTurn archives and announces an appended entry. Failures are logged only.
func (s *Service) recordTurn(ctx context.Context, sessionID string, position int, entry string) {
	at := s.now()
	if s.archive != nil {
		err := s.archive.InsertTurn(ctx, database.InsertTurnParams{
			SessionID: sessionID,
			Position:  position,
			Entry:     entry,
			CreatedAt: at,
		})
		if err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Str("stage", "archive").Msg("archive turn failed")
		}
	}
	s.publish(ctx, events.Update{Kind: events.KindTurnAppended, SessionID: sessionID, HistoryLength: position, At: at})
}

func (s *Service) publish(ctx context.Context, update events.Update) {
	if err := s.publisher.Publish(ctx, update); err != nil {
		log.Warn().Err(err).Str("session_id", update.SessionID).Str("stage", "publish").Str("kind", update.Kind).Msg("publish session update failed")
	}
}

func (s *Service) generationFailure(sessionID, stage string, err error) error {
	log.Error().Err(err).Str("session_id", sessionID).Str("stage", stage).Msg("generation failed")
	return &GenerationError{SessionID: sessionID, Stage: stage, Err: err}
}

// GetSession returns a copy of the session.
func (s *Service) GetSession(sessionID string) (coaching.Session, error) {
	current, err := s.store.Read(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return coaching.Session{}, ErrNotFound
		}
		return coaching.Session{}, err
	}
	return current, nil
}

// DeleteSession removes the session. Unknown ids are ignored.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) {
	s.store.Delete(sessionID)
	s.publish(ctx, events.Update{Kind: events.KindSessionCleared, SessionID: sessionID, At: s.now()})
	log.Info().Str("session_id", sessionID).Msg("coaching session cleared")
}

// Window returns the last n entries joined by newlines.
func Window(transcript []string, n int) string {
	if n <= 0 || len(transcript) == 0 {
		return ""
	}
	start := len(transcript) - n
	if start < 0 {
		start = 0
	}
	return strings.Join(transcript[start:], "\n")
}

// TurnVars builds the template variables for a coaching turn.
func TurnVars(cfg coaching.ScenarioConfig, style, window, query string) map[string]string {
	if style == "" {
		style = cfg.CoachPersonality
	}
	return map[string]string{
		ai.VarCoachPersonality: cfg.CoachPersonality,
		ai.VarCoachStyle:       style,
		ai.VarLevel:            cfg.Level,
		ai.VarFocusArea:        cfg.FocusArea,
		ai.VarScenarioType:     cfg.ScenarioType,
		ai.VarPreviousResponse: window,
		ai.VarQuery:            query,
	}
}
