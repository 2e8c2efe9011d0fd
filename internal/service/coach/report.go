package coach

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/talent-coach/backend/internal/events"
	"github.com/zhouzirui/talent-coach/backend/internal/report"
	"github.com/zhouzirui/talent-coach/backend/internal/service/ai"
)

// Report is a sanitized summary of one session at one point in time.
type Report struct {
	SessionID   string    `json:"session_id"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// CompileReport summarizes the whole transcript. The session is read, never modified.
func (s *Service) CompileReport(ctx context.Context, sessionID string) (Report, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Report{}, &ValidationError{Message: "session_id is required"}
	}

	current, err := s.store.Read(sessionID)
	if err != nil || current.Len() == 0 {
		return Report{}, ErrNotFound
	}

	raw, err := s.completer.Complete(ctx, ai.PurposeReport, map[string]string{
		ai.VarLog: strings.Join(current.Transcript, "\n\n"),
	})
	if err != nil {
		return Report{}, s.generationFailure(sessionID, StageReport, err)
	}

	generated := Report{
		SessionID:   sessionID,
		Text:        report.Sanitize(raw),
		GeneratedAt: s.now(),
	}
	log.Info().
		Str("session_id", sessionID).
		Int("entries", current.Len()).
		Int("length", len(generated.Text)).
		Msg("coaching report compiled")
	return generated, nil
}

// DeliverReport compiles a report, renders it as format and passes the file to handoff.
func (s *Service) DeliverReport(ctx context.Context, sessionID string, format report.Format, handoff report.Handoff) error {
	compiled, err := s.CompileReport(ctx, sessionID)
	if err != nil {
		return err
	}

	doc := report.Document{
		SessionID:   compiled.SessionID,
		Title:       report.DefaultTitle,
		Body:        compiled.Text,
		GeneratedAt: compiled.GeneratedAt,
	}
	if err := s.deliverer.Deliver(ctx, doc, format, handoff); err != nil {
		var renderErr *report.RenderError
		if errors.As(err, &renderErr) {
			log.Error().Err(err).Str("session_id", compiled.SessionID).Str("stage", StageRender).Msg("report render failed")
		}
		return err
	}

	s.publish(ctx, events.Update{
		Kind:      events.KindReportGenerated,
		SessionID: compiled.SessionID,
		Format:    string(format),
		At:        compiled.GeneratedAt,
	})
	return nil
}
