package coaching

import (
	"fmt"
	"time"
)

// Session is a named, ordered coaching transcript plus the scenario it was opened with.
type Session struct {
	ID         string         `json:"session_id"`
	Config     ScenarioConfig `json:"config"`
	Transcript []string       `json:"history"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Len reports the number of transcript entries.
func (s Session) Len() int {
	return len(s.Transcript)
}

// Clone returns a copy whose transcript does not share backing storage.
func (s Session) Clone() Session {
	out := s
	out.Transcript = append([]string(nil), s.Transcript...)
	return out
}

// FormatTurn renders one query/response exchange as a single transcript entry.
func FormatTurn(query, response string) string {
	return fmt.Sprintf("RECRUITER: %s\nCOACH: %s", query, response)
}

// WelcomeMessage is the synthesized first transcript entry of every session.
func WelcomeMessage(cfg ScenarioConfig) string {
	return fmt.Sprintf(`Welcome to your interview training session!

**Scenario**: You're interviewing a %s candidate for a %s position.
**Difficulty**: %s
**Coach Style**: %s

I'll play the role of the candidate and provide coaching feedback. Start by introducing yourself and asking your first question!`,
		cfg.ScenarioType,
		cfg.FocusArea,
		cfg.Level,
		cfg.CoachPersonality,
	)
}
