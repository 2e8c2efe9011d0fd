package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
)

// CoachPromptManager turns a coach personality into style notes for the turn prompt.
type CoachPromptManager struct {
	personalities coaching.PersonalityStore
}

// NewCoachPromptManager creates a prompt manager backed by the personality catalog.
func NewCoachPromptManager(personalities coaching.PersonalityStore) *CoachPromptManager {
	return &CoachPromptManager{personalities: personalities}
}

// StyleNotes describes how the coach should sound. Personalities outside the
// catalog are passed through as free text.
func (pm *CoachPromptManager) StyleNotes(personality string) string {
	personality = strings.TrimSpace(personality)
	if pm == nil || pm.personalities == nil {
		return personality
	}

	p, ok := pm.personalities.FindByID(strings.ToLower(personality))
	if !ok {
		return personality
	}

	notes := fmt.Sprintf("%s, %s.", p.Name, p.Tone)
	if p.PromptHint != "" {
		notes += " " + p.PromptHint
	}
	if len(p.Traits) > 0 {
		notes += " Traits: " + strings.Join(p.Traits, ", ") + "."
	}
	return notes
}
