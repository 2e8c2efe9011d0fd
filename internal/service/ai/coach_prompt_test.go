package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
	"github.com/zhouzirui/talent-coach/backend/internal/service/ai"
)

func TestStyleNotesKnownPersonality(t *testing.T) {
	pm := ai.NewCoachPromptManager(coaching.NewMemoryStore(coaching.Seed()))

	notes := pm.StyleNotes("Strict")
	assert.Contains(t, notes, "Strict Evaluator")
	assert.Contains(t, notes, "direct")
}

func TestStyleNotesUnknownPersonalityPassesThrough(t *testing.T) {
	pm := ai.NewCoachPromptManager(coaching.NewMemoryStore(coaching.Seed()))
	assert.Equal(t, "sarcastic pirate", pm.StyleNotes("sarcastic pirate"))

	var empty *ai.CoachPromptManager
	assert.Equal(t, "supportive", empty.StyleNotes(" supportive "))
}
