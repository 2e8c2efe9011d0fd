package coaching

import "strings"

// Default scenario values applied when the caller omits a field.
const (
	DefaultCoachPersonality = "supportive"
	DefaultLevel            = "intermediate"
	DefaultFocusArea        = "technical skills"
	DefaultScenarioType     = "software engineer"
)

// ScenarioConfig captures the parameters of a coaching session. Values are free-form
// and forwarded to the model as-is; only blank fields are replaced by defaults.
type ScenarioConfig struct {
	CoachPersonality string `json:"coach_personality"`
	Level            string `json:"level"`
	FocusArea        string `json:"focus_area"`
	ScenarioType     string `json:"scenario_type"`
}

// DefaultScenario returns the configuration used when nothing is supplied.
func DefaultScenario() ScenarioConfig {
	return ScenarioConfig{
		CoachPersonality: DefaultCoachPersonality,
		Level:            DefaultLevel,
		FocusArea:        DefaultFocusArea,
		ScenarioType:     DefaultScenarioType,
	}
}

// WithDefaults fills blank fields with their documented defaults.
func (c ScenarioConfig) WithDefaults() ScenarioConfig {
	return ScenarioConfig{
		CoachPersonality: valueOrDefault(c.CoachPersonality, DefaultCoachPersonality),
		Level:            valueOrDefault(c.Level, DefaultLevel),
		FocusArea:        valueOrDefault(c.FocusArea, DefaultFocusArea),
		ScenarioType:     valueOrDefault(c.ScenarioType, DefaultScenarioType),
	}
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
