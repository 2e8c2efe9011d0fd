package coaching

import (
	_ "embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Personality describes a coaching style exposed to the dashboard.
type Personality struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Tone        string   `json:"tone" yaml:"tone"`
	PromptHint  string   `json:"promptHint" yaml:"prompt_hint"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Traits      []string `json:"traits,omitempty" yaml:"traits"`
}

//go:embed personalities.yaml
var personalitiesYAML []byte

// ParsePersonalities decodes a YAML list of personalities.
func ParsePersonalities(data []byte) ([]Personality, error) {
	var doc struct {
		Personalities []Personality `yaml:"personalities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode personalities")
	}
	for i, p := range doc.Personalities {
		if p.ID == "" {
			return nil, errors.Errorf("personality #%d has no id", i)
		}
	}
	return doc.Personalities, nil
}

// Seed returns the built-in coaching styles.
func Seed() []Personality {
	items, err := ParsePersonalities(personalitiesYAML)
	if err != nil {
		panic(err)
	}
	return items
}
