package gameclient

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes the initial client state and how it reacts to actions.
type Scenario struct {
	LoggedIn bool              `yaml:"logged_in"`
	Addons   []string          `yaml:"addons"`
	Values   map[string]string `yaml:"values"`
	// Reactions are keyed by "kind:target", e.g. "click:synthesize".
	Reactions map[string][]Effect `yaml:"reactions"`
}

// Effect is one state change applied when an action is performed.
type Effect struct {
	Show string            `yaml:"show,omitempty"`
	Hide string            `yaml:"hide,omitempty"`
	Set  map[string]string `yaml:"set,omitempty"`
	Fail string            `yaml:"fail,omitempty"`
	// Delay postpones the effect, in seconds.
	Delay float64 `yaml:"delay,omitempty"`
}

// DefaultScenario is a logged-in client whose synthesis button opens the
// synthesis window and returns to the recipe note shortly after, enough to
// drive a crafting loop.
func DefaultScenario() Scenario {
	return Scenario{
		LoggedIn: true,
		Addons:   []string{"RecipeNote"},
		Values:   map[string]string{"RecipeNote.Quality": "0"},
		Reactions: map[string][]Effect{
			"click:synthesize": {
				{Hide: "RecipeNote", Show: "Synthesis"},
				{Hide: "Synthesis", Show: "RecipeNote", Delay: 0.5},
			},
		},
	}
}

// ParseScenario decodes a scenario document.
func ParseScenario(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return s, nil
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
