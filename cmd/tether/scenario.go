package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is the YAML script the simulate command runs: a set of
// entities (optionally pre-tagged, to exercise replay) and an ordered
// list of tag events to drive through the registry.
type Scenario struct {
	Tag        string           `yaml:"tag"`
	GUIDPrefix string           `yaml:"guid_prefix"`
	Entities   []ScenarioEntity `yaml:"entities"`
	Events     []ScenarioEvent  `yaml:"events"`
}

// ScenarioEntity declares an entity, its place in the hierarchy, and
// the tags it carries before the registry attaches.
type ScenarioEntity struct {
	ID     string   `yaml:"id"`
	Parent string   `yaml:"parent,omitempty"`
	Tags   []string `yaml:"tags,omitempty"`
}

// ScenarioEvent is one step of the script.
type ScenarioEvent struct {
	// Action is one of "add", "remove", or "call".
	Action string `yaml:"action"`
	Entity string `yaml:"entity,omitempty"`
	Method string `yaml:"method,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	if sc.Tag == "" {
		return nil, fmt.Errorf("scenario is missing a tag")
	}
	for i, ev := range sc.Events {
		switch ev.Action {
		case "add", "remove":
			if ev.Entity == "" {
				return nil, fmt.Errorf("event %d: %q requires an entity", i, ev.Action)
			}
		case "call":
			if ev.Method == "" {
				return nil, fmt.Errorf("event %d: call requires a method", i)
			}
		default:
			return nil, fmt.Errorf("event %d: unknown action %q", i, ev.Action)
		}
	}
	return &sc, nil
}
