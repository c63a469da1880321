// Package chanplan loads the YAML channel plan: a list of named
// frequencies so an operator can tune by name instead of typing raw Hz.
package chanplan

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one named channel in the plan.
type Entry struct {
	// Name identifies the entry, matched case-insensitively by Lookup.
	Name string `yaml:"name"`
	// FrequencyHz is the tuning frequency in Hz.
	FrequencyHz int64 `yaml:"frequency_hz"`
	// Channel is the receiver channel index the entry tunes, 0..255.
	Channel int `yaml:"channel"`
	// Notes is free-form operator text.
	Notes string `yaml:"notes,omitempty"`
}

// Plan is a validated channel plan.
type Plan struct {
	Entries []Entry `yaml:"channels"`
}

// Load reads and validates the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channel plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a plan document.
func Parse(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse channel plan: %w", err)
	}
	if err := plan.validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (p *Plan) validate() error {
	seen := make(map[string]struct{}, len(p.Entries))
	for i, e := range p.Entries {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("channel %d: name must not be empty", i)
		}
		key := strings.ToLower(e.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("channel %q: duplicate name", e.Name)
		}
		seen[key] = struct{}{}
		if e.FrequencyHz <= 0 {
			return fmt.Errorf("channel %q: frequency %d Hz must be positive", e.Name, e.FrequencyHz)
		}
		if e.Channel < 0 || e.Channel > 0xFF {
			return fmt.Errorf("channel %q: receiver channel %d outside 0..255", e.Name, e.Channel)
		}
	}
	return nil
}

// Lookup finds an entry by name, case-insensitively.
func (p *Plan) Lookup(name string) (Entry, bool) {
	for _, e := range p.Entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}
