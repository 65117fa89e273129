package plans

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the plan file format from its extension, JSON by default.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load parses a plan file. Unknown fields are rejected so typos in a
// hand-written plan do not go unnoticed.
func Load(r io.Reader, format Format) (*WorkoutPlan, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	plan := &WorkoutPlan{}
	switch format {
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(raw))
		decoder.KnownFields(true)
		if err := decoder.Decode(plan); err != nil {
			return nil, fmt.Errorf("decode yaml plan: %w", err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(plan); err != nil {
			return nil, fmt.Errorf("decode json plan: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown plan format [%s]", format)
	}

	if plan.Schedule == nil {
		plan.Schedule = map[string]ScheduleEntry{}
	}
	normalized := make(map[string]ScheduleEntry, len(plan.Schedule))
	for day, entry := range plan.Schedule {
		normalized[strings.ToLower(strings.TrimSpace(day))] = entry
	}
	plan.Schedule = normalized
	return plan, nil
}
