package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Priority orders deployments for admission and preemption.
// Preemption only ever targets deployments of strictly lower priority.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityMedium Priority = 1
	PriorityHigh   Priority = 2
)

// DefaultPriority is used when a deployment is submitted without one.
const DefaultPriority = PriorityMedium

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}
	return "medium"
}

// ParsePriority validates user input strictly: the empty string means
// "use the default", anything else must be one of the three recognised
// tokens (case-insensitive).
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return DefaultPriority, nil
	}
	switch strings.ToLower(s) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return DefaultPriority, fmt.Errorf("unknown priority %q, expected one of: low, medium, high", s)
}

// PriorityFromString coerces stored values leniently: unrecognised or empty
// tokens fall back to the default rather than failing reads of old records.
func PriorityFromString(s string) Priority {
	p, err := ParsePriority(s)
	if err != nil {
		return DefaultPriority
	}
	return p
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = PriorityFromString(s)
	return nil
}
