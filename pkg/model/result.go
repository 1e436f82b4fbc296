package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how records are linked.
type Mode string

const (
	// ModeMap links open records and stores children under "children".
	ModeMap Mode = "map"
	// ModeFields decodes records into Record and links them by field name.
	ModeFields Mode = "fields"
	// ModeNode decodes records into Record and links them as typed nodes.
	ModeNode Mode = "node"
)

// ParseMode parses a mode name. Empty means ModeMap.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMap:
		return ModeMap, nil
	case ModeFields:
		return ModeFields, nil
	case ModeNode:
		return ModeNode, nil
	default:
		return "", fmt.Errorf("invalid mode: %q (valid: map, fields, node)", s)
	}
}

// BuildStats summarizes one build.
type BuildStats struct {
	Records   int `json:"records"`
	Roots     int `json:"roots"`
	Reachable int `json:"reachable"`
	Depth     int `json:"depth"`
}

// Detached returns the number of records not reachable from any root. It is
// only non-zero when cycles were kept.
func (s BuildStats) Detached() int {
	if s.Reachable >= s.Records {
		return 0
	}
	return s.Records - s.Reachable
}

// BuildResult is what a service run produces.
type BuildResult struct {
	Name       string        `json:"name"`
	Source     string        `json:"source"`
	Mode       Mode          `json:"mode"`
	Stats      BuildStats    `json:"stats"`
	OutputPath string        `json:"output_path,omitempty"`
	RemoteKey  string        `json:"remote_key,omitempty"`
	Duration   time.Duration `json:"duration"`
	BuiltAt    time.Time     `json:"built_at"`

	// Timings holds the duration of each phase: load, build, write and upload.
	Timings map[string]time.Duration `json:"timings,omitempty"`

	// Forest holds the roots: []map[string]any in map mode, []*Record otherwise.
	Forest any `json:"-"`
}
