package trace

import (
	"fmt"
	"strings"
)

// Level controls which scopes are recorded.
type Level uint8

const (
	LevelOff Level = iota
	LevelRun
	LevelModule
	LevelFunc
	// LevelDebug adds per-loan events.
	LevelDebug
)

var levelNames = [...]string{"off", "run", "module", "func", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names printed by String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil //nolint:gosec // index of a five-element table
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if l == LevelOff || scope == 0 {
		return false
	}
	return uint8(scope) <= uint8(l)
}
