package panel

import "strings"

// Pattern selects the render function. Values travel over the wire as their
// integer id, so the order is fixed.
type Pattern uint8

const (
	Fill Pattern = iota
	Fade
	Confetti
	Grid

	patternCount
)

var patternNames = [patternCount]string{
	Fill:     "fill",
	Fade:     "fade",
	Confetti: "confetti",
	Grid:     "grid",
}

func (p Pattern) Valid() bool { return p < patternCount }

func (p Pattern) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return patternNames[p]
}

// Patterns lists every known pattern in id order.
func Patterns() []Pattern {
	out := make([]Pattern, 0, patternCount)
	for p := Pattern(0); p < patternCount; p++ {
		out = append(out, p)
	}
	return out
}

// PatternFromID validates a wire id.
func PatternFromID(id int) (Pattern, bool) {
	if id < 0 || id >= int(patternCount) {
		return 0, false
	}
	return Pattern(id), true
}

// ParsePattern accepts a pattern name, case-insensitive.
func ParsePattern(name string) (Pattern, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range patternNames {
		if n == name {
			return Pattern(p), true
		}
	}
	return 0, false
}
