// Package control turns inbound client messages into panel mutations and
// panel state into the snapshot every client receives.
package control

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/coreman2200/ledmatrix/internal/panel"
	"github.com/coreman2200/ledmatrix/internal/pixel"
)

var (
	ErrMalformed     = errors.New("malformed message")
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidValue  = errors.New("invalid value")
)

type Action string

const (
	ActionPower      Action = "power"
	ActionHue        Action = "hue"
	ActionSaturation Action = "saturation"
	ActionBrightness Action = "brightness"
	ActionPattern    Action = "pattern"
	ActionGrid       Action = "grid"
	ActionClear      Action = "clear"
	ActionColor      Action = "color"
)

// legacy action names used by the first firmware UI
var aliases = map[string]Action{
	"on": ActionPower,
}

// Command is one decoded client request.
type Command struct {
	Action Action

	// Power is nil for a toggle.
	Power   *bool
	Level   int
	Pattern panel.Pattern
	Cells   []int
	Color   pixel.Color
}

type envelope struct {
	Action string          `json:"action"`
	Value  json.RawMessage `json:"value"`
	Data   json.RawMessage `json:"data"`
}

type gridValue struct {
	Cells []json.RawMessage `json:"cells"`
	Color json.RawMessage   `json:"color"`
}

// Decode parses {"action": ..., "value": ...}. The older "data" key is
// accepted in place of "value". Errors wrap ErrMalformed, ErrUnknownAction or
// ErrInvalidValue; on error the returned Command must not be applied.
func Decode(b []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Action == "" {
		return Command{}, fmt.Errorf("%w: missing action", ErrMalformed)
	}
	raw := env.Value
	if isAbsent(raw) {
		raw = env.Data
	}

	act := Action(env.Action)
	if a, ok := aliases[env.Action]; ok {
		act = a
	}
	cmd := Command{Action: act}

	switch act {
	case ActionPower:
		if isAbsent(raw) {
			return cmd, nil
		}
		var on bool
		if err := json.Unmarshal(raw, &on); err != nil {
			return Command{}, invalid(act, raw)
		}
		cmd.Power = &on

	case ActionHue, ActionSaturation, ActionBrightness:
		v, ok := integer(raw)
		if !ok {
			return Command{}, invalid(act, raw)
		}
		cmd.Level = v

	case ActionPattern:
		p, ok := patternValue(raw)
		if !ok {
			return Command{}, invalid(act, raw)
		}
		cmd.Pattern = p

	case ActionGrid:
		var g gridValue
		if err := json.Unmarshal(raw, &g); err != nil || g.Cells == nil {
			return Command{}, invalid(act, raw)
		}
		c, ok := colorValue(g.Color)
		if !ok {
			return Command{}, invalid(act, g.Color)
		}
		cmd.Color = c
		cmd.Cells = make([]int, 0, len(g.Cells))
		for _, rc := range g.Cells {
			// a bad cell entry drops that cell only
			if i, ok := integer(rc); ok {
				cmd.Cells = append(cmd.Cells, i)
			}
		}

	case ActionColor:
		c, ok := colorValue(raw)
		if !ok {
			return Command{}, invalid(act, raw)
		}
		cmd.Color = c

	case ActionClear:

	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
	return cmd, nil
}

func invalid(a Action, raw json.RawMessage) error {
	return fmt.Errorf("%w for %s: %s", ErrInvalidValue, a, bytes.TrimSpace(raw))
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// integer accepts a JSON number with no fractional part.
func integer(raw json.RawMessage) (int, bool) {
	if isAbsent(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// patternValue accepts the numeric id or the pattern name.
func patternValue(raw json.RawMessage) (panel.Pattern, bool) {
	if id, ok := integer(raw); ok {
		return panel.PatternFromID(id)
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return 0, false
	}
	return panel.ParsePattern(name)
}

// colorValue accepts a 0xRRGGBB integer.
func colorValue(raw json.RawMessage) (pixel.Color, bool) {
	v, ok := integer(raw)
	if !ok || v < 0 || v > 0xFFFFFF {
		return pixel.Color{}, false
	}
	return pixel.FromUint32(uint32(v)), true
}
