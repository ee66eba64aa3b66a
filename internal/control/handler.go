package control

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledmatrix/internal/panel"
)

// Output is the part of the frame loop the control path may touch.
type Output interface {
	// Blank zeroes the pixel buffer immediately.
	Blank()
	// PushBrightness forwards the global brightness to the LED driver.
	PushBrightness(v uint8) error
}

// Status is the full-state snapshot sent to every client.
type Status struct {
	Power       bool   `json:"power"`
	On          bool   `json:"on"` // same as power, read by the bundled UI
	Hue         uint8  `json:"hue"`
	Saturation  uint8  `json:"saturation"`
	Brightness  uint8  `json:"brightness"`
	Pattern     int    `json:"pattern"`
	PatternName string `json:"pattern_name"`
	Color       uint32 `json:"color"`
}

func StatusOf(s panel.Snapshot) Status {
	return Status{
		Power:       s.Power,
		On:          s.Power,
		Hue:         s.Hue,
		Saturation:  s.Saturation,
		Brightness:  s.Brightness,
		Pattern:     int(s.Pattern),
		PatternName: s.Pattern.String(),
		Color:       s.Color().Uint32(),
	}
}

// Encode serializes a snapshot.
func Encode(s panel.Snapshot) ([]byte, error) {
	return json.Marshal(StatusOf(s))
}

// DecodeStatus parses a snapshot as a client would.
func DecodeStatus(b []byte) (Status, error) {
	var st Status
	err := json.Unmarshal(b, &st)
	return st, err
}

// Handler applies commands to a panel State. Each command goes through one
// State mutator (or one locked multi-field update), so it is either fully
// applied or not at all.
type Handler struct {
	state *panel.State
	out   Output
}

func NewHandler(state *panel.State, out Output) *Handler {
	return &Handler{state: state, out: out}
}

// Handle decodes msg, applies it and returns the encoded snapshot to
// broadcast. A decode error leaves the state untouched and returns no
// snapshot.
func (h *Handler) Handle(msg []byte) ([]byte, error) {
	cmd, err := Decode(msg)
	if err != nil {
		log.Debug().Err(err).Msg("control message dropped")
		return nil, err
	}
	h.Apply(cmd)
	return h.Snapshot()
}

// Apply executes an already decoded command.
func (h *Handler) Apply(cmd Command) {
	switch cmd.Action {
	case ActionPower:
		if cmd.Power == nil {
			h.state.TogglePower()
		} else {
			h.state.SetPower(*cmd.Power)
		}
	case ActionHue:
		h.state.SetHue(cmd.Level)
	case ActionSaturation:
		h.state.SetSaturation(cmd.Level)
	case ActionBrightness:
		h.pushBrightness(h.state.SetBrightness(cmd.Level))
	case ActionPattern:
		if h.state.SetPattern(cmd.Pattern) {
			h.out.Blank()
		}
	case ActionGrid:
		h.state.ApplyOverrides(cmd.Cells, cmd.Color)
	case ActionClear:
		h.state.ClearOverrides()
		h.out.Blank()
	case ActionColor:
		// brightness stays with the brightness slider
		hue, sat, _ := cmd.Color.HSV()
		h.state.SetHueSaturation(hue, sat)
	}
}

func (h *Handler) pushBrightness(v uint8) {
	if err := h.out.PushBrightness(v); err != nil {
		log.Warn().Err(err).Uint8("brightness", v).Msg("driver brightness update failed")
	}
}

// Snapshot encodes the current state.
func (h *Handler) Snapshot() ([]byte, error) {
	return Encode(h.state.Snapshot())
}

// Kind names the error class for diagnostics.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return "CONTROL.MALFORMED"
	case errors.Is(err, ErrUnknownAction):
		return "CONTROL.UNKNOWN_ACTION"
	case errors.Is(err, ErrInvalidValue):
		return "CONTROL.INVALID_VALUE"
	default:
		return "CONTROL.ERROR"
	}
}
