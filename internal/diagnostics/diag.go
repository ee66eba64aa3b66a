package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Diagnostic is pushed to /diag observers, e.g. when a control message is
// rejected.
type Diagnostic struct {
	Time     time.Time      `json:"time"`
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Client   uint64         `json:"client,omitempty"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Rejected describes a dropped control message.
func Rejected(code string, client uint64, err error, msg []byte) Diagnostic {
	const maxEvidence = 256
	if len(msg) > maxEvidence {
		msg = msg[:maxEvidence]
	}
	return Diagnostic{
		Time:     time.Now(),
		Severity: Warn,
		Code:     code,
		Summary:  "control message rejected",
		Detail:   err.Error(),
		Client:   client,
		Evidence: map[string]any{"message": string(msg)},
	}
}
