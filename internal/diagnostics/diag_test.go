package diagnostics

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectedTruncatesEvidence(t *testing.T) {
	long := []byte(strings.Repeat("x", 1000))
	d := Rejected("CONTROL.MALFORMED", 3, errors.New("bad"), long)
	assert.Equal(t, Warn, d.Severity)
	assert.Equal(t, "bad", d.Detail)
	assert.Equal(t, uint64(3), d.Client)
	assert.Len(t, d.Evidence["message"], 256)
	assert.False(t, d.Time.IsZero())
}
