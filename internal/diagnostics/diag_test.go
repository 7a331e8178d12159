package diagnostics

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticJSON(t *testing.T) {
	b, err := json.Marshal(DriverFault("spi", errors.New("boom")))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "error", got["severity"])
	assert.Equal(t, "DRIVER.WRITE", got["code"])
	assert.Equal(t, "boom", got["detail"])
	assert.Equal(t, map[string]any{"driver": "spi"}, got["evidence"])
}

func TestProgramRejected(t *testing.T) {
	d := ProgramRejected("my program", "InvalidInstruction", "0Z")
	assert.Equal(t, Warn, d.Severity)
	assert.Contains(t, d.Summary, "InvalidInstruction")
	assert.Equal(t, "0Z", d.Detail)
}
