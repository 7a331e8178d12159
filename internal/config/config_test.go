package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, 60, c.Strip.LEDs)
	assert.Equal(t, 4096, c.Engine.MaxProgramBytes)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strip:
  leds: 144
  reverse: true
  row_len: 12
  serpentine: true
driver:
  type: console
power:
  limit_amps: 2.5
`), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 144, c.Strip.LEDs)
	assert.True(t, c.Strip.Reverse)
	assert.Equal(t, 12, c.Strip.RowLen)
	assert.True(t, c.Strip.Serpentine)
	assert.Equal(t, "console", c.Driver.Type)
	assert.Equal(t, 2500.0, c.Power.BudgetMA())
	assert.Equal(t, 50, c.Engine.TickMS, "untouched sections keep defaults")
	assert.Equal(t, ":8080", c.HTTP.Addr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"leds":    "strip: {leds: 0}",
		"row_len": "strip: {row_len: -1}",
		"driver":  "driver: {type: pwm}",
		"bright":  "power: {brightness: 2}",
		"yaml":    "strip: [",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	c := Default()
	c.Strip.LEDs = 300
	c.HTTP.User = "admin"
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestWhiteCapSum(t *testing.T) {
	assert.Equal(t, 0, Power{}.WhiteCapSum())
	assert.Equal(t, 382, Power{WhiteCap: 0.5}.WhiteCapSum())
	assert.Equal(t, 0, Power{WhiteCap: 1}.WhiteCapSum())
}
