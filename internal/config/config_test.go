package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "-", cfg.InputPath)
	assert.Equal(t, "", cfg.OutputPath)
	assert.False(t, cfg.WarningsAsErrors)
	assert.False(t, cfg.WeightHints)
}

func TestParseFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Parse([]string{"-in", "service.json", "-out", "plan.json", "-warnings-as-errors", "-weight-hints"})
	require.NoError(t, err)
	assert.Equal(t, "service.json", cfg.InputPath)
	assert.Equal(t, "plan.json", cfg.OutputPath)
	assert.True(t, cfg.WarningsAsErrors)
	assert.True(t, cfg.WeightHints)
}

// TestParseEnvironmentIsDefaultOnly checks that GRUSTC_* entries are
// applied as defaults (used when no flag overrides them), mirroring
// yaegi's env-then-flags precedence.
func TestParseEnvironmentIsDefaultOnly(t *testing.T) {
	t.Setenv("GRUSTC_IN", "from-env.json")
	t.Setenv("GRUSTC_WARNINGS_AS_ERRORS", "1")

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.json", cfg.InputPath)
	assert.True(t, cfg.WarningsAsErrors)

	cfg, err = Parse([]string{"-in", "from-flag.json"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag.json", cfg.InputPath)
	assert.True(t, cfg.WarningsAsErrors, "flag for -in should not clear the env default for warnings-as-errors")
}
