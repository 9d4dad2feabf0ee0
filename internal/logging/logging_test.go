package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	logger, err := New(Config{
		Level:      "info",
		Format:     "json",
		OutputPath: path,
		Fields:     map[string]string{"service": "vdadecode"},
	})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("decoded", zap.Int("abrufe", 13))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"decoded"`)
	assert.Contains(t, string(data), `"abrufe":13`)
	assert.Contains(t, string(data), `"service":"vdadecode"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	logger, err := New(Config{Level: "error", OutputPath: "stderr", Verbose: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(Config{Level: "loud", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestForFile(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ForFile(zap.New(core), "/data/in/acme.vda", "ACME").Info("ok")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "acme.vda", fields["file"])
	assert.Equal(t, "ACME", fields["partner"])
}

func TestNewDefault(t *testing.T) {
	assert.False(t, NewDefault(false).Core().Enabled(zapcore.DebugLevel))
	assert.True(t, NewDefault(true).Core().Enabled(zapcore.DebugLevel))
}
