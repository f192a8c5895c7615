package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsSecrets(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"api_key", "abc", "job_token", "xyz", "dataset", "flame", "dangling"})

	assert.Equal(t, []interface{}{"api_key", "[REDACTED]", "job_token", "[REDACTED]", "dataset", "flame", "dangling"}, kv)
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("job", "leaderboard:flame").Info("job done", "rows", 3, "authorization", "Bearer x")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "leaderboard:flame", ctx["job"])
		assert.EqualValues(t, 3, ctx["rows"])
		assert.Equal(t, "[REDACTED]", ctx["authorization"])
	}
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"prod", "dev"} {
		l, err := New(mode)
		assert.NoError(t, err)
		assert.NotNil(t, l)
	}
}
