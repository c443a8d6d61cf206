package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consultd.log")

	logger := NewLogger("production", path)
	logger.Info("Slot booked", zap.String("booking_id", "b-1"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Slot booked"`)
	assert.Contains(t, string(data), `"booking_id":"b-1"`)
}

func TestNewLogger_Development(t *testing.T) {
	logger := NewLogger("development", "")
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
