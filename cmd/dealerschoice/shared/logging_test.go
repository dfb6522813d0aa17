package shared

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		debug    bool
		level    string
		expected log.Level
	}{
		{false, "", log.InfoLevel},
		{false, "warn", log.WarnLevel},
		{true, "error", log.DebugLevel},
	}
	for _, tt := range tests {
		logger, err := SetupLogger(tt.debug, tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, logger.GetLevel())
	}

	_, err := SetupLogger(false, "loud")
	assert.Error(t, err)
}
