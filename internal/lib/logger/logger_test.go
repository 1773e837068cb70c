package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/linemk/inventory-api/internal/lib/logger"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		env          string
		debugEnabled bool
	}{
		{logger.EnvLocal, true},
		{logger.EnvDev, true},
		{logger.EnvProd, false},
		{"staging", false}, // неизвестное окружение ведет себя как prod
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			log := logger.SetupLogger(tt.env)
			assert.NotNil(t, log)
			assert.Equal(t, tt.debugEnabled, log.Enabled(context.Background(), slog.LevelDebug))
			assert.True(t, log.Enabled(context.Background(), slog.LevelInfo))
		})
	}
}
