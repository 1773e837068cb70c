package logger

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/linemk/inventory-api/internal/lib/logger/handlers/slogpretty"
)

// switching logger
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// SetupLogger инициализирует логгер в зависимости от переданного окружения:
// для локальной разработки — цветной вывод (pretty), иначе JSON;
// dev пишет debug-уровень, prod и неизвестные окружения — info
func SetupLogger(env string) *slog.Logger {
	if env == EnvLocal {
		return setupPrettySlog()
	}

	level := slog.LevelInfo
	if env == EnvDev {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	)
}

func setupPrettySlog() *slog.Logger {
	color.NoColor = false

	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)
	return slog.New(handler)
}
