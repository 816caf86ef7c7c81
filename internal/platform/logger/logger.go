package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Production gets JSON for
// log shippers; development gets the text handler.
func New(production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
