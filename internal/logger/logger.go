package logger

import (
	"io"
	"log/slog"
	"os"
)

// Init installs the process-wide slog logger.
// Development: text output at debug level. Production: JSON at info level.
func Init(isDev bool) *slog.Logger {
	return initWith(os.Stdout, isDev)
}

func initWith(w io.Writer, isDev bool) *slog.Logger {
	var h slog.Handler
	if isDev {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}
