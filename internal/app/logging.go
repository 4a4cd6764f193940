package app

import (
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
)

// setupLogging installs a terminal handler on w as the process default and
// returns it. Diagnostics only; command data goes through the envelope.
func setupLogging(w io.Writer, level string) log.Logger {
	useColor := false
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		useColor = !color.NoColor
	}
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(w, parseLogLevel(level), useColor))
	log.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "info":
		return log.LevelInfo
	case "error":
		return log.LevelError
	case "crit":
		return log.LevelCrit
	default:
		return log.LevelWarn
	}
}
