package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func InitLogger(level, format string) zerolog.Logger {
	return New(os.Stderr, level, format)
}

// New builds a console logger unless format is "json".
func New(out io.Writer, level, format string) zerolog.Logger {
	var logger zerolog.Logger
	if strings.EqualFold(format, "json") {
		logger = log.Output(out)
	} else {
		logger = log.Output(zerolog.ConsoleWriter{Out: out})
	}
	return logger.Level(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
