// Package logging configures the global zerolog logger. Output always goes
// to stderr; stdout carries the MCP protocol.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Setup sets the global level and writer. Unknown levels fall back to
// info; debug forces the debug level.
func Setup(level string, debug bool) zerolog.Level {
	return SetupWriter(os.Stderr, level, debug)
}

// SetupWriter is Setup with an explicit destination. A terminal gets the
// console format, anything else gets JSON lines.
func SetupWriter(w io.Writer, level string, debug bool) zerolog.Level {
	lvl := ParseLevel(level)
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	out := w
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return lvl
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
