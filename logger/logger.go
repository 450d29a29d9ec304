package logger

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w. Output is human-readable when w is a
// terminal and JSON otherwise. debug lowers the level to Debug.
func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	out := w
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Default logs to stderr so stdout stays free for command output.
func Default(debug bool) zerolog.Logger {
	return New(os.Stderr, debug)
}

// Nop discards everything; used by tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
