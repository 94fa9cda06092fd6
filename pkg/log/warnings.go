package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// EnableZerologWarnings routes library warnings (ConvergenceWarning,
// UndefinedMetricWarning, ...) through a zerolog logger writing to w.
// Warning types implementing zerolog.LogObjectMarshaler are emitted as
// structured objects; anything else falls back to the error message.
func EnableZerologWarnings(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(w).With().Timestamp().Logger()

	errors.SetZerologWarnFunc(func(warning error) {
		event := logger.Warn()
		if marshaler, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event.Object("warning", marshaler).Msg("ml warning")
			return
		}
		event.Err(warning).Msg("ml warning")
	})
}

// EnableConsoleWarnings is EnableZerologWarnings with zerolog's
// human-readable console writer, for interactive sessions.
func EnableConsoleWarnings() {
	EnableZerologWarnings(zerolog.ConsoleWriter{Out: os.Stderr})
}
