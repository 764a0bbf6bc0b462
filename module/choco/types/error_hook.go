package types

import (
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// ErrorHook is a zerolog hook that mirrors warning and error events to
// the pterm printers. Failures and skipped rewrites stay visible on the
// console even when the structured log is discarded.
type ErrorHook struct{}

// Run implements the zerolog.Hook interface
func (h ErrorHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.ErrorLevel, zerolog.FatalLevel:
		pterm.Error.Println(msg)
	case zerolog.WarnLevel:
		pterm.Warning.Println(msg)
	}
}
