// Package logx is a thin wrapper over zerolog, following the adapter
// pattern of joeycumines-go-utilpkg/logiface-zerolog/zerolog.go (wrap a
// zerolog.Logger, expose the handful of levels the engine actually
// emits) without pulling in the logiface abstraction layer itself,
// since nothing else in this module needs a pluggable logging facade.
package logx

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps a configured zerolog.Logger.
type Logger struct {
	z zerolog.Logger
}

// New returns a Logger writing human-readable console output at info
// level, or debug level when verbose is set (spec.md §6's --verbose/-v).
func New(verbose bool) *Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	z := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{z: z}
}

// Phase logs an info-level phase transition (cmd/ccbench emits SETUP and DONE).
func (l *Logger) Phase(phase string, fields map[string]any) {
	ev := l.z.Info().Str("phase", phase)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("phase transition")
}

// Warn logs a recoverable condition: a KernelInternal hit, or a NUMA
// placement fallback.
func (l *Logger) Warn(msg string, err error) {
	l.z.Warn().Err(err).Msg(msg)
}

// Debug logs a per-repetition sample; it is emitted only when the Logger
// was built with verbose set.
func (l *Logger) Debug(msg string, rank, rep int, cycles uint64) {
	l.z.Debug().Int("rank", rank).Int("rep", rep).Uint64("cycles", cycles).Msg(msg)
}

// Fatal logs a terminal SystemError before the process exits non-zero.
func (l *Logger) Fatal(err error) {
	l.z.Error().Err(err).Msg("fatal")
}
