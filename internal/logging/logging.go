// Package logging sets up the node's subsystem-tagged leveled
// loggers. Every other package asks this package for its own logger
// rather than calling the standard library log package directly.
package logging

import (
	"io"
	"os"

	"github.com/decred/slog"
)

var backend = slog.NewBackend(os.Stdout)

// Subsystem tags, one per core component, four letters in the style
// of decred's own subsystem loggers.
const (
	SubsystemMiner     = "MINR"
	SubsystemChain     = "CHAN"
	SubsystemMempool   = "MPOL"
	SubsystemGossip    = "GSSP"
	SubsystemPublish   = "PUBL"
	SubsystemNetwork   = "NTWK"
	SubsystemState     = "STAT"
	SubsystemHTTP      = "HTTP"
	SubsystemTxGen     = "TXGN"
	SubsystemWalletKey = "WKEY"
	SubsystemConfig    = "CFG "
)

var loggers = make(map[string]slog.Logger)

// Logger returns the (cached) leveled logger for the given subsystem
// tag, defaulting to slog.LevelInfo.
func Logger(subsystem string) slog.Logger {
	if l, ok := loggers[subsystem]; ok {
		return l
	}
	l := backend.Logger(subsystem)
	l.SetLevel(slog.LevelInfo)
	loggers[subsystem] = l
	return l
}

// SetOutput redirects the backend's output, primarily for tests that
// want to assert on log content.
func SetOutput(w io.Writer) {
	backend = slog.NewBackend(w)
	loggers = make(map[string]slog.Logger)
}

// SetLevelAll sets every known subsystem's level, used to implement
// the CLI's repeatable -v verbosity flag.
func SetLevelAll(level slog.Level) {
	for _, sub := range []string{
		SubsystemMiner, SubsystemChain, SubsystemMempool, SubsystemGossip,
		SubsystemPublish, SubsystemNetwork, SubsystemState, SubsystemHTTP,
		SubsystemTxGen, SubsystemWalletKey, SubsystemConfig,
	} {
		Logger(sub).SetLevel(level)
	}
}

// LevelFromVerbosity maps a repeated -v count to a slog.Level: 0 is
// Info, 1 is Debug, 2+ is Trace.
func LevelFromVerbosity(count int) slog.Level {
	switch {
	case count <= 0:
		return slog.LevelInfo
	case count == 1:
		return slog.LevelDebug
	default:
		return slog.LevelTrace
	}
}
