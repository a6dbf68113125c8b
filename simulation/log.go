package simulation

import (
	"log/slog"
)

var logger = slog.Default()

// SetLogger replaces the logger the simulation reports to
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}
