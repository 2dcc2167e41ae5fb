package lob

import (
	"log/slog"
	"os"
)

// logger is the package-level structured logger, grounded in the
// teacher's logger.go. It is used for match/rejection tracing in the
// engine; pool growth notices go through package store's own logger.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger overrides the package-level logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
