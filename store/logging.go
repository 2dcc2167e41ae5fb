package store

import (
	"log/slog"
	"os"
)

// logger is the package-level structured logger, grounded in the
// teacher's logger.go. Tests and embedders can override it.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger overrides the package-level logger used for pool-growth
// notices.
func SetLogger(l *slog.Logger) {
	logger = l
}
