package main

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// setupLogger installs a charmbracelet handler as the slog default.
func setupLogger(w io.Writer, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}
