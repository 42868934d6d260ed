// Package gwlog centralizes structured logging on top of
// github.com/charmbracelet/log, the prior Go port's logging dependency
// (used in cmd/direwolf/main.go and appserver.go). One process-wide
// logger, with per-component children via With.
package gwlog

import (
	"os"

	"github.com/charmbracelet/log"
)

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05.000",
})

// For returns a child logger tagged with the given component name,
// e.g. gwlog.For("kissbridge").
func For(component string) *log.Logger {
	return root.With("component", component)
}

// SetLevel adjusts the process-wide minimum level (Debug/Info/Warn/Error).
func SetLevel(l log.Level) {
	root.SetLevel(l)
}
