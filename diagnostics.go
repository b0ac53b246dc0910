package pcireset

import "github.com/go-logr/logr"

// Diagnostics receives human-readable progress messages from a reset batch.
// Messages never affect the outcome of the batch.
type Diagnostics interface {
	Info(msg string)
	Success(msg string)
	Warning(msg string)
}

// LogDiagnostics forwards progress messages to a logr.Logger
type LogDiagnostics struct {
	Log logr.Logger
}

func (d LogDiagnostics) Info(msg string) {
	d.Log.Info(msg)
}

func (d LogDiagnostics) Success(msg string) {
	d.Log.Info(msg, "status", "success")
}

func (d LogDiagnostics) Warning(msg string) {
	d.Log.Info(msg, "status", "warning")
}
