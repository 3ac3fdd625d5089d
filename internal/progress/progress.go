// Package progress reports the status of long running pipeline steps.
package progress

import "go.uber.org/zap"

// Reporter receives human readable status updates.
type Reporter interface {
	// Update replaces the current status text.
	Update(status string)
	// Done marks the step as finished.
	Done(status string)
}

// LogReporter writes status updates to a logger.
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter creates a reporter logging under the given step name.
func NewLogReporter(logger *zap.Logger, step string) *LogReporter {
	return &LogReporter{logger: logger.With(zap.String("step", step))}
}

func (r *LogReporter) Update(status string) {
	r.logger.Info(status)
}

func (r *LogReporter) Done(status string) {
	r.logger.Info(status, zap.Bool("done", true))
}

type nop struct{}

func (nop) Update(string) {}
func (nop) Done(string)   {}

// Nop returns a reporter that discards every update.
func Nop() Reporter { return nop{} }
