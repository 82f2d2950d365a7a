package history

import (
	"context"
	"log/slog"

	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/report"
)

// Recorder returns a report.Completion that writes every finished run to
// s. Writes run on exec so that the pipeline never waits on the database;
// failures are logged.
func Recorder(s *Store, exec core.Executor, logger *slog.Logger) report.Completion {
	if logger == nil {
		logger = slog.Default()
	}
	return func(sub report.Submission, r report.ProjectResult) {
		e := EntryFor(sub, r)
		exec.Execute(func() {
			if _, err := s.Record(context.Background(), e); err != nil {
				logger.Error("Failed to record run", "submission", sub.ID, "error", err)
			}
		})
	}
}
