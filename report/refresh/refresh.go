// Package refresh periodically resubmits the most recent URL to a
// pipeline, so that a changing resource keeps its report current.
package refresh

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/lguimbarda/reportflow/report"
)

// ErrInterval is returned for a non-positive refresh interval.
var ErrInterval = errors.New("refresh interval must be positive")

// Source is the pipeline being refreshed. *report.Pipeline implements it.
type Source interface {
	LastURL() (report.URL, bool)
	SubmitURL(u report.URL)
}

// Refresher wraps a gocron scheduler. Overlapping refreshes are harmless:
// the content link only publishes the newest submission.
type Refresher struct {
	scheduler gocron.Scheduler
	source    Source
	logger    *slog.Logger
}

// New creates a Refresher for source. Schedule jobs with Every, then call
// Start.
func New(source Source, logger *slog.Logger) (*Refresher, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{scheduler: s, source: source, logger: logger}, nil
}

// Every schedules a refresh every interval and returns the job ID.
func (r *Refresher) Every(interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", ErrInterval
	}
	job, err := r.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.Refresh),
		gocron.WithName("refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create refresh job: %w", err)
	}
	return job.ID().String(), nil
}

// Start begins running scheduled refreshes.
func (r *Refresher) Start() {
	r.logger.Info("Starting refresher")
	r.scheduler.Start()
}

// Stop shuts the scheduler down.
func (r *Refresher) Stop() error {
	r.logger.Info("Stopping refresher")
	return r.scheduler.Shutdown()
}

// Refresh resubmits the most recent URL, if there is one.
func (r *Refresher) Refresh() {
	u, ok := r.source.LastURL()
	if !ok {
		r.logger.Debug("Nothing to refresh")
		return
	}
	r.logger.Debug("Refreshing", "url", string(u))
	r.source.SubmitURL(u)
}
