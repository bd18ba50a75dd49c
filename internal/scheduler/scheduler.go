// Package scheduler runs the month-end report check in the background.
package scheduler

import (
	"context"
	"time"

	applog "medicart/internal/log"
)

// Generator is the part of the report service the job needs.
type Generator interface {
	AutoGenerate(ctx context.Context) (bool, error)
}

type ReportJob struct {
	Reports  Generator
	Interval time.Duration
}

func NewReportJob(g Generator, every time.Duration) *ReportJob {
	if every <= 0 {
		every = 24 * time.Hour
	}
	return &ReportJob{Reports: g, Interval: every}
}

// RunOnce checks today once. Failures are logged; the job keeps going.
func (j *ReportJob) RunOnce(ctx context.Context) {
	ok, err := j.Reports.AutoGenerate(ctx)
	switch {
	case err != nil:
		applog.Error(nil, "report.auto.fail", err, nil)
	case ok:
		applog.Audit(nil, "report.auto.generated", nil)
	}
}

// Start checks immediately and then every Interval until ctx is done. The
// returned channel closes when the loop has exited.
func (j *ReportJob) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.RunOnce(ctx)

		ticker := time.NewTicker(j.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.RunOnce(ctx)
			}
		}
	}()
	return done
}
