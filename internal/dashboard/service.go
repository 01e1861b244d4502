// Package dashboard reports task statistics over a calendar period.
package dashboard

import (
	"context"
	"time"

	"github.com/kmmanagement/agenda/internal/metrics"
	"github.com/kmmanagement/agenda/internal/period"
	"github.com/kmmanagement/agenda/internal/stats"
	"github.com/kmmanagement/agenda/internal/task"
)

type TaskFinder interface {
	FindInTimeRange(ctx context.Context, start, end time.Time) ([]*task.Task, error)
}

type Report struct {
	Period period.Period
	Anchor time.Time
	Bounds period.Bounds
	Stats  stats.Stats
}

type Service struct {
	tasks   TaskFinder
	loc     *time.Location
	metrics metrics.AgendaMetrics
	now     func() time.Time
}

func NewService(tasks TaskFinder, loc *time.Location, m metrics.AgendaMetrics) *Service {
	return &Service{tasks: tasks, loc: loc, metrics: m, now: time.Now}
}

// Get builds the report for p around anchor. A nil anchor means today in
// the service's location.
func (s *Service) Get(ctx context.Context, p period.Period, anchor *time.Time) (*Report, error) {
	started := s.now()

	day := started.In(s.loc)
	if anchor != nil {
		day = anchor.In(s.loc)
	}
	bounds := period.Resolve(day, p)

	found, err := s.tasks.FindInTimeRange(ctx, bounds.Start, bounds.End)
	if err != nil {
		return nil, err
	}
	withClient := make([]*task.Task, 0, len(found))
	for _, t := range found {
		if t.HasClient() {
			withClient = append(withClient, t)
		}
	}

	report := &Report{
		Period: period.Parse(string(p)),
		Anchor: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc),
		Bounds: bounds,
		Stats:  stats.Compute(withClient),
	}
	s.metrics.DashboardServed(report.Period.String(), s.now().Sub(started))
	return report, nil
}
