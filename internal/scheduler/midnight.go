package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beachrent/internal/domain"
	"beachrent/internal/metrics"
	"beachrent/internal/models"
	"beachrent/internal/timeutil"

	"github.com/rs/zerolog"
)

const (
	stepReport = "generate_report"
	stepReset  = "reset_day"
)

type ReportGenerator interface {
	GenerateReport(ctx context.Context, actor models.Actor, date string) (*models.DailyReport, error)
}

type DayResetter interface {
	ResetDay(ctx context.Context, actor models.Actor) error
}

// Midnight closes the business day: it reports on yesterday and resets the beach.
type Midnight struct {
	reports  ReportGenerator
	resetter DayResetter
	clock    *timeutil.Clock
	locker   domain.Locker
	logger   *zerolog.Logger
}

// NewMidnight builds the scheduler. locker may be nil, in which case every instance runs the job.
func NewMidnight(
	reports ReportGenerator,
	resetter DayResetter,
	clock *timeutil.Clock,
	locker domain.Locker,
	logger *zerolog.Logger,
) *Midnight {
	return &Midnight{
		reports:  reports,
		resetter: resetter,
		clock:    clock,
		locker:   locker,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled, running the job at every local midnight.
func (m *Midnight) Start(ctx context.Context) {
	for {
		now := m.clock.Now()
		wait := m.clock.NextMidnight(now).Sub(now)
		m.logger.Debug().Dur("wait", wait).Msg("Next midnight run scheduled")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce generates the report for yesterday and resets the day. A failing step is logged
// and does not stop the other one.
func (m *Midnight) RunOnce(ctx context.Context) {
	date := m.clock.Yesterday()

	if m.locker != nil {
		ok, err := m.locker.Acquire(ctx, "midnight:"+date, models.MidnightLockTTL)
		if err != nil {
			m.logger.Error().Err(err).Str("date", date).Msg("Midnight lock error, skipping run")
			metrics.IncSchedulerStep("lock", "error")
			return
		}
		if !ok {
			m.logger.Info().Str("date", date).Msg("Midnight job already taken by another instance")
			metrics.IncSchedulerStep("lock", "skipped")
			return
		}
	}

	_ = m.run(ctx, date)
}

// Trigger runs the midnight job on demand for the given actor, bypassing the lock.
func (m *Midnight) Trigger(ctx context.Context, actor models.Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	m.logger.Info().Int64("actor_id", actor.ID).Msg("Midnight job triggered manually")
	return m.run(ctx, m.clock.Yesterday())
}

func (m *Midnight) run(ctx context.Context, date string) error {
	var errs []error

	report, err := m.reports.GenerateReport(ctx, models.SystemActor, date)
	if err != nil {
		m.logger.Error().Err(err).Str("date", date).Msg("Midnight report failed")
		metrics.IncSchedulerStep(stepReport, "error")
		errs = append(errs, fmt.Errorf("generate report for %s: %w", date, err))
	} else {
		m.logger.Info().Str("date", date).Int64("report_id", report.ID).Msg("Midnight report generated")
		metrics.IncSchedulerStep(stepReport, "ok")
	}

	if err := m.resetter.ResetDay(ctx, models.SystemActor); err != nil {
		m.logger.Error().Err(err).Msg("Midnight reset failed")
		metrics.IncSchedulerStep(stepReset, "error")
		errs = append(errs, fmt.Errorf("reset day: %w", err))
	} else {
		metrics.IncSchedulerStep(stepReset, "ok")
	}

	return errors.Join(errs...)
}
