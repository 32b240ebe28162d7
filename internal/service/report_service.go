package service

import (
	"context"

	"beachrent/internal/domain"
	"beachrent/internal/events"
	"beachrent/internal/metrics"
	"beachrent/internal/models"
	"beachrent/internal/pricing"
	"beachrent/internal/timeutil"

	"github.com/rs/zerolog"
)

// ReportService persists daily snapshots. Generating twice for one date stores two rows.
type ReportService struct {
	repo         domain.Repository
	pricing      *pricing.Policy
	clock        *timeutil.Clock
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	logger       *zerolog.Logger
}

func NewReportService(
	repo domain.Repository,
	p *pricing.Policy,
	clock *timeutil.Clock,
	eventBus domain.EventPublisher,
	sheetsWorker domain.SyncWorker,
	logger *zerolog.Logger,
) *ReportService {
	return &ReportService{
		repo:         repo,
		pricing:      p,
		clock:        clock,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		logger:       logger,
	}
}

// GenerateReport computes and stores the report for date (YYYY-MM-DD). The hotel count is a live
// snapshot of rented_hotel beds, not scoped to date.
func (s *ReportService) GenerateReport(ctx context.Context, actor models.Actor, date string) (*models.DailyReport, error) {
	report, err := s.generate(ctx, actor, date)
	if err != nil {
		return nil, observe(s.logger, "generate_report", 0, "", err)
	}
	metrics.IncTransition("generate_report", "ok")
	metrics.IncReportsGenerated()

	s.logger.Info().
		Int64("report_id", report.ID).
		Str("date", report.ReportDate).
		Str("total", report.TotalEarnings.StringFixed(2)).
		Msg("Daily report generated")

	s.publish(events.EventReportGenerated, actor, report.ID, report)
	if s.sheetsWorker != nil {
		if err := s.sheetsWorker.EnqueueReport(ctx, report); err != nil {
			s.logger.Error().Err(err).Int64("report_id", report.ID).Msg("sheets enqueue error")
		}
	}
	return report, nil
}

func (s *ReportService) generate(ctx context.Context, actor models.Actor, date string) (*models.DailyReport, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	date, err := timeutil.ParseDate(date)
	if err != nil {
		return nil, domain.ErrInvalidInput.WithMessage(err.Error())
	}

	report := &models.DailyReport{ReportDate: date}
	scope := models.OnDate(date)
	err = s.repo.InTx(ctx, func(tx domain.Tx) error {
		rentals, err := tx.ListRentals(ctx, scope)
		if err != nil {
			return err
		}
		for _, r := range rentals {
			if r.Action == models.ActionRentedBeach {
				report.TotalRentedBeach++
			}
		}

		report.TotalRentedHotel, err = tx.CountBedsByStatus(ctx, models.BedRentedHotel)
		if err != nil {
			return err
		}

		extra, err := tx.ListExtraBeds(ctx, scope)
		if err != nil {
			return err
		}
		for _, b := range extra {
			if b.Status == models.BedRentedBeach {
				report.ExtraBedsRented++
			}
		}

		earnings, err := computeEarnings(ctx, tx, scope, s.pricing.IncludeExtraBeds)
		if err != nil {
			return err
		}
		report.RentalsEarnings = earnings.RentalsEarnings
		report.ExtraBedsEarnings = earnings.ExtraBedsEarnings
		report.TotalEarnings = earnings.Total

		report.StaffStats, err = computeStaffBreakdown(ctx, tx, scope)
		if err != nil {
			return err
		}

		report.GeneratedAt = s.clock.Now()
		return tx.CreateReport(ctx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportService) ListReports(ctx context.Context, actor models.Actor) ([]models.DailyReport, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, observe(s.logger, "list_reports", 0, "", err)
	}
	return reports, nil
}

func (s *ReportService) DeleteReport(ctx context.Context, actor models.Actor, id int64) error {
	if !actor.IsAdmin() {
		return observe(s.logger, "delete_report", 0, "", domain.ErrForbidden)
	}
	if err := s.repo.DeleteReport(ctx, id); err != nil {
		return observe(s.logger, "delete_report", 0, "", err)
	}
	metrics.IncTransition("delete_report", "ok")

	s.publish(events.EventReportDeleted, actor, id, nil)
	if s.sheetsWorker != nil {
		if err := s.sheetsWorker.EnqueueReportDeletion(ctx, id); err != nil {
			s.logger.Error().Err(err).Int64("report_id", id).Msg("sheets enqueue error")
		}
	}
	return nil
}

func (s *ReportService) publish(eventType string, actor models.Actor, id int64, report *models.DailyReport) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReportEventPayload{ReportID: id, ActorID: actor.ID}
	if report != nil {
		payload.ReportDate = report.ReportDate
		payload.TotalRentedBeach = report.TotalRentedBeach
		payload.TotalRentedHotel = report.TotalRentedHotel
		payload.ExtraBedsRented = report.ExtraBedsRented
		payload.TotalEarnings = report.TotalEarnings
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("report_id", id).Msg("publish event error")
	}
}
