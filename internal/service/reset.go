package service

import (
	"context"

	"beachrent/internal/domain"
	"beachrent/internal/events"
	"beachrent/internal/layout"
	"beachrent/internal/metrics"
	"beachrent/internal/models"
	"beachrent/internal/timeutil"

	"github.com/rs/zerolog"
)

type ResetService struct {
	repo     domain.Repository
	layout   *layout.Layout
	clock    *timeutil.Clock
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewResetService(
	repo domain.Repository,
	l *layout.Layout,
	clock *timeutil.Clock,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *ResetService {
	return &ResetService{repo: repo, layout: l, clock: clock, eventBus: eventBus, logger: logger}
}

// ResetDay starts a new operating day in one transaction: every bed is freed, the hotel block is
// reassigned to the hotel, the ledger is purged and all extra beds are removed.
func (s *ResetService) ResetDay(ctx context.Context, actor models.Actor) error {
	err := s.reset(ctx, actor)
	if err != nil {
		return observe(s.logger, "reset_day", 0, "", err)
	}
	metrics.IncTransition("reset_day", "ok")

	hotel := s.layout.HotelBlock()
	s.logger.Info().Int("hotel_umbrellas", len(hotel)).Int64("actor_id", actor.ID).Msg("Beach reset for the new day")

	if s.eventBus != nil {
		payload := events.DayResetPayload{HotelUmbrellas: len(hotel), ActorID: actor.ID, At: s.clock.Now()}
		if err := s.eventBus.PublishJSON(events.EventDayReset, payload); err != nil {
			s.logger.Error().Err(err).Str("event_type", events.EventDayReset).Msg("publish event error")
		}
	}
	return nil
}

func (s *ResetService) reset(ctx context.Context, actor models.Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	hotel := s.layout.HotelBlock()
	ids := make([]int64, len(hotel))
	for i, n := range hotel {
		ids[i] = int64(n)
	}

	return s.repo.InTx(ctx, func(tx domain.Tx) error {
		if err := tx.FreeAllBeds(ctx); err != nil {
			return err
		}
		if err := tx.AssignHotelBeds(ctx, ids); err != nil {
			return err
		}
		if err := tx.PurgeRentals(ctx); err != nil {
			return err
		}
		return tx.ClearExtraBeds(ctx)
	})
}
