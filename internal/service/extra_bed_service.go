package service

import (
	"context"
	"strings"

	"beachrent/internal/domain"
	"beachrent/internal/events"
	"beachrent/internal/layout"
	"beachrent/internal/models"
	"beachrent/internal/pricing"
	"beachrent/internal/timeutil"

	"github.com/rs/zerolog"
)

// ExtraBedService keeps each umbrella's extra beds numbered 1..count. Beds are added at and removed from the tail.
type ExtraBedService struct {
	repo     domain.Repository
	layout   *layout.Layout
	pricing  *pricing.Policy
	clock    *timeutil.Clock
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewExtraBedService(
	repo domain.Repository,
	l *layout.Layout,
	p *pricing.Policy,
	clock *timeutil.Clock,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *ExtraBedService {
	return &ExtraBedService{
		repo:     repo,
		layout:   l,
		pricing:  p,
		clock:    clock,
		eventBus: eventBus,
		logger:   logger,
	}
}

// AddExtraBed appends a rented extra bed and returns the umbrella's new extra-bed count.
func (s *ExtraBedService) AddExtraBed(ctx context.Context, actor models.Actor, umbrellaID int64, renterName string) (int, error) {
	renterName = strings.TrimSpace(renterName)
	number, count, err := s.add(ctx, actor, umbrellaID, renterName)
	if err == nil {
		s.publish(events.EventExtraBedAdded, actor, umbrellaID, number, count)
	}
	return count, observe(s.logger, "add_extra_bed", umbrellaID, "", err)
}

func (s *ExtraBedService) add(ctx context.Context, actor models.Actor, umbrellaID int64, renterName string) (int, int, error) {
	if err := checkUmbrella(s.layout, umbrellaID); err != nil {
		return 0, 0, err
	}
	if !actor.IsStaffOrAdmin() {
		return 0, 0, domain.ErrForbidden
	}

	var number, count int
	now := s.clock.Now()
	err := s.repo.InTx(ctx, func(tx domain.Tx) error {
		if _, err := tx.GetUmbrella(ctx, umbrellaID); err != nil {
			return err
		}

		last, err := tx.LastExtraBed(ctx, umbrellaID)
		if err != nil {
			return err
		}
		number = 1
		if last != nil {
			number = last.BedNumber + 1
		}

		var renter *string
		if renterName != "" {
			renter = &renterName
		}
		err = tx.InsertExtraBed(ctx, &models.ExtraBed{
			UmbrellaID:       umbrellaID,
			BedNumber:        number,
			Status:           models.BedRentedBeach,
			RentedByUsername: renter,
			StartedBy:        actor.ID,
			Price:            s.pricing.ExtraBedPrice(),
			BusinessDate:     s.clock.BusinessDate(now),
			StartTime:        now,
		})
		if err != nil {
			return err
		}

		count, err = tx.AdjustExtraBedCount(ctx, umbrellaID, 1)
		return err
	})
	return number, count, err
}

// RemoveExtraBed deletes the highest-numbered extra bed once it has been released.
func (s *ExtraBedService) RemoveExtraBed(ctx context.Context, actor models.Actor, umbrellaID int64) (int, error) {
	number, count, err := s.remove(ctx, actor, umbrellaID)
	if err == nil {
		s.publish(events.EventExtraBedRemoved, actor, umbrellaID, number, count)
	}
	return count, observe(s.logger, "remove_extra_bed", umbrellaID, "", err)
}

func (s *ExtraBedService) remove(ctx context.Context, actor models.Actor, umbrellaID int64) (int, int, error) {
	if err := checkUmbrella(s.layout, umbrellaID); err != nil {
		return 0, 0, err
	}
	if !actor.IsStaffOrAdmin() {
		return 0, 0, domain.ErrForbidden
	}

	var number, count int
	err := s.repo.InTx(ctx, func(tx domain.Tx) error {
		umbrella, err := tx.GetUmbrella(ctx, umbrellaID)
		if err != nil {
			return err
		}
		if umbrella.ExtraBeds <= 0 {
			return domain.ErrNothingToRemove
		}

		last, err := tx.LastExtraBed(ctx, umbrellaID)
		if err != nil {
			return err
		}
		if last == nil {
			return domain.ErrNothingToRemove
		}
		if last.Status == models.BedRentedBeach {
			return domain.ErrBedCurrentlyRented
		}

		if err := tx.DeleteExtraBed(ctx, last.ID); err != nil {
			return err
		}
		number = last.BedNumber
		count, err = tx.AdjustExtraBedCount(ctx, umbrellaID, -1)
		return err
	})
	return number, count, err
}

// ReleaseExtraBed vacates an extra bed so that it can later be removed. Releasing a free bed is a no-op.
func (s *ExtraBedService) ReleaseExtraBed(ctx context.Context, actor models.Actor, umbrellaID int64, bedNumber int) error {
	err := s.release(ctx, actor, umbrellaID, bedNumber)
	return observe(s.logger, "release_extra_bed", umbrellaID, "", err)
}

func (s *ExtraBedService) release(ctx context.Context, actor models.Actor, umbrellaID int64, bedNumber int) error {
	if err := checkUmbrella(s.layout, umbrellaID); err != nil {
		return err
	}
	if !actor.IsStaffOrAdmin() {
		return domain.ErrForbidden
	}

	return s.repo.InTx(ctx, func(tx domain.Tx) error {
		if _, err := tx.GetUmbrella(ctx, umbrellaID); err != nil {
			return err
		}
		bed, err := tx.GetExtraBed(ctx, umbrellaID, bedNumber)
		if err != nil {
			return err
		}
		if bed.Status == models.BedFree {
			return nil
		}
		return tx.ReleaseExtraBed(ctx, bed.ID)
	})
}

func (s *ExtraBedService) publish(eventType string, actor models.Actor, umbrellaID int64, number, count int) {
	if s.eventBus == nil {
		return
	}

	payload := events.ExtraBedEventPayload{
		UmbrellaID: umbrellaID,
		BedNumber:  number,
		Count:      count,
		ActorID:    actor.ID,
		At:         s.clock.Now(),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("umbrella_id", umbrellaID).Msg("publish event error")
	}
}
