package service

import (
	"context"
	"strings"

	"beachrent/internal/domain"
	"beachrent/internal/events"
	"beachrent/internal/layout"
	"beachrent/internal/metrics"
	"beachrent/internal/models"
	"beachrent/internal/pricing"
	"beachrent/internal/timeutil"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RentalService is the per-bed state machine. Each operation is one store transaction
// covering the status check, the status write and the ledger write.
type RentalService struct {
	repo     domain.Repository
	layout   *layout.Layout
	pricing  *pricing.Policy
	clock    *timeutil.Clock
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewRentalService(
	repo domain.Repository,
	l *layout.Layout,
	p *pricing.Policy,
	clock *timeutil.Clock,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *RentalService {
	return &RentalService{
		repo:     repo,
		layout:   l,
		pricing:  p,
		clock:    clock,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ListUmbrellas returns the full map with the disabled flag applied from the layout.
func (s *RentalService) ListUmbrellas(ctx context.Context) ([]models.Umbrella, error) {
	umbrellas, err := s.repo.ListUmbrellas(ctx)
	if err != nil {
		return nil, observe(s.logger, "list_umbrellas", 0, "", err)
	}
	for i := range umbrellas {
		umbrellas[i].Disabled = s.layout.Disabled(umbrellas[i].Number)
	}
	return umbrellas, nil
}

func (s *RentalService) OccupyBed(ctx context.Context, actor models.Actor, umbrellaID int64, side models.Side) error {
	const op = "occupy"
	err := s.occupy(ctx, actor, umbrellaID, side)
	return observe(s.logger, op, umbrellaID, side, err)
}

func (s *RentalService) occupy(ctx context.Context, actor models.Actor, umbrellaID int64, side models.Side) error {
	if err := checkUmbrella(s.layout, umbrellaID); err != nil {
		return err
	}
	if !actor.IsStaffOrAdmin() {
		return domain.ErrForbidden
	}

	now := s.clock.Now()
	return s.repo.InTx(ctx, func(tx domain.Tx) error {
		bed, err := loadBed(ctx, tx, umbrellaID, side)
		if err != nil {
			return err
		}
		if bed.Status != models.BedFree {
			return domain.ErrAlreadyOccupied
		}

		if err := tx.SetBedState(ctx, umbrellaID, side, models.BedOccupied, nil); err != nil {
			return err
		}
		return tx.OpenRental(ctx, &models.Rental{
			UmbrellaID:   umbrellaID,
			Side:         side,
			Action:       models.ActionOccupy,
			StartedBy:    actor.ID,
			Price:        decimal.Zero,
			BusinessDate: s.clock.BusinessDate(now),
			StartTime:    now,
		})
	})
}

// FreeBed releases an occupied or beach-rented bed. Hotel rentals end only through EndRent.
// Freeing a bed that is already free succeeds.
func (s *RentalService) FreeBed(ctx context.Context, actor models.Actor, umbrellaID int64, side models.Side) error {
	const op = "free"
	var found anomalies
	err := s.free(ctx, actor, umbrellaID, side, &found)
	if err == nil {
		found.report(s.logger, op, umbrellaID, side)
		s.publishBed(events.EventBedFreed, actor, umbrellaID, side, models.BedFree, "", decimal.Zero)
	}
	return observe(s.logger, op, umbrellaID, side, err)
}

func (s *RentalService) free(ctx context.Context, actor models.Actor, umbrellaID int64, side models.Side, found *anomalies) error {
	if err := checkUmbrella(s.layout, umbrellaID); err != nil {
		return err
	}
	if !actor.IsStaffOrAdmin() {
		return domain.ErrForbidden
	}

	now := s.clock.Now()
	return s.repo.InTx(ctx, func(tx domain.Tx) error {
		*found = (*found)[:0]

		bed, err := loadBed(ctx, tx, umbrellaID, side)
		if err != nil {
			return err
		}

		var action models.RentalAction
		switch bed.Status {
		case models.BedRentedHotel:
			return domain.ErrHotelRented
		case models.BedFree:
			*found = append(*found, metrics.AnomalyFreeingFreeBed)
			return nil
		case models.BedOccupied:
			action = models.ActionOccupy
		default:
			action = models.ActionRentedBeach
		}

		res, err := tx.CloseOpenRental(ctx, umbrellaID, side, action, actor.ID, now)
		if err != nil {
			return err
		}
		found.check(res)

		return tx.SetBedState(ctx, umbrellaID, side, models.BedFree, nil)
	})
}

// RentBed rents a bed of the given kind. An occupied bed may be rented directly; its occupy entry is closed.
func (s *RentalService) RentBed(
	ctx context.Context,
	actor models.Actor,
	umbrellaID int64,
	side models.Side,
	kind models.RentalKind,
	renterName string,
) error {
	const op = "rent"
	renterName = strings.TrimSpace(renterName)
	var found anomalies
	err := s.rent(ctx, actor, umbrellaID, side, kind, renterName, &found)
	if err == nil {
		found.report(s.logger, op, umbrellaID, side)
		s.publishBed(events.EventBedRented, actor, umbrellaID, side, kind.Status(), renterName, s.pricing.PriceFor(kind))
	}
	return observe(s.logger, op, umbrellaID, side, err)
}

func (s *RentalService) rent(
	ctx context.Context,
	actor models.Actor,
	umbrellaID int64,
	side models.Side,
	kind models.RentalKind,
	renterName string,
	found *anomalies,
) error {
	if err := checkUmbrella(s.layout, umbrellaID); err != nil {
		return err
	}
	if !actor.CanRent(kind) {
		return domain.ErrForbidden
	}
	if renterName == "" {
		return domain.ErrInvalidInput.WithMessage("renter name is required")
	}

	now := s.clock.Now()
	return s.repo.InTx(ctx, func(tx domain.Tx) error {
		*found = (*found)[:0]

		bed, err := loadBed(ctx, tx, umbrellaID, side)
		if err != nil {
			return err
		}
		if bed.Status.IsRented() {
			return domain.ErrAlreadyRented
		}

		if bed.Status == models.BedOccupied {
			res, err := tx.CloseOpenRental(ctx, umbrellaID, side, models.ActionOccupy, actor.ID, now)
			if err != nil {
				return err
			}
			found.check(res)
		}

		if err := tx.SetBedState(ctx, umbrellaID, side, kind.Status(), &renterName); err != nil {
			return err
		}
		return tx.OpenRental(ctx, &models.Rental{
			UmbrellaID:   umbrellaID,
			Side:         side,
			Action:       kind.Action(),
			StartedBy:    actor.ID,
			Price:        s.pricing.PriceFor(kind),
			BusinessDate: s.clock.BusinessDate(now),
			StartTime:    now,
		})
	})
}

// EndRent frees a hotel-rented bed. Beds assigned to the hotel by the daily reset have no ledger entry;
// ending them is counted as a missing-entry anomaly.
func (s *RentalService) EndRent(ctx context.Context, actor models.Actor, umbrellaID int64, side models.Side) error {
	const op = "end_rent"
	var found anomalies
	err := s.endRent(ctx, actor, umbrellaID, side, &found)
	if err == nil {
		found.report(s.logger, op, umbrellaID, side)
		s.publishBed(events.EventBedFreed, actor, umbrellaID, side, models.BedFree, "", decimal.Zero)
	}
	return observe(s.logger, op, umbrellaID, side, err)
}

func (s *RentalService) endRent(ctx context.Context, actor models.Actor, umbrellaID int64, side models.Side, found *anomalies) error {
	if err := checkUmbrella(s.layout, umbrellaID); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	now := s.clock.Now()
	return s.repo.InTx(ctx, func(tx domain.Tx) error {
		*found = (*found)[:0]

		bed, err := loadBed(ctx, tx, umbrellaID, side)
		if err != nil {
			return err
		}
		if bed.Status != models.BedRentedHotel {
			return domain.ErrNotHotelRented
		}

		res, err := tx.CloseOpenRental(ctx, umbrellaID, side, models.ActionRentedHotel, actor.ID, now)
		if err != nil {
			return err
		}
		found.check(res)

		return tx.SetBedState(ctx, umbrellaID, side, models.BedFree, nil)
	})
}

func loadBed(ctx context.Context, tx domain.Tx, umbrellaID int64, side models.Side) (*models.Bed, error) {
	if _, err := tx.GetUmbrella(ctx, umbrellaID); err != nil {
		return nil, err
	}
	return tx.GetBed(ctx, umbrellaID, side)
}

func (s *RentalService) publishBed(
	eventType string,
	actor models.Actor,
	umbrellaID int64,
	side models.Side,
	status models.BedStatus,
	renter string,
	price decimal.Decimal,
) {
	if s.eventBus == nil {
		return
	}

	payload := events.BedEventPayload{
		UmbrellaID: umbrellaID,
		Side:       string(side),
		Status:     string(status),
		Renter:     renter,
		Price:      price,
		ActorID:    actor.ID,
		At:         s.clock.Now(),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("umbrella_id", umbrellaID).Msg("publish event error")
	}
}
