package service

import (
	"context"
	"sort"

	"beachrent/internal/domain"
	"beachrent/internal/models"
	"beachrent/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EarningsService aggregates the ledger. It performs no authorization; callers do.
type EarningsService struct {
	repo    domain.Repository
	pricing *pricing.Policy
	logger  *zerolog.Logger
}

func NewEarningsService(repo domain.Repository, p *pricing.Policy, logger *zerolog.Logger) *EarningsService {
	return &EarningsService{repo: repo, pricing: p, logger: logger}
}

func (s *EarningsService) Earnings(ctx context.Context, scope models.Scope) (*models.Earnings, error) {
	e, err := computeEarnings(ctx, s.repo, scope, s.pricing.IncludeExtraBeds)
	if err != nil {
		return nil, observe(s.logger, "earnings", 0, "", err)
	}
	return e, nil
}

func (s *EarningsService) StaffBreakdown(ctx context.Context, scope models.Scope) ([]models.StaffStat, error) {
	stats, err := computeStaffBreakdown(ctx, s.repo, scope)
	if err != nil {
		return nil, observe(s.logger, "staff_breakdown", 0, "", err)
	}
	return stats, nil
}

// computeEarnings sums ledger prices in scope and the prices of extra beds still rented.
func computeEarnings(ctx context.Context, r domain.LedgerReader, scope models.Scope, includeExtraBeds bool) (*models.Earnings, error) {
	rentals, err := r.ListRentals(ctx, scope)
	if err != nil {
		return nil, err
	}
	extra, err := r.ListExtraBeds(ctx, scope)
	if err != nil {
		return nil, err
	}

	e := &models.Earnings{
		RentalsEarnings:   decimal.Zero,
		ExtraBedsEarnings: decimal.Zero,
	}
	for _, rental := range rentals {
		e.RentalsEarnings = e.RentalsEarnings.Add(rental.Price)
	}
	for _, bed := range extra {
		if bed.Status == models.BedRentedBeach {
			e.ExtraBedsEarnings = e.ExtraBedsEarnings.Add(bed.Price)
		}
	}

	e.Total = e.RentalsEarnings
	if includeExtraBeds {
		e.Total = e.Total.Add(e.ExtraBedsEarnings)
	}
	return e, nil
}

func computeStaffBreakdown(ctx context.Context, r domain.LedgerReader, scope models.Scope) ([]models.StaffStat, error) {
	rentals, err := r.ListRentals(ctx, scope)
	if err != nil {
		return nil, err
	}
	extra, err := r.ListExtraBeds(ctx, scope)
	if err != nil {
		return nil, err
	}
	names, err := r.UserNames(ctx)
	if err != nil {
		return nil, err
	}

	byStaff := make(map[int64]*models.StaffStat)
	stat := func(id int64) *models.StaffStat {
		st, ok := byStaff[id]
		if !ok {
			st = &models.StaffStat{StaffID: id, DisplayName: displayName(names, id)}
			byStaff[id] = st
		}
		return st
	}
	for _, rental := range rentals {
		stat(rental.StartedBy).BedCount++
	}
	for _, bed := range extra {
		stat(bed.StartedBy).ExtraBedCount++
	}

	stats := make([]models.StaffStat, 0, len(byStaff))
	for _, st := range byStaff {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].StaffID < stats[j].StaffID })
	return stats, nil
}

func displayName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	if id == models.SystemActor.ID {
		return models.SystemActor.Username
	}
	return "unknown"
}
