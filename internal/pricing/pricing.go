package pricing

import (
	"fmt"

	"beachrent/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultBeachPrice = "50"
	DefaultHotelPrice = "0"
)

// Policy maps a rental kind to its price.
type Policy struct {
	Beach decimal.Decimal
	Hotel decimal.Decimal

	// IncludeExtraBeds adds extra-bed earnings to the reported total.
	IncludeExtraBeds bool
}

// New parses the configured prices. Empty strings fall back to the defaults.
func New(beach, hotel string, includeExtraBeds bool) (*Policy, error) {
	if beach == "" {
		beach = DefaultBeachPrice
	}
	if hotel == "" {
		hotel = DefaultHotelPrice
	}

	b, err := decimal.NewFromString(beach)
	if err != nil {
		return nil, fmt.Errorf("invalid beach price %q: %w", beach, err)
	}
	h, err := decimal.NewFromString(hotel)
	if err != nil {
		return nil, fmt.Errorf("invalid hotel price %q: %w", hotel, err)
	}
	if b.IsNegative() || h.IsNegative() {
		return nil, fmt.Errorf("prices must not be negative")
	}

	return &Policy{Beach: b, Hotel: h, IncludeExtraBeds: includeExtraBeds}, nil
}

func (p *Policy) PriceFor(kind models.RentalKind) decimal.Decimal {
	if kind == models.KindHotel {
		return p.Hotel
	}
	return p.Beach
}

// ExtraBedPrice is the price snapshot stored on a new extra bed.
func (p *Policy) ExtraBedPrice() decimal.Decimal {
	return p.Beach
}
