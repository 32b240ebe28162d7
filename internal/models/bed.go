package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideLeft, SideRight:
		return Side(s), nil
	default:
		return "", fmt.Errorf("invalid side %q", s)
	}
}

type BedStatus string

// IsRented reports whether the status is one of the billed rental states.
func (s BedStatus) IsRented() bool {
	return s == BedRentedBeach || s == BedRentedHotel
}

type RentalKind string

func ParseRentalKind(s string) (RentalKind, error) {
	switch RentalKind(s) {
	case KindBeach, KindHotel:
		return RentalKind(s), nil
	default:
		return "", fmt.Errorf("invalid rental type %q", s)
	}
}

// Status is the bed status a rental of this kind produces.
func (k RentalKind) Status() BedStatus {
	if k == KindHotel {
		return BedRentedHotel
	}
	return BedRentedBeach
}

// Action is the ledger action recorded for a rental of this kind.
func (k RentalKind) Action() RentalAction {
	if k == KindHotel {
		return ActionRentedHotel
	}
	return ActionRentedBeach
}

type RentalAction string

type Umbrella struct {
	ID            int64      `json:"id"`
	Number        int        `json:"umbrella_number"`
	Disabled      bool       `json:"disabled"`
	ExtraBeds     int        `json:"extra_beds"`
	Beds          []Bed      `json:"beds"`
	ExtraBedsData []ExtraBed `json:"extra_beds_data"`
}

type Bed struct {
	ID               int64     `json:"id"`
	UmbrellaID       int64     `json:"umbrella_id"`
	Side             Side      `json:"side"`
	Status           BedStatus `json:"status"`
	RentedByUsername *string   `json:"rented_by_username"`
}

type ExtraBed struct {
	ID               int64           `json:"id"`
	UmbrellaID       int64           `json:"umbrella_id"`
	BedNumber        int             `json:"bed_number"`
	Status           BedStatus       `json:"status"`
	RentedByUsername *string         `json:"rented_by_username"`
	StartedBy        int64           `json:"started_by"`
	Price            decimal.Decimal `json:"price"`
	BusinessDate     string          `json:"business_date"`
	StartTime        time.Time       `json:"start_time"`
}

// Rental is one ledger entry. It is open while EndTime is nil.
type Rental struct {
	ID           int64           `json:"id"`
	UmbrellaID   int64           `json:"umbrella_id"`
	Side         Side            `json:"side"`
	Action       RentalAction    `json:"action"`
	StartedBy    int64           `json:"started_by"`
	Price        decimal.Decimal `json:"price"`
	BusinessDate string          `json:"business_date"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      *time.Time      `json:"end_time"`
	EndedBy      *int64          `json:"ended_by"`
}

func (r *Rental) IsOpen() bool {
	return r.EndTime == nil
}
