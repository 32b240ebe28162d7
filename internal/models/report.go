package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Earnings is the money collected within a scope.
type Earnings struct {
	RentalsEarnings   decimal.Decimal `json:"rentals_earnings"`
	ExtraBedsEarnings decimal.Decimal `json:"extra_beds_earnings"`
	Total             decimal.Decimal `json:"total_earnings"`
}

// StaffStat attributes rentals and extra beds to the staff member who started them.
type StaffStat struct {
	StaffID       int64  `json:"staff_id"`
	DisplayName   string `json:"display_name"`
	BedCount      int    `json:"bed_count"`
	ExtraBedCount int    `json:"extra_bed_count"`
}

// DailyReport is an immutable snapshot of one business day.
type DailyReport struct {
	ID                int64           `json:"id"`
	ReportDate        string          `json:"report_date"`
	TotalRentedBeach  int             `json:"total_rented_beach"`
	TotalRentedHotel  int             `json:"total_rented_hotel"`
	RentalsEarnings   decimal.Decimal `json:"rentals_earnings"`
	ExtraBedsRented   int             `json:"extra_beds_rented"`
	ExtraBedsEarnings decimal.Decimal `json:"extra_beds_earnings"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	StaffStats        []StaffStat     `json:"staff_stats"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// Scope selects ledger rows by business date; an empty Date means the whole ledger.
type Scope struct {
	Date string
}

func AllTime() Scope { return Scope{} }

func OnDate(date string) Scope { return Scope{Date: date} }

func (s Scope) All() bool { return s.Date == "" }
