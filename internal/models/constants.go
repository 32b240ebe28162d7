package models

import "time"

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

const (
	BedFree        BedStatus = "free"
	BedOccupied    BedStatus = "occupied"
	BedRentedBeach BedStatus = "rented_beach"
	BedRentedHotel BedStatus = "rented_hotel"
)

const (
	KindBeach RentalKind = "beach"
	KindHotel RentalKind = "hotel"
)

const (
	ActionOccupy      RentalAction = "occupy"
	ActionRentedBeach RentalAction = "rented_beach"
	ActionRentedHotel RentalAction = "rented_hotel"
)

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

const (
	// DateLayout is the wire and storage format of business dates.
	DateLayout = "2006-01-02"

	// DefaultTimezone is where the beach operates; midnight is computed in this zone.
	DefaultTimezone = "Europe/Bucharest"

	// DefaultGridColumns and DefaultGridRows describe the umbrella map.
	DefaultGridColumns = 10
	DefaultGridRows    = 17

	// WorkerQueueSize is the in-memory buffer of the report sync worker.
	WorkerQueueSize = 128

	// MidnightLockTTL keeps the per-date scheduler lock long enough to cover clock skew between instances.
	MidnightLockTTL = 2 * time.Hour
)

const (
	SyncStatusPending   = "pending"
	SyncStatusRetry     = "retry"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)
