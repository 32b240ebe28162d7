package domain

import (
	"context"
	"time"

	"beachrent/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CloseResult reports how many ledger entries were open before a close and whether one was closed.
type CloseResult struct {
	Closed bool
	Open   int
}

// LedgerReader is the read side used by earnings aggregation, both inside and outside a transaction.
type LedgerReader interface {
	ListRentals(ctx context.Context, scope models.Scope) ([]models.Rental, error)
	ListExtraBeds(ctx context.Context, scope models.Scope) ([]models.ExtraBed, error)
	UserNames(ctx context.Context) (map[int64]string, error)
}

// Tx is a single serialized store transaction.
type Tx interface {
	LedgerReader

	GetUmbrella(ctx context.Context, id int64) (*models.Umbrella, error)
	GetBed(ctx context.Context, umbrellaID int64, side models.Side) (*models.Bed, error)
	SetBedState(ctx context.Context, umbrellaID int64, side models.Side, status models.BedStatus, renter *string) error

	OpenRental(ctx context.Context, rental *models.Rental) error
	CloseOpenRental(ctx context.Context, umbrellaID int64, side models.Side, action models.RentalAction, endedBy int64, at time.Time) (CloseResult, error)
	PurgeRentals(ctx context.Context) error

	LastExtraBed(ctx context.Context, umbrellaID int64) (*models.ExtraBed, error)
	GetExtraBed(ctx context.Context, umbrellaID int64, number int) (*models.ExtraBed, error)
	InsertExtraBed(ctx context.Context, bed *models.ExtraBed) error
	DeleteExtraBed(ctx context.Context, id int64) error
	ReleaseExtraBed(ctx context.Context, id int64) error
	AdjustExtraBedCount(ctx context.Context, umbrellaID int64, delta int) (int, error)

	FreeAllBeds(ctx context.Context) error
	AssignHotelBeds(ctx context.Context, umbrellaIDs []int64) error
	ClearExtraBeds(ctx context.Context) error

	CountBedsByStatus(ctx context.Context, status models.BedStatus) (int, error)
	CreateReport(ctx context.Context, report *models.DailyReport) error
}

type Repository interface {
	LedgerReader

	InTx(ctx context.Context, fn func(tx Tx) error) error
	ListUmbrellas(ctx context.Context) ([]models.Umbrella, error)
	ListReports(ctx context.Context) ([]models.DailyReport, error)
	GetReport(ctx context.Context, id int64) (*models.DailyReport, error)
	DeleteReport(ctx context.Context, id int64) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type SyncQueueRepository interface {
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// Locker grants a key to exactly one holder until the TTL expires.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type SheetsWriter interface {
	AppendReport(ctx context.Context, report *models.DailyReport) error
	DeleteReport(ctx context.Context, reportID int64) error
}

type SyncWorker interface {
	EnqueueReport(ctx context.Context, report *models.DailyReport) error
	EnqueueReportDeletion(ctx context.Context, reportID int64) error
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	SyncUsers(ctx context.Context, users []models.User) error
}
