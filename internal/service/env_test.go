package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"beachrent/internal/database"
	"beachrent/internal/domain"
	"beachrent/internal/layout"
	"beachrent/internal/models"
	"beachrent/internal/pricing"
	"beachrent/internal/timeutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	admin = models.Actor{ID: 1, Username: "maria", Role: models.RoleAdmin}
	staff = models.Actor{ID: 2, Username: "ion", Role: models.RoleStaff}
)

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishJSON(eventType string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// fakeSync records enqueued report sync tasks.
type fakeSync struct {
	mu      sync.Mutex
	added   []int64
	deleted []int64
}

func (f *fakeSync) EnqueueReport(_ context.Context, report *models.DailyReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, report.ID)
	return nil
}

func (f *fakeSync) EnqueueReportDeletion(_ context.Context, reportID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, reportID)
	return nil
}

type testEnv struct {
	db       *database.DB
	layout   *layout.Layout
	clock    *timeutil.Clock
	events   *recorder
	sync     *fakeSync
	rentals  *RentalService
	extra    *ExtraBedService
	earnings *EarningsService
	reports  *ReportService
	reset    *ResetService
}

// newTestEnv provisions umbrellas 1..20 on a file database. Umbrellas 1 and 2 are disabled,
// 3 and 4 form the hotel block. The clock is fixed at 2024-07-01 10:00 local time.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithPricing(t, "50", "0", true)
}

func newTestEnvWithPricing(t *testing.T, beach, hotel string, includeExtra bool) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "beach.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	l, err := layout.New(20, []int{1, 2}, []int{3, 4})
	require.NoError(t, err)
	require.NoError(t, db.Provision(ctx, l))
	require.NoError(t, db.SyncUsers(ctx, []models.User{
		{ID: admin.ID, Username: admin.Username, Role: admin.Role},
		{ID: staff.ID, Username: staff.Username, Role: staff.Role},
	}))

	p, err := pricing.New(beach, hotel, includeExtra)
	require.NoError(t, err)

	base, err := timeutil.NewClock("Europe/Bucharest")
	require.NoError(t, err)
	fixed := time.Date(2024, 7, 1, 10, 0, 0, 0, base.Location())
	clock := base.WithNow(func() time.Time { return fixed })

	rec := &recorder{}
	fs := &fakeSync{}
	env := &testEnv{
		db:     db,
		layout: l,
		clock:  clock,
		events: rec,
		sync:   fs,
	}
	env.rentals = NewRentalService(db, l, p, clock, rec, &logger)
	env.extra = NewExtraBedService(db, l, p, clock, rec, &logger)
	env.earnings = NewEarningsService(db, p, &logger)
	env.reports = NewReportService(db, p, clock, rec, fs, &logger)
	env.reset = NewResetService(db, l, clock, rec, &logger)
	return env
}

func (e *testEnv) bed(t *testing.T, umbrellaID int64, side models.Side) models.Bed {
	t.Helper()
	umbrellas, err := e.rentals.ListUmbrellas(context.Background())
	require.NoError(t, err)
	for _, u := range umbrellas {
		if u.ID != umbrellaID {
			continue
		}
		for _, b := range u.Beds {
			if b.Side == side {
				return b
			}
		}
	}
	t.Fatalf("bed %d/%s not found", umbrellaID, side)
	return models.Bed{}
}

func (e *testEnv) openEntries(t *testing.T) int {
	t.Helper()
	rentals, err := e.db.ListRentals(context.Background(), models.AllTime())
	require.NoError(t, err)
	open := 0
	for i := range rentals {
		if rentals[i].IsOpen() {
			open++
		}
	}
	return open
}

var _ domain.EventPublisher = (*recorder)(nil)
var _ domain.SyncWorker = (*fakeSync)(nil)
