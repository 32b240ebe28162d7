package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"beachrent/internal/domain"
	"beachrent/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Read-then-write sequences inside InTx must not interleave: every writer sees the previous writer's result.
func TestInTx_SerializesReadModifyWrite(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	const numGoroutines = 20
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	errs := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			errs <- db.InTx(ctx, func(tx domain.Tx) error {
				last, err := tx.LastExtraBed(ctx, 5)
				if err != nil {
					return err
				}
				next := 1
				if last != nil {
					next = last.BedNumber + 1
				}
				if err := tx.InsertExtraBed(ctx, &models.ExtraBed{
					UmbrellaID: 5, BedNumber: next, Status: models.BedRentedBeach,
					Price: decimal.NewFromInt(50), BusinessDate: "2024-07-01", StartTime: time.Now(),
				}); err != nil {
					return err
				}
				_, err = tx.AdjustExtraBedCount(ctx, 5, 1)
				return err
			})
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	beds, err := db.ListExtraBeds(ctx, models.AllTime())
	require.NoError(t, err)
	require.Len(t, beds, numGoroutines)
	for i, b := range beds {
		assert.Equal(t, i+1, b.BedNumber)
	}

	umbrellas, err := db.ListUmbrellas(ctx)
	require.NoError(t, err)
	assert.Equal(t, numGoroutines, umbrellas[4].ExtraBeds)
}
