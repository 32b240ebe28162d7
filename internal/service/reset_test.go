package service

import (
	"context"
	"testing"

	"beachrent/internal/domain"
	"beachrent/internal/events"
	"beachrent/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.rentals.RentBed(ctx, staff, 5, models.SideLeft, models.KindBeach, "Ana"))
	require.NoError(t, env.rentals.OccupyBed(ctx, staff, 6, models.SideRight))
	require.NoError(t, env.rentals.EndRent(ctx, admin, 3, models.SideLeft))
	require.NoError(t, env.rentals.RentBed(ctx, admin, 9, models.SideLeft, models.KindHotel, "Dan"))
	_, err := env.extra.AddExtraBed(ctx, staff, 7, "Eva")
	require.NoError(t, err)

	assert.ErrorIs(t, env.reset.ResetDay(ctx, staff), domain.ErrForbidden)
	require.NoError(t, env.reset.ResetDay(ctx, admin))

	umbrellas, err := env.rentals.ListUmbrellas(ctx)
	require.NoError(t, err)
	for _, u := range umbrellas {
		assert.Zero(t, u.ExtraBeds)
		assert.Empty(t, u.ExtraBedsData)
		for _, b := range u.Beds {
			assert.Nil(t, b.RentedByUsername, "umbrella %d", u.Number)
			if u.Number == 3 || u.Number == 4 {
				assert.Equal(t, models.BedRentedHotel, b.Status, "umbrella %d", u.Number)
			} else {
				assert.Equal(t, models.BedFree, b.Status, "umbrella %d", u.Number)
			}
		}
	}

	e, err := env.earnings.Earnings(ctx, models.AllTime())
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(e.Total))
	assert.Zero(t, env.openEntries(t))

	assert.Contains(t, env.events.types(), events.EventDayReset)
}

func TestResetDay_SystemActor(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.reset.ResetDay(context.Background(), models.SystemActor))
}
