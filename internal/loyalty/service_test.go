package loyalty_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack-backend/internal/loyalty"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/testutil"
)

func TestEffectivePoints(t *testing.T) {
	tests := []struct {
		name       string
		base       int
		multiplier float64
		want       int
	}{
		{"no tier", 10, 1.0, 10},
		{"silver", 10, 1.25, 13},
		{"gold", 10, 1.5, 15},
		{"rounds half up", 10, 1.05, 11},
		{"rounds down below half", 10, 1.04, 10},
		{"zero base", 0, 2.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, loyalty.EffectivePoints(tt.base, tt.multiplier))
		})
	}
}

func TestRepository_GetConfig_DefaultsWhenAbsent(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	// No settings row: the programme still runs at the seeded rates.
	mockDB.ExpectQuery("FROM loyalty_config").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := loyalty.NewRepository()
	cfg, err := repo.GetConfig(context.Background(), mockDB.DB)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 10, cfg.PointsPerVisit)
	assert.Equal(t, 50, cfg.PointsPerReferral)
	assert.Equal(t, 1.0, cfg.PointsPerPurchaseUnit)
	assert.Equal(t, 365, cfg.PointExpiryDays)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_ApplyRedeem_InsufficientBalance(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	// The balance guard matches no row.
	mockDB.ExpectQuery("UPDATE loyalty_points").
		WithArgs(500, int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"current_balance"}))

	repo := loyalty.NewRepository()
	_, err := repo.ApplyRedeem(context.Background(), mockDB.DB, 7, 500)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_ApplyEarn_ReturnsBalance(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("UPDATE loyalty_points").
		WithArgs(15, int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"current_balance"}).AddRow(115))

	repo := loyalty.NewRepository()
	balance, err := repo.ApplyEarn(context.Background(), mockDB.DB, 7, 15)
	require.NoError(t, err)
	assert.Equal(t, 115, balance)
	mockDB.ExpectationsWereMet(t)
}
