package membership_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack-backend/internal/membership"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/testutil"
)

func TestRepository_UpdateStatus_Guarded(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE memberships").
		WithArgs("frozen", int64(1), "active").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := membership.NewRepository()
	require.NoError(t, repo.UpdateStatus(context.Background(), mockDB.DB, 1, "active", "frozen"))
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_UpdateStatus_ConcurrentTransition(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	// Status moved between read and write: the guard matches no row.
	mockDB.ExpectExec("UPDATE memberships").
		WithArgs("cancelled", int64(1), "active").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := membership.NewRepository()
	err := repo.UpdateStatus(context.Background(), mockDB.DB, 1, "active", "cancelled")

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_ActiveForUser_NoneIsNil(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("m.status = 'active'").
		WithArgs(int64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := membership.NewRepository()
	m, err := repo.ActiveForUser(context.Background(), mockDB.DB, 30)
	require.NoError(t, err)
	assert.Nil(t, m)
	mockDB.ExpectationsWereMet(t)
}
