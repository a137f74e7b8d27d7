package salary_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack-backend/internal/salary"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/testutil"
)

func TestRepository_Update_RecomputesNetFromBoundValues(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	// The net assignment must read the incoming amounts, not the columns
	// being assigned: SET expressions evaluate against the old tuple.
	base := 2000.0
	mockDB.ExpectExec("net_amount = COALESCE($1, base_amount) + COALESCE($2, bonus_amount) - COALESCE($3, deductions)").
		WithArgs(base, nil, nil, nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := salary.NewRepository()
	err := repo.Update(context.Background(), mockDB.DB, 5, &salary.UpdateSalaryRequest{BaseAmount: &base})
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_Update_NotPending(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	base := 1200.0
	mockDB.ExpectExec("UPDATE staff_salaries").
		WithArgs(base, nil, nil, nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := salary.NewRepository()
	err := repo.Update(context.Background(), mockDB.DB, 5, &salary.UpdateSalaryRequest{BaseAmount: &base})

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_Update_EmptyRequestIsNoop(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := salary.NewRepository()
	require.NoError(t, repo.Update(context.Background(), mockDB.DB, 5, &salary.UpdateSalaryRequest{}))
	mockDB.ExpectationsWereMet(t)
}
