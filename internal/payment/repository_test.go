package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack-backend/internal/payment"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/testutil"
)

var paymentColumns = []string{
	"id", "user_id", "membership_id", "salary_id", "amount", "tax_amount",
	"discount_amount", "net_amount", "method", "reference", "status", "paid_at",
	"branch_id", "created_at", "updated_at",
}

func paymentRow(id int64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(paymentColumns).
		AddRow(id, int64(5), nil, nil, 100.0, 18.0, 0.0, 118.0, "card", nil, status, nil, nil, now, now)
}

func TestRepository_Insert_ComputesNet(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	userID := int64(5)
	mockDB.ExpectQuery("INSERT INTO payments").
		WithArgs(&userID, nil, nil, 100.0, 18.0, 0.0, 118.0, "card", nil, "completed", nil).
		WillReturnRows(paymentRow(1, payment.StatusCompleted))

	repo := payment.NewRepository()
	p, err := repo.Insert(context.Background(), mockDB.DB, &payment.New{
		UserID:    &userID,
		Amount:    100,
		TaxAmount: 18,
		Method:    "card",
		Status:    payment.StatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, 118.0, p.NetAmount)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_UpdateStatus_ValidTransition(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").
		WithArgs(int64(1)).
		WillReturnRows(paymentRow(1, payment.StatusPending))
	mockDB.ExpectQuery("UPDATE payments").
		WithArgs(payment.StatusCompleted, int64(1), payment.StatusPending).
		WillReturnRows(paymentRow(1, payment.StatusCompleted))

	repo := payment.NewRepository()
	p, err := repo.UpdateStatus(context.Background(), mockDB.DB, 1, payment.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, p.Status)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_UpdateStatus_InvalidTransition(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").
		WithArgs(int64(1)).
		WillReturnRows(paymentRow(1, payment.StatusRefunded))

	repo := payment.NewRepository()
	_, err := repo.UpdateStatus(context.Background(), mockDB.DB, 1, payment.StatusCompleted)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_UpdateStatus_ConcurrentChange(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").
		WithArgs(int64(1)).
		WillReturnRows(paymentRow(1, payment.StatusPending))
	// Guarded UPDATE matches no row: someone else moved it first.
	mockDB.ExpectQuery("UPDATE payments").
		WithArgs(payment.StatusCompleted, int64(1), payment.StatusPending).
		WillReturnRows(sqlmock.NewRows(paymentColumns))

	repo := payment.NewRepository()
	_, err := repo.UpdateStatus(context.Background(), mockDB.DB, 1, payment.StatusCompleted)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_Delete_CompletedRejected(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").
		WithArgs(int64(1)).
		WillReturnRows(paymentRow(1, payment.StatusCompleted))

	repo := payment.NewRepository()
	err := repo.Delete(context.Background(), mockDB.DB, 1, 9)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}
