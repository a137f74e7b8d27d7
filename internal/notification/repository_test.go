package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack-backend/internal/notification"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/testutil"
)

var notificationColumns = []string{
	"id", "user_id", "type", "title", "message", "priority", "metadata",
	"is_read", "read_at", "expires_at", "created_at",
}

func TestRepository_List_IncludesBroadcasts(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	now := time.Now()
	rows := sqlmock.NewRows(notificationColumns).
		AddRow(int64(2), int64(30), "payment_received", "Payment received", "Thanks!", "normal", nil, false, nil, nil, now).
		AddRow(int64(1), nil, "announcement", "New yoga class", "Starts Monday", "normal", nil, false, nil, nil, now)

	// Broadcast rows carry a NULL user_id and belong to every feed.
	mockDB.ExpectQuery("user_id = $1 OR user_id IS NULL").
		WithArgs(int64(30)).
		WillReturnRows(rows)

	repo := notification.NewRepository()
	items, err := repo.List(context.Background(), mockDB.DB, 30, notification.ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Nil(t, items[1].UserID)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_List_UnreadOnly(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("is_read = $2").
		WithArgs(int64(30), false).
		WillReturnRows(sqlmock.NewRows(notificationColumns))

	repo := notification.NewRepository()
	items, err := repo.List(context.Background(), mockDB.DB, 30, notification.ListFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, items)
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_MarkAsRead(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE notifications").
		WithArgs(int64(5), int64(30)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := notification.NewRepository()
	require.NoError(t, repo.MarkAsRead(context.Background(), mockDB.DB, 5, 30))
	mockDB.ExpectationsWereMet(t)
}

func TestRepository_MarkAsRead_NotOwner(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	// The owner guard in the WHERE clause matches nothing.
	mockDB.ExpectExec("UPDATE notifications").
		WithArgs(int64(5), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := notification.NewRepository()
	err := repo.MarkAsRead(context.Background(), mockDB.DB, 5, 99)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}
