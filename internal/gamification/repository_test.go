package gamification_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack-backend/internal/gamification"
	"github.com/gymstack/gymstack-backend/pkg/testutil"
)

func TestRepository_AdvanceParticipants_CoversBothVisitMetrics(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	// A check-in moves attendance and visits challenges alike.
	mockDB.ExpectExec("c.metric IN ('attendance', 'visits')").
		WithArgs(1.0, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := gamification.NewRepository()
	n, err := repo.AdvanceParticipants(context.Background(), mockDB.DB, 42, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	mockDB.ExpectationsWereMet(t)
}
