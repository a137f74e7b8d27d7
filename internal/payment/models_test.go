package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gymstack/gymstack-backend/internal/payment"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{payment.StatusPending, payment.StatusProcessing},
		{payment.StatusPending, payment.StatusCompleted},
		{payment.StatusPending, payment.StatusFailed},
		{payment.StatusPending, payment.StatusCancelled},
		{payment.StatusProcessing, payment.StatusCompleted},
		{payment.StatusProcessing, payment.StatusFailed},
		{payment.StatusProcessing, payment.StatusCancelled},
		{payment.StatusCompleted, payment.StatusRefunded},
	}
	for _, tt := range allowed {
		assert.True(t, payment.CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	denied := []struct{ from, to string }{
		{payment.StatusCompleted, payment.StatusPending},
		{payment.StatusCompleted, payment.StatusCancelled},
		{payment.StatusRefunded, payment.StatusCompleted},
		{payment.StatusFailed, payment.StatusCompleted},
		{payment.StatusCancelled, payment.StatusPending},
		{payment.StatusPending, payment.StatusRefunded},
		{payment.StatusPending, payment.StatusPending},
	}
	for _, tt := range denied {
		assert.False(t, payment.CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
