package database

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"

	apperrors "github.com/gymstack/gymstack-backend/pkg/errors"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantNil    bool
	}{
		{"unique violation", &pq.Error{Code: "23505", Constraint: "users_email_key"}, 409, false},
		{"salary period violation", &pq.Error{Code: "23505", Constraint: "staff_salaries_period_key"}, 409, false},
		{"foreign key", &pq.Error{Code: "23503"}, 400, false},
		{"not null", &pq.Error{Code: "23502", Column: "name"}, 400, false},
		{"check constraint", &pq.Error{Code: "23514", Constraint: "payments_amount_check"}, 422, false},
		{"connection limit", &pq.Error{Code: "53300"}, 503, false},
		{"statement cancelled", &pq.Error{Code: "57014"}, 503, false},
		{"unknown pq code passes through", &pq.Error{Code: "42P01"}, 0, true},
		{"non-pq error passes through", errors.New("boom"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPQError(tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("MapPQError() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("MapPQError() = nil, want AppError")
			}
			if got.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestMapPQError_UniqueMessages(t *testing.T) {
	got := MapPQError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	if got.Message != "a record with this email already exists" {
		t.Errorf("Message = %q", got.Message)
	}
	got = MapPQError(&pq.Error{Code: "23505", Constraint: "challenge_participants_challenge_id_user_id_key"})
	if got.Message != "user has already joined this challenge" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestTranslate(t *testing.T) {
	if err := Translate(nil, "gym"); err != nil {
		t.Errorf("Translate(nil) = %v", err)
	}

	err := Translate(sql.ErrNoRows, "gym")
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.StatusCode != 404 {
		t.Errorf("Translate(ErrNoRows) = %v, want 404", err)
	}

	plain := errors.New("boom")
	if got := Translate(plain, "gym"); got != plain {
		t.Errorf("Translate(plain) = %v, want passthrough", got)
	}
}

func TestSchemaName(t *testing.T) {
	if got := SchemaName(42); got != "tenant_42" {
		t.Errorf("SchemaName(42) = %q", got)
	}
}
