package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/principal"
	"github.com/gymstack/gymstack-backend/pkg/testutil"
)

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		p          *principal.Principal
		roles      []string
		wantStatus int
	}{
		{"admin on admin route", testutil.GymAdmin(1), []string{principal.RoleAdmin}, 200},
		{"staff on admin-or-staff route", testutil.Staff(1), []string{principal.RoleAdmin, principal.RoleStaff}, 200},
		{"member blocked from staff route", testutil.Member(1, 30), []string{principal.RoleAdmin, principal.RoleStaff}, 403},
		{"staff blocked from admin route", testutil.Staff(1), []string{principal.RoleAdmin}, 403},
		{"superadmin bypasses any role set", testutil.SuperAdmin(), []string{principal.RoleMember}, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called := okHandler()
			handler := auth.RequireRole(tt.roles...)(next)

			req := testutil.AsPrincipal(httptest.NewRequest("GET", "/", nil), tt.p)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == 200, *called)
			if tt.wantStatus == 403 {
				testutil.RequireErrorCode(t, rec, 403, "FORBIDDEN")
			}
		})
	}
}

func TestRequireRole_NoPrincipal(t *testing.T) {
	next, called := okHandler()
	handler := auth.RequireRole(principal.RoleAdmin)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	testutil.RequireErrorCode(t, rec, 401, "UNAUTHORIZED")
	assert.False(t, *called)
}

func TestRequireGym(t *testing.T) {
	next, called := okHandler()

	req := testutil.AsPrincipal(httptest.NewRequest("GET", "/", nil), testutil.GymAdmin(1))
	rec := httptest.NewRecorder()
	auth.RequireGym(next).ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, *called)

	// A superadmin without a gym binding cannot reach gym-scoped routes.
	next, called = okHandler()
	req = testutil.AsPrincipal(httptest.NewRequest("GET", "/", nil), testutil.SuperAdmin())
	rec = httptest.NewRecorder()
	auth.RequireGym(next).ServeHTTP(rec, req)
	testutil.RequireErrorCode(t, rec, 403, "FORBIDDEN")
	assert.False(t, *called)
}

func TestActingUserID(t *testing.T) {
	t.Run("defaults to the principal", func(t *testing.T) {
		req := testutil.AsPrincipal(httptest.NewRequest("GET", "/", nil), testutil.Member(1, 30))
		id, err := auth.ActingUserID(req)
		require.NoError(t, err)
		assert.Equal(t, int64(30), id)
	})

	t.Run("staff may delegate", func(t *testing.T) {
		req := testutil.AsPrincipal(httptest.NewRequest("GET", "/", nil), testutil.Staff(1))
		req.Header.Set(auth.DelegationHeader, "42")
		id, err := auth.ActingUserID(req)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("member may not delegate", func(t *testing.T) {
		req := testutil.AsPrincipal(httptest.NewRequest("GET", "/", nil), testutil.Member(1, 30))
		req.Header.Set(auth.DelegationHeader, "42")
		_, err := auth.ActingUserID(req)

		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 403, appErr.StatusCode)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := testutil.AsPrincipal(httptest.NewRequest("GET", "/", nil), testutil.Staff(1))
		req.Header.Set(auth.DelegationHeader, "not-a-number")
		_, err := auth.ActingUserID(req)

		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 400, appErr.StatusCode)
	})
}
