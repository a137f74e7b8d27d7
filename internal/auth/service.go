package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	authjwt "github.com/gymstack/gymstack-backend/internal/auth/jwt"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/logger"
	"github.com/gymstack/gymstack-backend/pkg/principal"
)

// PlatformUser is an operator account in the shared public schema.
type PlatformUser struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	GymID        *int64     `db:"gym_id" json:"gym_id,omitempty"`
	BranchID     *int64     `db:"branch_id" json:"branch_id,omitempty"`
	IsSuperAdmin bool       `db:"is_super_admin" json:"is_super_admin"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

type tenantLoginRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Email        sql.NullString `db:"email"`
	PasswordHash sql.NullString `db:"password_hash"`
	Role         string         `db:"role"`
	BranchID     *int64         `db:"branch_id"`
	IsActive     bool           `db:"is_active"`
}

// LoginRequest carries credentials. GymID selects tenant login for gym staff
// and members; platform users leave it empty.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	GymID    *int64 `json:"gym_id,omitempty" validate:"omitempty,gt=0"`
}

// RefreshRequest carries the refresh token for rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest carries a password rotation.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// LoginResponse is the token pair plus the authenticated identity.
type LoginResponse struct {
	*authjwt.TokenPair
	User *AuthenticatedUser `json:"user"`
}

// AuthenticatedUser is the identity surface returned by login and /me.
type AuthenticatedUser struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	GymID        *int64 `json:"gym_id,omitempty"`
	BranchID     *int64 `json:"branch_id,omitempty"`
}

// Service implements authentication against both identity stores: platform
// users in the public schema and gym users in their tenant schema.
type Service struct {
	pools  *database.Pools
	tokens *authjwt.Manager
	logger *logger.Logger
}

// NewService creates the auth service.
func NewService(pools *database.Pools, tokens *authjwt.Manager, log *logger.Logger) *Service {
	return &Service{pools: pools, tokens: tokens, logger: log}
}

// Login authenticates credentials and issues a token pair. Lookup failures
// and bad passwords produce the same error, so the endpoint does not leak
// which emails exist.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if req.GymID != nil {
		return s.loginTenant(ctx, *req.GymID, req.Email, req.Password)
	}
	return s.loginPlatform(ctx, req.Email, req.Password)
}

func (s *Service) loginPlatform(ctx context.Context, email, password string) (*LoginResponse, error) {
	var user PlatformUser
	err := s.pools.WithMain(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		err := conn.GetContext(ctx, &user, `
			SELECT id, name, email, password_hash, role, gym_id, branch_id,
			       is_super_admin, is_active, last_login_at, created_at, updated_at
			FROM public.platform_users
			WHERE lower(email) = lower($1)`,
			email,
		)
		if err == sql.ErrNoRows {
			return errors.InvalidCredentials()
		}
		if err != nil {
			return err
		}
		if !user.IsActive {
			return errors.Forbidden("account is disabled")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			return errors.InvalidCredentials()
		}

		_, err = conn.ExecContext(ctx,
			`UPDATE public.platform_users SET last_login_at = now() WHERE id = $1`, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.GenerateTokenPair(&authjwt.UserInfo{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		IsSuperAdmin: user.IsSuperAdmin,
		GymID:        user.GymID,
		BranchID:     user.BranchID,
	})
	if err != nil {
		return nil, errors.Internal("failed to issue tokens")
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("platform login")

	return &LoginResponse{
		TokenPair: pair,
		User: &AuthenticatedUser{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         user.Role,
			IsSuperAdmin: user.IsSuperAdmin,
			GymID:        user.GymID,
			BranchID:     user.BranchID,
		},
	}, nil
}

func (s *Service) loginTenant(ctx context.Context, gymID int64, email, password string) (*LoginResponse, error) {
	var row tenantLoginRow
	err := s.pools.WithTenant(ctx, gymID, func(ctx context.Context, conn *sqlx.Conn, _ string) error {
		err := conn.GetContext(ctx, &row, `
			SELECT id, name, email, password_hash, role, branch_id, is_active
			FROM users
			WHERE lower(email) = lower($1) AND is_deleted = FALSE`,
			email,
		)
		if err == sql.ErrNoRows {
			return errors.InvalidCredentials()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !row.IsActive {
		return nil, errors.Forbidden("account is disabled")
	}
	if !row.PasswordHash.Valid ||
		bcrypt.CompareHashAndPassword([]byte(row.PasswordHash.String), []byte(password)) != nil {
		return nil, errors.InvalidCredentials()
	}

	pair, err := s.tokens.GenerateTokenPair(&authjwt.UserInfo{
		ID:       row.ID,
		Email:    row.Email.String,
		Name:     row.Name,
		Role:     row.Role,
		GymID:    &gymID,
		BranchID: row.BranchID,
	})
	if err != nil {
		return nil, errors.Internal("failed to issue tokens")
	}

	s.logger.Info().Int64("user_id", row.ID).Int64("gym_id", gymID).Str("role", row.Role).Msg("tenant login")

	return &LoginResponse{
		TokenPair: pair,
		User: &AuthenticatedUser{
			ID:       row.ID,
			Name:     row.Name,
			Email:    row.Email.String,
			Role:     row.Role,
			GymID:    &gymID,
			BranchID: row.BranchID,
		},
	}, nil
}

// Refresh rotates a refresh token into a new pair, reloading the identity so
// revoked or demoted accounts drop out at rotation time.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.GymID != nil {
		return s.refreshTenant(ctx, *claims.GymID, claims.UserID)
	}
	return s.refreshPlatform(ctx, claims.UserID)
}

func (s *Service) refreshPlatform(ctx context.Context, userID int64) (*LoginResponse, error) {
	var user PlatformUser
	err := s.pools.WithMain(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		err := conn.GetContext(ctx, &user, `
			SELECT id, name, email, password_hash, role, gym_id, branch_id,
			       is_super_admin, is_active, last_login_at, created_at, updated_at
			FROM public.platform_users
			WHERE id = $1`,
			userID,
		)
		if err == sql.ErrNoRows {
			return errors.TokenInvalid()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.Forbidden("account is disabled")
	}

	pair, err := s.tokens.GenerateTokenPair(&authjwt.UserInfo{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		IsSuperAdmin: user.IsSuperAdmin,
		GymID:        user.GymID,
		BranchID:     user.BranchID,
	})
	if err != nil {
		return nil, errors.Internal("failed to issue tokens")
	}

	return &LoginResponse{
		TokenPair: pair,
		User: &AuthenticatedUser{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         user.Role,
			IsSuperAdmin: user.IsSuperAdmin,
			GymID:        user.GymID,
			BranchID:     user.BranchID,
		},
	}, nil
}

func (s *Service) refreshTenant(ctx context.Context, gymID, userID int64) (*LoginResponse, error) {
	var row tenantLoginRow
	err := s.pools.WithTenant(ctx, gymID, func(ctx context.Context, conn *sqlx.Conn, _ string) error {
		err := conn.GetContext(ctx, &row, `
			SELECT id, name, email, password_hash, role, branch_id, is_active
			FROM users
			WHERE id = $1 AND is_deleted = FALSE`,
			userID,
		)
		if err == sql.ErrNoRows {
			return errors.TokenInvalid()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !row.IsActive {
		return nil, errors.Forbidden("account is disabled")
	}

	pair, err := s.tokens.GenerateTokenPair(&authjwt.UserInfo{
		ID:       row.ID,
		Email:    row.Email.String,
		Name:     row.Name,
		Role:     row.Role,
		GymID:    &gymID,
		BranchID: row.BranchID,
	})
	if err != nil {
		return nil, errors.Internal("failed to issue tokens")
	}

	return &LoginResponse{
		TokenPair: pair,
		User: &AuthenticatedUser{
			ID:       row.ID,
			Name:     row.Name,
			Email:    row.Email.String,
			Role:     row.Role,
			GymID:    &gymID,
			BranchID: row.BranchID,
		},
	}, nil
}

// ChangePassword verifies the current password and stores a new hash in
// whichever identity store the principal belongs to.
func (s *Service) ChangePassword(ctx context.Context, p *principal.Principal, req *ChangePasswordRequest) error {
	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("failed to hash password")
	}

	if p.GymID != nil && !p.IsSuperAdmin && p.Role != principal.RoleAdmin {
		return s.pools.WithTenant(ctx, *p.GymID, func(ctx context.Context, conn *sqlx.Conn, _ string) error {
			var currentHash sql.NullString
			err := conn.GetContext(ctx, &currentHash,
				`SELECT password_hash FROM users WHERE id = $1 AND is_deleted = FALSE`, p.UserID)
			if err == sql.ErrNoRows {
				return errors.NotFound("user")
			}
			if err != nil {
				return err
			}
			if !currentHash.Valid ||
				bcrypt.CompareHashAndPassword([]byte(currentHash.String), []byte(req.CurrentPassword)) != nil {
				return errors.InvalidCredentials()
			}
			_, err = conn.ExecContext(ctx,
				`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, string(newHash), p.UserID)
			return err
		})
	}

	return s.pools.WithMain(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		var currentHash string
		err := conn.GetContext(ctx, &currentHash,
			`SELECT password_hash FROM public.platform_users WHERE id = $1`, p.UserID)
		if err == sql.ErrNoRows {
			return errors.NotFound("user")
		}
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(req.CurrentPassword)) != nil {
			return errors.InvalidCredentials()
		}
		_, err = conn.ExecContext(ctx,
			`UPDATE public.platform_users SET password_hash = $1, updated_at = now() WHERE id = $2`,
			string(newHash), p.UserID)
		return err
	})
}
