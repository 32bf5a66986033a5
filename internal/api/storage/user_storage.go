package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/philjnicholls/sendtokindle/internal/api/domain"
	"github.com/philjnicholls/sendtokindle/internal/api/model"
	"github.com/philjnicholls/sendtokindle/shared/postgresql"
)

// UserStorage handles user rows for the API service.
type UserStorage struct {
	db *sqlx.DB
}

// NewUserStorage creates a new UserStorage instance
func NewUserStorage(pg *postgresql.Client) *UserStorage {
	return &UserStorage{db: pg.GetDB()}
}

const userColumns = `id, email, kindle_email, api_token, email_token, verified, created_at, updated_at`

// FindByToken looks a user up by API token.
func (s *UserStorage) FindByToken(ctx context.Context, token string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE api_token = $1`

	var user model.User
	err := s.db.GetContext(ctx, &user, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by token: %w", err)
	}

	return &user, nil
}

// FindByEmail looks a user up by email address.
func (s *UserStorage) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user model.User
	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return &user, nil
}

// Save inserts the user, or on email conflict resets the delivery address,
// tokens and verified flag. Re-registering always forces re-verification.
func (s *UserStorage) Save(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (email, kindle_email, api_token, email_token, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE
		SET kindle_email = EXCLUDED.kindle_email,
		    api_token = EXCLUDED.api_token,
		    email_token = EXCLUDED.email_token,
		    verified = FALSE,
		    updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, user.Email, user.KindleEmail, user.APIToken, user.EmailToken)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// Verify marks the user matching email+emailToken as verified. Returns the
// user and whether the account was already verified before this call.
func (s *UserStorage) Verify(ctx context.Context, email, emailToken string) (*model.User, bool, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND email_token = $2`

	var user model.User
	err := s.db.GetContext(ctx, &user, query, email, emailToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, domain.ErrUserNotFound
		}
		return nil, false, fmt.Errorf("failed to find user for verification: %w", err)
	}

	alreadyVerified := user.Verified
	if !alreadyVerified {
		update := `UPDATE users SET verified = TRUE, updated_at = NOW() WHERE id = $1`
		if _, err := s.db.ExecContext(ctx, update, user.ID); err != nil {
			return nil, false, fmt.Errorf("failed to mark user verified: %w", err)
		}
		user.Verified = true
	}

	return &user, alreadyVerified, nil
}
