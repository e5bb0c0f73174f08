package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/veriport/bgv-api/internal/models"
)

// UserRepository persists branch users and refresh tokens.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, branch_id, customer_id, active, last_login_at, created_at`

// FindByEmail fetches a branch user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.BranchUser, error) {
	query := fmt.Sprintf("SELECT %s FROM branch_users WHERE email = $1", userColumns)
	var user models.BranchUser
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID fetches a branch user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.BranchUser, error) {
	query := fmt.Sprintf("SELECT %s FROM branch_users WHERE id = $1", userColumns)
	var user models.BranchUser
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// BranchEmails lists the active recipient addresses for a branch.
func (r *UserRepository) BranchEmails(ctx context.Context, branchID string) ([]string, error) {
	const query = `SELECT email FROM branch_users WHERE branch_id = $1 AND active ORDER BY email`
	var emails []string
	if err := r.db.SelectContext(ctx, &emails, query, branchID); err != nil {
		return nil, fmt.Errorf("list branch emails: %w", err)
	}
	return emails, nil
}

// CustomerEmails lists the active CC addresses across a customer's branches.
func (r *UserRepository) CustomerEmails(ctx context.Context, customerID string) ([]string, error) {
	const query = `SELECT email FROM branch_users WHERE customer_id = $1 AND active ORDER BY email`
	var emails []string
	if err := r.db.SelectContext(ctx, &emails, query, customerID); err != nil {
		return nil, fmt.Errorf("list customer emails: %w", err)
	}
	return emails, nil
}

// UpdateLastLogin stamps the login time.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE branch_users SET last_login_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// CreateRefreshToken stores a refresh credential.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
VALUES (:id, :user_id, :token, :expires_at, :created_at)`
	token.CreatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken fetches a refresh token by its opaque value.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, revoked_at, created_at
FROM refresh_tokens WHERE token = $1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeRefreshToken marks a refresh token unusable.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
