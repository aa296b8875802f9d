package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID       string
	Role     string
	BranchID string
	Email    string
	FullName string
	Password string
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	var branchID *string
	err := s.DB.QueryRow(ctx, `
		SELECT id, role, branch_id, email, full_name, password_hash
		FROM users
		WHERE lower(email) = lower($1) AND active
	`, email).Scan(&out.ID, &out.Role, &branchID, &out.Email, &out.FullName, &out.Password)
	if branchID != nil {
		out.BranchID = *branchID
	}
	return out, err
}

func (s *Store) UserByID(ctx context.Context, userID string) (AuthUser, error) {
	var out AuthUser
	var branchID *string
	err := s.DB.QueryRow(ctx, `
		SELECT id, role, branch_id, email, full_name, password_hash
		FROM users
		WHERE id = $1 AND active
	`, userID).Scan(&out.ID, &out.Role, &branchID, &out.Email, &out.FullName, &out.Password)
	if branchID != nil {
		out.BranchID = *branchID
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO sessions (user_id, refresh_token, expires_at)
		VALUES ($1,$2,$3)
	`, userID, refreshTokenHash, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, userID, refreshTokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND refresh_token = $2", userID, refreshTokenHash)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID, refreshTokenHash string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
		SELECT COUNT(1)
		FROM sessions
		WHERE user_id = $1 AND refresh_token = $2 AND expires_at > now() AND revoked_at IS NULL
	`, userID, refreshTokenHash).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RotateSession(ctx context.Context, userID, oldHash, newHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE sessions
		SET refresh_token = $1, expires_at = $2, rotated_at = now()
		WHERE user_id = $3 AND refresh_token = $4
	`, newHash, expires, userID, oldHash)
	return err
}
