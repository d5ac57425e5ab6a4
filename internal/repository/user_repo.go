package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carrental/internal/db"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, username, password_hash, role, email, email_verified,
	verification_code, verification_expires_at, created_at`

func scanUser(row *sql.Row) (*db.User, error) {
	var u db.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Email, &u.EmailVerified,
		&u.VerificationCode, &u.VerificationExpiresAt, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u and fills its ID. ErrDuplicate means the username is
// taken.
func (r *UserRepository) CreateUser(ctx context.Context, u *db.User) error {
	query := `
		INSERT INTO users (username, password_hash, role, email, email_verified, verification_code, verification_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		u.Username, u.PasswordHash, u.Role, u.Email, u.EmailVerified, u.VerificationCode, u.VerificationExpiresAt,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*db.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetUserByVerificationCode(ctx context.Context, code string) (*db.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE verification_code = $1`, code)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg any) (*db.User, error) {
	u, err := scanUser(conn(ctx, r.DB).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

// MarkEmailVerified flags the address as confirmed and clears the code.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, verification_code = NULL, verification_expires_at = NULL
		WHERE id = $1`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error verifying user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error verifying user %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredUnverified removes registrations whose verification code
// expired before now. Users holding bookings are left alone.
func (r *UserRepository) DeleteExpiredUnverified(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM users u
		WHERE u.email_verified = FALSE
		  AND u.verification_expires_at IS NOT NULL
		  AND u.verification_expires_at < $1
		  AND NOT EXISTS (SELECT 1 FROM bookings b WHERE b.customer_id = u.id)`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired registrations: %w", err)
	}
	return res.RowsAffected()
}
