package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aryapradana/galeri/internal/storage"
)

type userRepository struct {
	db *sql.DB
}

func (r *userRepository) Create(ctx context.Context, input storage.UserCreate) (storage.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		input.Name,
		input.Email,
		input.PasswordHash,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.User{}, storage.ErrConflict
		}
		return storage.User{}, fmt.Errorf("sqlite: create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.User{}, fmt.Errorf("sqlite: create user: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (storage.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (storage.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE id = ?`,
		passwordHash,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update password: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update password: %w", err)
	}

	if rowsAffected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

type userScanner interface {
	Scan(dest ...any) error
}

func scanUser(s userScanner) (storage.User, error) {
	var (
		user         storage.User
		createdAtRaw time.Time
		updatedAtRaw time.Time
	)

	err := s.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&createdAtRaw,
		&updatedAtRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("sqlite: scan user: %w", err)
	}

	user.CreatedAt = createdAtRaw.UTC()
	user.UpdatedAt = updatedAtRaw.UTC()

	return user, nil
}
