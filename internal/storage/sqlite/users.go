package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"collab/internal/models"
)

const userColumns = `id, email, full_name, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser persists a new account. Emails are unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, email, fullName, passwordHash string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || passwordHash == "" {
		return models.User{}, fmt.Errorf("user: email and password required: %w", ErrInvalid)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users(email, full_name, password_hash) VALUES(?, ?, ?)`,
		email, strings.TrimSpace(fullName), passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("email: %w", ErrConflict)
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail fetches a user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// EmailTaken reports whether another account than exceptID already uses email.
func (s *Store) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ? AND id <> ?`, strings.TrimSpace(email), exceptID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

// UpdateUser saves the profile fields of u. An empty PasswordHash keeps the current one.
func (s *Store) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	if strings.TrimSpace(u.Email) == "" {
		return models.User{}, fmt.Errorf("user: email required: %w", ErrInvalid)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET email = ?, full_name = ?,
            password_hash = CASE WHEN ? = '' THEN password_hash ELSE ? END,
            updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		strings.TrimSpace(u.Email), strings.TrimSpace(u.FullName), u.PasswordHash, u.PasswordHash, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("email: %w", ErrConflict)
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if affected == 0 {
		return models.User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	return s.GetUser(ctx, u.ID)
}

// DeleteUser removes an account together with its memberships.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	return nil
}
