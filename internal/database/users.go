package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cjburns0/crwv-tracker/internal/models"
)

// CreateUser inserts a new registered recipient
func (db *DB) CreateUser(u *models.User) error {
	query := `
		INSERT INTO users (name, phone_number, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now().UTC()
	err := db.conn.QueryRow(query,
		u.Name, u.PhoneNumber, u.PasswordHash, u.IsActive, now, now,
	).Scan(&u.ID)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// GetUserByPhone retrieves a user by phone number
func (db *DB) GetUserByPhone(phone string) (*models.User, error) {
	query := `
		SELECT id, name, phone_number, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE phone_number = $1
	`
	var u models.User
	err := db.conn.QueryRow(query, phone).Scan(
		&u.ID, &u.Name, &u.PhoneNumber, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", models.MaskPhone(phone), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetActiveUsers retrieves all active users ordered by id ascending
func (db *DB) GetActiveUsers() ([]*models.User, error) {
	query := `
		SELECT id, name, phone_number, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE is_active = true
		ORDER BY id ASC
	`
	return db.scanUsers(db.conn.Query(query))
}

// GetAllUsers retrieves every user ordered by id ascending
func (db *DB) GetAllUsers() ([]*models.User, error) {
	query := `
		SELECT id, name, phone_number, password_hash, is_active, created_at, updated_at
		FROM users
		ORDER BY id ASC
	`
	return db.scanUsers(db.conn.Query(query))
}

// DeactivateUser soft-deactivates a user; rows are never hard-deleted
func (db *DB) DeactivateUser(id int) error {
	query := `UPDATE users SET is_active = false, updated_at = $2 WHERE id = $1`
	result, err := db.conn.Exec(query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

func (db *DB) scanUsers(rows *sql.Rows, err error) ([]*models.User, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		err := rows.Scan(&u.ID, &u.Name, &u.PhoneNumber, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}

	return users, rows.Err()
}
