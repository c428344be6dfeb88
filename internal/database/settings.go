package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cjburns0/crwv-tracker/internal/models"
)

// GetOrCreateSettings returns the singleton settings row, creating it with
// defaults (notifications enabled, 09:30/16:00 triggers, no phone slots, no
// password) if none exists yet.
func (db *DB) GetOrCreateSettings() (*models.Settings, error) {
	settings, err := db.getSettings()
	if err == nil {
		return settings, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	query := `
		INSERT INTO settings (notifications_enabled, market_open_time, market_close_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now().UTC()
	s := &models.Settings{
		NotificationsEnabled: true,
		MarketOpenTime:       models.DefaultMarketOpenTime,
		MarketCloseTime:      models.DefaultMarketCloseTime,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	err = db.conn.QueryRow(query,
		s.NotificationsEnabled, s.MarketOpenTime, s.MarketCloseTime, now, now,
	).Scan(&s.ID)
	if err != nil {
		// Concurrent creation can race; whoever lost reads the winner's row.
		if existing, getErr := db.getSettings(); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}
	return s, nil
}

// UpdateSettings persists changes to the singleton settings row
func (db *DB) UpdateSettings(s *models.Settings) error {
	query := `
		UPDATE settings SET
			phone_number_1 = $2,
			phone_number_2 = $3,
			phone_number_3 = $4,
			phone_number_4 = $5,
			notifications_enabled = $6,
			market_open_time = $7,
			market_close_time = $8,
			settings_password_hash = $9,
			updated_at = $10
		WHERE id = $1
	`
	now := time.Now().UTC()
	result, err := db.conn.Exec(query,
		s.ID, s.PhoneNumber1, s.PhoneNumber2, s.PhoneNumber3, s.PhoneNumber4,
		s.NotificationsEnabled, s.MarketOpenTime, s.MarketCloseTime, s.SettingsPasswordHash, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("settings %d: %w", s.ID, ErrNotFound)
	}
	s.UpdatedAt = now
	return nil
}

func (db *DB) getSettings() (*models.Settings, error) {
	query := `
		SELECT id, phone_number_1, phone_number_2, phone_number_3, phone_number_4,
		       notifications_enabled, market_open_time, market_close_time,
		       settings_password_hash, created_at, updated_at
		FROM settings
		ORDER BY id ASC
		LIMIT 1
	`
	var s models.Settings
	var phone1, phone2, phone3, phone4, passwordHash sql.NullString

	err := db.conn.QueryRow(query).Scan(
		&s.ID, &phone1, &phone2, &phone3, &phone4,
		&s.NotificationsEnabled, &s.MarketOpenTime, &s.MarketCloseTime,
		&passwordHash, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if phone1.Valid {
		s.PhoneNumber1 = &phone1.String
	}
	if phone2.Valid {
		s.PhoneNumber2 = &phone2.String
	}
	if phone3.Valid {
		s.PhoneNumber3 = &phone3.String
	}
	if phone4.Valid {
		s.PhoneNumber4 = &phone4.String
	}
	if passwordHash.Valid {
		s.SettingsPasswordHash = &passwordHash.String
	}
	return &s, nil
}
