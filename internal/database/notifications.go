package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cjburns0/crwv-tracker/internal/models"
)

// CreateNotificationLog appends one dispatch attempt record
func (db *DB) CreateNotificationLog(n *models.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (kind, stock_price, phone_number, message_sid, status, error_message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = models.StatusPending
	}
	err := db.conn.QueryRow(query,
		n.Kind, n.StockPrice, n.PhoneNumber, n.MessageSID, n.Status, n.ErrorMessage, n.SentAt,
	).Scan(&n.ID)

	if err != nil {
		return fmt.Errorf("failed to create notification log: %w", err)
	}
	return nil
}

// GetRecentNotificationLogs retrieves the latest attempts, newest first
func (db *DB) GetRecentNotificationLogs(limit int) ([]*models.NotificationLog, error) {
	query := `
		SELECT id, kind, stock_price, phone_number, message_sid, status, error_message, sent_at
		FROM notification_logs
		ORDER BY sent_at DESC, id DESC
		LIMIT $1
	`
	return db.scanNotificationLogs(db.conn.Query(query, limit))
}

// GetNotificationLogsPage retrieves one page of attempts, newest first
func (db *DB) GetNotificationLogsPage(page, perPage int) ([]*models.NotificationLog, error) {
	if page < 1 {
		page = 1
	}
	query := `
		SELECT id, kind, stock_price, phone_number, message_sid, status, error_message, sent_at
		FROM notification_logs
		ORDER BY sent_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	return db.scanNotificationLogs(db.conn.Query(query, perPage, (page-1)*perPage))
}

// CountNotificationLogs returns the total number of attempt records
func (db *DB) CountNotificationLogs() (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM notification_logs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notification logs: %w", err)
	}
	return count, nil
}

func (db *DB) scanNotificationLogs(rows *sql.Rows, err error) ([]*models.NotificationLog, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query notification logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.NotificationLog
	for rows.Next() {
		var n models.NotificationLog
		var messageSID sql.NullString
		var errorMessage sql.NullString

		err := rows.Scan(&n.ID, &n.Kind, &n.StockPrice, &n.PhoneNumber, &messageSID, &n.Status, &errorMessage, &n.SentAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification log: %w", err)
		}

		if messageSID.Valid {
			n.MessageSID = &messageSID.String
		}
		if errorMessage.Valid {
			n.ErrorMessage = &errorMessage.String
		}
		logs = append(logs, &n)
	}

	return logs, rows.Err()
}
