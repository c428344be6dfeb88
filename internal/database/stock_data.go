package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cjburns0/crwv-tracker/internal/models"
)

// UpsertStockData inserts or updates the OHLCV snapshot for a date. The date
// is the unique key; a finalized trading day is deterministic from the
// provider, so last-write-wins on conflict is fine.
func (db *DB) UpsertStockData(s *models.StockData) error {
	query := `
		INSERT INTO stock_data (date, open, high, low, close, volume, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			last_updated = EXCLUDED.last_updated
		RETURNING id
	`
	if s.LastUpdated.IsZero() {
		s.LastUpdated = time.Now().UTC()
	}
	err := db.conn.QueryRow(query,
		s.Date, s.Open, s.High, s.Low, s.Close, s.Volume, s.LastUpdated,
	).Scan(&s.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert stock data: %w", err)
	}
	return nil
}

// GetStockDataByDate retrieves the snapshot for a specific date
func (db *DB) GetStockDataByDate(date time.Time) (*models.StockData, error) {
	query := `
		SELECT id, date, open, high, low, close, volume, last_updated
		FROM stock_data
		WHERE date = $1
	`
	var s models.StockData
	err := db.conn.QueryRow(query, date).Scan(
		&s.ID, &s.Date, &s.Open, &s.High, &s.Low, &s.Close, &s.Volume, &s.LastUpdated,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stock data for %s: %w", date.Format("2006-01-02"), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock data: %w", err)
	}
	return &s, nil
}

// GetRecentStockData retrieves the most recent snapshots, ordered by date descending
func (db *DB) GetRecentStockData(limit int) ([]*models.StockData, error) {
	query := `
		SELECT id, date, open, high, low, close, volume, last_updated
		FROM stock_data
		ORDER BY date DESC
		LIMIT $1
	`
	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent stock data: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.StockData
	for rows.Next() {
		var s models.StockData
		err := rows.Scan(&s.ID, &s.Date, &s.Open, &s.High, &s.Low, &s.Close, &s.Volume, &s.LastUpdated)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock data: %w", err)
		}
		snapshots = append(snapshots, &s)
	}

	return snapshots, rows.Err()
}
