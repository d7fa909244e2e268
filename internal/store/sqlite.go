package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"payment-offers-api/internal/models"
)

// SQLiteStore persists offers in a local SQLite database. It is the
// default store and the one exercised by the test suites.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and initializes
// the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{conn: conn}

	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// initSchema creates the offers table if it doesn't exist. The primary
// key on adjustment_id is the authoritative uniqueness guarantee.
func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS offers (
			adjustment_id TEXT PRIMARY KEY,
			summary TEXT NOT NULL,
			banks TEXT NOT NULL,
			payment_instruments TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			flat_discount REAL NOT NULL DEFAULT 0,
			percent_discount REAL NOT NULL DEFAULT 0,
			max_cap REAL NOT NULL DEFAULT 0,
			min_order_value REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_min_order_value ON offers(min_order_value)`,
	}

	for _, query := range queries {
		if _, err := s.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// FindByAdjustmentID returns the offer with the given identifier.
func (s *SQLiteStore) FindByAdjustmentID(ctx context.Context, adjustmentID string) (*models.Offer, error) {
	query := `SELECT adjustment_id, summary, banks, payment_instruments, image, type,
		flat_discount, percent_discount, max_cap, min_order_value, created_at
		FROM offers WHERE adjustment_id = ?`

	offer, err := scanOffer(s.conn.QueryRowContext(ctx, query, adjustmentID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}

	return offer, nil
}

// FindEligible returns offers matching the bank/instrument/minimum-order
// constraints. The minimum-order bound is pushed into SQL; bank and
// instrument membership is checked in Go after deserializing the sets.
func (s *SQLiteStore) FindEligible(ctx context.Context, bank, instrument string, amount float64) ([]models.Offer, error) {
	query := `SELECT adjustment_id, summary, banks, payment_instruments, image, type,
		flat_discount, percent_discount, max_cap, min_order_value, created_at
		FROM offers WHERE min_order_value <= ?`

	rows, err := s.conn.QueryContext(ctx, query, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}

		if !containsString(offer.Banks, bank) {
			continue
		}
		if instrument != "" && !containsString(offer.PaymentInstruments, instrument) {
			continue
		}

		offers = append(offers, *offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

// Insert stores a new offer. A primary-key violation maps to ErrDuplicate.
func (s *SQLiteStore) Insert(ctx context.Context, offer models.Offer) error {
	query := `INSERT INTO offers (
		adjustment_id, summary, banks, payment_instruments, image, type,
		flat_discount, percent_discount, max_cap, min_order_value, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	createdAt := offer.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.conn.ExecContext(
		ctx,
		query,
		offer.AdjustmentID,
		offer.Summary,
		serializeStringSet(offer.Banks),
		serializeStringSet(offer.PaymentInstruments),
		offer.Image,
		offer.Type,
		offer.FlatDiscount,
		offer.PercentDiscount,
		offer.MaxCap,
		offer.MinOrderValue,
		createdAt.Format(time.RFC3339),
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert offer: %w", err)
	}

	return nil
}

// Count returns the total number of stored offers.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOffer(row rowScanner) (*models.Offer, error) {
	var offer models.Offer
	var banksJSON, instrumentsJSON, createdAtStr string

	err := row.Scan(
		&offer.AdjustmentID,
		&offer.Summary,
		&banksJSON,
		&instrumentsJSON,
		&offer.Image,
		&offer.Type,
		&offer.FlatDiscount,
		&offer.PercentDiscount,
		&offer.MaxCap,
		&offer.MinOrderValue,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	offer.Banks = deserializeStringSet(banksJSON)
	offer.PaymentInstruments = deserializeStringSet(instrumentsJSON)

	if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		offer.CreatedAt = t
	}

	return &offer, nil
}

// serializeStringSet converts a slice of strings to a JSON string.
func serializeStringSet(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		// Fallback to comma-separated if JSON fails
		return strings.Join(values, ",")
	}
	return string(data)
}

// deserializeStringSet converts a serialized string set back to a slice.
func deserializeStringSet(serialized string) []string {
	if serialized == "" || serialized == "[]" {
		return []string{}
	}

	var result []string
	if err := json.Unmarshal([]byte(serialized), &result); err == nil {
		return result
	}

	// Fallback to comma-separated format for backward compatibility
	return strings.Split(serialized, ",")
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
