package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avsim/atc-engine/internal/atc"
	"github.com/avsim/atc-engine/pkg/logger"
)

// TranscriptRecord is one stored conversation turn.
type TranscriptRecord struct {
	ID        int64     `json:"id"`
	Airport   string    `json:"airport"`
	Role      string    `json:"role"`
	Position  string    `json:"position"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptStorage handles durable storage of conversation turns
type TranscriptStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewTranscriptStorage creates a new SQLite transcript storage
func NewTranscriptStorage(db *sql.DB, log *logger.Logger) *TranscriptStorage {
	storage := &TranscriptStorage{
		db:     db,
		logger: log.Named("sqlite-transcripts"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize transcript storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *TranscriptStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			airport TEXT NOT NULL,
			role TEXT NOT NULL,
			position TEXT NOT NULL,
			text TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transcripts table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_transcripts_airport ON transcripts(airport)`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_timestamp ON transcripts(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_position ON transcripts(position)`,
	}

	for _, indexSQL := range indexes {
		_, err = s.db.Exec(indexSQL)
		if err != nil {
			return fmt.Errorf("failed to create transcript index: %w", err)
		}
	}

	return nil
}

// RecordTurn stores one conversation turn. It satisfies the engine's
// transcript recorder interface.
func (s *TranscriptStorage) RecordTurn(airport string, role atc.Role, position atc.Position, text string, timestamp time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO transcripts
		(airport, role, position, text, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		airport,
		string(role),
		string(position),
		text,
		timestamp.Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transcript turn: %w", err)
	}

	return nil
}

// GetByAirport returns the most recent turns for one airport
func (s *TranscriptStorage) GetByAirport(airport string, limit int) ([]*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, airport, role, position, text, timestamp, created_at
		FROM transcripts
		WHERE airport = ?
		ORDER BY timestamp DESC
		LIMIT ?`,
		airport, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts by airport: %w", err)
	}
	defer rows.Close()

	return s.scanTranscriptRows(rows)
}

// GetRecent returns recent turns across all airports
func (s *TranscriptStorage) GetRecent(limit int) ([]*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, airport, role, position, text, timestamp, created_at
		FROM transcripts
		ORDER BY timestamp DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transcripts: %w", err)
	}
	defer rows.Close()

	return s.scanTranscriptRows(rows)
}

// scanTranscriptRows scans database rows into TranscriptRecord structs
func (s *TranscriptStorage) scanTranscriptRows(rows *sql.Rows) ([]*TranscriptRecord, error) {
	var records []*TranscriptRecord
	for rows.Next() {
		var record TranscriptRecord
		var timestamp, createdAt string

		if err := rows.Scan(
			&record.ID,
			&record.Airport,
			&record.Role,
			&record.Position,
			&record.Text,
			&timestamp,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}

		var err error
		record.Timestamp, err = time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		records = append(records, &record)
	}

	return records, nil
}
