package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/arb-arena/arbscan/internal/models"
)

// PostgresStore persists the snapshot and seen keys in Postgres. Each save
// replaces the prior contents inside one transaction, mirroring the file
// backend's whole-snapshot semantics.
type PostgresStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id           integer PRIMARY KEY CHECK (id = 1),
	last_updated timestamptz NOT NULL
);
CREATE TABLE IF NOT EXISTS opportunities (
	position          integer PRIMARY KEY,
	sport             text NOT NULL,
	game              text NOT NULL,
	market            text NOT NULL,
	match_label       text NOT NULL,
	match_date        text NOT NULL,
	date_iso          text NOT NULL DEFAULT '',
	competition_id    integer NOT NULL,
	market_percentage double precision NOT NULL,
	roi               double precision NOT NULL,
	url               text NOT NULL DEFAULT '',
	search_phrase     text NOT NULL DEFAULT '',
	book_table        jsonb
);
CREATE TABLE IF NOT EXISTS seen_keys (
	key text PRIMARY KEY
);`

// OpenPostgres connects, verifies the connection, and ensures the schema.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// SaveOpportunities replaces the stored snapshot in one transaction.
func (s *PostgresStore) SaveOpportunities(set *models.OpportunitySet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM opportunities`); err != nil {
		return fmt.Errorf("clear opportunities: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO snapshot_meta (id, last_updated) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET last_updated = EXCLUDED.last_updated`,
		set.LastUpdated,
	); err != nil {
		return fmt.Errorf("update snapshot meta: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO opportunities
		 (position, sport, game, market, match_label, match_date, date_iso,
		  competition_id, market_percentage, roi, url, search_phrase, book_table)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range set.Items {
		var table any
		if item.BookTable != nil {
			data, err := json.Marshal(item.BookTable)
			if err != nil {
				return fmt.Errorf("marshal book table: %w", err)
			}
			table = data
		}
		if _, err := stmt.Exec(
			i, item.Sport, item.Game, item.Market, item.Match, item.Date, item.DateISO,
			item.CompetitionID, item.MarketPercentage, item.ROI, item.URL, item.SearchPhrase, table,
		); err != nil {
			return fmt.Errorf("insert opportunity %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadOpportunities reads back the stored snapshot in its persisted order.
func (s *PostgresStore) LoadOpportunities() (*models.OpportunitySet, error) {
	set := &models.OpportunitySet{Items: []models.Opportunity{}}

	var lastUpdated time.Time
	err := s.db.QueryRow(`SELECT last_updated FROM snapshot_meta WHERE id = 1`).Scan(&lastUpdated)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("load snapshot meta: %w", err)
	}
	set.LastUpdated = lastUpdated

	rows, err := s.db.Query(
		`SELECT sport, game, market, match_label, match_date, date_iso,
		        competition_id, market_percentage, roi, url, search_phrase, book_table
		 FROM opportunities ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load opportunities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.Opportunity
		var table []byte
		if err := rows.Scan(
			&item.Sport, &item.Game, &item.Market, &item.Match, &item.Date, &item.DateISO,
			&item.CompetitionID, &item.MarketPercentage, &item.ROI, &item.URL, &item.SearchPhrase, &table,
		); err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		if len(table) > 0 {
			item.BookTable = &models.BestOddsTable{}
			if err := json.Unmarshal(table, item.BookTable); err != nil {
				return nil, fmt.Errorf("unmarshal book table: %w", err)
			}
		}
		set.Items = append(set.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunities: %w", err)
	}
	return set, nil
}

// SaveSeenKeys replaces the seen-key table in one transaction.
func (s *PostgresStore) SaveSeenKeys(keys []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin seen-keys transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM seen_keys`); err != nil {
		return fmt.Errorf("clear seen keys: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO seen_keys (key) VALUES ($1)`)
	if err != nil {
		return fmt.Errorf("prepare seen-key insert: %w", err)
	}
	defer stmt.Close()
	for _, key := range keys {
		if _, err := stmt.Exec(key); err != nil {
			return fmt.Errorf("insert seen key: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seen keys: %w", err)
	}
	return nil
}

// LoadSeenKeys reads all persisted keys in sorted order.
func (s *PostgresStore) LoadSeenKeys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM seen_keys ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("load seen keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan seen key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen keys: %w", err)
	}
	return keys, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
