/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements cims.Store using SQLite. The M13 policy tables and the USDA
  reference tables are loaded by the data exchange import (or the Save*
  methods in records.go for seeding and tests); the service only reads them.
  Producer e-mails are the one table the service writes.

INTERFACES IMPLEMENTED:
  cims.PolicyStore:    Producers, insurance in force, acreage, listing rows
  cims.ReferenceStore: States, counties, agents, commodities, type values
  cims.EmailStore:     Producer contact e-mails

KEY TABLES:
  producers, producer_addresses, producer_other_persons   (M13 P10/P10A/P10B)
  insurance_in_force                                       (M13 P14)
  acreage                                                  (M13 P11)
  agents, agency_contacts                                  (M13 P55/P55A)
  states, counties, commodities, type_values               (USDA reference)
  producer_emails                                          (service owned)

CASE-INSENSITIVE MATCHING:
  Code, name and e-mail columns are declared COLLATE NOCASE, so equality,
  IN lists and ORDER BY ignore case. LIKE is case-insensitive for ASCII.

ROW ORDER:
  Insurance and acreage rows come back in load order (rowid). The first
  insurance record supplies the policy agent and acreage order decides grid
  and interval order.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, like every other store method here.

USAGE:
  store, err := sqlite.New("./data/cims.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - cims/store.go: Interface definitions
  - policies.go, reference.go, emails.go: Read side
  - records.go: Write side for seeding
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/wsr/cims/cims"
)

// Store implements cims.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ cims.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- M13 P10 policy producers
	CREATE TABLE IF NOT EXISTS producers (
		producer_key TEXT NOT NULL COLLATE NOCASE,
		reinsurance_year TEXT NOT NULL COLLATE NOCASE,
		aip_code TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		policy_number TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		business_name TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		first_name TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		last_name TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		location_state_code TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		PRIMARY KEY (producer_key, reinsurance_year)
	);

	CREATE INDEX IF NOT EXISTS idx_producers_order
		ON producers(reinsurance_year DESC, policy_number DESC);

	-- M13 P10A producer addresses
	CREATE TABLE IF NOT EXISTS producer_addresses (
		producer_key TEXT NOT NULL COLLATE NOCASE,
		reinsurance_year TEXT NOT NULL COLLATE NOCASE,
		address_line_1 TEXT NOT NULL DEFAULT '',
		address_line_2 TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state_abbreviation TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		phone_number TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (producer_key, reinsurance_year)
	);

	-- M13 P10B other persons with an interest in the policy
	CREATE TABLE IF NOT EXISTS producer_other_persons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		producer_key TEXT NOT NULL COLLATE NOCASE,
		reinsurance_year TEXT NOT NULL COLLATE NOCASE,
		person_type TEXT NOT NULL DEFAULT '',
		business_name TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_other_persons_producer
		ON producer_other_persons(producer_key, reinsurance_year);

	-- M13 P14 insurance in force
	CREATE TABLE IF NOT EXISTS insurance_in_force (
		insurance_key TEXT NOT NULL COLLATE NOCASE,
		producer_key TEXT NOT NULL COLLATE NOCASE,
		reinsurance_year TEXT NOT NULL COLLATE NOCASE,
		commodity_code TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		location_county_code TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		agent_key TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		type_code TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		intended_use_code TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		coverage_level_percent TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		price_election_percent TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		PRIMARY KEY (insurance_key, reinsurance_year)
	);

	CREATE INDEX IF NOT EXISTS idx_insurance_producer
		ON insurance_in_force(producer_key, reinsurance_year);
	CREATE INDEX IF NOT EXISTS idx_insurance_agent
		ON insurance_in_force(agent_key);
	CREATE INDEX IF NOT EXISTS idx_insurance_commodity
		ON insurance_in_force(commodity_code);

	-- M13 P11 acreage
	CREATE TABLE IF NOT EXISTS acreage (
		acreage_key TEXT NOT NULL,
		insurance_key TEXT NOT NULL COLLATE NOCASE,
		reinsurance_year TEXT NOT NULL COLLATE NOCASE,
		sub_county_code TEXT NOT NULL DEFAULT '',
		practice_code TEXT NOT NULL DEFAULT '',
		organic_practice_code TEXT NOT NULL DEFAULT '',
		irrigation_practice_code TEXT NOT NULL DEFAULT '',
		non_premium_acreage_code TEXT NOT NULL DEFAULT '',
		insured_share_percent TEXT NOT NULL DEFAULT '',
		reported_acreage TEXT NOT NULL DEFAULT '',
		reported_colonies TEXT NOT NULL DEFAULT '',
		total_insured_acreage TEXT NOT NULL DEFAULT '',
		total_insured_colonies TEXT NOT NULL DEFAULT '',
		interval_code TEXT NOT NULL DEFAULT '',
		percent_of_value TEXT NOT NULL DEFAULT '',
		total_premium_amount TEXT NOT NULL DEFAULT '',
		subsidy_amount TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (acreage_key, reinsurance_year)
	);

	CREATE INDEX IF NOT EXISTS idx_acreage_insurance
		ON acreage(insurance_key, reinsurance_year);

	-- M13 P55 agents and P55A agency contacts
	CREATE TABLE IF NOT EXISTS agents (
		agent_key TEXT NOT NULL COLLATE NOCASE,
		reinsurance_year TEXT NOT NULL COLLATE NOCASE,
		first_name TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		middle_name TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		last_name TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		PRIMARY KEY (agent_key, reinsurance_year)
	);

	CREATE TABLE IF NOT EXISTS agency_contacts (
		agent_key TEXT NOT NULL COLLATE NOCASE,
		agency_name TEXT NOT NULL DEFAULT '',
		email_address TEXT NOT NULL COLLATE NOCASE,
		PRIMARY KEY (agent_key, email_address)
	);

	CREATE INDEX IF NOT EXISTS idx_agency_contacts_email
		ON agency_contacts(email_address);

	-- USDA reference tables
	CREATE TABLE IF NOT EXISTS states (
		code TEXT PRIMARY KEY COLLATE NOCASE,
		name TEXT NOT NULL COLLATE NOCASE,
		abbreviation TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS counties (
		state_code TEXT NOT NULL COLLATE NOCASE,
		code TEXT NOT NULL COLLATE NOCASE,
		name TEXT NOT NULL COLLATE NOCASE,
		PRIMARY KEY (state_code, code)
	);

	CREATE TABLE IF NOT EXISTS commodities (
		reinsurance_year TEXT NOT NULL COLLATE NOCASE,
		commodity_code TEXT NOT NULL COLLATE NOCASE,
		commodity_name TEXT NOT NULL DEFAULT '',
		commodity_abbreviation TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (reinsurance_year, commodity_code)
	);

	CREATE TABLE IF NOT EXISTS type_values (
		type TEXT NOT NULL,
		code TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (type, code)
	);

	-- Producer contact e-mails (written by the service)
	CREATE TABLE IF NOT EXISTS producer_emails (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		producer_key TEXT NOT NULL COLLATE NOCASE,
		email_address TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		last_updated_by TEXT NOT NULL DEFAULT '',
		updated_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_producer_emails_producer
		ON producer_emails(producer_key);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

var allTables = []string{
	"producer_emails", "acreage", "insurance_in_force", "producer_other_persons",
	"producer_addresses", "producers", "agency_contacts", "agents",
	"type_values", "commodities", "counties", "states",
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range allTables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// inClause renders "column IN (...)". With no values it renders a condition
// that matches nothing.
func inClause(column string, values []string) (string, []any) {
	if len(values) == 0 {
		return "0", nil
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return fmt.Sprintf("%s IN (%s)", column, placeholders(len(values))), args
}

// likePrefix escapes LIKE wildcards and appends the trailing %.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

// where joins clauses with AND, returning "" when there are none.
func where(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(clauses, " AND ")
}

func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
