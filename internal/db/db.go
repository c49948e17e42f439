package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/studio/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 3

// FileName is the database file created inside the data directory.
const FileName = "studio.db"

// Init initializes the SQLite database at baseDir/studio.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.studio.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the connection string apply to every pooled connection.
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: template uploads, jobs, library
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS uploads (
		  id          TEXT PRIMARY KEY,
		  title       TEXT NOT NULL,
		  image_path  TEXT NOT NULL,
		  status      TEXT NOT NULL,
		  notes       TEXT NOT NULL DEFAULT '',
		  created_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_uploads_created
		ON uploads(created_at DESC);

		CREATE TABLE IF NOT EXISTS jobs (
		  id            TEXT PRIMARY KEY,
		  upload_id     TEXT NOT NULL REFERENCES uploads(id) ON DELETE CASCADE,
		  target        TEXT NOT NULL,
		  status        TEXT NOT NULL,
		  log           TEXT NOT NULL DEFAULT '',
		  archive_path  TEXT,
		  created_at    INTEGER NOT NULL,
		  updated_at    INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_jobs_upload_created
		ON jobs(upload_id, created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_jobs_status
		ON jobs(status);

		CREATE TABLE IF NOT EXISTS library_items (
		  id             TEXT PRIMARY KEY,
		  name           TEXT NOT NULL,
		  target         TEXT NOT NULL,
		  category       TEXT NOT NULL,
		  subcategory    TEXT NOT NULL,
		  description    TEXT NOT NULL DEFAULT '',
		  tags           TEXT NOT NULL DEFAULT '',
		  archive_path   TEXT NOT NULL,
		  preview_image  TEXT,
		  source_job_id  TEXT,
		  created_at     INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_library_items_unique
		ON library_items(category, subcategory, name, target);

		CREATE TABLE IF NOT EXISTS website_templates (
		  id             TEXT PRIMARY KEY,
		  name           TEXT NOT NULL,
		  description    TEXT NOT NULL DEFAULT '',
		  category       TEXT NOT NULL,
		  sections_json  TEXT NOT NULL DEFAULT '[]',
		  preview        TEXT NOT NULL DEFAULT '',
		  created_at     INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Migration 1 -> 2: finance
	if version < 2 {
		schema := `
		CREATE TABLE IF NOT EXISTS vendors (
		  id          TEXT PRIMARY KEY,
		  owner       TEXT NOT NULL,
		  name        TEXT NOT NULL,
		  email       TEXT NOT NULL DEFAULT '',
		  phone       TEXT NOT NULL DEFAULT '',
		  tax_id      TEXT NOT NULL DEFAULT '',
		  note        TEXT NOT NULL DEFAULT '',
		  created_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_vendors_owner_name ON vendors(owner, name);

		CREATE TABLE IF NOT EXISTS categories (
		  id          TEXT PRIMARY KEY,
		  owner       TEXT NOT NULL,
		  name        TEXT NOT NULL,
		  type        TEXT NOT NULL DEFAULT 'expense',
		  created_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_categories_owner_type ON categories(owner, type);

		CREATE TABLE IF NOT EXISTS payment_methods (
		  id          TEXT PRIMARY KEY,
		  owner       TEXT NOT NULL,
		  name        TEXT NOT NULL,
		  last4       TEXT NOT NULL DEFAULT '',
		  provider    TEXT NOT NULL DEFAULT '',
		  note        TEXT NOT NULL DEFAULT '',
		  created_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_payment_methods_owner_name ON payment_methods(owner, name);

		CREATE TABLE IF NOT EXISTS expenses (
		  id                 TEXT PRIMARY KEY,
		  owner              TEXT NOT NULL,
		  date               TEXT NOT NULL,
		  vendor_id          TEXT NOT NULL REFERENCES vendors(id) ON DELETE CASCADE,
		  category_id        TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		  description        TEXT NOT NULL,
		  amount             TEXT NOT NULL,
		  currency           TEXT NOT NULL DEFAULT 'EUR',
		  payment_method_id  TEXT REFERENCES payment_methods(id) ON DELETE SET NULL,
		  paid_date          TEXT,
		  note               TEXT NOT NULL DEFAULT '',
		  external_system    TEXT NOT NULL DEFAULT '',
		  external_id        TEXT NOT NULL DEFAULT '',
		  created_at         INTEGER NOT NULL,
		  updated_at         INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_expenses_owner_date ON expenses(owner, date DESC);
		CREATE INDEX IF NOT EXISTS idx_expenses_owner_category ON expenses(owner, category_id);
		CREATE INDEX IF NOT EXISTS idx_expenses_owner_vendor ON expenses(owner, vendor_id);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	// Migration 2 -> 3: builder
	if version < 3 {
		schema := `
		CREATE TABLE IF NOT EXISTS brand_profiles (
		  id                    TEXT PRIMARY KEY,
		  owner                 TEXT NOT NULL UNIQUE,
		  business_name         TEXT NOT NULL,
		  business_type         TEXT NOT NULL,
		  description           TEXT NOT NULL DEFAULT '',
		  address               TEXT NOT NULL DEFAULT '',
		  phone                 TEXT NOT NULL DEFAULT '',
		  email                 TEXT NOT NULL DEFAULT '',
		  preferred_domain      TEXT NOT NULL DEFAULT '',
		  domain_available      INTEGER NOT NULL DEFAULT 0,
		  logo_path             TEXT,
		  primary_color         TEXT NOT NULL DEFAULT '',
		  secondary_color       TEXT NOT NULL DEFAULT '',
		  accent_color          TEXT NOT NULL DEFAULT '',
		  background_color      TEXT NOT NULL DEFAULT '',
		  color_source          TEXT NOT NULL DEFAULT 'preset',
		  tone                  TEXT NOT NULL DEFAULT 'professional',
		  services_json         TEXT NOT NULL DEFAULT '[]',
		  email_verified        INTEGER NOT NULL DEFAULT 0,
		  onboarding_completed  INTEGER NOT NULL DEFAULT 0,
		  created_at            INTEGER NOT NULL,
		  updated_at            INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS service_catalogs (
		  business_type  TEXT PRIMARY KEY,
		  services_json  TEXT NOT NULL DEFAULT '[]',
		  updated_at     INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 3 failed: %w", err)
		}
		if err := SetUserVersion(db, 3); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
