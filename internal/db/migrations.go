package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "baseline_schema",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_history_site_timestamp_index",
		Up:      migrationV2,
	},
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := createVersionTable(db); err != nil {
		return err
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("running migration", "version", migration.Version, "name", migration.Name)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// CurrentVersion returns the highest applied migration version.
func CurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// migrationV1 creates the tables of the first release. The history index
// came later and is added by migrationV2.
func migrationV1(tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS organisations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			uuid TEXT NOT NULL UNIQUE,
			org_group TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_organisations_group ON organisations(org_group)`,
		`CREATE TABLE IF NOT EXISTS organisation_types (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS organisation_type_tags (
			type_id TEXT NOT NULL,
			tag TEXT NOT NULL,
			value TEXT,
			PRIMARY KEY (type_id, tag),
			FOREIGN KEY (type_id) REFERENCES organisation_types(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS organisation_type_links (
			organisation_id TEXT NOT NULL,
			type_id TEXT NOT NULL,
			PRIMARY KEY (organisation_id, type_id),
			FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE,
			FOREIGN KEY (type_id) REFERENCES organisation_types(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS organisation_tags (
			organisation_id TEXT NOT NULL,
			tag TEXT NOT NULL,
			value TEXT,
			PRIMARY KEY (organisation_id, tag),
			FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS org_admins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			organisation_id TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'ORG_ADMIN',
			UNIQUE (organisation_id, email, role),
			FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS persons (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT,
			date_of_birth DATE
		)`,
		`CREATE TABLE IF NOT EXISTS person_contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			person_id TEXT NOT NULL,
			contact_method TEXT NOT NULL CHECK(contact_method IN ('SMS', 'HOME_PHONE', 'WORK_PHONE', 'EMAIL')),
			value TEXT NOT NULL,
			FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_person_contacts_person ON person_contacts(person_id)`,
		`CREATE TABLE IF NOT EXISTS staff (
			id TEXT PRIMARY KEY,
			person_id TEXT NOT NULL,
			organisation_id TEXT NOT NULL,
			org_contact INTEGER NOT NULL DEFAULT 0,
			status INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE,
			FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_staff_organisation ON staff(organisation_id)`,
		`CREATE TABLE IF NOT EXISTS staff_tags (
			staff_id TEXT NOT NULL,
			tag TEXT NOT NULL,
			value TEXT,
			PRIMARY KEY (staff_id, tag),
			FOREIGN KEY (staff_id) REFERENCES staff(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS verifications (
			organisation_id TEXT PRIMARY KEY,
			dhash TEXT,
			orgtype TEXT NOT NULL CHECK(orgtype IN ('N/A', 'ACCEPT', 'N/V', 'VERIFIED')) DEFAULT 'N/A',
			mgrinfo TEXT NOT NULL CHECK(mgrinfo IN ('N/A', 'ACCEPT', 'REVISE', 'COMPLETE')) DEFAULT 'N/A',
			accepted INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS commissions (
			id TEXT PRIMARY KEY,
			organisation_id TEXT NOT NULL,
			date DATE NOT NULL,
			end_date DATE,
			status TEXT NOT NULL CHECK(status IN ('CURRENT', 'SUSPENDED', 'REVOKED', 'EXPIRED')) DEFAULT 'CURRENT',
			prev_status TEXT CHECK(prev_status IN ('CURRENT', 'SUSPENDED', 'REVOKED', 'EXPIRED')),
			status_date DATE,
			status_reason TEXT CHECK(status_reason IN ('N/V', 'OVERRIDE')),
			comments TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CHECK(end_date IS NULL OR end_date > date),
			FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_commissions_organisation ON commissions(organisation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_commissions_status ON commissions(status)`,
		`CREATE TABLE IF NOT EXISTS locations (
			id TEXT PRIMARY KEY,
			parent TEXT,
			street TEXT,
			postcode TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS facilities (
			id TEXT PRIMARY KEY,
			organisation_id TEXT NOT NULL,
			name TEXT NOT NULL,
			uuid TEXT NOT NULL UNIQUE,
			code TEXT,
			location_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE,
			FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_facilities_organisation ON facilities(organisation_id)`,
		`CREATE TABLE IF NOT EXISTS site_approvals (
			site_id TEXT PRIMARY KEY,
			organisation_id TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('REVISE', 'READY', 'REVIEW', 'APPROVED')) DEFAULT 'REVISE',
			mpav TEXT NOT NULL CHECK(mpav IN ('REVISE', 'REVIEW', 'APPROVED')) DEFAULT 'REVISE',
			hygiene TEXT NOT NULL CHECK(hygiene IN ('REVISE', 'REVIEW', 'APPROVED')) DEFAULT 'REVISE',
			layout TEXT NOT NULL CHECK(layout IN ('REVISE', 'REVIEW', 'APPROVED')) DEFAULT 'REVISE',
			public TEXT NOT NULL CHECK(public IN ('Y', 'N')) DEFAULT 'N',
			public_reason TEXT CHECK(public_reason IN ('NEW', 'COMMISSION', 'REVISE', 'REVIEW', 'OVERRIDE')),
			advice TEXT,
			dhash TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (site_id) REFERENCES facilities(id) ON DELETE CASCADE,
			FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_site_approvals_organisation ON site_approvals(organisation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_site_approvals_public ON site_approvals(public)`,
		`CREATE TABLE IF NOT EXISTS site_approval_status (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			status TEXT NOT NULL,
			mpav TEXT NOT NULL,
			hygiene TEXT NOT NULL,
			layout TEXT NOT NULL,
			public TEXT NOT NULL,
			public_reason TEXT,
			advice TEXT,
			FOREIGN KEY (site_id) REFERENCES facilities(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS cms_posts (
			name TEXT PRIMARY KEY,
			body TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			organisation_id TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			actor_id TEXT,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL CHECK(action IN ('create', 'update')),
			field_name TEXT,
			old_value TEXT,
			new_value TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_organisation ON audit_logs(organisation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrationV2 indexes the approval history by site and time.
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_site_approval_status_site ON site_approval_status(site_id, timestamp)`)
	return err
}
