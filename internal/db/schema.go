package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh GIMS installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Repository
// tests load it via GetSchemaSQL() into an in-memory database, so a
// column referenced by repository code but missing here fails the tests
// with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Run `make test` to verify alignment
const SchemaSQL = `
-- Organisations
CREATE TABLE IF NOT EXISTS organisations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	uuid TEXT NOT NULL UNIQUE,
	org_group TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_organisations_group ON organisations(org_group);

-- Organisation types and their tags (Commercial, VERIFREQ, MINFOREQ)
CREATE TABLE IF NOT EXISTS organisation_types (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS organisation_type_tags (
	type_id TEXT NOT NULL,
	tag TEXT NOT NULL,
	value TEXT,
	PRIMARY KEY (type_id, tag),
	FOREIGN KEY (type_id) REFERENCES organisation_types(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS organisation_type_links (
	organisation_id TEXT NOT NULL,
	type_id TEXT NOT NULL,
	PRIMARY KEY (organisation_id, type_id),
	FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE,
	FOREIGN KEY (type_id) REFERENCES organisation_types(id) ON DELETE CASCADE
);

-- Organisation tags (DELIVERY, OrgID)
CREATE TABLE IF NOT EXISTS organisation_tags (
	organisation_id TEXT NOT NULL,
	tag TEXT NOT NULL,
	value TEXT,
	PRIMARY KEY (organisation_id, tag),
	FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
);

-- Organisation administrators (notification recipients)
CREATE TABLE IF NOT EXISTS org_admins (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	organisation_id TEXT NOT NULL,
	email TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'ORG_ADMIN',
	UNIQUE (organisation_id, email, role),
	FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
);

-- Persons and staff (test station managers)
CREATE TABLE IF NOT EXISTS persons (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT,
	date_of_birth DATE
);

CREATE TABLE IF NOT EXISTS person_contacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	person_id TEXT NOT NULL,
	contact_method TEXT NOT NULL CHECK(contact_method IN ('SMS', 'HOME_PHONE', 'WORK_PHONE', 'EMAIL')),
	value TEXT NOT NULL,
	FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_person_contacts_person ON person_contacts(person_id);

CREATE TABLE IF NOT EXISTS staff (
	id TEXT PRIMARY KEY,
	person_id TEXT NOT NULL,
	organisation_id TEXT NOT NULL,
	org_contact INTEGER NOT NULL DEFAULT 0,
	status INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE,
	FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_staff_organisation ON staff(organisation_id);

-- Staff tags (REGFORM, CRC, SCP, DHASH)
CREATE TABLE IF NOT EXISTS staff_tags (
	staff_id TEXT NOT NULL,
	tag TEXT NOT NULL,
	value TEXT,
	PRIMARY KEY (staff_id, tag),
	FOREIGN KEY (staff_id) REFERENCES staff(id) ON DELETE CASCADE
);

-- Verification status per organisation
CREATE TABLE IF NOT EXISTS verifications (
	organisation_id TEXT PRIMARY KEY,
	dhash TEXT,
	orgtype TEXT NOT NULL CHECK(orgtype IN ('N/A', 'ACCEPT', 'N/V', 'VERIFIED')) DEFAULT 'N/A',
	mgrinfo TEXT NOT NULL CHECK(mgrinfo IN ('N/A', 'ACCEPT', 'REVISE', 'COMPLETE')) DEFAULT 'N/A',
	accepted INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE
);

-- Commissions
CREATE TABLE IF NOT EXISTS commissions (
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
);

CREATE INDEX IF NOT EXISTS idx_commissions_organisation ON commissions(organisation_id);
CREATE INDEX IF NOT EXISTS idx_commissions_status ON commissions(status);

-- Locations and facilities (test stations)
CREATE TABLE IF NOT EXISTS locations (
	id TEXT PRIMARY KEY,
	parent TEXT,
	street TEXT,
	postcode TEXT
);

CREATE TABLE IF NOT EXISTS facilities (
	id TEXT PRIMARY KEY,
	organisation_id TEXT NOT NULL,
	name TEXT NOT NULL,
	uuid TEXT NOT NULL UNIQUE,
	code TEXT,
	location_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (organisation_id) REFERENCES organisations(id) ON DELETE CASCADE,
	FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_facilities_organisation ON facilities(organisation_id);

-- Site approvals
CREATE TABLE IF NOT EXISTS site_approvals (
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
);

CREATE INDEX IF NOT EXISTS idx_site_approvals_organisation ON site_approvals(organisation_id);
CREATE INDEX IF NOT EXISTS idx_site_approvals_public ON site_approvals(public);

-- Site approval history (append-only)
CREATE TABLE IF NOT EXISTS site_approval_status (
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
);

CREATE INDEX IF NOT EXISTS idx_site_approval_status_site ON site_approval_status(site_id, timestamp);

-- Requirement explanation texts
CREATE TABLE IF NOT EXISTS cms_posts (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL
);

-- Audit log
CREATE TABLE IF NOT EXISTS audit_logs (
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
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_organisation ON audit_logs(organisation_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp);
`

// InitSchema creates the database schema
func InitSchema(db *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(db)
	}

	// Fresh install - create the schema directly and mark all migrations applied
	if _, err := db.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := createVersionTable(db); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
