// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nursix/gims/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedOrganisation inserts a test organisation and returns its ID.
func seedOrganisation(t *testing.T, db *sql.DB, id, name string) string {
	t.Helper()
	if id == "" {
		id = "ORG-001"
	}
	if name == "" {
		name = "Test Provider"
	}
	_, err := db.Exec("INSERT INTO organisations (id, name, uuid, org_group) VALUES (?, ?, ?, ?)",
		id, name, "urn:uuid:"+id, "COVID-19 Test Stations")
	if err != nil {
		t.Fatalf("failed to seed organisation: %v", err)
	}
	return id
}

// seedOrgType inserts an organisation type with tags and returns its ID.
func seedOrgType(t *testing.T, db *sql.DB, id string, tags map[string]string) string {
	t.Helper()
	if _, err := db.Exec("INSERT INTO organisation_types (id, name) VALUES (?, ?)", id, "Type "+id); err != nil {
		t.Fatalf("failed to seed organisation type: %v", err)
	}
	for tag, value := range tags {
		if _, err := db.Exec("INSERT INTO organisation_type_tags (type_id, tag, value) VALUES (?, ?, ?)", id, tag, value); err != nil {
			t.Fatalf("failed to seed organisation type tag: %v", err)
		}
	}
	return id
}

// seedManager inserts a person with an active staff record flagged as
// organisational contact and returns the staff ID.
func seedManager(t *testing.T, db *sql.DB, staffID, orgID, firstName, dob string) string {
	t.Helper()
	personID := "PERS-" + staffID
	var dateOfBirth sql.NullString
	if dob != "" {
		dateOfBirth = sql.NullString{String: dob, Valid: true}
	}
	if _, err := db.Exec("INSERT INTO persons (id, first_name, last_name, date_of_birth) VALUES (?, ?, ?, ?)",
		personID, firstName, "Manager", dateOfBirth); err != nil {
		t.Fatalf("failed to seed person: %v", err)
	}
	if _, err := db.Exec("INSERT INTO staff (id, person_id, organisation_id, org_contact, status) VALUES (?, ?, ?, 1, 1)",
		staffID, personID, orgID); err != nil {
		t.Fatalf("failed to seed staff: %v", err)
	}
	return staffID
}

// seedSite inserts a facility with a location and returns its ID.
func seedSite(t *testing.T, db *sql.DB, id, orgID string) string {
	t.Helper()
	locationID := "LOC-" + id
	if _, err := db.Exec("INSERT INTO locations (id, parent, street, postcode) VALUES (?, ?, ?, ?)",
		locationID, "Mainz", "Hauptstr. 1", "55116"); err != nil {
		t.Fatalf("failed to seed location: %v", err)
	}
	if _, err := db.Exec("INSERT INTO facilities (id, organisation_id, name, uuid, location_id) VALUES (?, ?, ?, ?, ?)",
		id, orgID, "Station "+id, "urn:uuid:"+id, locationID); err != nil {
		t.Fatalf("failed to seed site: %v", err)
	}
	return id
}
