package db

import (
	"database/sql"
	"fmt"
)

// SeedFixtures populates the database with development fixtures: the
// organisation type catalog, three providers with managers and test
// stations, and the requirement texts used in notifications.
// Verifications, commissions and approvals are created by the workflows.
func SeedFixtures(database *sql.DB) error {
	// Organisation types
	types := []struct{ id, name string }{
		{"OT-001", "Public Health Authority"},
		{"OT-002", "Commercial Provider"},
		{"OT-003", "Pharmacy"},
	}
	for _, t := range types {
		if _, err := database.Exec(
			"INSERT INTO organisation_types (id, name) VALUES (?, ?)",
			t.id, t.name,
		); err != nil {
			return fmt.Errorf("seed organisation types: %w", err)
		}
	}

	typeTags := []struct{ typeID, tag, value string }{
		{"OT-002", "Commercial", "Y"},
		{"OT-002", "VERIFREQ", "Y"},
		{"OT-002", "MINFOREQ", "Y"},
		{"OT-003", "MINFOREQ", "Y"},
	}
	for _, t := range typeTags {
		if _, err := database.Exec(
			"INSERT INTO organisation_type_tags (type_id, tag, value) VALUES (?, ?, ?)",
			t.typeID, t.tag, t.value,
		); err != nil {
			return fmt.Errorf("seed organisation type tags: %w", err)
		}
	}

	// Organisations
	orgs := []struct{ id, name, uuid, typeID string }{
		{"ORG-001", "Gesundheitsamt Mainz", "urn:uuid:3f2a9c10-5b1e-4d7a-9c3e-1a2b3c4d5e6f", "OT-001"},
		{"ORG-002", "Schnelltest GmbH", "urn:uuid:8e41d7b2-0c6a-4f19-b2d8-6f5e4d3c2b1a", "OT-002"},
		{"ORG-003", "Rhein-Apotheke", "urn:uuid:c07b5e93-2d4f-4a81-8e6c-9b0a1f2e3d4c", "OT-003"},
	}
	for _, o := range orgs {
		if _, err := database.Exec(
			"INSERT INTO organisations (id, name, uuid, org_group) VALUES (?, ?, ?, ?)",
			o.id, o.name, o.uuid, "COVID-19 Test Stations",
		); err != nil {
			return fmt.Errorf("seed organisations: %w", err)
		}
		if _, err := database.Exec(
			"INSERT INTO organisation_type_links (organisation_id, type_id) VALUES (?, ?)",
			o.id, o.typeID,
		); err != nil {
			return fmt.Errorf("seed organisation type links: %w", err)
		}
	}

	admins := []struct{ orgID, email string }{
		{"ORG-001", "admin@gesundheitsamt-mainz.example.org"},
		{"ORG-002", "office@schnelltest.example.com"},
		{"ORG-002", "ceo@schnelltest.example.com"},
		{"ORG-003", "info@rhein-apotheke.example.com"},
	}
	for _, a := range admins {
		if _, err := database.Exec(
			"INSERT INTO org_admins (organisation_id, email) VALUES (?, ?)",
			a.orgID, a.email,
		); err != nil {
			return fmt.Errorf("seed org admins: %w", err)
		}
	}

	// Managers
	persons := []struct{ id, first, last, dob string }{
		{"PERS-001", "Anna", "Becker", "1979-03-12"},
		{"PERS-002", "Jonas", "Weber", "1985-11-02"},
		{"PERS-003", "Lea", "Schmitt", ""},
	}
	for _, p := range persons {
		var dob sql.NullString
		if p.dob != "" {
			dob = sql.NullString{String: p.dob, Valid: true}
		}
		if _, err := database.Exec(
			"INSERT INTO persons (id, first_name, last_name, date_of_birth) VALUES (?, ?, ?, ?)",
			p.id, p.first, p.last, dob,
		); err != nil {
			return fmt.Errorf("seed persons: %w", err)
		}
	}

	contacts := []struct{ personID, method, value string }{
		{"PERS-001", "WORK_PHONE", "+49 6131 000001"},
		{"PERS-002", "SMS", "+49 170 0000002"},
	}
	for _, c := range contacts {
		if _, err := database.Exec(
			"INSERT INTO person_contacts (person_id, contact_method, value) VALUES (?, ?, ?)",
			c.personID, c.method, c.value,
		); err != nil {
			return fmt.Errorf("seed person contacts: %w", err)
		}
	}

	staff := []struct{ id, personID, orgID string }{
		{"STAFF-001", "PERS-001", "ORG-002"},
		{"STAFF-002", "PERS-002", "ORG-002"},
		{"STAFF-003", "PERS-003", "ORG-003"},
	}
	for _, s := range staff {
		if _, err := database.Exec(
			"INSERT INTO staff (id, person_id, organisation_id, org_contact, status) VALUES (?, ?, ?, 1, 1)",
			s.id, s.personID, s.orgID,
		); err != nil {
			return fmt.Errorf("seed staff: %w", err)
		}
	}

	// Test stations
	locations := []struct{ id, parent, street, postcode string }{
		{"LOC-001", "Mainz", "Große Bleiche 12", "55116"},
		{"LOC-002", "Mainz", "Bahnhofplatz 1", "55116"},
		{"LOC-003", "Wiesbaden", "Rheinstraße 40", "65185"},
	}
	for _, l := range locations {
		if _, err := database.Exec(
			"INSERT INTO locations (id, parent, street, postcode) VALUES (?, ?, ?, ?)",
			l.id, l.parent, l.street, l.postcode,
		); err != nil {
			return fmt.Errorf("seed locations: %w", err)
		}
	}

	facilities := []struct{ id, orgID, name, uuid, locationID string }{
		{"SITE-001", "ORG-001", "Testzentrum Innenstadt", "urn:uuid:5d9e2f41-7a3b-4c6d-8e1f-0a9b8c7d6e5f", "LOC-001"},
		{"SITE-002", "ORG-002", "Schnelltest Hauptbahnhof", "urn:uuid:a1c3e5f7-9b2d-4f6a-8c0e-2d4f6a8c0e1b", "LOC-002"},
		{"SITE-003", "ORG-003", "Rhein-Apotheke Teststelle", "urn:uuid:e7f9a1b3-c5d7-4e9f-a1b3-c5d7e9f1a3b5", "LOC-003"},
	}
	for _, f := range facilities {
		if _, err := database.Exec(
			"INSERT INTO facilities (id, organisation_id, name, uuid, location_id) VALUES (?, ?, ?, ?, ?)",
			f.id, f.orgID, f.name, f.uuid, f.locationID,
		); err != nil {
			return fmt.Errorf("seed facilities: %w", err)
		}
	}

	// Requirement texts
	posts := []struct{ name, body string }{
		{"FacilityMPAVRequirements", "Please upload the signed MPAV declaration of the test station."},
		{"FacilityHygienePlanRequirements", "The hygiene plan must cover disinfection intervals and waste disposal."},
		{"FacilityLayoutRequirements", "The floor plan must show separate entry and exit paths."},
	}
	for _, p := range posts {
		if _, err := database.Exec(
			"INSERT INTO cms_posts (name, body) VALUES (?, ?)",
			p.name, p.body,
		); err != nil {
			return fmt.Errorf("seed cms posts: %w", err)
		}
	}

	return nil
}
