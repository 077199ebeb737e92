package app

import (
	"context"
	"errors"
	"testing"

	"github.com/nursix/gims/internal/core/access"
	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/core/verification"
	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/ports/secondary"
)

// ============================================================================
// Verification
// ============================================================================

func TestGetVerification_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		types    []string
		orgtype  string
		mgrinfo  string
		accepted bool
	}{
		{"no types", nil, "N/A", "ACCEPT", false},
		{"public provider", []string{"PUBLIC"}, "ACCEPT", "ACCEPT", true},
		{"type verification required", []string{"COMMERCIAL"}, "N/V", "ACCEPT", false},
		{"manager info required without managers", []string{"PHARMACY"}, "ACCEPT", "N/A", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.addOrg("ORG-001", tt.types...)

			v, err := env.provider.GetVerification(context.Background(), "ORG-001")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if v.OrgType != tt.orgtype {
				t.Errorf("expected orgtype %s, got %s", tt.orgtype, v.OrgType)
			}
			if v.MgrInfo != tt.mgrinfo {
				t.Errorf("expected mgrinfo %s, got %s", tt.mgrinfo, v.MgrInfo)
			}
			if v.Accepted != tt.accepted {
				t.Errorf("expected accepted=%v, got %v", tt.accepted, v.Accepted)
			}
		})
	}
}

func TestGetVerification_CreatedOnce(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.provider.GetVerification(ctx, "ORG-001"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if env.verifications.creates != 1 {
		t.Errorf("expected verification to be created once, got %d", env.verifications.creates)
	}
}

func TestGetVerification_UnknownOrganisation(t *testing.T) {
	env := newTestEnv()

	_, err := env.provider.GetVerification(context.Background(), "ORG-999")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetOrganisationTypes_SuspendsAndReinstates(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.addCommission("COMM-001", "ORG-001", commission.StatusCurrent, "2024-01-01", "")
	env.addSite("SITE-001", "ORG-001")
	env.setApproval("SITE-001", listed())
	ctx := context.Background()

	// type now requires verification
	v, err := env.provider.SetOrganisationTypes(ctx, primary.SetOrganisationTypesRequest{
		OrganisationID: "ORG-001",
		TypeIDs:        []string{"COMMERCIAL"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v.OrgType != string(verification.OrgTypeNotVerified) || v.Accepted {
		t.Errorf("expected N/V and not accepted, got %s accepted=%v", v.OrgType, v.Accepted)
	}

	c := env.commissions.records["COMM-001"]
	if c.Status != commission.StatusSuspended || c.StatusReason != commission.ReasonNotVerified {
		t.Errorf("expected commission SUSPENDED (N/V), got %s (%s)", c.Status, c.StatusReason)
	}

	a := env.approvals.approvals["SITE-001"].Approval
	if a.Public != siteapproval.PublicNo || a.PublicReason != siteapproval.ReasonCommission {
		t.Errorf("expected site de-listed for COMMISSION, got %s (%s)", a.Public, a.PublicReason)
	}
	if len(env.approvals.historyOf("SITE-001")) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(env.approvals.historyOf("SITE-001")))
	}
	if env.cache.invalidations != 1 {
		t.Errorf("expected registry cache invalidated once, got %d", env.cache.invalidations)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].Data["reason"] != "N/V" {
		t.Errorf("expected one suspension notification, got %v", env.notifier.sent)
	}

	// back to a type without verification requirement
	v, err = env.provider.SetOrganisationTypes(ctx, primary.SetOrganisationTypesRequest{
		OrganisationID: "ORG-001",
		TypeIDs:        []string{"PUBLIC"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !v.Accepted {
		t.Errorf("expected accepted verification")
	}

	c = env.commissions.records["COMM-001"]
	if c.Status != commission.StatusCurrent || c.StatusReason != commission.ReasonNone {
		t.Errorf("expected commission CURRENT, got %s (%s)", c.Status, c.StatusReason)
	}
	a = env.approvals.approvals["SITE-001"].Approval
	if a.Public != siteapproval.PublicYes || a.PublicReason != siteapproval.ReasonNone {
		t.Errorf("expected site listed again, got %s (%s)", a.Public, a.PublicReason)
	}
	if len(env.notifier.sent) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(env.notifier.sent))
	}
}

func TestSetOrganisationTypes_ManualDelistingKept(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "COMMERCIAL")
	env.addSite("SITE-001", "ORG-001")
	a := listed()
	a.Public = siteapproval.PublicNo
	a.PublicReason = siteapproval.ReasonOverride
	env.setApproval("SITE-001", a)
	env.addCommission("COMM-001", "ORG-001", commission.StatusSuspended, "2024-01-01", "")
	env.commissions.records["COMM-001"].StatusReason = commission.ReasonNotVerified

	_, err := env.provider.SetOrganisationTypes(context.Background(), primary.SetOrganisationTypesRequest{
		OrganisationID: "ORG-001",
		TypeIDs:        []string{"PUBLIC"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if env.commissions.records["COMM-001"].Status != commission.StatusCurrent {
		t.Errorf("expected commission reinstated")
	}
	got := env.approvals.approvals["SITE-001"].Approval
	if got.Public != siteapproval.PublicNo || got.PublicReason != siteapproval.ReasonOverride {
		t.Errorf("expected manual de-listing to stand, got %s (%s)", got.Public, got.PublicReason)
	}
}

func TestSetOrganisationTypes_RequiresApprover(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.identity.as(access.RoleApplicant)

	_, err := env.provider.SetOrganisationTypes(context.Background(), primary.SetOrganisationTypesRequest{
		OrganisationID: "ORG-001",
		TypeIDs:        []string{"COMMERCIAL"},
	})
	if err == nil {
		t.Fatal("expected error for applicant, got nil")
	}
	if got := env.orgs.types["ORG-001"]; len(got) != 1 || got[0] != "PUBLIC" {
		t.Errorf("expected types unchanged, got %v", got)
	}
}

func TestUpdateVerification_Idempotent(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.addCommission("COMM-001", "ORG-001", commission.StatusCurrent, "2024-01-01", "")
	env.addSite("SITE-001", "ORG-001")
	env.setApproval("SITE-001", listed())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		v, err := env.provider.UpdateVerification(ctx, "ORG-001")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !v.Accepted {
			t.Errorf("expected accepted verification")
		}
	}

	if len(env.notifier.sent) != 0 {
		t.Errorf("expected no notifications, got %v", env.notifier.templates())
	}
	if env.cache.invalidations != 0 {
		t.Errorf("expected no registry changes, got %d", env.cache.invalidations)
	}
	if env.commissions.records["COMM-001"].Status != commission.StatusCurrent {
		t.Errorf("expected commission to stay CURRENT")
	}
}

func TestSetOrgTypeStatus(t *testing.T) {
	tests := []struct {
		name      string
		types     []string
		role      access.Role
		status    verification.OrgTypeStatus
		wantErr   bool
		wantOrg   string
		wantAccpt bool
	}{
		{"approver verifies", []string{"COMMERCIAL"}, access.RoleApprover, verification.OrgTypeVerified, false, "VERIFIED", true},
		{"applicant denied", []string{"COMMERCIAL"}, access.RoleApplicant, verification.OrgTypeVerified, true, "", false},
		{"no verification required", []string{"PUBLIC"}, access.RoleApprover, verification.OrgTypeVerified, true, "", false},
		{"invalid status", []string{"COMMERCIAL"}, access.RoleApprover, verification.OrgTypeAccept, true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.addOrg("ORG-001", tt.types...)
			env.identity.as(tt.role)

			v, err := env.provider.SetOrgTypeStatus(context.Background(), primary.SetOrgTypeRequest{
				OrganisationID: "ORG-001",
				Status:         tt.status,
			})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if v.OrgType != tt.wantOrg || v.Accepted != tt.wantAccpt {
				t.Errorf("expected %s accepted=%v, got %s accepted=%v", tt.wantOrg, tt.wantAccpt, v.OrgType, v.Accepted)
			}
		})
	}
}

// ============================================================================
// Managers
// ============================================================================

func approvedDocs() map[string]string {
	return map[string]string{
		verification.DocRegForm: verification.DocApproved,
		verification.DocCRC:     verification.DocApproved,
		verification.DocSCP:     verification.DocApproved,
	}
}

func TestCheckManagerInfo(t *testing.T) {
	tests := []struct {
		name     string
		group    string
		manager  *secondary.ManagerRecord
		want     verification.MgrInfoStatus
		wantDocs string // expected REGFORM value afterwards
		wantHash bool
	}{
		{
			name:    "not in test stations group",
			group:   "Other",
			manager: &secondary.ManagerRecord{DateOfBirth: "1980-01-01", HasContact: true, Tags: approvedDocs()},
			want:    verification.MgrInfoNA,
		},
		{
			name:     "complete manager gets data hash",
			group:    testGroup,
			manager:  &secondary.ManagerRecord{DateOfBirth: "1980-01-01", HasContact: true, Tags: approvedDocs()},
			want:     verification.MgrInfoComplete,
			wantDocs: verification.DocApproved,
			wantHash: true,
		},
		{
			name:     "missing date of birth resets documents",
			group:    testGroup,
			manager:  &secondary.ManagerRecord{HasContact: true, Tags: approvedDocs()},
			want:     verification.MgrInfoRevise,
			wantDocs: verification.DocRevise,
		},
		{
			name:     "missing contact",
			group:    testGroup,
			manager:  &secondary.ManagerRecord{DateOfBirth: "1980-01-01", Tags: approvedDocs()},
			want:     verification.MgrInfoRevise,
			wantDocs: verification.DocApproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.addOrg("ORG-001", "PHARMACY")
			env.orgs.orgs["ORG-001"].OrgGroup = tt.group
			m := tt.manager
			m.StaffID, m.OrganisationID, m.FirstName, m.LastName = "STAFF-001", "ORG-001", "Erika", "Muster"
			env.staff.managers[m.StaffID] = m

			got, err := env.provider.CheckManagerInfo(context.Background(), "ORG-001")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if tt.wantDocs != "" && m.Tags[verification.DocRegForm] != tt.wantDocs {
				t.Errorf("expected REGFORM %s, got %s", tt.wantDocs, m.Tags[verification.DocRegForm])
			}
			_, hasHash := m.Tags[verification.TagDHash]
			if hasHash != tt.wantHash {
				t.Errorf("expected data hash present=%v, got %v", tt.wantHash, hasHash)
			}
		})
	}
}

func setupVerifiedManager(env *testEnv) *secondary.ManagerRecord {
	env.addOrg("ORG-001", "PHARMACY")
	tags := approvedDocs()
	tags[verification.TagDHash] = verification.PersonHash("Erika", "Muster", "1980-01-01")
	m := &secondary.ManagerRecord{
		StaffID:        "STAFF-001",
		OrganisationID: "ORG-001",
		FirstName:      "Erika",
		LastName:       "Muster",
		DateOfBirth:    "1980-01-01",
		HasContact:     true,
		Tags:           tags,
	}
	env.staff.managers[m.StaffID] = m
	return m
}

func TestUpdateManagerPerson_ResetsApproval(t *testing.T) {
	env := newTestEnv()
	m := setupVerifiedManager(env)
	ctx := context.Background()

	v, err := env.provider.GetVerification(ctx, "ORG-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v.MgrInfo != string(verification.MgrInfoComplete) || !v.Accepted {
		t.Fatalf("expected COMPLETE and accepted, got %s accepted=%v", v.MgrInfo, v.Accepted)
	}

	v, err = env.provider.UpdateManagerPerson(ctx, primary.ManagerPersonRequest{
		StaffID:  "STAFF-001",
		LastName: ptr("Mustermann"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v.MgrInfo != string(verification.MgrInfoRevise) || v.Accepted {
		t.Errorf("expected REVISE and not accepted, got %s accepted=%v", v.MgrInfo, v.Accepted)
	}
	for _, tag := range verification.DocumentTags {
		if m.Tags[tag] != verification.DocRevise {
			t.Errorf("expected %s reset to REVISE, got %s", tag, m.Tags[tag])
		}
	}
	if _, ok := m.Tags[verification.TagDHash]; ok {
		t.Error("expected data hash removed")
	}
}

func TestUpdateManagerPerson_PrivilegedKeepsApproval(t *testing.T) {
	env := newTestEnv()
	m := setupVerifiedManager(env)
	env.identity.as(access.RoleApprover, access.AuthOrgGroupAdmin)
	ctx := context.Background()

	if _, err := env.provider.GetVerification(ctx, "ORG-001"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	v, err := env.provider.UpdateManagerPerson(ctx, primary.ManagerPersonRequest{
		StaffID:  "STAFF-001",
		LastName: ptr("Mustermann"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v.MgrInfo != string(verification.MgrInfoComplete) || !v.Accepted {
		t.Errorf("expected COMPLETE and accepted, got %s accepted=%v", v.MgrInfo, v.Accepted)
	}
	want := verification.PersonHash("Erika", "Mustermann", "1980-01-01")
	if m.Tags[verification.TagDHash] != want {
		t.Errorf("expected data hash updated to %s, got %s", want, m.Tags[verification.TagDHash])
	}
}

func TestUpdateManagerPerson_InvalidDateOfBirth(t *testing.T) {
	env := newTestEnv()
	setupVerifiedManager(env)

	_, err := env.provider.UpdateManagerPerson(context.Background(), primary.ManagerPersonRequest{
		StaffID:     "STAFF-001",
		DateOfBirth: ptr("01.01.1980"),
	})
	if err == nil {
		t.Fatal("expected error for invalid date, got nil")
	}
}

func TestVerificationEdits_OtherOrganisation(t *testing.T) {
	env := newTestEnv()
	m := setupVerifiedManager(env)
	ctx := context.Background()

	if _, err := env.provider.GetVerification(ctx, "ORG-001"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	env.identity.as(access.RoleApplicant)
	env.identity.memberOf("ORG-002")

	if _, err := env.provider.UpdateVerification(ctx, "ORG-001"); !errors.Is(err, primary.ErrNotPermitted) {
		t.Errorf("UpdateVerification: expected ErrNotPermitted, got %v", err)
	}
	_, err := env.provider.UpdateManagerPerson(ctx, primary.ManagerPersonRequest{
		StaffID:  "STAFF-001",
		LastName: ptr("Mustermann"),
	})
	if !errors.Is(err, primary.ErrNotPermitted) {
		t.Errorf("UpdateManagerPerson: expected ErrNotPermitted, got %v", err)
	}
	if m.LastName != "Muster" || m.Tags[verification.DocCRC] != verification.DocApproved {
		t.Errorf("expected manager unchanged, got %s %v", m.LastName, m.Tags)
	}

	env.identity.memberOf("ORG-001")
	if _, err := env.provider.UpdateVerification(ctx, "ORG-001"); err != nil {
		t.Errorf("expected own organisation to be refreshed, got %v", err)
	}
}

func TestSetManagerDocuments(t *testing.T) {
	tests := []struct {
		name    string
		role    access.Role
		docs    map[string]string
		wantErr bool
		want    string
	}{
		{"approver approves all", access.RoleApprover, approvedDocs(), false, "COMPLETE"},
		{"approver requests revision", access.RoleApprover, map[string]string{verification.DocCRC: verification.DocRevise}, false, "REVISE"},
		{"applicant denied", access.RoleApplicant, approvedDocs(), true, ""},
		{"invalid value", access.RoleApprover, map[string]string{verification.DocCRC: "MAYBE"}, true, ""},
		{"unknown document", access.RoleApprover, map[string]string{"PASSPORT": verification.DocApproved}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.addOrg("ORG-001", "PHARMACY")
			env.staff.managers["STAFF-001"] = &secondary.ManagerRecord{
				StaffID:        "STAFF-001",
				OrganisationID: "ORG-001",
				FirstName:      "Erika",
				LastName:       "Muster",
				DateOfBirth:    "1980-01-01",
				HasContact:     true,
				Tags:           map[string]string{},
			}
			env.identity.as(tt.role)

			v, err := env.provider.SetManagerDocuments(context.Background(), primary.ManagerDocumentsRequest{
				StaffID:   "STAFF-001",
				Documents: tt.docs,
			})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if v.MgrInfo != tt.want {
				t.Errorf("expected mgrinfo %s, got %s", tt.want, v.MgrInfo)
			}
		})
	}
}

// ============================================================================
// Commissions
// ============================================================================

func TestSuspendCommission_InvalidReason(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")

	for _, reason := range []commission.Reason{commission.ReasonNone, "BOGUS"} {
		if _, err := env.provider.SuspendCommission(context.Background(), "ORG-001", reason); err == nil {
			t.Errorf("expected error for reason %q, got nil", reason)
		}
	}
}

func TestSuspendCommission_NotifyFailureIsSoft(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.addCommission("COMM-001", "ORG-001", commission.StatusCurrent, "2024-01-01", "")
	env.notifier.err = errors.New("broker down")

	n, err := env.provider.SuspendCommission(context.Background(), "ORG-001", commission.ReasonOverride)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 commission suspended, got %d", n)
	}
	if env.commissions.records["COMM-001"].Status != commission.StatusSuspended {
		t.Errorf("expected commission SUSPENDED")
	}
}

// failingVisibility fails every listing update.
type failingVisibility struct{}

func (failingVisibility) UpdateAll(ctx context.Context, organisationID string, public siteapproval.Public, reasons ...siteapproval.PublicReason) (int, error) {
	return 0, errors.New("database is locked")
}

func TestCommissionChanges_ListingFailureIsSoft(t *testing.T) {
	suspended := commission.StatusSuspended

	tests := []struct {
		name       string
		status     commission.Status
		change     func(ctx context.Context, env *testEnv) error
		wantStatus commission.Status
	}{
		{
			name:   "suspend",
			status: commission.StatusCurrent,
			change: func(ctx context.Context, env *testEnv) error {
				_, err := env.provider.SuspendCommission(ctx, "ORG-001", commission.ReasonOverride)
				return err
			},
			wantStatus: commission.StatusSuspended,
		},
		{
			name:   "reinstate",
			status: commission.StatusSuspended,
			change: func(ctx context.Context, env *testEnv) error {
				_, err := env.provider.ReinstateCommission(ctx, "ORG-001", commission.ReasonOverride)
				return err
			},
			wantStatus: commission.StatusCurrent,
		},
		{
			name:   "update",
			status: commission.StatusCurrent,
			change: func(ctx context.Context, env *testEnv) error {
				_, err := env.provider.UpdateCommission(ctx, primary.CommissionForm{
					CommissionID: "COMM-001",
					Status:       &suspended,
					StatusReason: ptr("OVERRIDE"),
				})
				return err
			},
			wantStatus: commission.StatusSuspended,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.addOrg("ORG-001", "PUBLIC")
			env.addCommission("COMM-001", "ORG-001", tt.status, "2024-01-01", "")
			env.commissions.records["COMM-001"].StatusReason = commission.ReasonOverride
			env.provider.stations = failingVisibility{}

			if err := tt.change(context.Background(), env); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := env.commissions.records["COMM-001"].Status; got != tt.wantStatus {
				t.Errorf("expected commission %s, got %s", tt.wantStatus, got)
			}
		})
	}
}

func TestReinstateCommission_OnlyMatchingReason(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.addCommission("COMM-001", "ORG-001", commission.StatusSuspended, "2024-01-01", "")
	env.commissions.records["COMM-001"].StatusReason = commission.ReasonOverride

	n, err := env.provider.ReinstateCommission(context.Background(), "ORG-001", commission.ReasonNotVerified)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected nothing reinstated, got %d", n)
	}
	if env.commissions.records["COMM-001"].Status != commission.StatusSuspended {
		t.Errorf("expected commission to stay SUSPENDED")
	}
}

func TestCurrentCommission(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.addCommission("COMM-001", "ORG-001", commission.StatusExpired, "2023-01-01", "2023-12-31")
	env.addCommission("COMM-002", "ORG-001", commission.StatusCurrent, "2024-01-01", "2024-12-31")
	env.addCommission("COMM-003", "ORG-001", commission.StatusCurrent, "2025-01-01", "")
	ctx := context.Background()

	c, err := env.provider.CurrentCommission(ctx, "ORG-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c == nil || c.ID != "COMM-002" {
		t.Errorf("expected COMM-002, got %v", c)
	}

	c, err = env.provider.CurrentCommission(ctx, "ORG-002")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c != nil {
		t.Errorf("expected no current commission, got %s", c.ID)
	}
}

func TestCreateCommission(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.addSite("SITE-001", "ORG-001")
	a := listed()
	a.Public = siteapproval.PublicNo
	a.PublicReason = siteapproval.ReasonCommission
	env.setApproval("SITE-001", a)

	c, err := env.provider.CreateCommission(context.Background(), primary.CommissionForm{
		OrganisationID: "ORG-001",
		Date:           ptr(mustDate("2024-06-01")),
		Comments:       ptr("Initial commission"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.ID != "COMM-001" {
		t.Errorf("expected ID COMM-001, got %s", c.ID)
	}
	if c.Status != string(commission.StatusCurrent) {
		t.Errorf("expected status CURRENT, got %s", c.Status)
	}
	if c.StatusDate != "2024-06-15" {
		t.Errorf("expected status date 2024-06-15, got %s", c.StatusDate)
	}
	if env.commissions.records["COMM-001"].PrevStatus != commission.StatusCurrent {
		t.Errorf("expected prev_status recorded")
	}

	got := env.approvals.approvals["SITE-001"].Approval
	if got.Public != siteapproval.PublicYes {
		t.Errorf("expected site listed after commissioning, got %s (%s)", got.Public, got.PublicReason)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].Template != commission.TemplateCommissionChange {
		t.Errorf("expected commission notification, got %v", env.notifier.templates())
	}
}

func TestCreateCommission_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		types     []string
		role      access.Role
		form      primary.CommissionForm
		wantField string // expected form error field, empty for guard errors
	}{
		{
			name:      "missing start date",
			types:     []string{"PUBLIC"},
			role:      access.RoleApprover,
			form:      primary.CommissionForm{OrganisationID: "ORG-001"},
			wantField: commission.FieldDate,
		},
		{
			name:  "end before start",
			types: []string{"PUBLIC"},
			role:  access.RoleApprover,
			form: primary.CommissionForm{
				OrganisationID: "ORG-001",
				Date:           ptr(mustDate("2024-07-01")),
				EndDate:        ptr(mustDate("2024-07-01")),
			},
			wantField: commission.FieldEndDate,
		},
		{
			name:  "overlapping commission",
			types: []string{"PUBLIC"},
			role:  access.RoleApprover,
			form: primary.CommissionForm{
				OrganisationID: "ORG-001",
				Date:           ptr(mustDate("2024-03-01")),
			},
			wantField: commission.FieldDate,
		},
		{
			name:  "unknown reason code",
			types: []string{"PUBLIC"},
			role:  access.RoleApprover,
			form: primary.CommissionForm{
				OrganisationID: "ORG-001",
				Date:           ptr(mustDate("2025-01-01")),
				StatusReason:   ptr("BECAUSE"),
			},
			wantField: commission.FieldStatusReason,
		},
		{
			name:  "provider not verified",
			types: []string{"COMMERCIAL"},
			role:  access.RoleApprover,
			form: primary.CommissionForm{
				OrganisationID: "ORG-001",
				Date:           ptr(mustDate("2025-01-01")),
			},
		},
		{
			name:  "applicant",
			types: []string{"PUBLIC"},
			role:  access.RoleApplicant,
			form: primary.CommissionForm{
				OrganisationID: "ORG-001",
				Date:           ptr(mustDate("2025-01-01")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.addOrg("ORG-001", tt.types...)
			env.addCommission("COMM-001", "ORG-001", commission.StatusCurrent, "2024-01-01", "2024-12-31")
			env.identity.as(tt.role)

			_, err := env.provider.CreateCommission(context.Background(), tt.form)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var formErrs commission.FormErrors
			isFormErr := errors.As(err, &formErrs)
			if tt.wantField == "" {
				if isFormErr {
					t.Errorf("expected guard error, got form errors %v", formErrs)
				}
			} else if !isFormErr {
				t.Errorf("expected form errors, got %v", err)
			} else if _, ok := formErrs[tt.wantField]; !ok {
				t.Errorf("expected error on %s, got %v", tt.wantField, formErrs)
			}

			if len(env.commissions.records) != 1 {
				t.Errorf("expected no commission created, got %d records", len(env.commissions.records))
			}
		})
	}
}

func TestUpdateCommission_Suspend(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.addCommission("COMM-001", "ORG-001", commission.StatusCurrent, "2024-01-01", "")
	env.addSite("SITE-001", "ORG-001")
	env.setApproval("SITE-001", listed())

	suspended := commission.StatusSuspended
	c, err := env.provider.UpdateCommission(context.Background(), primary.CommissionForm{
		CommissionID: "COMM-001",
		Status:       &suspended,
		StatusReason: ptr("OVERRIDE"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Status != string(commission.StatusSuspended) || c.StatusReason != "OVERRIDE" {
		t.Errorf("expected SUSPENDED (OVERRIDE), got %s (%s)", c.Status, c.StatusReason)
	}
	if c.StatusDate != "2024-06-15" {
		t.Errorf("expected status date stamped, got %q", c.StatusDate)
	}

	got := env.approvals.approvals["SITE-001"].Approval
	if got.Public != siteapproval.PublicNo || got.PublicReason != siteapproval.ReasonCommission {
		t.Errorf("expected site de-listed for COMMISSION, got %s (%s)", got.Public, got.PublicReason)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].Data["status"] != "SUSPENDED" {
		t.Errorf("expected suspension notification, got %v", env.notifier.sent)
	}
}

func TestUpdateCommission_PeriodMovesOverToday(t *testing.T) {
	tests := []struct {
		name        string
		start       string
		public      siteapproval.Public
		reason      siteapproval.PublicReason
		newStart    string
		wantPublic  siteapproval.Public
		wantReason  siteapproval.PublicReason
		wantCurrent bool
	}{
		{
			name:       "start moved into the future",
			start:      "2024-01-01",
			public:     siteapproval.PublicYes,
			newStart:   "2024-07-01",
			wantPublic: siteapproval.PublicNo,
			wantReason: siteapproval.ReasonCommission,
		},
		{
			name:        "start moved to the past",
			start:       "2024-07-01",
			public:      siteapproval.PublicNo,
			reason:      siteapproval.ReasonCommission,
			newStart:    "2024-06-01",
			wantPublic:  siteapproval.PublicYes,
			wantCurrent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.addOrg("ORG-001", "PUBLIC")
			env.addCommission("COMM-001", "ORG-001", commission.StatusCurrent, tt.start, "")
			env.addSite("SITE-001", "ORG-001")
			a := listed()
			a.Public = tt.public
			a.PublicReason = tt.reason
			env.setApproval("SITE-001", a)
			ctx := context.Background()

			c, err := env.provider.UpdateCommission(ctx, primary.CommissionForm{
				CommissionID: "COMM-001",
				Date:         ptr(mustDate(tt.newStart)),
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if c.Status != string(commission.StatusCurrent) || c.Date != tt.newStart {
				t.Errorf("expected CURRENT from %s, got %s from %s", tt.newStart, c.Status, c.Date)
			}

			current, err := env.provider.CurrentCommission(ctx, "ORG-001")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if (current != nil) != tt.wantCurrent {
				t.Errorf("expected current commission %v, got %+v", tt.wantCurrent, current)
			}

			got := env.approvals.approvals["SITE-001"].Approval
			if got.Public != tt.wantPublic || got.PublicReason != tt.wantReason {
				t.Errorf("expected public=%s (%s), got %s (%s)", tt.wantPublic, tt.wantReason, got.Public, got.PublicReason)
			}
			if len(env.notifier.sent) != 0 {
				t.Errorf("expected no notification without status change, got %v", env.notifier.sent)
			}
		})
	}
}

func TestUpdateCommission_Rejected(t *testing.T) {
	current := commission.StatusCurrent
	revoked := commission.StatusRevoked

	tests := []struct {
		name      string
		types     []string
		status    commission.Status
		form      primary.CommissionForm
		wantField string
	}{
		{
			name:      "reinstate unverified provider",
			types:     []string{"COMMERCIAL"},
			status:    commission.StatusSuspended,
			form:      primary.CommissionForm{CommissionID: "COMM-001", Status: &current},
			wantField: "",
		},
		{
			name:      "edit terminal commission",
			types:     []string{"PUBLIC"},
			status:    commission.StatusRevoked,
			form:      primary.CommissionForm{CommissionID: "COMM-001", Comments: ptr("late note")},
			wantField: "",
		},
		{
			name:      "revoke with invalid reason",
			types:     []string{"PUBLIC"},
			status:    commission.StatusCurrent,
			form:      primary.CommissionForm{CommissionID: "COMM-001", Status: &revoked, StatusReason: ptr("nope")},
			wantField: commission.FieldStatusReason,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.addOrg("ORG-001", tt.types...)
			env.addCommission("COMM-001", "ORG-001", tt.status, "2024-01-01", "")

			_, err := env.provider.UpdateCommission(context.Background(), tt.form)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var formErrs commission.FormErrors
			if tt.wantField != "" {
				if !errors.As(err, &formErrs) {
					t.Fatalf("expected form errors, got %v", err)
				}
				if _, ok := formErrs[tt.wantField]; !ok {
					t.Errorf("expected error on %s, got %v", tt.wantField, formErrs)
				}
			}
			if env.commissions.records["COMM-001"].Status != tt.status {
				t.Errorf("expected status unchanged")
			}
		})
	}
}

func TestAcceptCommission_Missing(t *testing.T) {
	env := newTestEnv()

	c, err := env.provider.AcceptCommission(context.Background(), "COMM-999")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c != nil {
		t.Errorf("expected nil commission, got %v", c)
	}
}

func TestAcceptCommission_SuspendsUnverified(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "COMMERCIAL")
	env.addCommission("COMM-001", "ORG-001", commission.StatusCurrent, "2024-01-01", "")

	c, err := env.provider.AcceptCommission(context.Background(), "COMM-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Status != string(commission.StatusSuspended) || c.StatusReason != string(commission.ReasonNotVerified) {
		t.Errorf("expected SUSPENDED (N/V), got %s (%s)", c.Status, c.StatusReason)
	}

	// second run has nothing left to do
	env.notifier.sent = nil
	if _, err := env.provider.AcceptCommission(context.Background(), "COMM-001"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(env.notifier.sent) != 0 {
		t.Errorf("expected no notification on unchanged status, got %v", env.notifier.templates())
	}
}

func TestExpireCommissions(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.addCommission("COMM-001", "ORG-001", commission.StatusCurrent, "2024-01-01", "2024-06-01")
	env.addCommission("COMM-002", "ORG-001", commission.StatusCurrent, "2024-06-10", "2024-12-31")
	env.addSite("SITE-001", "ORG-001")
	env.setApproval("SITE-001", listed())

	expired, err := env.provider.ExpireCommissions(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(expired) != 1 || expired[0] != "COMM-001" {
		t.Errorf("expected [COMM-001] expired, got %v", expired)
	}
	if env.commissions.records["COMM-002"].Status != commission.StatusCurrent {
		t.Errorf("expected COMM-002 to stay CURRENT")
	}
	if env.approvals.approvals["SITE-001"].Approval.Public != siteapproval.PublicYes {
		t.Errorf("expected site to stay listed under the following commission")
	}
}

func TestCommissionFormConfig(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	env.addCommission("COMM-001", "ORG-001", commission.StatusCurrent, "2024-01-01", "")
	ctx := context.Background()

	policy, err := env.provider.CommissionFormConfig(ctx, "ORG-001", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !policy.Insertable {
		t.Errorf("expected approver to create commissions for accepted provider")
	}

	policy, err = env.provider.CommissionFormConfig(ctx, "ORG-001", "COMM-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !policy.StatusWritable || len(policy.StatusOptions) != 3 {
		t.Errorf("expected 3 selectable statuses, got %v", policy.StatusOptions)
	}

	env.identity.as(access.RoleApplicant)
	policy, err = env.provider.CommissionFormConfig(ctx, "ORG-001", "COMM-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if policy.Editable || policy.Insertable {
		t.Errorf("expected read-only form for applicant, got %+v", policy)
	}
}

// ============================================================================
// Tags and notifications
// ============================================================================

func TestAddDefaultTags(t *testing.T) {
	env := newTestEnv()
	env.addOrg("ORG-001", "PUBLIC")
	ctx := context.Background()

	added, err := env.provider.AddDefaultTags(ctx, "ORG-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if added["DELIVERY"] != "DIRECT" {
		t.Errorf("expected DELIVERY=DIRECT, got %q", added["DELIVERY"])
	}
	// 0x1a2b3 = 107187, organisation number 1
	if added["OrgID"] != "1071870001" {
		t.Errorf("expected OrgID 1071870001, got %q", added["OrgID"])
	}

	added, err = env.provider.AddDefaultTags(ctx, "ORG-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(added) != 0 {
		t.Errorf("expected nothing added on second run, got %v", added)
	}
}

func TestNotifyCommissionChange(t *testing.T) {
	t.Run("sends to organisation administrators", func(t *testing.T) {
		env := newTestEnv()
		env.addOrg("ORG-001", "PUBLIC")

		err := env.provider.NotifyCommissionChange(context.Background(), "ORG-001", commission.StatusCurrent, commission.ReasonNone)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(env.notifier.sent) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(env.notifier.sent))
		}
		n := env.notifier.sent[0]
		if n.Recipients[0] != "admin@ORG-001.example.org" {
			t.Errorf("unexpected recipients %v", n.Recipients)
		}
		if n.Data["organisation"] != "Provider ORG-001" || n.Data["reason"] != "-" {
			t.Errorf("unexpected data %v", n.Data)
		}
	})

	t.Run("no recipients", func(t *testing.T) {
		env := newTestEnv()
		env.addOrg("ORG-001", "PUBLIC")
		env.contacts.emails["ORG-001"] = nil

		err := env.provider.NotifyCommissionChange(context.Background(), "ORG-001", commission.StatusCurrent, commission.ReasonNone)
		if !errors.Is(err, ErrNoRecipients) {
			t.Errorf("expected ErrNoRecipients, got %v", err)
		}
	})

	t.Run("delivery failure", func(t *testing.T) {
		env := newTestEnv()
		env.addOrg("ORG-001", "PUBLIC")
		env.notifier.err = errors.New("broker down")

		err := env.provider.NotifyCommissionChange(context.Background(), "ORG-001", commission.StatusSuspended, commission.ReasonOverride)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
