package siteapproval

import "testing"

func TestNotificationTemplate(t *testing.T) {
	tests := []struct {
		status  Status
		want    string
		wantErr bool
	}{
		{StatusRevise, TemplateFacilityReview, false},
		{StatusApproved, TemplateFacilityApproved, false},
		{StatusReview, "", true},
		{StatusReady, "", true},
	}
	for _, tt := range tests {
		got, err := NotificationTemplate(tt.status)
		if (err != nil) != tt.wantErr {
			t.Errorf("NotificationTemplate(%s) error = %v, wantErr %v", tt.status, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("NotificationTemplate(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestNotificationData(t *testing.T) {
	a := Approval{Status: StatusRevise, MPAV: ReviewRevise, Hygiene: ReviewApproved, Layout: ReviewRevise}

	posts := RequirementPosts(a)
	if len(posts) != 2 || posts[0] != "FacilityMPAVRequirements" || posts[1] != "FacilityLayoutRequirements" {
		t.Errorf("RequirementPosts() = %v", posts)
	}

	data := NotificationData("Station 1", "http://x/org/organisation/ORG-001/facility/SITE-001", a, []string{"one", "two"})
	if data["advice"] != "-" {
		t.Errorf("advice = %q, want -", data["advice"])
	}
	if data["explanations"] != "one\n\ntwo" {
		t.Errorf("explanations = %q", data["explanations"])
	}

	data = NotificationData("Station 1", "u", Approval{Status: StatusRevise, Advice: "fix it"}, nil)
	if data["advice"] != "fix it" || data["explanations"] != "-" {
		t.Errorf("data = %v", data)
	}

	data = NotificationData("Station 1", "u", Approval{Status: StatusApproved}, nil)
	if _, ok := data["advice"]; ok {
		t.Error("expected no advice for approval notifications")
	}
}

func TestFacilityURL(t *testing.T) {
	got := FacilityURL("https://gims.example.org/", "ORG-001", "SITE-002")
	want := "https://gims.example.org/org/organisation/ORG-001/facility/SITE-002"
	if got != want {
		t.Errorf("FacilityURL() = %q, want %q", got, want)
	}
}
