package siteapproval

import (
	"fmt"
	"strings"
)

// Notification templates.
const (
	TemplateFacilityReview   = "FacilityReview"
	TemplateFacilityApproved = "FacilityApproved"
)

// requirementPosts maps review dimensions to the CMS posts that explain
// their requirements.
var requirementPosts = map[Dimension]string{
	DimensionMPAV:    "FacilityMPAVRequirements",
	DimensionHygiene: "FacilityHygienePlanRequirements",
	DimensionLayout:  "FacilityLayoutRequirements",
}

// NotificationTemplate selects the notification template for the current
// processing status. Only REVISE and APPROVED are notified.
func NotificationTemplate(status Status) (string, error) {
	switch status {
	case StatusRevise:
		return TemplateFacilityReview, nil
	case StatusApproved:
		return TemplateFacilityApproved, nil
	case StatusReady, StatusReview:
		return "", fmt.Errorf("invalid status")
	}
	return "", fmt.Errorf("invalid status")
}

// RequirementPosts returns the names of the requirement explanations for
// all dimensions currently under revision.
func RequirementPosts(a Approval) []string {
	var names []string
	for _, d := range Dimensions {
		if a.Review(d) == ReviewRevise {
			names = append(names, requirementPosts[d])
		}
	}
	return names
}

// NotificationData composes the template data of an approval notification.
// explanations are the bodies of the requirement posts found.
func NotificationData(name, url string, a Approval, explanations []string) map[string]string {
	data := map[string]string{
		"name": name,
		"url":  url,
	}
	if a.Status == StatusRevise {
		data["advice"] = orDash(a.Advice)
		data["explanations"] = orDash(strings.Join(explanations, "\n\n"))
	}
	return data
}

// FacilityURL returns the path of the facility page of an organisation.
func FacilityURL(baseURL, organisationID, siteID string) string {
	return fmt.Sprintf("%s/org/organisation/%s/facility/%s", strings.TrimRight(baseURL, "/"), organisationID, siteID)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
