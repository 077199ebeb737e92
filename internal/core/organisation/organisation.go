// Package organisation contains the pure business logic for provider
// organisations and their sites.
// This is part of the Functional Core - no I/O, only pure functions.
package organisation

import (
	"fmt"
	"strconv"
	"strings"
)

// Default organisation tags.
const (
	TagDelivery    = "DELIVERY"
	TagOrgID       = "OrgID"
	DeliveryDirect = "DIRECT"
)

// GenerateOrgID generates an organisation ID from the current max number.
// The format is ORG-XXX where XXX is a zero-padded 3-digit number.
func GenerateOrgID(currentMax int) string {
	return fmt.Sprintf("ORG-%03d", currentMax+1)
}

// ParseOrgNumber extracts the numeric portion from an organisation ID.
// Returns -1 if the ID format is invalid.
func ParseOrgNumber(id string) int {
	var num int
	_, err := fmt.Sscanf(id, "ORG-%d", &num)
	if err != nil {
		return -1
	}
	return num
}

// GenerateSiteID generates a site ID from the current max number.
// The format is SITE-XXX where XXX is a zero-padded 3-digit number.
func GenerateSiteID(currentMax int) string {
	return fmt.Sprintf("SITE-%03d", currentMax+1)
}

// ParseSiteNumber extracts the numeric portion from a site ID.
// Returns -1 if the ID format is invalid.
func ParseSiteNumber(id string) int {
	var num int
	_, err := fmt.Sscanf(id, "SITE-%d", &num)
	if err != nil {
		return -1
	}
	return num
}

// UIDNumber derives a number from the first five hex digits of a UUID.
func UIDNumber(uuid string) (int, error) {
	uuid = strings.TrimPrefix(uuid, "urn:uuid:")
	if len(uuid) < 5 {
		return 0, fmt.Errorf("invalid uuid %q", uuid)
	}
	n, err := strconv.ParseInt(uuid[:5], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid uuid %q: %w", uuid, err)
	}
	return int(n), nil
}

// OrgIDTag computes the value of the OrgID tag from the UUID number and
// the organisation number.
func OrgIDTag(uid, orgNumber int) string {
	return fmt.Sprintf("%06d%04d", uid, orgNumber)
}

// DefaultTags returns the default tags missing from existing.
// orgIDTag is only evaluated when needed.
func DefaultTags(existing map[string]string, orgIDTag func() string) map[string]string {
	missing := map[string]string{}
	if _, ok := existing[TagDelivery]; !ok {
		missing[TagDelivery] = DeliveryDirect
	}
	if _, ok := existing[TagOrgID]; !ok {
		missing[TagOrgID] = orgIDTag()
	}
	return missing
}

// facilityCodeChars are the characters used in facility code suffixes.
const facilityCodeChars = "ABCFGHKLNPRSTWX12456789"

// FacilityCode generates a facility code (test station ID) of the form
// NNNNNN-XXX. pick returns a random number in [0, n).
func FacilityCode(uid int, pick func(n int) int) string {
	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = facilityCodeChars[pick(len(facilityCodeChars))]
	}
	return fmt.Sprintf("%06d-%s", uid%1000000, suffix)
}
