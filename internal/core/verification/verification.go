// Package verification contains the pure business logic for provider
// verification (organisation type and manager information).
// This is part of the Functional Core - no I/O, only pure functions.
package verification

import (
	"slices"
	"strings"

	"github.com/nursix/gims/internal/core/dhash"
)

// OrgTypeStatus is the verification status of the organisation type.
type OrgTypeStatus string

const (
	OrgTypeNA          OrgTypeStatus = "N/A"
	OrgTypeAccept      OrgTypeStatus = "ACCEPT"
	OrgTypeNotVerified OrgTypeStatus = "N/V"
	OrgTypeVerified    OrgTypeStatus = "VERIFIED"
)

// Valid reports whether s is a known org type status.
func (s OrgTypeStatus) Valid() bool {
	switch s {
	case OrgTypeNA, OrgTypeAccept, OrgTypeNotVerified, OrgTypeVerified:
		return true
	}
	return false
}

// MgrInfoStatus is the completeness status of the manager information.
type MgrInfoStatus string

const (
	MgrInfoNA       MgrInfoStatus = "N/A"
	MgrInfoAccept   MgrInfoStatus = "ACCEPT"
	MgrInfoRevise   MgrInfoStatus = "REVISE"
	MgrInfoComplete MgrInfoStatus = "COMPLETE"
)

// Valid reports whether s is a known manager info status.
func (s MgrInfoStatus) Valid() bool {
	switch s {
	case MgrInfoNA, MgrInfoAccept, MgrInfoRevise, MgrInfoComplete:
		return true
	}
	return false
}

// Organisation type tags evaluated by the verification workflow.
const (
	TagCommercial = "Commercial"
	TagVerifReq   = "VERIFREQ"
	TagMinfoReq   = "MINFOREQ"
)

// TypeTags maps organisation type IDs to their tags {tag: value}.
type TypeTags map[string]map[string]string

// Profile describes the organisation types of a provider.
type Profile struct {
	Types TypeTags
}

// HasTypes reports whether the organisation has any type at all.
func (p Profile) HasTypes() bool {
	return len(p.Types) > 0
}

func (p Profile) anyTag(tag string) bool {
	for _, tags := range p.Types {
		if tags[tag] == "Y" {
			return true
		}
	}
	return false
}

// Commercial reports whether this is a commercial provider.
func (p Profile) Commercial() bool { return p.anyTag(TagCommercial) }

// VerifReq reports whether organisation type verification is required.
func (p Profile) VerifReq() bool { return p.anyTag(TagVerifReq) }

// MinfoReq reports whether manager information is required.
func (p Profile) MinfoReq() bool { return p.anyTag(TagMinfoReq) }

// TypeIDs returns the sorted organisation type IDs.
func (p Profile) TypeIDs() []string {
	ids := make([]string, 0, len(p.Types))
	for id := range p.Types {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// TypesHash computes the data hash over the organisation types. A change
// of this hash invalidates the current verification status.
func TypesHash(p Profile) string {
	return dhash.Compute(strings.Join(p.TypeIDs(), "|"))
}

// Status is the derived verification status of a provider.
type Status struct {
	OrgType  OrgTypeStatus
	MgrInfo  MgrInfoStatus
	Accepted bool
}

// IsAccepted evaluates the overall acceptance of a verification.
func IsAccepted(orgtype OrgTypeStatus, mgrinfo MgrInfoStatus) bool {
	orgtypeOK := orgtype == OrgTypeAccept || orgtype == OrgTypeVerified
	mgrinfoOK := mgrinfo == MgrInfoAccept || mgrinfo == MgrInfoComplete
	return orgtypeOK && mgrinfoOK
}

// Defaults returns the type-driven default verification status.
// checked is the result of the manager check, used only when the
// organisation type requires manager information.
func Defaults(p Profile, checked MgrInfoStatus) Status {
	orgtype := OrgTypeNA
	if p.HasTypes() {
		if p.VerifReq() {
			orgtype = OrgTypeNotVerified
		} else {
			orgtype = OrgTypeAccept
		}
	}
	mgrinfo := RequiredMgrInfo(p, checked)

	return Status{
		OrgType:  orgtype,
		MgrInfo:  mgrinfo,
		Accepted: IsAccepted(orgtype, mgrinfo),
	}
}

// RequiredMgrInfo returns checked if the profile requires manager
// information, otherwise ACCEPT.
func RequiredMgrInfo(p Profile, checked MgrInfoStatus) MgrInfoStatus {
	if !p.MinfoReq() {
		return MgrInfoAccept
	}
	if checked == "" {
		return MgrInfoNA
	}
	return checked
}
