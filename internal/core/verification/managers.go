package verification

import "github.com/nursix/gims/internal/core/dhash"

// Staff tags holding the manager documentation review status.
const (
	DocRegForm = "REGFORM" // registration form
	DocCRC     = "CRC"     // criminal record check
	DocSCP     = "SCP"     // safety certificate program
	TagDHash   = "DHASH"   // person data hash recorded at approval
)

// DocumentTags lists the documentation tags in evaluation order.
var DocumentTags = []string{DocRegForm, DocCRC, DocSCP}

// Document review values.
const (
	DocApproved = "APPROVED"
	DocRevise   = "REVISE"
)

// ManagerInput is the pre-fetched data of one test station manager.
type ManagerInput struct {
	StaffID     string
	FirstName   string
	LastName    string
	DateOfBirth string // ISO date, empty if unknown
	HasContact  bool   // at least one phone/SMS/email contact
	Documents   map[string]string
	DHash       string
	HasDHash    bool
}

// DHashOp describes what to do with a manager's stored data hash.
type DHashOp int

const (
	DHashKeep DHashOp = iota
	DHashSet
	DHashDelete
)

// ManagerAction is the tag update required for one manager.
type ManagerAction struct {
	StaffID        string
	ResetDocuments bool
	DHashOp        DHashOp
	DHashValue     string
}

// Changed reports whether the action requires any update.
func (a ManagerAction) Changed() bool {
	return a.ResetDocuments || a.DHashOp != DHashKeep
}

// ManagerCheckInput contains everything needed to evaluate manager info.
type ManagerCheckInput struct {
	InGroup    bool // organisation belongs to the test stations group
	Managers   []ManagerInput
	Privileged bool // actor may change person data without resetting approval
}

// ManagerCheckResult is the outcome of a manager check.
type ManagerCheckResult struct {
	Status  MgrInfoStatus
	Actions []ManagerAction
}

// PersonHash computes the data hash over the person details that were
// subject to documentation approval.
func PersonHash(firstName, lastName, dob string) string {
	return dhash.Compute(firstName, lastName, dob)
}

// CheckManagers evaluates whether the manager documentation of a provider
// is complete and approved. It does not evaluate whether manager
// information is required at all.
//
// Rules, per manager:
//   - no date of birth: documents are reset, not acceptable
//   - no phone/SMS/email contact: not acceptable
//   - data hash present but stale: documents are reset (unless the actor
//     is privileged, then the hash is renewed)
//   - all documents approved: acceptable, hash recorded if missing
//   - otherwise a stored hash is removed
//
// COMPLETE if at least one manager is acceptable, N/A without managers,
// REVISE otherwise.
func CheckManagers(in ManagerCheckInput) ManagerCheckResult {
	if !in.InGroup || len(in.Managers) == 0 {
		return ManagerCheckResult{Status: MgrInfoNA}
	}

	result := ManagerCheckResult{Status: MgrInfoRevise}

	for _, m := range in.Managers {
		action := ManagerAction{StaffID: m.StaffID}
		docs := make(map[string]string, len(DocumentTags))
		for _, tag := range DocumentTags {
			docs[tag] = m.Documents[tag]
		}
		reset := func() {
			action.ResetDocuments = true
			for _, tag := range DocumentTags {
				docs[tag] = DocRevise
			}
		}

		vhash := PersonHash(m.FirstName, m.LastName, m.DateOfBirth)
		verified := m.HasDHash
		accepted := true

		if m.DateOfBirth == "" {
			reset()
			accepted = false
		}

		if accepted && !m.HasContact {
			accepted = false
		}

		if accepted && verified && m.DHash != vhash {
			if in.Privileged {
				action.DHashOp = DHashSet
				action.DHashValue = vhash
			} else {
				reset()
				accepted = false
			}
		}

		if accepted && allApproved(docs) {
			if !verified {
				action.DHashOp = DHashSet
				action.DHashValue = vhash
			}
			result.Status = MgrInfoComplete
		} else if verified {
			action.DHashOp = DHashDelete
			action.DHashValue = ""
		}

		if action.Changed() {
			result.Actions = append(result.Actions, action)
		}
	}

	return result
}

func allApproved(docs map[string]string) bool {
	for _, tag := range DocumentTags {
		if docs[tag] != DocApproved {
			return false
		}
	}
	return true
}
