package commission

import "time"

// AcceptInput contains a saved commission plus context needed to plan
// its post-save corrections. All values are pre-fetched by the caller.
type AcceptInput struct {
	Status       Status
	PrevStatus   Status
	StatusReason Reason
	EndDate      *time.Time
	Accepted     bool // provider verification accepted
	Today        time.Time
}

// AcceptPlan describes the corrections to apply after a commission was saved.
type AcceptPlan struct {
	Status        Status
	StatusReason  Reason
	PrevStatus    Status
	StatusDate    *time.Time // set when the status changed
	StatusChanged bool       // status differs from the last recorded status
	Update        bool       // record must be written
}

// PlanAccept computes the post-save corrections of a commission.
//
// Rules:
//   - an active commission whose end date has passed becomes EXPIRED
//   - a CURRENT commission of an unverified provider becomes SUSPENDED (N/V)
//   - CURRENT and terminal statuses carry no reason
//
// A status change (against PrevStatus) stamps the status date and
// records the new status as PrevStatus.
func PlanAccept(in AcceptInput) AcceptPlan {
	today := Day(in.Today)

	status := in.Status
	reason := in.StatusReason

	switch {
	case status.Active() && in.EndDate != nil && Day(*in.EndDate).Before(today):
		status = StatusExpired
		reason = ReasonNone
	case status == StatusCurrent && !in.Accepted:
		status = StatusSuspended
		reason = ReasonNotVerified
	case status == StatusCurrent || status.Terminal():
		reason = ReasonNone
	}

	plan := AcceptPlan{
		Status:       status,
		StatusReason: reason,
		PrevStatus:   in.PrevStatus,
	}

	if status != in.PrevStatus {
		plan.StatusChanged = true
		plan.PrevStatus = status
		plan.StatusDate = &today
	}

	plan.Update = plan.StatusChanged || status != in.Status || reason != in.StatusReason

	return plan
}

// Expired reports whether an active commission is past its end date on day.
func Expired(p Period, day time.Time) bool {
	return p.Status.Active() && p.End != nil && Day(*p.End).Before(Day(day))
}
