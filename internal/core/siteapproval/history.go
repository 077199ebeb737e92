package siteapproval

import "time"

// HistoryAction describes how to record the current approval status.
type HistoryAction int

const (
	HistorySkip      HistoryAction = iota // status unchanged since last entry
	HistoryAppend                         // add a new entry
	HistoryOverwrite                      // replace the last entry (same timestamp)
)

// HistoryTimestamp truncates t to the resolution of history timestamps.
func HistoryTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// PlanHistory decides whether the current approval status must be
// recorded, given the last history entry (nil if there is none) and its
// timestamp. Entries are only written on change; two changes within the
// same timestamp collapse into one entry.
func PlanHistory(last *Approval, lastAt time.Time, current Approval, now time.Time) HistoryAction {
	if last != nil && SameStatus(*last, current) {
		return HistorySkip
	}
	if last != nil && HistoryTimestamp(lastAt).Equal(HistoryTimestamp(now)) {
		return HistoryOverwrite
	}
	return HistoryAppend
}
