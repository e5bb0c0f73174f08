package models

import "strings"

// AnnexureStatus is the closed vocabulary for per-service verification statuses.
type AnnexureStatus string

const (
	StatusNone             AnnexureStatus = ""
	StatusInitiated        AnnexureStatus = "initiated"
	StatusHold             AnnexureStatus = "hold"
	StatusClosureAdvice    AnnexureStatus = "closure_advice"
	StatusWIP              AnnexureStatus = "wip"
	StatusInsuff           AnnexureStatus = "insuff"
	StatusCompleted        AnnexureStatus = "completed"
	StatusStopcheck        AnnexureStatus = "stopcheck"
	StatusActiveEmployment AnnexureStatus = "active_employment"
	StatusNotDoable        AnnexureStatus = "not_doable"
	StatusCandidateDenied  AnnexureStatus = "candidate_denied"
	StatusCompletedGreen   AnnexureStatus = "completed_green"
	StatusCompletedOrange  AnnexureStatus = "completed_orange"
	StatusCompletedRed     AnnexureStatus = "completed_red"
	StatusCompletedYellow  AnnexureStatus = "completed_yellow"
	StatusCompletedPink    AnnexureStatus = "completed_pink"
)

var annexureStatuses = map[AnnexureStatus]struct{}{
	StatusNone:             {},
	StatusInitiated:        {},
	StatusHold:             {},
	StatusClosureAdvice:    {},
	StatusWIP:              {},
	StatusInsuff:           {},
	StatusCompleted:        {},
	StatusStopcheck:        {},
	StatusActiveEmployment: {},
	StatusNotDoable:        {},
	StatusCandidateDenied:  {},
	StatusCompletedGreen:   {},
	StatusCompletedOrange:  {},
	StatusCompletedRed:     {},
	StatusCompletedYellow:  {},
	StatusCompletedPink:    {},
}

// NormalizeStatus is the single normalization boundary for status strings.
func NormalizeStatus(raw string) AnnexureStatus {
	return AnnexureStatus(strings.ToLower(strings.TrimSpace(raw)))
}

// Valid reports whether the status belongs to the closed vocabulary.
func (s AnnexureStatus) Valid() bool {
	_, ok := annexureStatuses[s]
	return ok
}

// CompletedColor reports whether the status counts as a completed variant.
func (s AnnexureStatus) CompletedColor() bool {
	switch s {
	case StatusCompleted, StatusCompletedGreen, StatusCompletedOrange,
		StatusCompletedRed, StatusCompletedYellow, StatusCompletedPink:
		return true
	default:
		return false
	}
}

// VerifyFlag mirrors the tri-state is_verify column.
type VerifyFlag string

const (
	VerifyUnset VerifyFlag = ""
	VerifyYes   VerifyFlag = "yes"
	VerifyNo    VerifyFlag = "no"
)

// NormalizeVerifyFlag maps arbitrary input onto the tri-state flag.
func NormalizeVerifyFlag(raw string) VerifyFlag {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "1", "true":
		return VerifyYes
	case "no", "n", "0", "false":
		return VerifyNo
	default:
		return VerifyUnset
	}
}

// Verdict is the case-level aggregation outcome driving notification choice.
type Verdict string

const (
	VerdictNotReady       Verdict = "NOT_READY"
	VerdictReadyForReport Verdict = "READY_FOR_REPORT"
	VerdictFinalYes       Verdict = "FINAL_VERIFIED_YES"
	VerdictFinalNo        Verdict = "FINAL_VERIFIED_NO"
)
