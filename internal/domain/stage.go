// Package domain contains core domain types for the skillpath assessment service.
package domain

// Stage is the discrete phase of a conversation.
type Stage string

const (
	StageAskName          Stage = "ask_name"
	StageAskLocation      Stage = "ask_location"
	StageAskEducation     Stage = "ask_education"
	StageDomainSelection  Stage = "domain_selection"
	StageDomainEvaluation Stage = "domain_evaluation"
	StageResult           Stage = "result"
)

// stageOrder lists stages in their only legal forward order.
var stageOrder = []Stage{
	StageAskName,
	StageAskLocation,
	StageAskEducation,
	StageDomainSelection,
	StageDomainEvaluation,
	StageResult,
}

var stageNames = map[Stage]string{
	StageAskName:          "Name",
	StageAskLocation:      "Location",
	StageAskEducation:     "Education",
	StageDomainSelection:  "Domain Selection",
	StageDomainEvaluation: "Assessment",
	StageResult:           "Results",
}

// Name returns a human readable stage label.
func (s Stage) Name() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return string(s)
}

// Index returns the position of s in the stage order, or -1.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// IsPersonalInfo reports whether s collects a personal-info field.
func (s Stage) IsPersonalInfo() bool {
	return s == StageAskName || s == StageAskLocation || s == StageAskEducation
}

// CanTransition reports whether moving from s to next is allowed.
// Stages only move one step forward; the single exception is the
// RESULT -> DOMAIN_EVALUATION restart used by a confirmed domain switch.
func (s Stage) CanTransition(next Stage) bool {
	if s == StageResult && next == StageDomainEvaluation {
		return true
	}
	from, to := s.Index(), next.Index()
	if from < 0 || to < 0 {
		return false
	}
	return to == from+1 || (s == StageDomainEvaluation && next == StageDomainEvaluation)
}
