package model

import "fmt"

// ScheduleStatus is the lifecycle state of a schedule generation run
type ScheduleStatus string

const (
	ScheduleDraft      ScheduleStatus = "draft"
	ScheduleGenerating ScheduleStatus = "generating"
	ScheduleGenerated  ScheduleStatus = "generated"
	ScheduleFailed     ScheduleStatus = "failed"
)

// allowedTransitions lists the states reachable from each state during generation
var allowedTransitions = map[ScheduleStatus][]ScheduleStatus{
	ScheduleDraft:      {ScheduleGenerating, ScheduleFailed},
	ScheduleGenerating: {ScheduleGenerated, ScheduleFailed},
}

// IsTerminal returns true for states that end a generation run
func (s ScheduleStatus) IsTerminal() bool {
	return s == ScheduleGenerated || s == ScheduleFailed
}

// CanTransitionTo returns true if moving from s to next is allowed
func (s ScheduleStatus) CanTransitionTo(next ScheduleStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates and returns the next status
func (s ScheduleStatus) Transition(next ScheduleStatus) (ScheduleStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("invalid schedule status transition from %s to %s", s, next)
	}
	return next, nil
}
