package allocator

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// Preference boosts added to an employee's score, capped at 1.0
const (
	PreferredShiftBoost = 0.3
	PreferredDayBoost   = 0.2

	// NeutralScore is the uniform score used when scoring is disabled
	NeutralScore = 0.5
)

// Scorer ranks employees for a candidate shift. Results must contain one score per employee.
type Scorer interface {
	ScoreAll(employees []model.Employee, shift model.CandidateShift, date time.Time) []model.AffinityScore
}

// AllocationConfig contains everything needed to allocate a date range
type AllocationConfig struct {
	// StartDate and EndDate bound the range to allocate (inclusive)
	StartDate time.Time
	EndDate   time.Time

	// Employees is the roster; inactive employees are ignored
	Employees []model.Employee

	// ShiftTemplates in the order they should be filled on each day; inactive templates are ignored
	ShiftTemplates []model.ShiftTemplate

	// TimeOff requests; approved requests covering a date remove the employee from that day's roster
	TimeOff []model.TimeOffRequest

	// Preferences used for ranking boosts
	Preferences []model.EmployeePreference

	// DepartmentIDs restricts both employees and templates (empty means all departments)
	DepartmentIDs []string

	// Scorer ranks candidates; nil uses neutral input order
	Scorer Scorer

	// Constraints gate each candidate, evaluated in order
	Constraints []Constraint

	// Overrides adjust templates on specific dates
	Overrides []TemplateOverride
}

// AllocationOutcome represents the result of an allocation run
type AllocationOutcome struct {
	Assignments []Assignment

	// UnassignedShiftCount is the number of required slots left unfilled
	UnassignedShiftCount int

	// TotalRequiredSlots is the sum of required headcount across every shift instance
	TotalRequiredSlots int

	// OptimizerScore is the fill ratio: assignments made / slots required (1.0 if none required)
	OptimizerScore float64

	// Warnings describe understaffed shifts and days without staff
	Warnings []string

	// Rejections contains the constraint violations that contributed to understaffing
	Rejections []*ConstraintViolation
}

// Allocate walks every date in the range and greedily fills each shift with the best-ranked
// eligible employees. Allocation is deterministic for a given config. An error is returned
// only for unrecoverable problems, in which case no outcome is produced.
func Allocate(config AllocationConfig) (outcome *AllocationOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = fmt.Errorf("allocation aborted: %v", r)
		}
	}()

	if config.StartDate.IsZero() || config.EndDate.IsZero() {
		return nil, fmt.Errorf("start and end dates are required")
	}
	if model.NormalizeDate(config.EndDate).Before(model.NormalizeDate(config.StartDate)) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			config.EndDate.Format(model.DateFormat), config.StartDate.Format(model.DateFormat))
	}

	templates := filterTemplates(config.ShiftTemplates, config.DepartmentIDs)
	employees := filterEmployees(config.Employees, config.DepartmentIDs)

	run := NewRunContext()
	outcome = &AllocationOutcome{
		Assignments: make([]Assignment, 0),
		Warnings:    make([]string, 0),
		Rejections:  make([]*ConstraintViolation, 0),
	}

	for _, date := range model.DatesInRange(config.StartDate, config.EndDate) {
		dayTemplates := templatesForDate(templates, config.Overrides, date)
		if len(dayTemplates) == 0 {
			continue
		}

		roster := rosterForDate(employees, config.TimeOff, date)

		if len(roster) == 0 {
			required := 0
			for _, t := range dayTemplates {
				required += t.RequiredHeadcount
			}
			outcome.TotalRequiredSlots += required
			outcome.UnassignedShiftCount += required
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("No available employees for %s", date.Format(model.DateFormat)))
			continue
		}

		for _, template := range dayTemplates {
			if err := fillShift(run, config, roster, template, date, outcome); err != nil {
				return nil, err
			}
		}
	}

	outcome.OptimizerScore = 1.0
	if outcome.TotalRequiredSlots > 0 {
		outcome.OptimizerScore = float64(len(outcome.Assignments)) / float64(outcome.TotalRequiredSlots)
	}

	return outcome, nil
}

// fillShift assigns up to the template's required headcount for one date
func fillShift(run *RunContext, config AllocationConfig, roster []model.Employee, template model.ShiftTemplate, date time.Time, outcome *AllocationOutcome) error {
	required := template.RequiredHeadcount
	outcome.TotalRequiredSlots += required

	candidates, err := RankCandidates(config.Scorer, roster, template, date, config.Preferences)
	if err != nil {
		return err
	}

	assigned := 0
	rejections := make([]*ConstraintViolation, 0)
	for _, candidate := range candidates {
		if assigned >= required {
			break
		}

		if v := CheckEligibility(run, config.Constraints, candidate.Employee, template, date); v != nil {
			rejections = append(rejections, v)
			continue
		}

		outcome.Assignments = append(outcome.Assignments, Assignment{
			EmployeeID:      candidate.Employee.ID,
			ShiftTemplateID: template.ID,
			ShiftDate:       date,
			StartTime:       template.StartTime,
			EndTime:         template.EndTime,
			Hours:           template.DurationHours,
			Score:           candidate.Score,
		})
		run.Record(candidate.Employee.ID, date, template.DurationHours)
		assigned++
	}

	if assigned < required {
		outcome.UnassignedShiftCount += required - assigned
		outcome.Rejections = append(outcome.Rejections, rejections...)
		outcome.Warnings = append(outcome.Warnings, shortfallWarning(template, date, assigned, required, rejections))
	}

	return nil
}

// RankCandidates orders the roster for a shift: model scores (or neutral input order when
// scorer is nil) plus preference boosts, sorted descending with ties in roster order.
func RankCandidates(scorer Scorer, roster []model.Employee, template model.ShiftTemplate, date time.Time, preferences []model.EmployeePreference) ([]RankedCandidate, error) {
	candidates := make([]RankedCandidate, 0, len(roster))

	if scorer == nil {
		for _, employee := range roster {
			candidates = append(candidates, RankedCandidate{Employee: employee, Score: NeutralScore})
		}
		return candidates, nil
	}

	byID := make(map[string]int, len(roster))
	for i, employee := range roster {
		byID[employee.ID] = i
	}

	scores := scorer.ScoreAll(roster, template.CandidateShift(), date)
	if len(scores) != len(roster) {
		return nil, fmt.Errorf("scorer returned %d scores for %d employees", len(scores), len(roster))
	}

	// Re-key scores to roster order so the stable sort breaks ties by input order
	ordered := make([]*model.AffinityScore, len(roster))
	for i := range scores {
		idx, ok := byID[scores[i].EmployeeID]
		if !ok || ordered[idx] != nil {
			return nil, fmt.Errorf("scorer returned unexpected score for employee %q", scores[i].EmployeeID)
		}
		ordered[idx] = &scores[i]
	}

	preferredShift, preferredDay := preferenceBoosts(preferences, template, date)
	for i, employee := range roster {
		score := ordered[i].PreferenceScore
		if preferredShift[employee.ID] {
			score = min(1.0, score+PreferredShiftBoost)
		}
		if preferredDay[employee.ID] {
			score = min(1.0, score+PreferredDayBoost)
		}
		candidates = append(candidates, RankedCandidate{Employee: employee, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates, nil
}

// preferenceBoosts returns the employees with a preferred_shift match for the template
// and those with a preferred_days match for the date
func preferenceBoosts(preferences []model.EmployeePreference, template model.ShiftTemplate, date time.Time) (shifts, days map[string]bool) {
	day := model.DayIndex(date)
	shifts = make(map[string]bool)
	days = make(map[string]bool)

	for _, p := range preferences {
		if !p.AppliesOn(date) {
			continue
		}
		switch p.Type {
		case model.PreferredShift:
			if p.ShiftTemplateID != "" && p.ShiftTemplateID == template.ID {
				shifts[p.EmployeeID] = true
			}
		case model.PreferredDays:
			if p.DayOfWeek != nil && *p.DayOfWeek == day {
				days[p.EmployeeID] = true
			}
		}
	}
	return shifts, days
}

func shortfallWarning(template model.ShiftTemplate, date time.Time, assigned, required int, rejections []*ConstraintViolation) string {
	name := template.Name
	if name == "" {
		name = template.ID
	}
	msg := fmt.Sprintf("Could only assign %d/%d employees for %s on %s",
		assigned, required, name, date.Format(model.DateFormat))

	if len(rejections) == 0 {
		return msg
	}

	reasons := make([]string, 0, len(rejections))
	for _, v := range rejections {
		reasons = append(reasons, fmt.Sprintf("%s: %s", v.EmployeeID, v.Reason))
	}
	return msg + " (rejected " + strings.Join(reasons, "; ") + ")"
}

// templatesForDate returns the active templates for the date's weekday in input order
// with overrides applied
func templatesForDate(templates []model.ShiftTemplate, overrides []TemplateOverride, date time.Time) []model.ShiftTemplate {
	day := model.DayIndex(date)
	result := make([]model.ShiftTemplate, 0)

	for _, t := range templates {
		if t.DayOfWeek != day {
			continue
		}
		if t.RequiredHeadcount <= 0 {
			t.RequiredHeadcount = 1
		}

		closed := false
		for _, o := range overrides {
			if !o.matches(t.ID, date) {
				continue
			}
			if o.Closed {
				closed = true
				break
			}
			if o.RequiredHeadcount != nil {
				t.RequiredHeadcount = *o.RequiredHeadcount
			}
		}
		// An explicit headcount of zero needs nobody on the date
		if closed || t.RequiredHeadcount <= 0 {
			continue
		}
		result = append(result, t)
	}

	return result
}

// rosterForDate returns the employees without approved time-off covering the date, in input order
func rosterForDate(employees []model.Employee, timeOff []model.TimeOffRequest, date time.Time) []model.Employee {
	away := make(map[string]bool)
	for _, r := range timeOff {
		if r.Covers(date) {
			away[r.EmployeeID] = true
		}
	}

	roster := make([]model.Employee, 0, len(employees))
	for _, e := range employees {
		if !away[e.ID] {
			roster = append(roster, e)
		}
	}
	return roster
}

func filterEmployees(employees []model.Employee, departmentIDs []string) []model.Employee {
	result := make([]model.Employee, 0, len(employees))
	for _, e := range employees {
		if e.IsActive && inDepartments(e.DepartmentID, departmentIDs) {
			result = append(result, e)
		}
	}
	return result
}

func filterTemplates(templates []model.ShiftTemplate, departmentIDs []string) []model.ShiftTemplate {
	result := make([]model.ShiftTemplate, 0, len(templates))
	for _, t := range templates {
		if t.IsActive && inDepartments(t.DepartmentID, departmentIDs) {
			result = append(result, t)
		}
	}
	return result
}

func inDepartments(departmentID string, departmentIDs []string) bool {
	return len(departmentIDs) == 0 || slices.Contains(departmentIDs, departmentID)
}
