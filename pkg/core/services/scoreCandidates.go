package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/pkg/core/inference"
	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/db"
)

// ScoreCandidatesStore defines the database operations needed to score candidates
type ScoreCandidatesStore interface {
	db.RosterStore
	inference.RunSource
}

// ScoreCandidatesResult holds the ranked candidates for one shift instance
type ScoreCandidatesResult struct {
	Template model.ShiftTemplate
	Date     time.Time

	// Scores are ordered by descending preference score, ties in roster order
	Scores []model.AffinityScore

	// Employees indexes the scored employees by ID
	Employees map[string]model.Employee

	ModelLoaded bool
	ModelInfo   *inference.ModelInfo
	Warnings    []string
}

// ScoreCandidates ranks the active employees of the template's department for a date.
// Without a usable model every employee gets the neutral score in roster order.
func ScoreCandidates(
	ctx context.Context,
	store ScoreCandidatesStore,
	artifacts inference.ArtifactLoader,
	templateID string,
	date time.Time,
	modelType string,
	logger *zap.Logger,
) (*ScoreCandidatesResult, error) {
	if modelType == "" {
		modelType = DefaultModelType
	}
	date = model.NormalizeDate(date)

	templates, err := store.GetActiveShiftTemplates(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift templates: %w", err)
	}
	var template *model.ShiftTemplate
	for i := range templates {
		if templates[i].ID == templateID {
			template = &templates[i]
			break
		}
	}
	if template == nil {
		return nil, fmt.Errorf("active shift template not found: %s", templateID)
	}

	employees, err := store.GetActiveEmployees(ctx, []string{template.DepartmentID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}

	result := &ScoreCandidatesResult{
		Template:  *template,
		Date:      date,
		Scores:    []model.AffinityScore{},
		Employees: make(map[string]model.Employee, len(employees)),
		Warnings:  []string{},
	}
	for _, e := range employees {
		result.Employees[e.ID] = e
	}

	scorer := inference.NewScorer(store, artifacts, logger)
	if err := scorer.Load(ctx, modelType); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Preference model unavailable, scores are neutral: %v", err))
		logger.Warn("Preference model unavailable", zap.String("model_type", modelType), zap.Error(err))
	} else {
		result.ModelLoaded = true
		result.ModelInfo = scorer.ModelInfo()
	}

	if len(employees) == 0 {
		logger.Info("No active employees to score", zap.String("department_id", template.DepartmentID))
		return result, nil
	}

	result.Scores = scorer.ScoreAll(employees, template.CandidateShift(), date)

	logger.Debug("Scored candidates",
		zap.String("shift_template_id", template.ID),
		zap.Time("date", date),
		zap.Int("candidates", len(result.Scores)),
		zap.Bool("model_loaded", result.ModelLoaded))

	return result, nil
}
