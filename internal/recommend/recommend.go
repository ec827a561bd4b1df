// Package recommend turns assessment gaps into recommendations and accepted
// recommendations into roadmap items.
package recommend

import (
	"errors"
	"fmt"
	"time"

	"github.com/compasshq/compass/internal/apperr"
	"github.com/compasshq/compass/internal/assessment"
	"github.com/compasshq/compass/internal/flowgraph"
	"github.com/compasshq/compass/internal/ids"
	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/roadmap"
	"github.com/compasshq/compass/internal/scoring"
	"github.com/compasshq/compass/internal/template"
	"gorm.io/gorm"
)

// Recommendation statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusDismissed  = "dismissed"
)

// Sources.
const (
	SourceCustom = "custom"
	SourceGap    = "gap"
)

// validTransitions maps recommendation statuses to allowed next statuses.
var validTransitions = map[string][]string{
	StatusOpen:       {StatusInProgress, StatusCompleted, StatusDismissed},
	StatusInProgress: {StatusCompleted, StatusDismissed},
}

// Generate creates gap-sourced recommendations for an assessment: one per
// use case mapped from a weak dimension. Priority follows gap size (≥1.5
// high, ≥0.5 medium, else low). Generation is idempotent per (assessment,
// use case); re-running after new mappings only adds the new ones.
func Generate(db *gorm.DB, assessmentID string, threshold float64) ([]models.Recommendation, error) {
	asm, err := assessment.Get(db, assessmentID)
	if err != nil {
		return nil, err
	}
	tpl, err := template.Get(db, asm.TemplateID)
	if err != nil {
		return nil, err
	}

	dimScores := scoring.DimensionScores(tpl, asm.Answers)
	weak := flowgraph.WeakDimensions(dimScores, threshold)
	if len(weak) == 0 {
		return nil, nil
	}

	var mappings []models.DimensionUseCase
	if err := db.Preload("UseCase").
		Where("dimension_id IN ?", weak).
		Order("dimension_id ASC, use_case_id ASC").
		Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("recommend: load mappings: %w", err)
	}

	dimByID := make(map[uint]models.Dimension, len(tpl.Dimensions))
	for _, d := range tpl.Dimensions {
		dimByID[d.ID] = d
	}

	existing := make(map[string]bool)
	var prior []models.Recommendation
	if err := db.Where("assessment_id = ? AND source = ?", assessmentID, SourceGap).
		Find(&prior).Error; err != nil {
		return nil, fmt.Errorf("recommend: load existing: %w", err)
	}
	for _, r := range prior {
		if r.UseCaseID != nil {
			existing[*r.UseCaseID] = true
		}
	}

	var created []models.Recommendation
	for _, m := range mappings {
		if existing[m.UseCaseID] {
			continue
		}
		existing[m.UseCaseID] = true

		dim := dimByID[m.DimensionID]
		gap := threshold - *dimScores[m.DimensionID]

		id, err := ids.NewUnique(db, ids.Recommendation, &models.Recommendation{})
		if err != nil {
			return nil, err
		}
		ucID := m.UseCaseID
		rec := models.Recommendation{
			ID:           id,
			AssessmentID: assessmentID,
			UseCaseID:    &ucID,
			Title:        m.UseCase.Name,
			Description: fmt.Sprintf("Close the %s gap (score %.1f, threshold %.1f) by adopting %s.",
				dim.Name, scoring.Round1(*dimScores[m.DimensionID]), threshold, m.UseCase.Name),
			Priority: priorityForGap(gap),
			Status:   StatusOpen,
			Category: m.UseCase.Category,
			Source:   SourceGap,
		}
		if err := db.Create(&rec).Error; err != nil {
			return nil, fmt.Errorf("recommend: create for use case %s: %w", m.UseCaseID, err)
		}
		created = append(created, rec)
	}
	return created, nil
}

// priorityForGap buckets a gap into a priority.
func priorityForGap(gap float64) string {
	switch {
	case gap >= 1.5:
		return "high"
	case gap >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

// Accept creates a planned roadmap item from a recommendation in the given
// quarter and links the two. Already-accepted and dismissed recommendations
// are rejected.
func Accept(db *gorm.DB, recommendationID, quarter string) (*models.RoadmapItem, error) {
	if err := roadmap.ParseQuarter(quarter); err != nil {
		return nil, err
	}

	var rec models.Recommendation
	if err := db.Where("id = ?", recommendationID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: recommendation %s", apperr.ErrNotFound, recommendationID)
		}
		return nil, fmt.Errorf("recommend: get %s: %w", recommendationID, err)
	}
	if rec.RoadmapItemID != nil {
		return nil, fmt.Errorf("%w: recommendation %s is already accepted into item %s",
			apperr.ErrConflict, rec.ID, *rec.RoadmapItemID)
	}
	if rec.Status == StatusDismissed {
		return nil, fmt.Errorf("%w: recommendation %s is dismissed", apperr.ErrConflict, rec.ID)
	}

	asm, err := assessment.Get(db, rec.AssessmentID)
	if err != nil {
		return nil, err
	}

	start, end := roadmap.QuarterBounds(quarter)
	item, err := roadmap.Create(db, roadmap.CreateOpts{
		CustomerID: asm.CustomerID,
		Category:   rec.Category,
		Title:      rec.Title,
		StartDate:  start,
		EndDate:    end.AddDate(0, 0, -1),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Model(&models.Recommendation{}).Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"roadmap_item_id": item.ID,
			"status":          StatusInProgress,
			"updated_at":      time.Now(),
		}).Error; err != nil {
		return nil, fmt.Errorf("recommend: link %s to item %s: %w", rec.ID, item.ID, err)
	}
	return item, nil
}

// SetStatus transitions a recommendation's status.
func SetStatus(db *gorm.DB, id, newStatus string) error {
	var rec models.Recommendation
	if err := db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: recommendation %s", apperr.ErrNotFound, id)
		}
		return fmt.Errorf("recommend: get %s: %w", id, err)
	}

	allowed := false
	for _, v := range validTransitions[rec.Status] {
		if v == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: invalid status transition from %q to %q",
			apperr.ErrValidation, rec.Status, newStatus)
	}

	if err := db.Model(&models.Recommendation{}).Where("id = ?", id).
		Update("status", newStatus).Error; err != nil {
		return fmt.Errorf("recommend: set status of %s: %w", id, err)
	}
	return nil
}
