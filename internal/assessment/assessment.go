// Package assessment manages assessment response instances: starting one
// against the active template, recording answers, and completion.
package assessment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/compasshq/compass/internal/apperr"
	"github.com/compasshq/compass/internal/ids"
	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/template"
	"gorm.io/gorm"
)

// Assessment statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// StartOpts holds parameters for starting an assessment.
type StartOpts struct {
	CustomerID string
	TemplateID string // empty selects the framework's active template
	Framework  string // used when TemplateID is empty
	Assessor   string
}

// Start creates an in-progress assessment pinned to a template version,
// with one empty answer row per question. The template reference never
// follows later template edits.
func Start(db *gorm.DB, opts StartOpts) (*models.Assessment, error) {
	var customer models.Customer
	if err := db.Where("id = ?", opts.CustomerID).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %s", apperr.ErrNotFound, opts.CustomerID)
		}
		return nil, fmt.Errorf("assessment: get customer %s: %w", opts.CustomerID, err)
	}

	templateID := opts.TemplateID
	if templateID == "" {
		active, err := template.Active(db, opts.Framework)
		if err != nil {
			return nil, err
		}
		templateID = active.ID
	}

	tpl, err := template.Get(db, templateID)
	if err != nil {
		return nil, err
	}

	id, err := ids.NewUnique(db, ids.Assessment, &models.Assessment{})
	if err != nil {
		return nil, err
	}

	asm := models.Assessment{
		ID:         id,
		CustomerID: customer.ID,
		TemplateID: tpl.ID,
		Status:     StatusInProgress,
		Assessor:   opts.Assessor,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&asm).Error; err != nil {
			return fmt.Errorf("assessment: create: %w", err)
		}
		for _, dim := range tpl.Dimensions {
			for _, q := range dim.Questions {
				answer := models.Answer{AssessmentID: asm.ID, QuestionID: q.ID}
				if err := tx.Create(&answer).Error; err != nil {
					return fmt.Errorf("assessment: create answer row for question %d: %w", q.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &asm, nil
}

// Get retrieves an assessment with its answers.
func Get(db *gorm.DB, id string) (*models.Assessment, error) {
	var asm models.Assessment
	err := db.Preload("Answers").Preload("Recommendations").
		Where("id = ?", id).First(&asm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: assessment %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("assessment: get %s: %w", id, err)
	}
	return &asm, nil
}

// AnswerOpts holds a question response.
type AnswerOpts struct {
	Score    int
	Notes    string
	Evidence string
}

// SetAnswer records a response for a question. The score must match one of
// the question's rubric values. Completed assessments reject answer edits.
func SetAnswer(db *gorm.DB, assessmentID string, questionID uint, opts AnswerOpts) error {
	asm, err := Get(db, assessmentID)
	if err != nil {
		return err
	}
	if asm.Status == StatusCompleted {
		return fmt.Errorf("%w: assessment %s is completed and immutable", apperr.ErrConflict, assessmentID)
	}

	var levels []models.RubricLevel
	if err := db.Where("question_id = ?", questionID).Find(&levels).Error; err != nil {
		return fmt.Errorf("assessment: load rubric of question %d: %w", questionID, err)
	}
	valid := false
	for _, l := range levels {
		if l.Value == opts.Score {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: score %d is not a rubric value of question %d",
			apperr.ErrValidation, opts.Score, questionID)
	}

	result := db.Model(&models.Answer{}).
		Where("assessment_id = ? AND question_id = ?", assessmentID, questionID).
		Updates(map[string]interface{}{
			"score":    opts.Score,
			"notes":    opts.Notes,
			"evidence": opts.Evidence,
		})
	if result.Error != nil {
		return fmt.Errorf("assessment: set answer for question %d: %w", questionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: question %d is not part of assessment %s",
			apperr.ErrNotFound, questionID, assessmentID)
	}
	return nil
}

// Complete marks an assessment completed. Every required question must be
// answered; violations list the missing questions. Once completed the
// assessment is immutable except for appended recommendations.
func Complete(db *gorm.DB, assessmentID string) error {
	asm, err := Get(db, assessmentID)
	if err != nil {
		return err
	}
	if asm.Status == StatusCompleted {
		return fmt.Errorf("%w: assessment %s is already completed", apperr.ErrConflict, assessmentID)
	}

	tpl, err := template.Get(db, asm.TemplateID)
	if err != nil {
		return err
	}

	answered := make(map[uint]bool, len(asm.Answers))
	for _, a := range asm.Answers {
		if a.Score != nil {
			answered[a.QuestionID] = true
		}
	}

	var missing []string
	for _, dim := range tpl.Dimensions {
		for _, q := range dim.Questions {
			if q.Required && !answered[q.ID] {
				missing = append(missing, fmt.Sprintf("%d (%s)", q.ID, dim.Name))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required questions unanswered: %s",
			apperr.ErrValidation, strings.Join(missing, ", "))
	}

	now := time.Now()
	if err := db.Model(&models.Assessment{}).Where("id = ?", assessmentID).
		Updates(map[string]interface{}{
			"status":       StatusCompleted,
			"completed_at": now,
		}).Error; err != nil {
		return fmt.Errorf("assessment: complete %s: %w", assessmentID, err)
	}
	return nil
}

// LatestCompleted returns a customer's most recent completed assessment
// for a framework, or ErrNotFound.
func LatestCompleted(db *gorm.DB, customerID, framework string) (*models.Assessment, error) {
	var asm models.Assessment
	err := db.Joins("JOIN assessment_templates ON assessment_templates.id = assessments.template_id").
		Where("assessments.customer_id = ? AND assessments.status = ?", customerID, StatusCompleted).
		Where("assessment_templates.framework = ?", framework).
		Order("assessments.completed_at DESC").
		Preload("Answers").
		First(&asm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no completed %s assessment for customer %s",
				apperr.ErrNotFound, framework, customerID)
		}
		return nil, fmt.Errorf("assessment: latest completed for %s: %w", customerID, err)
	}
	return &asm, nil
}
