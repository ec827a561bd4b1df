// Package template provides the versioned assessment-template lifecycle:
// cloning, question edits, promotion, and the audit trail.
package template

import (
	"errors"
	"fmt"

	"github.com/compasshq/compass/internal/apperr"
	"github.com/compasshq/compass/internal/ids"
	"github.com/compasshq/compass/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Template statuses.
const (
	StatusDraft      = "draft"
	StatusActive     = "active"
	StatusSuperseded = "superseded"
)

// QuestionPatch holds optional edits to a question. Nil fields are left
// unchanged.
type QuestionPatch struct {
	Text     *string
	Position *int
	Required *bool
}

// QuestionOpts holds parameters for adding a question.
type QuestionOpts struct {
	Text     string
	Position int
	Required bool
	Rubric   []RubricOpts
}

// RubricOpts is one rubric level for a new question.
type RubricOpts struct {
	Value       int
	Label       string
	Description string
	Evidence    string
}

// Get retrieves a template with its dimensions, questions, and rubrics.
func Get(db *gorm.DB, id string) (*models.AssessmentTemplate, error) {
	var tpl models.AssessmentTemplate
	err := db.Preload("Dimensions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Preload("Dimensions.Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Preload("Dimensions.Questions.Rubric", func(db *gorm.DB) *gorm.DB {
		return db.Order("value ASC")
	}).Where("id = ?", id).First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: template %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("template: get %s: %w", id, err)
	}
	return &tpl, nil
}

// List returns templates for a framework (all frameworks when empty),
// newest first.
func List(db *gorm.DB, framework string) ([]models.AssessmentTemplate, error) {
	q := db.Model(&models.AssessmentTemplate{})
	if framework != "" {
		q = q.Where("framework = ?", framework)
	}
	var tpls []models.AssessmentTemplate
	if err := q.Order("framework ASC, created_at DESC").Find(&tpls).Error; err != nil {
		return nil, fmt.Errorf("template: list: %w", err)
	}
	return tpls, nil
}

// Active returns the active template for a framework.
func Active(db *gorm.DB, framework string) (*models.AssessmentTemplate, error) {
	var tpl models.AssessmentTemplate
	err := db.Where("framework = ? AND status = ?", framework, StatusActive).First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active template for framework %s", apperr.ErrNotFound, framework)
		}
		return nil, fmt.Errorf("template: active for %s: %w", framework, err)
	}
	return &tpl, nil
}

// CloneAsDraft deep-copies a template's dimensions, questions, and rubrics
// into a new draft at the given version. The version string must be unused
// within the source's framework.
func CloneAsDraft(db *gorm.DB, sourceID, newVersion, actor string) (*models.AssessmentTemplate, error) {
	source, err := Get(db, sourceID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.AssessmentTemplate{}).
		Where("framework = ? AND version = ?", source.Framework, newVersion).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("template: check version %s: %w", newVersion, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: version %s already exists for framework %s",
			apperr.ErrDuplicateVersion, newVersion, source.Framework)
	}

	id, err := ids.NewUnique(db, ids.Template, &models.AssessmentTemplate{})
	if err != nil {
		return nil, err
	}

	draft := models.AssessmentTemplate{
		ID:        id,
		Framework: source.Framework,
		Version:   newVersion,
		Status:    StatusDraft,
		SourceID:  &source.ID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&draft).Error; err != nil {
			return fmt.Errorf("template: create draft: %w", err)
		}
		for _, dim := range source.Dimensions {
			newDim := models.Dimension{
				TemplateID: draft.ID,
				Name:       dim.Name,
				Position:   dim.Position,
				Weight:     dim.Weight,
			}
			if err := tx.Create(&newDim).Error; err != nil {
				return fmt.Errorf("template: copy dimension %q: %w", dim.Name, err)
			}
			for _, q := range dim.Questions {
				newQ := models.Question{
					DimensionID: newDim.ID,
					Text:        q.Text,
					Position:    q.Position,
					Required:    q.Required,
				}
				if err := tx.Create(&newQ).Error; err != nil {
					return fmt.Errorf("template: copy question: %w", err)
				}
				for _, r := range q.Rubric {
					newR := models.RubricLevel{
						QuestionID:  newQ.ID,
						Value:       r.Value,
						Label:       r.Label,
						Description: r.Description,
						Evidence:    r.Evidence,
					}
					if err := tx.Create(&newR).Error; err != nil {
						return fmt.Errorf("template: copy rubric level: %w", err)
					}
				}
			}
		}
		return appendAudit(tx, draft.ID, actor, "clone",
			fmt.Sprintf("cloned from %s as version %s", source.ID, newVersion))
	})
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// Promote transitions a draft template to active. The previously active
// template of the same framework, if any, is atomically superseded. Rows
// are locked for the duration so concurrent promotions have one winner.
func Promote(db *gorm.DB, templateID, actor string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var target models.AssessmentTemplate
		err := lockForUpdate(tx).Where("id = ?", templateID).First(&target).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: template %s", apperr.ErrNotFound, templateID)
			}
			return fmt.Errorf("template: get %s for promote: %w", templateID, err)
		}
		if target.Status == StatusActive {
			return fmt.Errorf("%w: template %s is already active", apperr.ErrConflict, templateID)
		}
		if target.Status != StatusDraft {
			return fmt.Errorf("%w: template %s is %s, only drafts can be promoted",
				apperr.ErrConflict, templateID, target.Status)
		}

		var current models.AssessmentTemplate
		err = lockForUpdate(tx).
			Where("framework = ? AND status = ?", target.Framework, StatusActive).
			First(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("template: find active for %s: %w", target.Framework, err)
		}
		if err == nil {
			if err := tx.Model(&models.AssessmentTemplate{}).Where("id = ?", current.ID).
				Update("status", StatusSuperseded).Error; err != nil {
				return fmt.Errorf("template: supersede %s: %w", current.ID, err)
			}
			if err := appendAudit(tx, current.ID, actor, "supersede",
				fmt.Sprintf("superseded by %s", target.ID)); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.AssessmentTemplate{}).Where("id = ?", target.ID).
			Update("status", StatusActive).Error; err != nil {
			return fmt.Errorf("template: activate %s: %w", target.ID, err)
		}
		return appendAudit(tx, target.ID, actor, "promote",
			fmt.Sprintf("version %s promoted to active", target.Version))
	})
}

// EditQuestion applies a patch to a question. Edits are always permitted;
// the returned flag is true when the owning template is active, so callers
// can surface an advisory warning.
func EditQuestion(db *gorm.DB, questionID uint, patch QuestionPatch, actor string) (activeWarning bool, err error) {
	var q models.Question
	if err := db.Where("id = ?", questionID).First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: question %d", apperr.ErrNotFound, questionID)
		}
		return false, fmt.Errorf("template: get question %d: %w", questionID, err)
	}

	tpl, err := templateOfDimension(db, q.DimensionID)
	if err != nil {
		return false, err
	}

	updates := make(map[string]interface{})
	if patch.Text != nil {
		updates["text"] = *patch.Text
	}
	if patch.Position != nil {
		updates["position"] = *patch.Position
	}
	if patch.Required != nil {
		updates["required"] = *patch.Required
	}
	if len(updates) == 0 {
		return tpl.Status == StatusActive, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Question{}).Where("id = ?", questionID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("template: edit question %d: %w", questionID, err)
		}
		return appendAudit(tx, tpl.ID, actor, "edit_question",
			fmt.Sprintf("question %d edited", questionID))
	})
	if err != nil {
		return false, err
	}
	return tpl.Status == StatusActive, nil
}

// AddQuestion appends a question (with its rubric) to a dimension.
// Structural edits are allowed on draft and active templates alike.
func AddQuestion(db *gorm.DB, dimensionID uint, opts QuestionOpts, actor string) (*models.Question, error) {
	if opts.Text == "" {
		return nil, fmt.Errorf("%w: question text is required", apperr.ErrValidation)
	}

	tpl, err := templateOfDimension(db, dimensionID)
	if err != nil {
		return nil, err
	}

	q := models.Question{
		DimensionID: dimensionID,
		Text:        opts.Text,
		Position:    opts.Position,
		Required:    opts.Required,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&q).Error; err != nil {
			return fmt.Errorf("template: add question: %w", err)
		}
		for _, r := range opts.Rubric {
			level := models.RubricLevel{
				QuestionID:  q.ID,
				Value:       r.Value,
				Label:       r.Label,
				Description: r.Description,
				Evidence:    r.Evidence,
			}
			if err := tx.Create(&level).Error; err != nil {
				return fmt.Errorf("template: add rubric level: %w", err)
			}
		}
		return appendAudit(tx, tpl.ID, actor, "add_question",
			fmt.Sprintf("question %d added to dimension %d", q.ID, dimensionID))
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// DeleteQuestion removes a question and its rubric levels.
func DeleteQuestion(db *gorm.DB, questionID uint, actor string) error {
	var q models.Question
	if err := db.Where("id = ?", questionID).First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: question %d", apperr.ErrNotFound, questionID)
		}
		return fmt.Errorf("template: get question %d: %w", questionID, err)
	}

	tpl, err := templateOfDimension(db, q.DimensionID)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&models.RubricLevel{}).Error; err != nil {
			return fmt.Errorf("template: delete rubric of question %d: %w", questionID, err)
		}
		if err := tx.Delete(&models.Question{}, questionID).Error; err != nil {
			return fmt.Errorf("template: delete question %d: %w", questionID, err)
		}
		return appendAudit(tx, tpl.ID, actor, "delete_question",
			fmt.Sprintf("question %d deleted from dimension %d", questionID, q.DimensionID))
	})
}

// AuditTrail returns the template's change records, oldest first.
func AuditTrail(db *gorm.DB, templateID string) ([]models.TemplateAudit, error) {
	var count int64
	if err := db.Model(&models.AssessmentTemplate{}).Where("id = ?", templateID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("template: check %s: %w", templateID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: template %s", apperr.ErrNotFound, templateID)
	}

	var entries []models.TemplateAudit
	if err := db.Where("template_id = ?", templateID).
		Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("template: audit trail of %s: %w", templateID, err)
	}
	return entries, nil
}

// lockForUpdate adds a row lock on dialects that support it. SQLite has a
// single writer and no FOR UPDATE syntax; its transactions already
// serialize promotions.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// appendAudit writes one immutable audit record.
func appendAudit(tx *gorm.DB, templateID, actor, action, detail string) error {
	entry := models.TemplateAudit{
		TemplateID: templateID,
		Actor:      actor,
		Action:     action,
		Detail:     detail,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("template: append audit for %s: %w", templateID, err)
	}
	return nil
}

// templateOfDimension resolves the template owning a dimension.
func templateOfDimension(db *gorm.DB, dimensionID uint) (*models.AssessmentTemplate, error) {
	var dim models.Dimension
	if err := db.Where("id = ?", dimensionID).First(&dim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dimension %d", apperr.ErrNotFound, dimensionID)
		}
		return nil, fmt.Errorf("template: get dimension %d: %w", dimensionID, err)
	}
	var tpl models.AssessmentTemplate
	if err := db.Where("id = ?", dim.TemplateID).First(&tpl).Error; err != nil {
		return nil, fmt.Errorf("template: get template of dimension %d: %w", dimensionID, err)
	}
	return &tpl, nil
}
