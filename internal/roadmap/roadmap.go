// Package roadmap provides the quarter-timeline scheduler: item lifecycle,
// drag/resize date edits, bucket reordering, and the dependency DAG.
package roadmap

import (
	"errors"
	"fmt"
	"time"

	"github.com/compasshq/compass/internal/apperr"
	"github.com/compasshq/compass/internal/ids"
	"github.com/compasshq/compass/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Item statuses.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Sub-quarter placements. Presentational only: they shift horizontal
// rendering position within a quarter and never affect date invariants.
var SubQuarters = []string{"early", "mid", "late"}

// ValidTransitions maps each status to its valid next statuses. The special
// case "any non-terminal → cancelled" is handled in isValidTransition.
var ValidTransitions = map[string][]string{
	StatusPlanned:    {StatusInProgress},
	StatusInProgress: {StatusCompleted},
}

// CreateOpts holds parameters for creating a roadmap item.
type CreateOpts struct {
	CustomerID string
	Category   string
	Title      string
	StartDate  time.Time
	EndDate    time.Time
	SubQuarter string
}

// Create adds a planned item at the end of its (category, quarter) bucket.
func Create(db *gorm.DB, opts CreateOpts) (*models.RoadmapItem, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrValidation)
	}
	if opts.EndDate.Before(opts.StartDate) {
		return nil, fmt.Errorf("%w: end date %s is before start date %s",
			apperr.ErrInvalidRange, opts.EndDate.Format("2006-01-02"), opts.StartDate.Format("2006-01-02"))
	}
	if opts.SubQuarter == "" {
		opts.SubQuarter = "mid"
	}
	if !validSubQuarter(opts.SubQuarter) {
		return nil, fmt.Errorf("%w: sub-quarter %q, want early, mid, or late",
			apperr.ErrValidation, opts.SubQuarter)
	}

	var count int64
	if err := db.Model(&models.Customer{}).Where("id = ?", opts.CustomerID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("roadmap: check customer %s: %w", opts.CustomerID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: customer %s", apperr.ErrNotFound, opts.CustomerID)
	}

	id, err := ids.NewUnique(db, ids.RoadmapItem, &models.RoadmapItem{})
	if err != nil {
		return nil, err
	}

	item := models.RoadmapItem{
		ID:         id,
		CustomerID: opts.CustomerID,
		Category:   opts.Category,
		Title:      opts.Title,
		Status:     StatusPlanned,
		StartDate:  opts.StartDate,
		EndDate:    opts.EndDate,
		SubQuarter: opts.SubQuarter,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var siblings int64
		if err := bucketQuery(tx, item.CustomerID, item.Category, QuarterOf(item.StartDate)).
			Count(&siblings).Error; err != nil {
			return fmt.Errorf("roadmap: count bucket siblings: %w", err)
		}
		item.DisplayOrder = int(siblings)
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("roadmap: create item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Get retrieves an item with its dependency edges.
func Get(db *gorm.DB, id string) (*models.RoadmapItem, error) {
	var item models.RoadmapItem
	if err := db.Preload("Deps").Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: roadmap item %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("roadmap: get %s: %w", id, err)
	}
	return &item, nil
}

// List returns a customer's items ordered for timeline rendering.
func List(db *gorm.DB, customerID string) ([]models.RoadmapItem, error) {
	var items []models.RoadmapItem
	if err := db.Preload("Deps").
		Where("customer_id = ?", customerID).
		Order("category ASC, start_date ASC, display_order ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("roadmap: list for %s: %w", customerID, err)
	}
	return items, nil
}

// SetStatus transitions an item's status, validating against the state
// machine. Completed and cancelled are terminal.
func SetStatus(db *gorm.DB, id, newStatus string) error {
	item, err := Get(db, id)
	if err != nil {
		return err
	}
	if !isValidTransition(item.Status, newStatus) {
		return fmt.Errorf("%w: invalid status transition from %q to %q",
			apperr.ErrValidation, item.Status, newStatus)
	}

	updates := map[string]interface{}{"status": newStatus}
	if newStatus == StatusCompleted {
		updates["completed_at"] = time.Now()
	}
	if err := db.Model(&models.RoadmapItem{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("roadmap: set status of %s: %w", id, err)
	}
	return nil
}

// isValidTransition checks whether a status transition is allowed.
// Cancelled is reachable from any non-terminal status.
func isValidTransition(from, to string) bool {
	if to == StatusCancelled {
		return from != StatusCompleted && from != StatusCancelled
	}
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// SetSubQuarter updates the presentational sub-quarter placement.
func SetSubQuarter(db *gorm.DB, id, subQuarter string) error {
	if !validSubQuarter(subQuarter) {
		return fmt.Errorf("%w: sub-quarter %q, want early, mid, or late",
			apperr.ErrValidation, subQuarter)
	}
	result := db.Model(&models.RoadmapItem{}).Where("id = ?", id).
		Update("sub_quarter", subQuarter)
	if result.Error != nil {
		return fmt.Errorf("roadmap: set sub-quarter of %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: roadmap item %s", apperr.ErrNotFound, id)
	}
	return nil
}

func validSubQuarter(s string) bool {
	for _, v := range SubQuarters {
		if v == s {
			return true
		}
	}
	return false
}

// lockForUpdate adds a row lock on dialects that support it. SQLite has a
// single writer and no FOR UPDATE syntax; its transactions already
// serialize bucket and dependency edits.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// bucketQuery scopes a query to one (customer, category, quarter) bucket.
func bucketQuery(db *gorm.DB, customerID, category, quarter string) *gorm.DB {
	start, end := QuarterBounds(quarter)
	return db.Model(&models.RoadmapItem{}).
		Where("customer_id = ? AND category = ?", customerID, category).
		Where("start_date >= ? AND start_date < ?", start, end)
}
