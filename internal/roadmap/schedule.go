package roadmap

import (
	"fmt"
	"time"

	"github.com/compasshq/compass/internal/apperr"
	"github.com/compasshq/compass/internal/models"
	"gorm.io/gorm"
)

// Resize edges.
const (
	EdgeStart = "start"
	EdgeEnd   = "end"
)

// minDuration is the smallest span an item may be resized to.
const minDuration = 24 * time.Hour

// Resize moves one edge of an item's date range, keeping the other edge
// fixed. A resize that would put the end before the start (or below the
// one-day minimum) is rejected and the stored dates are left untouched.
func Resize(db *gorm.DB, id, edge string, newDate time.Time) (*models.RoadmapItem, error) {
	item, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	start, end := item.StartDate, item.EndDate
	switch edge {
	case EdgeStart:
		start = newDate
	case EdgeEnd:
		end = newDate
	default:
		return nil, fmt.Errorf("%w: resize edge %q, want start or end", apperr.ErrValidation, edge)
	}

	if end.Sub(start) < minDuration {
		return nil, fmt.Errorf("%w: resize of %s would give end %s before start %s (minimum one day)",
			apperr.ErrInvalidRange, id, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	if err := db.Model(&models.RoadmapItem{}).Where("id = ?", id).
		Updates(map[string]interface{}{"start_date": start, "end_date": end}).Error; err != nil {
		return nil, fmt.Errorf("roadmap: resize %s: %w", id, err)
	}
	item.StartDate, item.EndDate = start, end
	return item, nil
}

// Move translates both dates of an item by the same offset, preserving its
// duration. An item that crosses into a different quarter is appended to the
// end of its destination bucket so its old display order cannot collide with
// a sibling already holding that slot.
func Move(db *gorm.DB, id string, newStart time.Time) (*models.RoadmapItem, error) {
	item, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	duration := item.EndDate.Sub(item.StartDate)
	newEnd := newStart.Add(duration)

	updates := map[string]interface{}{"start_date": newStart, "end_date": newEnd}
	err = db.Transaction(func(tx *gorm.DB) error {
		if QuarterOf(newStart) != QuarterOf(item.StartDate) {
			var siblings int64
			if err := lockForUpdate(bucketQuery(tx, item.CustomerID, item.Category, QuarterOf(newStart))).
				Count(&siblings).Error; err != nil {
				return fmt.Errorf("roadmap: count bucket %s/%s: %w", item.Category, QuarterOf(newStart), err)
			}
			updates["display_order"] = int(siblings)
		}
		if err := tx.Model(&models.RoadmapItem{}).Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("roadmap: move %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	item.StartDate, item.EndDate = newStart, newEnd
	if order, ok := updates["display_order"]; ok {
		item.DisplayOrder = order.(int)
	}
	return item, nil
}

// SetRange replaces both dates at once, validating the pair together.
func SetRange(db *gorm.DB, id string, start, end time.Time) (*models.RoadmapItem, error) {
	item, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if end.Sub(start) < minDuration {
		return nil, fmt.Errorf("%w: end %s before start %s (minimum one day)",
			apperr.ErrInvalidRange, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if err := db.Model(&models.RoadmapItem{}).Where("id = ?", id).
		Updates(map[string]interface{}{"start_date": start, "end_date": end}).Error; err != nil {
		return nil, fmt.Errorf("roadmap: set range of %s: %w", id, err)
	}
	item.StartDate, item.EndDate = start, end
	return item, nil
}

// Reorder moves an item to a new vertical position within a (category,
// quarter) bucket, renumbering all siblings so display orders stay
// contiguous from zero with no gaps or duplicates. The whole renumber runs
// in one transaction, serializing concurrent reorders on the bucket.
func Reorder(db *gorm.DB, id string, newOrder int, category, quarter string) error {
	if err := ParseQuarter(quarter); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		item, err := Get(tx, id)
		if err != nil {
			return err
		}

		// Lock the bucket rows so two concurrent reorders on the same
		// bucket cannot both renumber from the same stale sibling list.
		var siblings []models.RoadmapItem
		if err := lockForUpdate(bucketQuery(tx, item.CustomerID, category, quarter)).
			Order("display_order ASC, id ASC").
			Find(&siblings).Error; err != nil {
			return fmt.Errorf("roadmap: load bucket %s/%s: %w", category, quarter, err)
		}

		// Pull the item out of the current sequence and splice it back in
		// at the requested position.
		ordered := make([]models.RoadmapItem, 0, len(siblings)+1)
		for _, s := range siblings {
			if s.ID != item.ID {
				ordered = append(ordered, s)
			}
		}
		if newOrder < 0 {
			newOrder = 0
		}
		if newOrder > len(ordered) {
			newOrder = len(ordered)
		}
		ordered = append(ordered[:newOrder], append([]models.RoadmapItem{*item}, ordered[newOrder:]...)...)

		for i, s := range ordered {
			if s.DisplayOrder == i && s.ID != item.ID {
				continue
			}
			if err := tx.Model(&models.RoadmapItem{}).Where("id = ?", s.ID).
				Update("display_order", i).Error; err != nil {
				return fmt.Errorf("roadmap: renumber %s: %w", s.ID, err)
			}
		}
		return nil
	})
}
