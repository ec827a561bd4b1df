package roadmap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/compasshq/compass/internal/apperr"
	"github.com/compasshq/compass/internal/models"
	"gorm.io/gorm"
)

// AddDep records that itemID depends on dependsOn. Both items must exist,
// self-dependencies are rejected, and edges that would close a cycle are
// rejected with the item that closes it named in the error. The check and
// insert run in one transaction so concurrent edits cannot sneak a cycle in.
func AddDep(db *gorm.DB, itemID, dependsOn string) error {
	if itemID == dependsOn {
		return fmt.Errorf("%w: item %s cannot depend on itself", apperr.ErrCycle, itemID)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		// Lock both endpoint rows before the cycle check so two concurrent
		// inserts of opposing edges cannot each pass it against a snapshot
		// that misses the other. Sorted lock order avoids deadlocking the
		// mirror-image insert.
		endpoints := []string{itemID, dependsOn}
		sort.Strings(endpoints)
		for _, id := range endpoints {
			var item models.RoadmapItem
			if err := lockForUpdate(tx).Where("id = ?", id).First(&item).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: roadmap item %s", apperr.ErrNotFound, id)
				}
				return fmt.Errorf("roadmap: check item %s: %w", id, err)
			}
		}

		// Cycle detection: the edge closes a cycle iff itemID is already
		// reachable from dependsOn along existing depends-on edges.
		visited := make(map[string]bool)
		if reachable(tx, dependsOn, itemID, visited) {
			return fmt.Errorf("%w: %s already depends on %s (directly or transitively)",
				apperr.ErrCycle, dependsOn, itemID)
		}

		dep := models.RoadmapDep{ItemID: itemID, DependsOn: dependsOn}
		if err := tx.Create(&dep).Error; err != nil {
			return fmt.Errorf("roadmap: create dependency %s → %s: %w", itemID, dependsOn, err)
		}
		return nil
	})
}

// RemoveDep deletes a dependency edge. Removal is idempotent: deleting an
// edge that does not exist is not an error.
func RemoveDep(db *gorm.DB, itemID, dependsOn string) error {
	if err := db.Where("item_id = ? AND depends_on = ?", itemID, dependsOn).
		Delete(&models.RoadmapDep{}).Error; err != nil {
		return fmt.Errorf("roadmap: remove dependency %s → %s: %w", itemID, dependsOn, err)
	}
	return nil
}

// ListDeps returns the items this item depends on, and the items that
// depend on it.
func ListDeps(db *gorm.DB, itemID string) (dependsOn []models.RoadmapDep, dependents []models.RoadmapDep, err error) {
	if err := db.Where("item_id = ?", itemID).Find(&dependsOn).Error; err != nil {
		return nil, nil, fmt.Errorf("roadmap: list dependencies of %s: %w", itemID, err)
	}
	if err := db.Where("depends_on = ?", itemID).Find(&dependents).Error; err != nil {
		return nil, nil, fmt.Errorf("roadmap: list dependents of %s: %w", itemID, err)
	}
	return dependsOn, dependents, nil
}

// reachable performs a DFS from current along depends-on edges to determine
// whether target is reachable.
func reachable(db *gorm.DB, current, target string, visited map[string]bool) bool {
	if current == target {
		return true
	}
	if visited[current] {
		return false
	}
	visited[current] = true

	var deps []models.RoadmapDep
	if err := db.Where("item_id = ?", current).Find(&deps).Error; err != nil {
		return false
	}
	for _, d := range deps {
		if reachable(db, d.DependsOn, target, visited) {
			return true
		}
	}
	return false
}
