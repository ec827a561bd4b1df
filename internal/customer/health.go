package customer

import (
	"errors"
	"fmt"
	"time"

	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/scoring"
	"github.com/compasshq/compass/internal/template"
	"gorm.io/gorm"
)

// Rollup summarizes a customer's current health.
type Rollup struct {
	CustomerID   string   `json:"customer_id"`
	OverallScore *float64 `json:"overall_score"`
	OpenItems    int      `json:"open_items"`
	OverdueItems int      `json:"overdue_items"`
	Band         string   `json:"band"`
}

// HealthRollup computes a customer's health from the latest completed
// assessment score and roadmap item counts. Band thresholds: red below 2.5
// or any overdue item, yellow below 3.5, else green; no score at all is
// yellow until the first assessment completes.
func HealthRollup(db *gorm.DB, customerID string) (*Rollup, error) {
	if _, err := Get(db, customerID); err != nil {
		return nil, err
	}

	r := &Rollup{CustomerID: customerID}

	// Latest completed assessment across frameworks.
	var asm models.Assessment
	err := db.Where("customer_id = ? AND status = ?", customerID, "completed").
		Order("completed_at DESC").Preload("Answers").First(&asm).Error
	if err == nil {
		tpl, terr := template.Get(db, asm.TemplateID)
		if terr != nil {
			return nil, terr
		}
		dimScores := scoring.DimensionScores(tpl, asm.Answers)
		r.OverallScore = scoring.OverallScore(tpl, dimScores)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("customer: latest assessment for %s: %w", customerID, err)
	}

	now := time.Now()
	var open, overdue int64
	if err := db.Model(&models.RoadmapItem{}).
		Where("customer_id = ? AND status IN ?", customerID, []string{"planned", "in_progress"}).
		Count(&open).Error; err != nil {
		return nil, fmt.Errorf("customer: count open items for %s: %w", customerID, err)
	}
	if err := db.Model(&models.RoadmapItem{}).
		Where("customer_id = ? AND status IN ? AND end_date < ?", customerID,
			[]string{"planned", "in_progress"}, now).
		Count(&overdue).Error; err != nil {
		return nil, fmt.Errorf("customer: count overdue items for %s: %w", customerID, err)
	}
	r.OpenItems = int(open)
	r.OverdueItems = int(overdue)
	r.Band = band(r.OverallScore, r.OverdueItems)
	return r, nil
}

// SaveRollup persists a roll-up onto the customer row and as a snapshot.
func SaveRollup(db *gorm.DB, r *Rollup) error {
	if err := db.Model(&models.Customer{}).Where("id = ?", r.CustomerID).
		Updates(map[string]interface{}{
			"health_band":  r.Band,
			"health_score": r.OverallScore,
		}).Error; err != nil {
		return fmt.Errorf("customer: save rollup for %s: %w", r.CustomerID, err)
	}

	snap := models.HealthSnapshot{
		CustomerID:   r.CustomerID,
		OverallScore: r.OverallScore,
		OpenItems:    r.OpenItems,
		OverdueItems: r.OverdueItems,
		Band:         r.Band,
	}
	if err := db.Create(&snap).Error; err != nil {
		return fmt.Errorf("customer: save snapshot for %s: %w", r.CustomerID, err)
	}
	return nil
}

func band(score *float64, overdue int) string {
	switch {
	case overdue > 0:
		return "red"
	case score == nil:
		return "yellow"
	case *score < 2.5:
		return "red"
	case *score < 3.5:
		return "yellow"
	default:
		return "green"
	}
}
