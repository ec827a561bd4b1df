package db

import (
	"fmt"

	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/ids"
	"github.com/compasshq/compass/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Customer{},
		&models.HealthSnapshot{},
		&models.AssessmentTemplate{},
		&models.Dimension{},
		&models.Question{},
		&models.RubricLevel{},
		&models.TemplateAudit{},
		&models.Assessment{},
		&models.Answer{},
		&models.UseCase{},
		&models.Feature{},
		&models.DimensionUseCase{},
		&models.UseCaseFeature{},
		&models.Recommendation{},
		&models.RoadmapItem{},
		&models.RoadmapDep{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedFrameworks ensures each configured framework has at least one
// template. Frameworks that already have templates are left untouched; new
// ones get an empty draft at version 1.0 ready for authoring.
func SeedFrameworks(db *gorm.DB, frameworks []config.FrameworkConfig) error {
	for _, fw := range frameworks {
		var count int64
		if err := db.Model(&models.AssessmentTemplate{}).
			Where("framework = ?", fw.Key).Count(&count).Error; err != nil {
			return fmt.Errorf("db: check framework %q: %w", fw.Key, err)
		}
		if count > 0 {
			continue
		}

		id, err := ids.NewUnique(db, ids.Template, &models.AssessmentTemplate{})
		if err != nil {
			return err
		}
		tpl := models.AssessmentTemplate{
			ID:        id,
			Framework: fw.Key,
			Version:   "1.0",
			Status:    "draft",
		}
		if err := db.Create(&tpl).Error; err != nil {
			return fmt.Errorf("db: seed framework %q: %w", fw.Key, err)
		}
	}
	return nil
}
