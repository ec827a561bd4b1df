package models

import "time"

// Recommendation is a suggested action, either entered by a CSM or
// generated from an assessment gap. Accepting one links it to the roadmap
// item it produced.
type Recommendation struct {
	ID            string  `gorm:"primaryKey;size:32"`
	AssessmentID  string  `gorm:"size:32;not null;index"`
	UseCaseID     *string `gorm:"size:32;index"`
	Title         string  `gorm:"size:256;not null"`
	Description   string  `gorm:"type:text"`
	Priority      string  `gorm:"size:8;default:medium"`
	Status        string  `gorm:"size:16;default:open;index"`
	Category      string  `gorm:"size:64"`
	Source        string  `gorm:"size:8;default:custom"`
	RoadmapItemID *string `gorm:"size:32"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
