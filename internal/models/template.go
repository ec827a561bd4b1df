package models

import "time"

// AssessmentTemplate is a versioned maturity-assessment definition. At most
// one template per framework may be active at a time; promotion supersedes
// the previous active version.
type AssessmentTemplate struct {
	ID        string  `gorm:"primaryKey;size:32"`
	Framework string  `gorm:"size:16;not null;index"`
	Version   string  `gorm:"size:32;not null"`
	Status    string  `gorm:"size:16;default:draft;index"`
	SourceID  *string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Source     *AssessmentTemplate `gorm:"foreignKey:SourceID"`
	Dimensions []Dimension         `gorm:"foreignKey:TemplateID"`
}

// Dimension is a scored category within a template.
type Dimension struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	TemplateID string `gorm:"size:32;not null;index"`
	Name       string `gorm:"size:128;not null"`
	Position   int
	Weight     *float64

	Questions []Question `gorm:"foreignKey:DimensionID"`
}

// Question belongs to exactly one dimension and carries an ordered rubric.
type Question struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	DimensionID uint   `gorm:"not null;index"`
	Text        string `gorm:"type:text;not null"`
	Position    int
	Required    bool `gorm:"default:true"`

	Rubric []RubricLevel `gorm:"foreignKey:QuestionID"`
}

// RubricLevel is one scoring level of a question's rubric.
type RubricLevel struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	QuestionID  uint `gorm:"not null;index"`
	Value       int  `gorm:"not null"`
	Label       string
	Description string `gorm:"type:text"`
	Evidence    string `gorm:"type:text"`
}

// TemplateAudit is an append-only change record for a template. Rows are
// never updated or deleted.
type TemplateAudit struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	TemplateID string `gorm:"size:32;not null;index"`
	Actor      string `gorm:"size:64"`
	Action     string `gorm:"size:32;not null"`
	Detail     string `gorm:"type:text"`
	CreatedAt  time.Time
}
