package models

import "time"

// Assessment is a completed or in-progress response instance. The template
// reference is fixed at creation and does not follow later template edits.
type Assessment struct {
	ID          string `gorm:"primaryKey;size:32"`
	CustomerID  string `gorm:"size:32;not null;index"`
	TemplateID  string `gorm:"size:32;not null;index"`
	Status      string `gorm:"size:16;default:in_progress;index"`
	Assessor    string `gorm:"size:64"`
	Notes       string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	Customer        Customer           `gorm:"foreignKey:CustomerID"`
	Template        AssessmentTemplate `gorm:"foreignKey:TemplateID"`
	Answers         []Answer           `gorm:"foreignKey:AssessmentID"`
	Recommendations []Recommendation   `gorm:"foreignKey:AssessmentID"`
}

// Answer stores a single question response within an assessment. Score is
// nil until the question is answered; unanswered questions are excluded
// from scoring, never treated as zero.
type Answer struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	AssessmentID string `gorm:"size:32;not null;index:idx_assessment_question,unique"`
	QuestionID   uint   `gorm:"not null;index:idx_assessment_question,unique"`
	Score        *int
	Notes        string `gorm:"type:text"`
	Evidence     string `gorm:"type:text"`
	UpdatedAt    time.Time
}
