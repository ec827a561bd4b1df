package models

import "time"

// Customer is the account record that owns assessments and roadmap items.
type Customer struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"not null"`
	Segment     string `gorm:"size:32;index"`
	CSMOwner    string `gorm:"size:64"`
	HealthBand  string `gorm:"size:8"`
	HealthScore *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Assessments  []Assessment  `gorm:"foreignKey:CustomerID"`
	RoadmapItems []RoadmapItem `gorm:"foreignKey:CustomerID"`
}

// HealthSnapshot is a periodic roll-up written by the digest loop.
type HealthSnapshot struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	CustomerID   string `gorm:"size:32;index"`
	OverallScore *float64
	OpenItems    int
	OverdueItems int
	Band         string `gorm:"size:8"`
	CreatedAt    time.Time
}
