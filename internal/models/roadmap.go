package models

import "time"

// RoadmapItem is a schedulable unit of work on a customer's quarter
// timeline. DisplayOrder is kept contiguous within a (category, quarter)
// bucket; SubQuarter (early|mid|late) is presentational only.
type RoadmapItem struct {
	ID           string    `gorm:"primaryKey;size:32"`
	CustomerID   string    `gorm:"size:32;not null;index"`
	Category     string    `gorm:"size:64;index"`
	Title        string    `gorm:"size:256;not null"`
	Status       string    `gorm:"size:16;default:planned;index"`
	StartDate    time.Time `gorm:"not null"`
	EndDate      time.Time `gorm:"not null"`
	DisplayOrder int
	SubQuarter   string `gorm:"size:8;default:mid"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time

	Deps []RoadmapDep `gorm:"foreignKey:ItemID"`
}

// RoadmapDep records that ItemID depends on DependsOn. The edge set must
// stay acyclic; inserts are rejected when they would close a cycle.
type RoadmapDep struct {
	ItemID    string `gorm:"primaryKey;size:32"`
	DependsOn string `gorm:"primaryKey;size:32"`

	Item       RoadmapItem `gorm:"foreignKey:ItemID"`
	Dependency RoadmapItem `gorm:"foreignKey:DependsOn"`
}
