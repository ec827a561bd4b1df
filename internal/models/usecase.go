package models

// UseCase is a product capability that addresses one or more dimension gaps.
type UseCase struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"size:128;not null"`
	Category    string `gorm:"size:64"`
	Description string `gorm:"type:text"`
}

// Feature is an externally tracked work item a use case maps onto.
type Feature struct {
	ID          string `gorm:"primaryKey;size:32"`
	ExternalKey string `gorm:"size:64;index"`
	Name        string `gorm:"size:256;not null"`
}

// DimensionUseCase links a dimension to a use case with an impact weight
// in [0,1] describing how strongly the use case closes that dimension's gap.
type DimensionUseCase struct {
	DimensionID  uint    `gorm:"primaryKey"`
	UseCaseID    string  `gorm:"primaryKey;size:32"`
	ImpactWeight float64 `gorm:"default:1"`

	UseCase UseCase `gorm:"foreignKey:UseCaseID"`
}

// UseCaseFeature links a use case to an externally tracked feature.
type UseCaseFeature struct {
	UseCaseID string `gorm:"primaryKey;size:32"`
	FeatureID string `gorm:"primaryKey;size:32"`
	Required  bool   `gorm:"default:false"`

	Feature Feature `gorm:"foreignKey:FeatureID"`
}
