// Package ids generates short prefixed identifiers for Compass entities.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"gorm.io/gorm"
)

// Entity prefixes.
const (
	Customer       = "cu"
	Template       = "tpl"
	Assessment     = "asm"
	Recommendation = "rec"
	RoadmapItem    = "ri"
	UseCase        = "uc"
	Feature        = "ft"
)

// New creates an ID in prefix-xxxxxx format (6-char hex).
func New(prefix string) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ids: generate: %w", err)
	}
	return prefix + "-" + hex.EncodeToString(b), nil
}

// NewUnique generates an ID and retries once on collision against the
// given model's id column.
func NewUnique(db *gorm.DB, prefix string, model interface{}) (string, error) {
	for range 2 {
		id, err := New(prefix)
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("ids: check uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("ids: failed to generate unique ID after retries")
}
