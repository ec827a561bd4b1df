// Package customer provides the account records that own assessments and
// roadmap items, plus the health roll-up.
package customer

import (
	"errors"
	"fmt"

	"github.com/compasshq/compass/internal/apperr"
	"github.com/compasshq/compass/internal/ids"
	"github.com/compasshq/compass/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a customer.
type CreateOpts struct {
	Name     string
	Segment  string
	CSMOwner string
}

// Create adds a customer record.
func Create(db *gorm.DB, opts CreateOpts) (*models.Customer, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("%w: customer name is required", apperr.ErrValidation)
	}

	id, err := ids.NewUnique(db, ids.Customer, &models.Customer{})
	if err != nil {
		return nil, err
	}

	c := models.Customer{
		ID:       id,
		Name:     opts.Name,
		Segment:  opts.Segment,
		CSMOwner: opts.CSMOwner,
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("customer: create: %w", err)
	}
	return &c, nil
}

// Get retrieves a customer by ID.
func Get(db *gorm.DB, id string) (*models.Customer, error) {
	var c models.Customer
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("customer: get %s: %w", id, err)
	}
	return &c, nil
}

// List returns all customers ordered by name.
func List(db *gorm.DB) ([]models.Customer, error) {
	var customers []models.Customer
	if err := db.Order("name ASC").Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("customer: list: %w", err)
	}
	return customers, nil
}
