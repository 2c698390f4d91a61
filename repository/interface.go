package repository

import (
	"context"
	"errors"

	"print-area-pricing/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// PricingConfigRepositoryInterface defines the contract for price table storage
type PricingConfigRepositoryInterface interface {
	GetActive(ctx context.Context) (*models.StoredPricingConfig, error)
	Save(ctx context.Context, config *models.PrintPricingConfig, updatedBy string) (*models.StoredPricingConfig, error)
}

// ProductSideRepositoryInterface defines the contract for product side calibration storage
type ProductSideRepositoryInterface interface {
	ListByProduct(ctx context.Context, productID string) ([]models.ProductSide, error)
	GetSide(ctx context.Context, productID, sideID string) (*models.ProductSide, error)
	Upsert(ctx context.Context, productID string, side models.ProductSide, sortOrder int) error
}
