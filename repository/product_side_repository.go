package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"print-area-pricing/logger"
	"print-area-pricing/models"
)

// ProductSideRepository handles database operations for product side calibration
type ProductSideRepository struct {
	db  *sql.DB
	log *zap.Logger
}

// NewProductSideRepository creates a new ProductSideRepository
func NewProductSideRepository(conn *sql.DB, log *zap.Logger) *ProductSideRepository {
	return &ProductSideRepository{db: conn, log: logger.OrNop(log)}
}

// Ensure ProductSideRepository implements ProductSideRepositoryInterface
var _ ProductSideRepositoryInterface = (*ProductSideRepository)(nil)

const productSideColumns = `
	side_id, name, mockup_url,
	print_area_width_mm, print_area_height_mm, rendered_image_width_px,
	print_area_left_px, print_area_top_px
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProductSide(row rowScanner) (models.ProductSide, error) {
	var side models.ProductSide
	err := row.Scan(
		&side.ID,
		&side.Name,
		&side.MockupURL,
		&side.PrintAreaWidthMm,
		&side.PrintAreaHeightMm,
		&side.RenderedImageWidthPx,
		&side.PrintAreaLeftPx,
		&side.PrintAreaTopPx,
	)
	return side, err
}

// ListByProduct returns the sides of a product in display order
func (r *ProductSideRepository) ListByProduct(ctx context.Context, productID string) ([]models.ProductSide, error) {
	query := `SELECT ` + productSideColumns + `
		FROM product_sides
		WHERE product_id = $1
		ORDER BY sort_order ASC, side_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		r.log.Error("failed to query product sides", zap.String("productId", productID), zap.Error(err))
		return nil, fmt.Errorf("failed to query product sides: %w", err)
	}
	defer rows.Close()

	sides := []models.ProductSide{}
	for rows.Next() {
		side, err := scanProductSide(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product side: %w", err)
		}
		sides = append(sides, side)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product sides: %w", err)
	}
	return sides, nil
}

// GetSide returns one side of a product, or ErrNotFound
func (r *ProductSideRepository) GetSide(ctx context.Context, productID, sideID string) (*models.ProductSide, error) {
	query := `SELECT ` + productSideColumns + `
		FROM product_sides
		WHERE product_id = $1 AND side_id = $2
	`

	side, err := scanProductSide(r.db.QueryRowContext(ctx, query, productID, sideID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product side: %w", err)
	}
	return &side, nil
}

// Upsert creates or replaces the calibration of one side
func (r *ProductSideRepository) Upsert(ctx context.Context, productID string, side models.ProductSide, sortOrder int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" || strings.TrimSpace(side.ID) == "" {
		return fmt.Errorf("product id and side id are required")
	}

	query := `
		INSERT INTO product_sides (
			product_id, side_id, name, mockup_url,
			print_area_width_mm, print_area_height_mm, rendered_image_width_px,
			print_area_left_px, print_area_top_px, sort_order, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
		ON CONFLICT (product_id, side_id) DO UPDATE SET
			name = excluded.name,
			mockup_url = excluded.mockup_url,
			print_area_width_mm = excluded.print_area_width_mm,
			print_area_height_mm = excluded.print_area_height_mm,
			rendered_image_width_px = excluded.rendered_image_width_px,
			print_area_left_px = excluded.print_area_left_px,
			print_area_top_px = excluded.print_area_top_px,
			sort_order = excluded.sort_order,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query,
		productID, side.ID, side.Name, side.MockupURL,
		side.PrintAreaWidthMm, side.PrintAreaHeightMm, side.RenderedImageWidthPx,
		side.PrintAreaLeftPx, side.PrintAreaTopPx, sortOrder,
	)
	if err != nil {
		r.log.Error("failed to upsert product side",
			zap.String("productId", productID),
			zap.String("sideId", side.ID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert product side: %w", err)
	}
	return nil
}
