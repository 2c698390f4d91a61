package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"print-area-pricing/logger"
	"print-area-pricing/models"
)

// PricingConfigRepository handles database operations for price table revisions.
// Every save inserts a new revision and makes it the only active one.
type PricingConfigRepository struct {
	db  *sql.DB
	log *zap.Logger
}

// NewPricingConfigRepository creates a new PricingConfigRepository
func NewPricingConfigRepository(conn *sql.DB, log *zap.Logger) *PricingConfigRepository {
	return &PricingConfigRepository{db: conn, log: logger.OrNop(log)}
}

// Ensure PricingConfigRepository implements PricingConfigRepositoryInterface
var _ PricingConfigRepositoryInterface = (*PricingConfigRepository)(nil)

// GetActive returns the active price table, or ErrNotFound when none was saved yet
func (r *PricingConfigRepository) GetActive(ctx context.Context) (*models.StoredPricingConfig, error) {
	query := `
		SELECT id, version, is_active, updated_by, config
		FROM print_pricing_configs
		WHERE is_active = TRUE
		ORDER BY version DESC
		LIMIT 1
	`

	var stored models.StoredPricingConfig
	var raw string
	err := r.db.QueryRowContext(ctx, query).Scan(&stored.ID, &stored.Version, &stored.Active, &stored.UpdatedBy, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.log.Error("failed to query active pricing config", zap.Error(err))
		return nil, fmt.Errorf("failed to get active pricing config: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &stored.Config); err != nil {
		return nil, fmt.Errorf("failed to decode pricing config %s: %w", stored.ID, err)
	}
	return &stored, nil
}

// Save stores config as a new active revision
func (r *PricingConfigRepository) Save(ctx context.Context, config *models.PrintPricingConfig, updatedBy string) (*models.StoredPricingConfig, error) {
	if config == nil {
		return nil, fmt.Errorf("pricing config is required")
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pricing config: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var version int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM print_pricing_configs`).Scan(&version); err != nil {
		return nil, fmt.Errorf("failed to get next pricing config version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE print_pricing_configs SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
		return nil, fmt.Errorf("failed to deactivate pricing configs: %w", err)
	}

	stored := &models.StoredPricingConfig{
		ID:        uuid.NewString(),
		Version:   version,
		Active:    true,
		UpdatedBy: updatedBy,
		Config:    *config,
	}
	insert := `
		INSERT INTO print_pricing_configs (id, version, currency, config, is_active, updated_by)
		VALUES ($1, $2, $3, $4, TRUE, $5)
	`
	if _, err := tx.ExecContext(ctx, insert, stored.ID, version, config.Currency, string(raw), updatedBy); err != nil {
		return nil, fmt.Errorf("failed to insert pricing config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pricing config: %w", err)
	}

	r.log.Info("pricing config saved",
		zap.String("id", stored.ID),
		zap.Int64("version", version),
		zap.String("updatedBy", updatedBy))
	return stored, nil
}
