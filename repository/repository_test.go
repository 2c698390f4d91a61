package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print-area-pricing/db"
	"print-area-pricing/models"
	"print-area-pricing/pricing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "pricing-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(conn, "sqlite"))
	return conn
}

func TestPricingConfigRepository_SaveAndGetActive(t *testing.T) {
	repo := NewPricingConfigRepository(openTestDB(t), zap.NewNop())
	ctx := context.Background()

	_, err := repo.GetActive(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := repo.Save(ctx, pricing.DefaultConfig(), "seed")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)

	updated := pricing.DefaultConfig()
	updated.DTF.Sizes[models.SizeA4] = 7500
	second, err := repo.Save(ctx, updated, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.NotEqual(t, first.ID, second.ID)

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.True(t, active.Active)
	assert.Equal(t, "ops@example.com", active.UpdatedBy)
	assert.Equal(t, int64(7500), active.Config.DTF.Sizes[models.SizeA4])
	assert.Equal(t, pricing.DefaultConfig().Embroidery, active.Config.Embroidery)
}

func TestPricingConfigRepository_SaveNil(t *testing.T) {
	repo := NewPricingConfigRepository(openTestDB(t), nil)
	_, err := repo.Save(context.Background(), nil, "x")
	assert.Error(t, err)
}

func TestProductSideRepository_UpsertAndList(t *testing.T) {
	repo := NewProductSideRepository(openTestDB(t), zap.NewNop())
	ctx := context.Background()

	back := models.ProductSide{ID: "back", Name: "Back", PrintAreaWidthMm: 320, PrintAreaHeightMm: 420, RenderedImageWidthPx: 640}
	front := models.ProductSide{ID: "front", Name: "Front", MockupURL: "/mockups/tee-front.png", PrintAreaWidthMm: 300, PrintAreaHeightMm: 400, RenderedImageWidthPx: 600, PrintAreaLeftPx: 12.5, PrintAreaTopPx: 30}
	require.NoError(t, repo.Upsert(ctx, "tee", back, 2))
	require.NoError(t, repo.Upsert(ctx, "tee", front, 1))
	require.NoError(t, repo.Upsert(ctx, "hoodie", front, 1))

	sides, err := repo.ListByProduct(ctx, "tee")
	require.NoError(t, err)
	assert.Equal(t, []models.ProductSide{front, back}, sides)

	back.PrintAreaWidthMm = 330
	require.NoError(t, repo.Upsert(ctx, "tee", back, 2))
	got, err := repo.GetSide(ctx, "tee", "back")
	require.NoError(t, err)
	assert.Equal(t, 330.0, got.PrintAreaWidthMm)

	_, err = repo.GetSide(ctx, "tee", "sleeve")
	assert.ErrorIs(t, err, ErrNotFound)

	empty, err := repo.ListByProduct(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.Error(t, repo.Upsert(ctx, "", front, 0))
}
