package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"print-area-pricing/colors"
	"print-area-pricing/logger"
	"print-area-pricing/metrics"
	"print-area-pricing/models"
	"print-area-pricing/pricing"
	"print-area-pricing/repository"
)

// ErrInvalidConfig wraps validation failures of a submitted price table
var ErrInvalidConfig = errors.New("invalid pricing config")

// PricingServiceDeps groups the collaborators of a PricingService. Every field is optional.
type PricingServiceDeps struct {
	Extractor *colors.Extractor
	Sides     repository.ProductSideRepositoryInterface
	Configs   repository.PricingConfigRepositoryInterface
	Defaults  pricing.PricingContext
	Metrics   *metrics.Metrics
	Log       *zap.Logger

	// Bounds of stale-result tracking, see pricing.NewVersionTracker
	TrackedCanvases int
	VersionIdleTTL  time.Duration
}

// PricingService prices canvases for transports. It fills in missing calibration from
// the product catalog, tracks canvas versions so superseded passes are dropped, and
// swaps the price table when an operator saves a new one.
type PricingService struct {
	mu     sync.RWMutex
	engine *pricing.Engine

	extractor *colors.Extractor
	sides     repository.ProductSideRepositoryInterface
	configs   repository.PricingConfigRepositoryInterface
	defaults  pricing.PricingContext
	versions  *pricing.VersionTracker
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewPricingService creates a PricingService over config, DefaultConfig when nil
func NewPricingService(config *models.PrintPricingConfig, deps PricingServiceDeps) *PricingService {
	log := logger.OrNop(deps.Log)
	extractor := deps.Extractor
	if extractor == nil {
		extractor = colors.NewExtractor(nil, log, deps.Metrics)
	}
	s := &PricingService{
		extractor: extractor,
		sides:     deps.Sides,
		configs:   deps.Configs,
		defaults:  deps.Defaults,
		versions:  pricing.NewVersionTracker(deps.TrackedCanvases, deps.VersionIdleTTL),
		metrics:   deps.Metrics,
		log:       log,
	}
	s.engine = s.newEngine(config)
	return s
}

func (s *PricingService) newEngine(config *models.PrintPricingConfig) *pricing.Engine {
	policy := pricing.NewPolicy(config, s.log, s.metrics)
	return pricing.NewEngine(policy, s.extractor, s.log, s.metrics)
}

// Engine returns the engine currently in use
func (s *PricingService) Engine() *pricing.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Config returns the price table currently in use
func (s *PricingService) Config() *models.PrintPricingConfig {
	return s.Engine().Policy().Config()
}

// Versions exposes the canvas version tracker
func (s *PricingService) Versions() *pricing.VersionTracker {
	return s.versions
}

// UpdateConfig validates and activates a new price table, storing it when a
// repository is configured
func (s *PricingService) UpdateConfig(ctx context.Context, config *models.PrintPricingConfig, updatedBy string) (*models.StoredPricingConfig, error) {
	if config != nil && config.Currency == "" {
		withCurrency := *config
		withCurrency.Currency = pricing.DefaultCurrency
		config = &withCurrency
	}
	if err := pricing.Validate(config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	stored := &models.StoredPricingConfig{Active: true, UpdatedBy: updatedBy, Config: *config}
	if s.configs != nil {
		saved, err := s.configs.Save(ctx, config, updatedBy)
		if err != nil {
			return nil, err
		}
		stored = saved
	}

	engine := s.newEngine(config)
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()

	s.log.Info("pricing config activated", zap.String("updatedBy", updatedBy), zap.Int64("version", stored.Version))
	return stored, nil
}

// Context merges a request context over the configured defaults
func (s *PricingService) Context(req pricing.PricingContext) pricing.PricingContext {
	pc := s.defaults
	if req.Sensitivity != nil {
		pc.Sensitivity = req.Sensitivity
	}
	if req.Quantity > 0 {
		pc.Quantity = req.Quantity
	}
	if req.DefaultPrintAreaWidthMm > 0 {
		pc.DefaultPrintAreaWidthMm = req.DefaultPrintAreaWidthMm
	}
	if req.PixelStride > 0 {
		pc.PixelStride = req.PixelStride
	}
	if req.AlphaThreshold > 0 {
		pc.AlphaThreshold = req.AlphaThreshold
	}
	if req.NoiseRatio > 0 {
		pc.NoiseRatio = req.NoiseRatio
	}
	if req.MaxSampleDimension > 0 {
		pc.MaxSampleDimension = req.MaxSampleDimension
	}
	// concurrency is a server resource, requests cannot raise it
	return pc.Normalize()
}

// PriceObject prices a single object placed on side
func (s *PricingService) PriceObject(ctx context.Context, productID string, side models.ProductSide, obj models.DesignObject, req pricing.PricingContext) models.ObjectPricing {
	pc := s.Context(req)
	side = s.calibrate(ctx, productID, side)
	return s.Engine().CalculateObjectPricing(ctx, obj, pricing.NewFrame(side, pc), pc)
}

// Revision identifies the editing session a pricing pass belongs to. SessionID is chosen
// by the editor per canvas; Version, when set, is its revision counter, otherwise every
// call is a new revision. Passes without a SessionID are never treated as stale.
type Revision struct {
	SessionID string
	Version   *uint64
}

// PriceSide prices one side canvas. A result overtaken by a newer revision of the same
// session while it was computed returns ErrStaleResult.
func (s *PricingService) PriceSide(ctx context.Context, productID string, canvas models.SideCanvas, req pricing.PricingContext, rev Revision) (*models.SidePricing, error) {
	pc := s.Context(req)
	token, tracked := s.begin(canvasKey(rev.SessionID, canvas.Side.ID), rev)

	canvas.Side = s.calibrate(ctx, productID, canvas.Side)
	result, err := s.Engine().CalculateSidePricing(ctx, canvas, pc)
	if err != nil {
		return nil, err
	}
	if err := s.checkCurrent(token, tracked); err != nil {
		return nil, err
	}
	return result, nil
}

// PriceSummary prices every side of a product. Sides known to the catalog but absent
// from canvases are reported as skipped.
func (s *PricingService) PriceSummary(ctx context.Context, productID string, canvases []models.SideCanvas, req pricing.PricingContext, rev Revision) (*models.PricingSummary, error) {
	pc := s.Context(req)
	token, tracked := s.begin(canvasKey(rev.SessionID, ""), rev)

	calibrated := make([]models.SideCanvas, 0, len(canvases))
	seen := make(map[string]bool, len(canvases))
	for _, canvas := range canvases {
		canvas.Side = s.calibrate(ctx, productID, canvas.Side)
		seen[canvas.Side.ID] = true
		calibrated = append(calibrated, canvas)
	}
	calibrated = append(calibrated, s.missingSides(ctx, productID, seen)...)

	summary, err := s.Engine().CalculateAllSidesPricing(ctx, calibrated, pc)
	if err != nil {
		return nil, err
	}
	if err := s.checkCurrent(token, tracked); err != nil {
		return nil, err
	}
	return summary, nil
}

// ProductSides returns the catalog sides of a product
func (s *PricingService) ProductSides(ctx context.Context, productID string) ([]models.ProductSide, error) {
	if s.sides == nil {
		return nil, repository.ErrNotFound
	}
	return s.sides.ListByProduct(ctx, productID)
}

func (s *PricingService) begin(key string, rev Revision) (pricing.VersionToken, bool) {
	if rev.SessionID == "" {
		return pricing.VersionToken{}, false
	}
	if rev.Version != nil {
		return s.versions.Observe(key, *rev.Version), true
	}
	return s.versions.Begin(key), true
}

func (s *PricingService) checkCurrent(token pricing.VersionToken, tracked bool) error {
	if !tracked {
		return nil
	}
	if err := s.versions.Check(token); err != nil {
		s.metrics.IncStale()
		s.log.Debug("discarding stale pricing result",
			zap.String("canvas", token.CanvasID),
			zap.Uint64("version", token.Version),
			zap.Uint64("latest", s.versions.Latest(token.CanvasID)))
		return err
	}
	return nil
}

// canvasKey scopes versions to one editing session; a summary pass has its own key
func canvasKey(sessionID, sideID string) string {
	if sideID == "" {
		return sessionID + "/*"
	}
	return sessionID + "/" + sideID
}

// calibrate fills missing print-area data of side from the product catalog. The rendered
// width from the request wins because it depends on the customer's screen.
func (s *PricingService) calibrate(ctx context.Context, productID string, side models.ProductSide) models.ProductSide {
	if side.PrintAreaWidthMm > 0 && side.RenderedImageWidthPx > 0 {
		return side
	}
	if s.sides == nil || productID == "" || side.ID == "" {
		return side
	}

	stored, err := s.sides.GetSide(ctx, productID, side.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("failed to load side calibration", zap.String("productId", productID), zap.String("sideId", side.ID), zap.Error(err))
		}
		return side
	}

	if side.PrintAreaWidthMm <= 0 {
		side.PrintAreaWidthMm = stored.PrintAreaWidthMm
		side.PrintAreaHeightMm = stored.PrintAreaHeightMm
		side.PrintAreaLeftPx = stored.PrintAreaLeftPx
		side.PrintAreaTopPx = stored.PrintAreaTopPx
	}
	if side.RenderedImageWidthPx <= 0 {
		side.RenderedImageWidthPx = stored.RenderedImageWidthPx
	}
	if side.Name == "" {
		side.Name = stored.Name
	}
	if side.MockupURL == "" {
		side.MockupURL = stored.MockupURL
	}
	return side
}

func (s *PricingService) missingSides(ctx context.Context, productID string, seen map[string]bool) []models.SideCanvas {
	if s.sides == nil || productID == "" {
		return nil
	}
	sides, err := s.sides.ListByProduct(ctx, productID)
	if err != nil {
		s.log.Warn("failed to list product sides", zap.String("productId", productID), zap.Error(err))
		return nil
	}
	var missing []models.SideCanvas
	for _, side := range sides {
		if !seen[side.ID] {
			missing = append(missing, models.SideCanvas{Side: side})
		}
	}
	return missing
}

// LoadActiveConfig returns the stored active price table, or fallback when the store
// is empty or unavailable
func LoadActiveConfig(ctx context.Context, configs repository.PricingConfigRepositoryInterface, fallback *models.PrintPricingConfig, log *zap.Logger) *models.PrintPricingConfig {
	log = logger.OrNop(log)
	if fallback == nil {
		fallback = pricing.DefaultConfig()
	}
	if configs == nil {
		return fallback
	}

	stored, err := configs.GetActive(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn("failed to load stored pricing config, using fallback", zap.Error(err))
		}
		return fallback
	}
	if err := pricing.Validate(&stored.Config); err != nil {
		log.Warn("stored pricing config has gaps, lookups for them price at 0",
			zap.Int64("version", stored.Version),
			zap.Error(err))
	}
	log.Info("loaded stored pricing config", zap.String("id", stored.ID), zap.Int64("version", stored.Version))
	return &stored.Config
}
