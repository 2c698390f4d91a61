package pricing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"print-area-pricing/colors"
	"print-area-pricing/logger"
	"print-area-pricing/metrics"
	"print-area-pricing/models"
	"print-area-pricing/utils"
)

// ErrMissingCanvas is returned when a side has no canvas state to price
var ErrMissingCanvas = errors.New("side canvas is missing")

// Metric scopes
const (
	scopeObject  = "object"
	scopeSide    = "side"
	scopeSummary = "summary"
)

// Frame maps canvas pixels of one side to print-area millimeters. It is built once per
// side and pricing pass so every object of the pass shares the same ratio.
type Frame struct {
	Converter  *utils.UnitConverter
	OriginLeft float64
	OriginTop  float64
}

// NewFrame builds the frame of a product side
func NewFrame(side models.ProductSide, pc PricingContext) Frame {
	return Frame{
		Converter:  utils.NewSideConverter(side, pc.DefaultPrintAreaWidthMm),
		OriginLeft: side.PrintAreaLeftPx,
		OriginTop:  side.PrintAreaTopPx,
	}
}

// Engine prices design objects, sides and whole products
type Engine struct {
	policy    *Policy
	extractor *colors.Extractor
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewEngine creates a pricing engine. A nil extractor counts vector colors only.
func NewEngine(policy *Policy, extractor *colors.Extractor, log *zap.Logger, m *metrics.Metrics) *Engine {
	log = logger.OrNop(log)
	if policy == nil {
		policy = NewPolicy(nil, log, m)
	}
	if extractor == nil {
		extractor = colors.NewExtractor(nil, log, m)
	}
	return &Engine{
		policy:    policy,
		extractor: extractor,
		log:       log,
		metrics:   m,
	}
}

// Policy returns the pricing policy of the engine
func (e *Engine) Policy() *Policy {
	return e.policy
}

// CalculateObjectPricing prices one design object: measure, classify, count colors,
// resolve the method and price it. Image sampling is the only step that may block.
func (e *Engine) CalculateObjectPricing(ctx context.Context, obj models.DesignObject, frame Frame, pc PricingContext) models.ObjectPricing {
	started := time.Now()
	pc = pc.Normalize()
	clusters := e.extractor.Extract(ctx, obj, pc.ColorOptions())
	result := e.PriceObject(obj, clusters, frame, pc)
	e.metrics.ObservePass(scopeObject, started)
	return result
}

// PriceObject prices obj from already extracted color clusters. It does not block and
// returns the same result for the same inputs.
func (e *Engine) PriceObject(obj models.DesignObject, clusters []models.ColorCluster, frame Frame, pc PricingContext) models.ObjectPricing {
	pc = pc.Normalize()
	conv := frame.Converter
	if conv == nil {
		conv = utils.NewUnitConverter(pc.DefaultPrintAreaWidthMm, 0)
	}

	measured := conv.MeasureObject(obj.Geometry, frame.OriginLeft, frame.OriginTop)
	// classification uses full precision, rounding is for display only
	size := ClassifySize(measured.WidthMm, measured.HeightMm)
	display := measured.Rounded()

	colorList := colors.Representatives(clusters)
	colorCount := len(colorList)

	method, recommendation := e.resolveMethod(obj, colorCount)

	var price int64
	if measured.WidthMm > 0 && measured.HeightMm > 0 && colorCount > 0 {
		price = e.policy.Price(method, size, colorCount, pc.Quantity)
	}

	result := models.ObjectPricing{
		ObjectID:       obj.Data.ObjectID,
		ObjectType:     obj.Type,
		PrintMethod:    method,
		PrintSize:      size,
		ColorCount:     colorCount,
		Colors:         colorList,
		WidthMm:        display.WidthMm,
		HeightMm:       display.HeightMm,
		XMm:            display.XMm,
		YMm:            display.YMm,
		Price:          price,
		Recommendation: recommendation,
	}
	if IsBulkMethod(method) {
		quantity := pc.Quantity
		result.Quantity = &quantity
	}
	return result
}

// resolveMethod returns the explicit override when it is valid, otherwise the
// recommended method together with its recommendation
func (e *Engine) resolveMethod(obj models.DesignObject, colorCount int) (string, *models.Recommendation) {
	if obj.Data.PrintMethod != "" {
		method, err := ParseMethod(obj.Data.PrintMethod)
		if err == nil {
			return method, nil
		}
		e.log.Warn("ignoring unknown print method override, using recommendation",
			zap.String("objectId", obj.Data.ObjectID),
			zap.String("printMethod", obj.Data.PrintMethod))
	}
	rec := Recommend(colorCount)
	return rec.Method, &rec
}

// PriceableObjects returns the objects of a canvas that are priced, in canvas order.
// Export-excluded helpers and the background mockup are left out.
func PriceableObjects(objects []models.DesignObject) []models.DesignObject {
	out := make([]models.DesignObject, 0, len(objects))
	for _, obj := range objects {
		if obj.IsSystemObject() {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// CalculateSidePricing prices every priceable object of one side. Color extraction runs
// as one task per object, bounded by pc.Concurrency; results are kept in object order
// and pricing only starts once every task has finished.
func (e *Engine) CalculateSidePricing(ctx context.Context, canvas models.SideCanvas, pc PricingContext) (*models.SidePricing, error) {
	started := time.Now()
	if canvas.Objects == nil {
		return nil, ErrMissingCanvas
	}
	pc = pc.Normalize()

	side := canvas.Side
	objects := PriceableObjects(canvas.Objects)
	result := &models.SidePricing{
		SideID:   side.ID,
		SideName: side.Name,
		Objects:  make([]models.ObjectPricing, 0, len(objects)),
	}
	if len(objects) == 0 {
		e.metrics.ObservePass(scopeSide, started)
		return result, nil
	}

	frame := NewFrame(side, pc)
	if frame.Converter.Approximate() {
		e.log.Warn("print area not calibrated, sizes are approximate",
			zap.String("sideId", side.ID),
			zap.Float64("printAreaWidthMm", side.PrintAreaWidthMm),
			zap.Float64("renderedImageWidthPx", side.RenderedImageWidthPx),
			zap.Float64("mmPerPixel", frame.Converter.MMPerPixel()))
	}

	clusters, err := e.extractAll(ctx, objects, pc)
	if err != nil {
		return nil, err
	}

	rects := make([]utils.Rect, 0, len(objects))
	for i, obj := range objects {
		priced := e.PriceObject(obj, clusters[i], frame, pc)
		result.Objects = append(result.Objects, priced)
		result.TotalPrice += priced.Price
		rects = append(rects, utils.BoundingRect(obj.Geometry))
	}
	result.HasObjects = true
	result.CombinedArea = combinedArea(frame, rects)

	e.log.Debug("side priced",
		zap.String("sideId", side.ID),
		zap.Int("objects", len(result.Objects)),
		zap.Int64("totalPrice", result.TotalPrice))
	e.metrics.ObservePass(scopeSide, started)
	return result, nil
}

func (e *Engine) extractAll(ctx context.Context, objects []models.DesignObject, pc PricingContext) ([][]models.ColorCluster, error) {
	opts := pc.ColorOptions()
	clusters := make([][]models.ColorCluster, len(objects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pc.Concurrency)
	for i, obj := range objects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			clusters[i] = e.extractor.Extract(gctx, obj, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// sampling swallows cancellation, so check once more before pricing
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return clusters, nil
}

func combinedArea(frame Frame, rects []utils.Rect) *models.PrintArea {
	bounds, ok := utils.CombinedBounds(rects)
	if !ok {
		return nil
	}
	measured := frame.Converter.RectToMm(bounds, frame.OriginLeft, frame.OriginTop)
	display := measured.Rounded()
	return &models.PrintArea{
		WidthMm:  display.WidthMm,
		HeightMm: display.HeightMm,
		XMm:      display.XMm,
		YMm:      display.YMm,
		Size:     ClassifySize(measured.WidthMm, measured.HeightMm),
	}
}

// CalculateAllSidesPricing prices every side independently. A side whose canvas is
// missing or fails to price is logged and skipped; only cancellation aborts the summary.
func (e *Engine) CalculateAllSidesPricing(ctx context.Context, canvases []models.SideCanvas, pc PricingContext) (*models.PricingSummary, error) {
	started := time.Now()
	pc = pc.Normalize()

	summary := &models.PricingSummary{Sides: make([]models.SidePricing, 0, len(canvases))}
	for _, canvas := range canvases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		side, err := e.CalculateSidePricing(ctx, canvas, pc)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			e.log.Warn("skipping side in pricing summary",
				zap.String("sideId", canvas.Side.ID),
				zap.Error(err))
			e.metrics.IncSkippedSide()
			summary.SkippedSides = append(summary.SkippedSides, canvas.Side.ID)
			continue
		}

		summary.Sides = append(summary.Sides, *side)
		summary.TotalAdditionalPrice += side.TotalPrice
		summary.TotalObjectCount += len(side.Objects)
	}

	e.log.Info("pricing summary calculated",
		zap.Int("sides", len(summary.Sides)),
		zap.Int("skippedSides", len(summary.SkippedSides)),
		zap.Int("objects", summary.TotalObjectCount),
		zap.Int64("totalAdditionalPrice", summary.TotalAdditionalPrice))
	e.metrics.ObservePass(scopeSummary, started)
	return summary, nil
}
