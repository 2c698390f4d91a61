package colors

import (
	"context"
	"errors"
	"image"

	"go.uber.org/zap"

	"print-area-pricing/logger"
	"print-area-pricing/metrics"
	"print-area-pricing/models"
)

// ImageLoader resolves an image source to decoded pixels. It is the only step of the
// pricing pipeline that may block.
type ImageLoader interface {
	LoadImage(ctx context.Context, src string) (image.Image, error)
}

// Options controls one extraction
type Options struct {
	Sensitivity float64
	Sample      SampleOptions
}

// Extractor counts the ink colors of design objects
type Extractor struct {
	loader  ImageLoader
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewExtractor creates an Extractor. loader may be nil when no image objects are expected;
// image objects then count as zero colors.
func NewExtractor(loader ImageLoader, log *zap.Logger, m *metrics.Metrics) *Extractor {
	return &Extractor{
		loader:  loader,
		log:     logger.OrNop(log),
		metrics: m,
	}
}

// RawColors returns the normalized, unmerged colors of obj, sampling image pixels
// through the loader. Sampling failures are logged and the image contributes nothing.
func (e *Extractor) RawColors(ctx context.Context, obj models.DesignObject, opts SampleOptions) []string {
	collected := CollectVectorColors(obj)
	raw := collected.Colors
	for _, src := range collected.ImageSources {
		raw = append(raw, e.sample(ctx, obj.Data.ObjectID, src, opts)...)
	}
	return raw
}

// Extract returns the merged color clusters of obj
func (e *Extractor) Extract(ctx context.Context, obj models.DesignObject, opts Options) []models.ColorCluster {
	return MergeColors(e.RawColors(ctx, obj, opts.Sample), opts.Sensitivity)
}

func (e *Extractor) sample(ctx context.Context, objectID, src string, opts SampleOptions) []string {
	if e.loader == nil {
		e.log.Error("image color sampling unavailable, no image loader configured",
			zap.String("objectId", objectID))
		e.metrics.IncSampleFailure()
		return nil
	}

	img, err := e.loader.LoadImage(ctx, src)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			e.log.Debug("image sampling interrupted", zap.String("objectId", objectID), zap.Error(err))
			return nil
		}
		e.log.Warn("image color sampling failed, counting no colors for image",
			zap.String("objectId", objectID),
			zap.String("src", truncateSource(src)),
			zap.Error(err))
		e.metrics.IncSampleFailure()
		return nil
	}
	return SampleImage(img, opts)
}

// data URIs can be megabytes long
func truncateSource(src string) string {
	const max = 96
	if len(src) <= max {
		return src
	}
	return src[:max] + "..."
}
