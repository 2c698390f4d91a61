package pricing

import "print-area-pricing/models"

// Size bucket limits in millimeters (width x height)
const (
	size10x10MaxMm    = 100.0
	sizeA4MaxWidthMm  = 210.0
	sizeA4MaxHeightMm = 297.0
)

// ClassifySize maps a physical footprint to a size bucket, smallest bucket first.
// There is no bucket above A3, anything larger is priced as A3.
func ClassifySize(widthMm, heightMm float64) string {
	if widthMm <= size10x10MaxMm && heightMm <= size10x10MaxMm {
		return models.Size10x10
	}
	if widthMm <= sizeA4MaxWidthMm && heightMm <= sizeA4MaxHeightMm {
		return models.SizeA4
	}
	return models.SizeA3
}

// IsKnownSize reports whether size is one of the priced buckets
func IsKnownSize(size string) bool {
	for _, s := range models.AllSizes {
		if s == size {
			return true
		}
	}
	return false
}
