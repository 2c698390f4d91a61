package colors

import (
	"image"
	"sort"

	"github.com/disintegration/imaging"
)

// SampleOptions controls pixel sampling of image objects
type SampleOptions struct {
	PixelStride    int     // read every Nth pixel on both axes
	AlphaThreshold uint8   // pixels below this alpha carry no visible ink
	NoiseRatio     float64 // colors rarer than this share of samples are anti-aliasing noise
	MaxDimension   int     // images are downscaled to fit this box before sampling, 0 disables
}

// DefaultSampleOptions returns the sampling defaults used by the editor
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{
		PixelStride:    4,
		AlphaThreshold: 50,
		NoiseRatio:     0.001,
		MaxDimension:   400,
	}
}

// SampleImage reads img at a fixed stride and returns the sorted set of visible colors
// that survive the noise filter. A fully transparent image yields no colors.
func SampleImage(img image.Image, opts SampleOptions) []string {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil
	}
	stride := opts.PixelStride
	if stride < 1 {
		stride = 1
	}

	var pixels *image.NRGBA
	if opts.MaxDimension > 0 && (bounds.Dx() > opts.MaxDimension || bounds.Dy() > opts.MaxDimension) {
		// nearest neighbor keeps the original palette; smoothing filters would invent blend colors
		pixels = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.NearestNeighbor)
	} else {
		pixels = imaging.Clone(img)
	}

	width, height := pixels.Bounds().Dx(), pixels.Bounds().Dy()
	counts := make(map[RGB]int)
	total := 0
	for y := 0; y < height; y += stride {
		row := y * pixels.Stride
		for x := 0; x < width; x += stride {
			i := row + x*4
			if pixels.Pix[i+3] < opts.AlphaThreshold {
				continue
			}
			counts[RGB{R: pixels.Pix[i], G: pixels.Pix[i+1], B: pixels.Pix[i+2]}]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	minCount := opts.NoiseRatio * float64(total)
	hexes := make([]string, 0, len(counts))
	for c, n := range counts {
		if float64(n) < minCount {
			continue
		}
		hexes = append(hexes, c.Hex())
	}
	sort.Strings(hexes)
	return hexes
}
