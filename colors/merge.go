package colors

import (
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"print-area-pricing/models"
)

// MaxRGBDistance is the Euclidean distance between black and white, √(3·255²) ≈ 441.67
var MaxRGBDistance = Distance(RGB{}, RGB{R: 255, G: 255, B: 255})

// Threshold converts a 0-100 sensitivity into an RGB distance threshold.
// 0 merges only identical colors, 100 merges everything.
func Threshold(sensitivity float64) float64 {
	return ClampSensitivity(sensitivity) / 100 * MaxRGBDistance
}

// ClampSensitivity bounds sensitivity to [0, 100]
func ClampSensitivity(sensitivity float64) float64 {
	if math.IsNaN(sensitivity) || sensitivity < 0 {
		return 0
	}
	if sensitivity > 100 {
		return 100
	}
	return sensitivity
}

// Distance is the Euclidean distance between two colors in RGB space
func Distance(a, b RGB) float64 {
	return floats.Distance(a.vector(), b.vector(), 2)
}

func (c RGB) vector() []float64 {
	return []float64{float64(c.R), float64(c.G), float64(c.B)}
}

type entry struct {
	hex   string
	rgb   RGB
	hue   float64
	light float64
}

// MergeColors groups perceptually similar colors. Colors are deduplicated and put in a
// canonical order (hue, then lightness, then hex) so the result does not depend on the
// order they were collected in. Each pass takes the first ungrouped color as the seed and
// absorbs every ungrouped color within the threshold of that seed; the representative is
// the channel-wise mean of the members.
func MergeColors(hexes []string, sensitivity float64) []models.ColorCluster {
	entries := canonicalEntries(hexes)
	if len(entries) == 0 {
		return nil
	}

	threshold := Threshold(sensitivity)
	grouped := make([]bool, len(entries))
	clusters := make([]models.ColorCluster, 0, len(entries))
	for i := range entries {
		if grouped[i] {
			continue
		}
		grouped[i] = true
		members := []entry{entries[i]}
		for j := i + 1; j < len(entries); j++ {
			if grouped[j] {
				continue
			}
			if Distance(entries[i].rgb, entries[j].rgb) <= threshold {
				grouped[j] = true
				members = append(members, entries[j])
			}
		}
		clusters = append(clusters, newCluster(members))
	}
	return clusters
}

// CountColors returns the number of clusters MergeColors produces
func CountColors(hexes []string, sensitivity float64) int {
	return len(MergeColors(hexes, sensitivity))
}

// Representatives returns the representative hex of each cluster
func Representatives(clusters []models.ColorCluster) []string {
	out := make([]string, len(clusters))
	for i, c := range clusters {
		out[i] = c.Representative
	}
	return out
}

func canonicalEntries(hexes []string) []entry {
	seen := make(map[string]bool, len(hexes))
	entries := make([]entry, 0, len(hexes))
	for _, value := range hexes {
		c, ok := ParseColor(value)
		if !ok {
			continue
		}
		hex := c.Hex()
		if seen[hex] {
			continue
		}
		seen[hex] = true
		h, _, l := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hsl()
		entries = append(entries, entry{hex: hex, rgb: c, hue: h, light: l})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].hue != entries[j].hue {
			return entries[i].hue < entries[j].hue
		}
		if entries[i].light != entries[j].light {
			return entries[i].light < entries[j].light
		}
		return entries[i].hex < entries[j].hex
	})
	return entries
}

func newCluster(members []entry) models.ColorCluster {
	rs := make([]float64, len(members))
	gs := make([]float64, len(members))
	bs := make([]float64, len(members))
	hexes := make([]string, len(members))
	for i, m := range members {
		rs[i], gs[i], bs[i] = float64(m.rgb.R), float64(m.rgb.G), float64(m.rgb.B)
		hexes[i] = m.hex
	}
	mean := RGB{
		R: clampByte(math.Round(stat.Mean(rs, nil))),
		G: clampByte(math.Round(stat.Mean(gs, nil))),
		B: clampByte(math.Round(stat.Mean(bs, nil))),
	}
	return models.ColorCluster{Representative: mean.Hex(), Members: hexes}
}
