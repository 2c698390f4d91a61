package colors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreshold(t *testing.T) {
	assert.Equal(t, 0.0, Threshold(0))
	assert.InDelta(t, 441.67, Threshold(100), 0.01)
	assert.InDelta(t, 132.5, Threshold(30), 0.01)
	assert.Equal(t, 0.0, Threshold(-5))
	assert.Equal(t, MaxRGBDistance, Threshold(250))
	assert.Equal(t, 0.0, Threshold(math.NaN()))
}

func TestMergeColors_ZeroSensitivityMergesOnlyIdentical(t *testing.T) {
	clusters := MergeColors([]string{"#ff0000", "#FF0000", "#fe0000", "rgb(255,0,0)"}, 0)

	require.Len(t, clusters, 2)
	assert.Equal(t, 2, CountColors([]string{"#ff0000", "#fe0000"}, 0))
}

func TestMergeColors_FullSensitivityMergesEverything(t *testing.T) {
	palette := []string{"#000000", "#ffffff", "#ff0000", "#00ff00", "#0000ff"}

	clusters := MergeColors(palette, 100)

	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Members, len(palette))
}

func TestMergeColors_BlackAndWhiteMergeAtExactlyMaxDistance(t *testing.T) {
	assert.Equal(t, 1, CountColors([]string{"#000000", "#ffffff"}, 100))
	assert.Equal(t, 2, CountColors([]string{"#000000", "#ffffff"}, 99.9))
}

func TestMergeColors_RepresentativeIsChannelMean(t *testing.T) {
	clusters := MergeColors([]string{"#ff0000", "#fd0000"}, 5)

	require.Len(t, clusters, 1)
	assert.Equal(t, "#fe0000", clusters[0].Representative)
	assert.ElementsMatch(t, []string{"#ff0000", "#fd0000"}, clusters[0].Members)
}

// On palettes whose groups sit far apart relative to their spread the count only
// falls as sensitivity rises. Seeded grouping does not guarantee this in general, see
// TestMergeColors_SeedOrderCanRaiseCount.
func TestMergeColors_CountFallsOnSeparatedPalettes(t *testing.T) {
	palettes := map[string][]string{
		"grayscale": {"#000000", "#101010", "#808080", "#f0f0f0", "#ffffff"},
		"primaries": {"#FF0000", "#FE0000", "#00FF00", "#0000FF"},
	}

	for name, palette := range palettes {
		t.Run(name, func(t *testing.T) {
			prev := math.MaxInt
			for s := 0; s <= 100; s++ {
				n := CountColors(palette, float64(s))
				assert.LessOrEqual(t, n, prev, "count rose at sensitivity %d", s)
				assert.GreaterOrEqual(t, n, 1)
				prev = n
			}
			assert.Equal(t, 1, CountColors(palette, 100))
		})
	}
}

func TestMergeColors_SeedOrderCanRaiseCount(t *testing.T) {
	// all four share hue 0, so they are seeded darkest first
	palette := []string{"#821414", "#963232", "#be3232", "#964e4e"}

	// #821414 stays alone and #963232 gathers the other two
	clusters := MergeColors(palette, 9.1)
	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"#821414"}, clusters[0].Members)

	// #821414 now reaches #963232 and takes it, so #964e4e seeds a group that
	// #be3232 is too far from
	clusters = MergeColors(palette, 11.3)
	require.Len(t, clusters, 3)
	assert.Equal(t, []string{"#821414", "#963232"}, clusters[0].Members)
	assert.Equal(t, []string{"#964e4e"}, clusters[1].Members)
	assert.Equal(t, []string{"#be3232"}, clusters[2].Members)

	assert.Equal(t, 1, CountColors(palette, 20))
}

func TestMergeColors_IndependentOfInputOrder(t *testing.T) {
	forward := []string{"#ff0000", "#f01010", "#00ff00", "#10f010", "#0000ff", "#777777"}
	reversed := make([]string, len(forward))
	for i, c := range forward {
		reversed[len(forward)-1-i] = c
	}
	shuffled := []string{"#777777", "#00ff00", "#ff0000", "#0000ff", "#10f010", "#f01010"}

	for _, s := range []float64{0, 10, 30, 60, 100} {
		want := MergeColors(forward, s)
		assert.Equal(t, want, MergeColors(reversed, s), "reversed at %v", s)
		assert.Equal(t, want, MergeColors(shuffled, s), "shuffled at %v", s)
	}
}

func TestMergeColors_IgnoresInvalidInput(t *testing.T) {
	assert.Nil(t, MergeColors(nil, 30))
	assert.Nil(t, MergeColors([]string{"transparent", "", "bogus"}, 30))
	assert.Equal(t, 1, CountColors([]string{"bogus", "#123456"}, 30))
}

func TestRepresentatives(t *testing.T) {
	clusters := MergeColors([]string{"#0000ff", "#ff0000"}, 0)
	assert.Equal(t, []string{"#ff0000", "#0000ff"}, Representatives(clusters))
}
