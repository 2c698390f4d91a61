package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildManifestFileName(t *testing.T) {
	name := BuildManifestFileName(ManifestFileName{
		ProductID:   "TEE_01",
		SideID:      "front",
		ObjectID:    "obj 3",
		PrintMethod: "screen_printing",
		WidthMm:     150,
		HeightMm:    80.46,
	})

	assert.Equal(t, "tee-01_front_obj-3_screen-printing_150.0x80.5mm.png", name)
}

func TestBuildManifestFileName_EmptyParts(t *testing.T) {
	name := BuildManifestFileName(ManifestFileName{PrintMethod: "dtf", WidthMm: 10, HeightMm: 10})
	assert.Equal(t, "x_x_x_dtf_10.0x10.0mm.png", name)
}

func TestParseManifestFileName_RoundTrip(t *testing.T) {
	in := ManifestFileName{
		ProductID:   "hoodie-9",
		SideID:      "back",
		ObjectID:    "a1b2",
		PrintMethod: "embroidery",
		WidthMm:     210,
		HeightMm:    297,
	}

	got, err := ParseManifestFileName(BuildManifestFileName(in))

	require.NoError(t, err)
	assert.Equal(t, in, *got)
}

func TestParseManifestFileName_Errors(t *testing.T) {
	for _, name := range []string{
		"",
		"a_b_c_dtf.png",
		"a_b_c_dtf_10x10cm.png",
		"a__c_dtf_10.0x10.0mm.png",
		"a_b_c_dtf_10.25x10.0mm.png",
	} {
		_, err := ParseManifestFileName(name)
		assert.Error(t, err, name)
	}

	got, err := ParseManifestFileName("TEE_FRONT_OBJ_SCREEN-PRINTING_80x80mm.PNG")
	require.NoError(t, err)
	assert.Equal(t, "screen_printing", got.PrintMethod)
	assert.Equal(t, 80.0, got.WidthMm)
}
