package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ManifestFileName identifies the artwork file of one printed object
type ManifestFileName struct {
	ProductID   string
	SideID      string
	ObjectID    string
	PrintMethod string
	WidthMm     float64
	HeightMm    float64
}

var (
	unsafeNameChars  = regexp.MustCompile(`[^a-z0-9-]+`)
	manifestSizePart = regexp.MustCompile(`^(\d+(?:\.\d)?)x(\d+(?:\.\d)?)mm$`)
	manifestExt      = regexp.MustCompile(`\.(png|pdf)$`)
)

// BuildManifestFileName builds a filename following the pattern:
// PRODUCT_SIDE_OBJECT_METHOD_WxHmm.png
// Example: tee-01_front_obj-3_screen-printing_150.0x80.5mm.png
// Underscores inside a part are replaced by hyphens so the name splits cleanly.
func BuildManifestFileName(f ManifestFileName) string {
	return fmt.Sprintf("%s_%s_%s_%s_%.1fx%.1fmm.png",
		sanitizeNamePart(f.ProductID),
		sanitizeNamePart(f.SideID),
		sanitizeNamePart(f.ObjectID),
		sanitizeNamePart(f.PrintMethod),
		RoundDisplay(f.WidthMm),
		RoundDisplay(f.HeightMm),
	)
}

// ParseManifestFileName reverses BuildManifestFileName. Parts come back sanitized;
// the print method gets its underscores back.
func ParseManifestFileName(filename string) (*ManifestFileName, error) {
	name := manifestExt.ReplaceAllString(strings.ToLower(strings.TrimSpace(filename)), "")

	parts := strings.Split(name, "_")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid manifest filename: expected 5 parts separated by '_', got %d parts", len(parts))
	}
	for i, p := range parts[:4] {
		if p == "" {
			return nil, fmt.Errorf("invalid manifest filename: part %d is empty", i+1)
		}
	}

	matches := manifestSizePart.FindStringSubmatch(parts[4])
	if len(matches) != 3 {
		return nil, fmt.Errorf("invalid size format: expected WxHmm (e.g., 80.0x80.0mm), got %s", parts[4])
	}
	width, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid width %q: %w", matches[1], err)
	}
	height, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid height %q: %w", matches[2], err)
	}

	return &ManifestFileName{
		ProductID:   parts[0],
		SideID:      parts[1],
		ObjectID:    parts[2],
		PrintMethod: strings.ReplaceAll(parts[3], "-", "_"),
		WidthMm:     width,
		HeightMm:    height,
	}, nil
}

func sanitizeNamePart(s string) string {
	s = unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "x"
	}
	return s
}
