package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ObjectType values reported by the editor for placed objects
const (
	ObjectTypeText  = "text"
	ObjectTypeImage = "image"
	ObjectTypeShape = "shape"
	ObjectTypeGroup = "group"
)

// BackgroundObjectName is the reserved name of the garment mockup image on every canvas
const BackgroundObjectName = "background-product-image"

// GradientStop is one color stop of a gradient paint
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Paint is a fill or stroke value: either a solid color string or a gradient stop list
type Paint struct {
	Color string         `json:"color,omitempty"`
	Stops []GradientStop `json:"stops,omitempty"`
}

// IsGradient reports whether the paint carries gradient stops
func (p Paint) IsGradient() bool {
	return len(p.Stops) > 0
}

// CharacterStyle is a rich-text style override for one character of a text object
type CharacterStyle struct {
	Line   int    `json:"line"`
	Char   int    `json:"char"`
	Fill   string `json:"fill,omitempty"`
	Stroke string `json:"stroke,omitempty"`
}

// DesignObjectMetadata is the pricing data the editor stores next to a canvas object.
// ObjectID is assigned by the editor and persists across sessions.
type DesignObjectMetadata struct {
	ObjectID    string   `json:"objectId"`
	PrintMethod string   `json:"printMethod,omitempty"` // explicit override, empty when not chosen
	WidthMm     *float64 `json:"widthMm,omitempty"`     // cached by the editor, informational only
	HeightMm    *float64 `json:"heightMm,omitempty"`
}

// Geometry is the placement of an object in canvas pixel space
type Geometry struct {
	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ScaleX      float64 `json:"scaleX"`
	ScaleY      float64 `json:"scaleY"`
	Angle       float64 `json:"angle"` // degrees, clockwise, around the top-left corner
	StrokeWidth float64 `json:"strokeWidth"`
}

// DesignObject represents a user-placed text, image, shape or group on a canvas
type DesignObject struct {
	Type              string               `json:"type"`
	Name              string               `json:"name,omitempty"`
	ExcludeFromExport bool                 `json:"excludeFromExport,omitempty"`
	Geometry                               // embedded so the editor payload stays flat
	Fill              Paint                `json:"fill"`
	Stroke            Paint                `json:"stroke"`
	Styles            []CharacterStyle     `json:"styles,omitempty"`
	Src               string               `json:"src,omitempty"`
	Objects           []DesignObject       `json:"objects,omitempty"`
	Data              DesignObjectMetadata `json:"data"`
}

// IsSystemObject reports whether the object is editor scaffolding rather than a design:
// guides and snap lines are flagged excludeFromExport, the mockup carries the reserved name.
func (o DesignObject) IsSystemObject() bool {
	return o.ExcludeFromExport || o.Name == BackgroundObjectName
}

// ProductSide represents one printable face of a garment with its calibration data
type ProductSide struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	MockupURL            string  `json:"mockupUrl,omitempty"`
	PrintAreaWidthMm     float64 `json:"printAreaWidthMm"`
	PrintAreaHeightMm    float64 `json:"printAreaHeightMm"`
	RenderedImageWidthPx float64 `json:"renderedImageWidthPx"`
	PrintAreaLeftPx      float64 `json:"printAreaLeftPx"`
	PrintAreaTopPx       float64 `json:"printAreaTopPx"`
}

// SideCanvas is the editor state of one side. A nil Objects slice means the canvas
// was never created for that side.
type SideCanvas struct {
	Side    ProductSide    `json:"side"`
	Objects []DesignObject `json:"objects"`
}

type paintObject struct {
	Color      string         `json:"color,omitempty"`
	Stops      []GradientStop `json:"stops,omitempty"`
	ColorStops []GradientStop `json:"colorStops,omitempty"`
}

// UnmarshalJSON accepts the editor's two paint shapes: a color string, or a gradient
// object with "stops" (or "colorStops" as exported by the canvas library)
func (p *Paint) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = Paint{}
		return nil
	}
	if trimmed[0] == '"' {
		var color string
		if err := json.Unmarshal(trimmed, &color); err != nil {
			return fmt.Errorf("invalid paint color: %w", err)
		}
		*p = Paint{Color: color}
		return nil
	}

	var obj paintObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return fmt.Errorf("invalid paint object: %w", err)
	}
	stops := obj.Stops
	if len(stops) == 0 {
		stops = obj.ColorStops
	}
	*p = Paint{Color: obj.Color, Stops: stops}
	return nil
}

// MarshalJSON writes solid paints back as plain strings
func (p Paint) MarshalJSON() ([]byte, error) {
	if !p.IsGradient() {
		return json.Marshal(p.Color)
	}
	return json.Marshal(paintObject{Color: p.Color, Stops: p.Stops})
}
