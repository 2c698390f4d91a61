package models

// PricingOptions are the per-request tunables of a pricing pass. Unset fields fall back
// to the server defaults. Sensitivity is a pointer so that 0 stays expressible.
type PricingOptions struct {
	Sensitivity             *float64 `json:"sensitivity,omitempty"`
	Quantity                int      `json:"quantity,omitempty"`
	DefaultPrintAreaWidthMm float64  `json:"defaultPrintAreaWidthMm,omitempty"`
	PixelStride             int      `json:"pixelStride,omitempty"`
	AlphaThreshold          int      `json:"alphaThreshold,omitempty"`
	NoiseRatio              float64  `json:"noiseRatio,omitempty"`
	MaxSampleDimension      int      `json:"maxSampleDimension,omitempty"`
}

// PriceObjectRequest is the body of POST /pricing/objects
type PriceObjectRequest struct {
	ProductID string         `json:"productId"`
	Side      ProductSide    `json:"side"`
	Object    DesignObject   `json:"object"`
	Options   PricingOptions `json:"options"`
}

// PriceSideRequest is the body of POST /pricing/sides. SessionID identifies the
// customer's editing session and scopes stale-result detection; without it no result is
// ever reported stale. Version is the editor's revision counter, when it keeps one.
type PriceSideRequest struct {
	ProductID string         `json:"productId"`
	Canvas    SideCanvas     `json:"canvas"`
	Options   PricingOptions `json:"options"`
	SessionID string         `json:"sessionId,omitempty"`
	Version   *uint64        `json:"version,omitempty"`
}

// PriceSummaryRequest is the body of the summary, manifest and quote sheet endpoints
type PriceSummaryRequest struct {
	ProductID string         `json:"productId"`
	Canvases  []SideCanvas   `json:"canvases"`
	Options   PricingOptions `json:"options"`
	SessionID string         `json:"sessionId,omitempty"`
	Version   *uint64        `json:"version,omitempty"`
}

// ErrorResponse is the JSON body of failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}
