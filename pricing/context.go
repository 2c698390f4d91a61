package pricing

import (
	"print-area-pricing/colors"
	"print-area-pricing/models"
	"print-area-pricing/utils"
)

// Defaults applied by PricingContext.Normalize
const (
	DefaultSensitivity        = 30.0
	DefaultQuantity           = 1
	DefaultPixelStride        = 4
	DefaultAlphaThreshold     = 50
	DefaultNoiseRatio         = 0.001
	DefaultMaxSampleDimension = 400
	DefaultConcurrency        = 1
)

// PricingContext carries the tunables of one pricing pass. The zero value is usable:
// Normalize fills every unset field with its default.
type PricingContext struct {
	// Sensitivity is the 0-100 color merge control; nil means the default of 30
	// so that an explicit 0 (merge only identical colors) is still expressible.
	Sensitivity *float64 `json:"sensitivity,omitempty" mapstructure:"sensitivity"`
	// Quantity is the number of garments in the order
	Quantity int `json:"quantity,omitempty" mapstructure:"quantity"`
	// DefaultPrintAreaWidthMm is used for sides without calibration
	DefaultPrintAreaWidthMm float64 `json:"defaultPrintAreaWidthMm,omitempty" mapstructure:"default_print_area_width_mm"`

	PixelStride        int     `json:"pixelStride,omitempty" mapstructure:"pixel_stride"`
	AlphaThreshold     int     `json:"alphaThreshold,omitempty" mapstructure:"alpha_threshold"`
	NoiseRatio         float64 `json:"noiseRatio,omitempty" mapstructure:"noise_ratio"`
	MaxSampleDimension int     `json:"maxSampleDimension,omitempty" mapstructure:"max_sample_dimension"`
	// Concurrency bounds how many objects of a side are color-sampled at once
	Concurrency int `json:"concurrency,omitempty" mapstructure:"concurrency"`
}

// DefaultContext returns a context with every default filled in
func DefaultContext() PricingContext {
	return PricingContext{}.Normalize()
}

// Normalize returns a copy with defaults applied and sensitivity clamped to [0, 100]
func (pc PricingContext) Normalize() PricingContext {
	sensitivity := DefaultSensitivity
	if pc.Sensitivity != nil {
		sensitivity = colors.ClampSensitivity(*pc.Sensitivity)
	}
	pc.Sensitivity = &sensitivity

	if pc.Quantity < 1 {
		pc.Quantity = DefaultQuantity
	}
	if !(pc.DefaultPrintAreaWidthMm > 0) {
		pc.DefaultPrintAreaWidthMm = utils.DefaultPrintAreaWidthMm
	}
	if pc.PixelStride < 1 {
		pc.PixelStride = DefaultPixelStride
	}
	if pc.AlphaThreshold <= 0 {
		pc.AlphaThreshold = DefaultAlphaThreshold
	}
	if pc.AlphaThreshold > 255 {
		pc.AlphaThreshold = 255
	}
	if !(pc.NoiseRatio > 0) {
		pc.NoiseRatio = DefaultNoiseRatio
	}
	if pc.MaxSampleDimension <= 0 {
		pc.MaxSampleDimension = DefaultMaxSampleDimension
	}
	if pc.Concurrency < 1 {
		pc.Concurrency = DefaultConcurrency
	}
	return pc
}

// FromOptions builds a context from request options. Concurrency is left unset: it is
// a server setting.
func FromOptions(o models.PricingOptions) PricingContext {
	return PricingContext{
		Sensitivity:             o.Sensitivity,
		Quantity:                o.Quantity,
		DefaultPrintAreaWidthMm: o.DefaultPrintAreaWidthMm,
		PixelStride:             o.PixelStride,
		AlphaThreshold:          o.AlphaThreshold,
		NoiseRatio:              o.NoiseRatio,
		MaxSampleDimension:      o.MaxSampleDimension,
	}
}

// WithSensitivity returns a copy using the given sensitivity
func (pc PricingContext) WithSensitivity(s float64) PricingContext {
	pc.Sensitivity = &s
	return pc
}

// WithQuantity returns a copy using the given quantity
func (pc PricingContext) WithQuantity(q int) PricingContext {
	pc.Quantity = q
	return pc
}

// SensitivityValue returns the effective sensitivity
func (pc PricingContext) SensitivityValue() float64 {
	if pc.Sensitivity == nil {
		return DefaultSensitivity
	}
	return colors.ClampSensitivity(*pc.Sensitivity)
}

// ColorOptions returns the color extraction options of a normalized context
func (pc PricingContext) ColorOptions() colors.Options {
	return colors.Options{
		Sensitivity: pc.SensitivityValue(),
		Sample: colors.SampleOptions{
			PixelStride:    pc.PixelStride,
			AlphaThreshold: uint8(pc.AlphaThreshold),
			NoiseRatio:     pc.NoiseRatio,
			MaxDimension:   pc.MaxSampleDimension,
		},
	}
}
