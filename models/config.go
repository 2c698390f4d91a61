package models

// Print methods
const (
	MethodDTF            = "dtf"
	MethodDTG            = "dtg"
	MethodScreenPrinting = "screen_printing"
	MethodEmbroidery     = "embroidery"
	MethodApplique       = "applique"
)

// Size buckets
const (
	Size10x10 = "10x10"
	SizeA4    = "A4"
	SizeA3    = "A3"
)

// AllMethods lists every print method in a stable order
var AllMethods = []string{MethodDTF, MethodDTG, MethodScreenPrinting, MethodEmbroidery, MethodApplique}

// AllSizes lists every size bucket from smallest to largest
var AllSizes = []string{Size10x10, SizeA4, SizeA3}

// BulkTier is the price of one color on one garment for a bulk method
type BulkTier struct {
	BasePrice               int64 `json:"basePrice"`
	BaseQuantity            int   `json:"baseQuantity"`
	AdditionalPricePerPiece int64 `json:"additionalPricePerPiece"`
}

// TransferPricing holds flat prices per size bucket
type TransferPricing struct {
	Sizes map[string]int64 `json:"sizes"`
}

// BulkPricing holds quantity tiers per size bucket
type BulkPricing struct {
	Sizes map[string]BulkTier `json:"sizes"`
}

// PrintPricingConfig represents the administrable price table
type PrintPricingConfig struct {
	Currency       string          `json:"currency"`
	DTF            TransferPricing `json:"dtf"`
	DTG            TransferPricing `json:"dtg"`
	ScreenPrinting BulkPricing     `json:"screen_printing"`
	Embroidery     BulkPricing     `json:"embroidery"`
	Applique       BulkPricing     `json:"applique"`
}

// StoredPricingConfig is one saved revision of the price table
type StoredPricingConfig struct {
	ID        string             `json:"id"`
	Version   int64              `json:"version"`
	Active    bool               `json:"active"`
	UpdatedBy string             `json:"updatedBy,omitempty"`
	Config    PrintPricingConfig `json:"config"`
}
