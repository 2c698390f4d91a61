package models

// Recommendation is the suggested print method shown to the user when no method was chosen
type Recommendation struct {
	Method string `json:"method"`
	Reason string `json:"reason"` // user-facing copy
}

// ColorCluster is a group of raw colors merged into one representative color
type ColorCluster struct {
	Representative string   `json:"representative"`
	Members        []string `json:"members"`
}

// ObjectPricing represents the computed price of one design object
type ObjectPricing struct {
	ObjectID       string          `json:"objectId"`
	ObjectType     string          `json:"objectType"`
	PrintMethod    string          `json:"printMethod"`
	PrintSize      string          `json:"printSize"`
	ColorCount     int             `json:"colorCount"`
	Colors         []string        `json:"colors"`
	WidthMm        float64         `json:"widthMm"`
	HeightMm       float64         `json:"heightMm"`
	XMm            float64         `json:"xMm"`
	YMm            float64         `json:"yMm"`
	Price          int64           `json:"price"`
	Quantity       *int            `json:"quantity,omitempty"`       // set for bulk methods only
	Recommendation *Recommendation `json:"recommendation,omitempty"` // set only when auto-selected
}

// PrintArea is a measured region in millimeters with its size bucket
type PrintArea struct {
	WidthMm  float64 `json:"widthMm"`
	HeightMm float64 `json:"heightMm"`
	XMm      float64 `json:"xMm"`
	YMm      float64 `json:"yMm"`
	Size     string  `json:"size"`
}

// SidePricing represents the pricing of every design object on one product side
type SidePricing struct {
	SideID       string          `json:"sideId"`
	SideName     string          `json:"sideName"`
	Objects      []ObjectPricing `json:"objects"`
	TotalPrice   int64           `json:"totalPrice"`
	HasObjects   bool            `json:"hasObjects"`
	CombinedArea *PrintArea      `json:"combinedArea,omitempty"`
}

// PricingSummary represents the pricing of all sides of a product
type PricingSummary struct {
	Sides                []SidePricing `json:"sides"`
	TotalAdditionalPrice int64         `json:"totalAdditionalPrice"`
	TotalObjectCount     int           `json:"totalObjectCount"`
	SkippedSides         []string      `json:"skippedSides,omitempty"`
}
