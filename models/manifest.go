package models

// ManifestItem is the factory-facing spec of one printed object
type ManifestItem struct {
	SideID      string   `json:"sideId"`
	SideName    string   `json:"sideName"`
	ObjectID    string   `json:"objectId"`
	PrintMethod string   `json:"printMethod"`
	PrintSize   string   `json:"printSize"`
	WidthMm     float64  `json:"widthMm"`
	HeightMm    float64  `json:"heightMm"`
	XMm         float64  `json:"xMm"`
	YMm         float64  `json:"yMm"`
	DPI         int      `json:"dpi"`
	WidthPx     int      `json:"widthPx"`
	HeightPx    int      `json:"heightPx"`
	Colors      []string `json:"colors"`
	Price       int64    `json:"price"`
	FileName    string   `json:"fileName"`
}

// ProductionManifest is handed to the factory together with an order
type ProductionManifest struct {
	QuoteID    string         `json:"quoteId"`
	ProductID  string         `json:"productId"`
	Quantity   int            `json:"quantity"`
	Currency   string         `json:"currency"`
	Items      []ManifestItem `json:"items"`
	TotalPrice int64          `json:"totalPrice"`
	CreatedAt  string         `json:"createdAt"`
}
