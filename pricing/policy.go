package pricing

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"print-area-pricing/logger"
	"print-area-pricing/metrics"
	"print-area-pricing/models"
)

// ErrUnknownMethod is returned when a print method name is not recognized
var ErrUnknownMethod = errors.New("unknown print method")

// Recommendation reasons shown to the customer
const (
	ReasonManyColors = "Designs with 4 or more colors print best with DTF: one flat price per size, no matter how many colors."
	ReasonDefault    = "DTF is the default for most orders: one flat price per size. Choose screen printing or embroidery for large runs with few colors."
)

// manyColorsThreshold is the color count from which the many-colors reason applies
const manyColorsThreshold = 4

// ParseMethod normalizes a user supplied method name ("Screen Printing", "screen-printing",
// "DTF") to its canonical identifier
func ParseMethod(value string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(value))
	s = strings.NewReplacer("-", "_", " ", "_", "é", "e").Replace(s)
	for _, m := range models.AllMethods {
		if s == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, value)
}

// IsBulkMethod reports whether method is priced per color with quantity tiers
func IsBulkMethod(method string) bool {
	switch method {
	case models.MethodScreenPrinting, models.MethodEmbroidery, models.MethodApplique:
		return true
	}
	return false
}

// IsTransferMethod reports whether method is priced flat per size
func IsTransferMethod(method string) bool {
	return method == models.MethodDTF || method == models.MethodDTG
}

// Recommend suggests a print method from the color count. DTF is always recommended;
// the reason explains why for designs with many colors.
func Recommend(colorCount int) models.Recommendation {
	if colorCount >= manyColorsThreshold {
		return models.Recommendation{Method: models.MethodDTF, Reason: ReasonManyColors}
	}
	return models.Recommendation{Method: models.MethodDTF, Reason: ReasonDefault}
}

// Policy prices a print method for a size bucket from a read-only price table.
// Lookup misses are logged and priced at 0 so checkout is never blocked.
type Policy struct {
	config  *models.PrintPricingConfig
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewPolicy creates a policy over config, falling back to DefaultConfig when nil
func NewPolicy(config *models.PrintPricingConfig, log *zap.Logger, m *metrics.Metrics) *Policy {
	if config == nil {
		config = DefaultConfig()
	}
	return &Policy{
		config:  config,
		log:     logger.OrNop(log),
		metrics: m,
	}
}

// Config returns the price table in use
func (p *Policy) Config() *models.PrintPricingConfig {
	return p.config
}

// Currency returns the currency of the price table
func (p *Policy) Currency() string {
	if p.config.Currency == "" {
		return DefaultCurrency
	}
	return p.config.Currency
}

// Validate checks the price table, see Validate
func (p *Policy) Validate() error {
	return Validate(p.config)
}

// TransferPrice returns the flat price of a transfer method for a size bucket
func (p *Policy) TransferPrice(method, size string) int64 {
	if !IsTransferMethod(method) {
		p.configGap(method, size, "not a transfer method")
		return 0
	}
	price, ok := transferTable(p.config, method).Sizes[size]
	if !ok {
		p.configGap(method, size, "missing transfer price")
		return 0
	}
	return price
}

// BulkPricePerColor returns the price of one color for the whole order:
// the base price up to the base quantity, plus the additional price per piece above it
func (p *Policy) BulkPricePerColor(method, size string, quantity int) int64 {
	if !IsBulkMethod(method) {
		p.configGap(method, size, "not a bulk method")
		return 0
	}
	tier, ok := bulkTable(p.config, method).Sizes[size]
	if !ok {
		p.configGap(method, size, "missing bulk tier")
		return 0
	}
	if quantity <= tier.BaseQuantity {
		return tier.BasePrice
	}
	return tier.BasePrice + int64(quantity-tier.BaseQuantity)*tier.AdditionalPricePerPiece
}

// BulkPrice returns the price of a bulk method, one pass per color
func (p *Policy) BulkPrice(method, size string, colorCount, quantity int) int64 {
	if colorCount <= 0 {
		return 0
	}
	return p.BulkPricePerColor(method, size, quantity) * int64(colorCount)
}

// Price dispatches on the pricing shape of method
func (p *Policy) Price(method, size string, colorCount, quantity int) int64 {
	if IsBulkMethod(method) {
		return p.BulkPrice(method, size, colorCount, quantity)
	}
	return p.TransferPrice(method, size)
}

func (p *Policy) configGap(method, size, reason string) {
	p.log.Error("pricing config gap, pricing at 0",
		zap.String("method", method),
		zap.String("size", size),
		zap.String("reason", reason))
	p.metrics.IncConfigGap(method, size)
}
