package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"print-area-pricing/models"
)

// DefaultCurrency of the price table
const DefaultCurrency = "KRW"

// DefaultConfig returns the standard price table in won
func DefaultConfig() *models.PrintPricingConfig {
	return &models.PrintPricingConfig{
		Currency: DefaultCurrency,
		DTF: models.TransferPricing{Sizes: map[string]int64{
			models.Size10x10: 4000,
			models.SizeA4:    7000,
			models.SizeA3:    10000,
		}},
		DTG: models.TransferPricing{Sizes: map[string]int64{
			models.Size10x10: 6000,
			models.SizeA4:    9000,
			models.SizeA3:    12000,
		}},
		ScreenPrinting: models.BulkPricing{Sizes: map[string]models.BulkTier{
			models.Size10x10: {BasePrice: 60000, BaseQuantity: 100, AdditionalPricePerPiece: 500},
			models.SizeA4:    {BasePrice: 80000, BaseQuantity: 100, AdditionalPricePerPiece: 600},
			models.SizeA3:    {BasePrice: 100000, BaseQuantity: 100, AdditionalPricePerPiece: 700},
		}},
		Embroidery: models.BulkPricing{Sizes: map[string]models.BulkTier{
			models.Size10x10: {BasePrice: 60000, BaseQuantity: 100, AdditionalPricePerPiece: 600},
			models.SizeA4:    {BasePrice: 80000, BaseQuantity: 100, AdditionalPricePerPiece: 800},
			models.SizeA3:    {BasePrice: 100000, BaseQuantity: 100, AdditionalPricePerPiece: 1000},
		}},
		Applique: models.BulkPricing{Sizes: map[string]models.BulkTier{
			models.Size10x10: {BasePrice: 70000, BaseQuantity: 100, AdditionalPricePerPiece: 700},
			models.SizeA4:    {BasePrice: 90000, BaseQuantity: 100, AdditionalPricePerPiece: 900},
			models.SizeA3:    {BasePrice: 110000, BaseQuantity: 100, AdditionalPricePerPiece: 1100},
		}},
	}
}

// LoadConfigFile reads a price table from a JSON file. Relative paths are resolved
// against the working directory. The table is validated before it is returned.
func LoadConfigFile(configPath string) (*models.PrintPricingConfig, error) {
	if !filepath.IsAbs(configPath) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		configPath = filepath.Join(wd, configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a JSON price table
func ParseConfig(data []byte) (*models.PrintPricingConfig, error) {
	var config models.PrintPricingConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse pricing config: %w", err)
	}
	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}
	return &config, nil
}

// Validate reports every missing or invalid entry of the price table at once, so an
// operator can fix the whole table in one go. Runtime lookups never fail on these gaps.
func Validate(config *models.PrintPricingConfig) error {
	if config == nil {
		return errors.New("pricing config is nil")
	}

	var errs []error
	if config.Currency == "" {
		errs = append(errs, errors.New("currency is required"))
	}
	for _, method := range []string{models.MethodDTF, models.MethodDTG} {
		table := transferTable(config, method)
		for _, size := range models.AllSizes {
			price, ok := table.Sizes[size]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("%s: missing price for size %s", method, size))
			case price < 0:
				errs = append(errs, fmt.Errorf("%s: negative price %d for size %s", method, price, size))
			}
		}
	}
	for _, method := range []string{models.MethodScreenPrinting, models.MethodEmbroidery, models.MethodApplique} {
		table := bulkTable(config, method)
		for _, size := range models.AllSizes {
			tier, ok := table.Sizes[size]
			if !ok {
				errs = append(errs, fmt.Errorf("%s: missing tier for size %s", method, size))
				continue
			}
			if tier.BasePrice < 0 || tier.AdditionalPricePerPiece < 0 {
				errs = append(errs, fmt.Errorf("%s: negative price in tier for size %s", method, size))
			}
			if tier.BaseQuantity < 0 {
				errs = append(errs, fmt.Errorf("%s: negative base quantity for size %s", method, size))
			}
		}
	}
	return errors.Join(errs...)
}

func transferTable(config *models.PrintPricingConfig, method string) models.TransferPricing {
	switch method {
	case models.MethodDTF:
		return config.DTF
	case models.MethodDTG:
		return config.DTG
	}
	return models.TransferPricing{}
}

func bulkTable(config *models.PrintPricingConfig, method string) models.BulkPricing {
	switch method {
	case models.MethodScreenPrinting:
		return config.ScreenPrinting
	case models.MethodEmbroidery:
		return config.Embroidery
	case models.MethodApplique:
		return config.Applique
	}
	return models.BulkPricing{}
}
