package controller

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"print-area-pricing/logger"
	"print-area-pricing/models"
	"print-area-pricing/service"
)

// UpdatedByHeader names the operator saving a price table
const UpdatedByHeader = "X-Updated-By"

// ConfigController handles HTTP requests for the print price table
type ConfigController struct {
	pricing      *service.PricingService
	maxBodyBytes int64
	log          *zap.Logger
}

// NewConfigController creates a new ConfigController
func NewConfigController(pricingService *service.PricingService, maxBodyBytes int64, log *zap.Logger) *ConfigController {
	return &ConfigController{
		pricing:      pricingService,
		maxBodyBytes: maxBodyBytes,
		log:          logger.OrNop(log),
	}
}

// GetConfig handles GET /pricing/config
func (c *ConfigController) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, c.log, http.StatusOK, c.pricing.Config())
}

// UpdateConfig handles PUT /admin/pricing/config
// The whole table is replaced. Every gap is reported at once and nothing is saved
// while any remains.
func (c *ConfigController) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.PrintPricingConfig
	if err := decodeJSON(w, r, c.maxBodyBytes, &cfg); err != nil {
		writeError(w, c.log, http.StatusBadRequest, err.Error())
		return
	}

	updatedBy := strings.TrimSpace(r.Header.Get(UpdatedByHeader))
	if updatedBy == "" {
		updatedBy = "admin"
	}

	stored, err := c.pricing.UpdateConfig(r.Context(), &cfg, updatedBy)
	if err != nil {
		if errors.Is(err, service.ErrInvalidConfig) {
			writeError(w, c.log, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeServiceError(w, c.log, err)
		return
	}
	writeJSON(w, c.log, http.StatusOK, stored)
}
