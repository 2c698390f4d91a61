package controller

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"print-area-pricing/logger"
	"print-area-pricing/models"
	"print-area-pricing/pricing"
	"print-area-pricing/service"
)

// PricingController handles HTTP requests for print pricing
type PricingController struct {
	pricing      *service.PricingService
	manifests    *service.ManifestService
	quoteSheets  *service.QuoteSheetService
	maxBodyBytes int64
	log          *zap.Logger
}

// NewPricingController creates a new PricingController
func NewPricingController(pricingService *service.PricingService, manifests *service.ManifestService, quoteSheets *service.QuoteSheetService, maxBodyBytes int64, log *zap.Logger) *PricingController {
	if manifests == nil {
		manifests = service.NewManifestService(0)
	}
	return &PricingController{
		pricing:      pricingService,
		manifests:    manifests,
		quoteSheets:  quoteSheets,
		maxBodyBytes: maxBodyBytes,
		log:          logger.OrNop(log),
	}
}

// PriceObject handles POST /pricing/objects
// Example request:
//
//	{
//	  "productId": "tee-01",
//	  "side": {"id": "front"},
//	  "object": {"type": "text", "left": 100, "top": 80, "width": 160, "height": 60, "fill": "#ff0000", "data": {"objectId": "obj-1"}},
//	  "options": {"quantity": 1}
//	}
func (c *PricingController) PriceObject(w http.ResponseWriter, r *http.Request) {
	var req models.PriceObjectRequest
	if err := decodeJSON(w, r, c.maxBodyBytes, &req); err != nil {
		writeError(w, c.log, http.StatusBadRequest, err.Error())
		return
	}

	result := c.pricing.PriceObject(r.Context(), req.ProductID, req.Side, req.Object, pricing.FromOptions(req.Options))
	writeJSON(w, c.log, http.StatusOK, result)
}

// PriceSide handles POST /pricing/sides
// A result overtaken by a newer version of the same session's canvas answers 204 with
// X-Pricing-Stale: true.
func (c *PricingController) PriceSide(w http.ResponseWriter, r *http.Request) {
	var req models.PriceSideRequest
	if err := decodeJSON(w, r, c.maxBodyBytes, &req); err != nil {
		writeError(w, c.log, http.StatusBadRequest, err.Error())
		return
	}
	if req.Canvas.Side.ID == "" {
		writeError(w, c.log, http.StatusBadRequest, "canvas.side.id is required")
		return
	}

	result, err := c.pricing.PriceSide(r.Context(), req.ProductID, req.Canvas, pricing.FromOptions(req.Options), service.Revision{SessionID: req.SessionID, Version: req.Version})
	if err != nil {
		writeServiceError(w, c.log, err)
		return
	}
	writeJSON(w, c.log, http.StatusOK, result)
}

// PriceSummary handles POST /pricing/summary
// Example response:
//
//	{
//	  "sides": [{"sideId": "front", "sideName": "Front", "objects": [...], "totalPrice": 4000, "hasObjects": true}],
//	  "totalAdditionalPrice": 4000,
//	  "totalObjectCount": 1,
//	  "skippedSides": ["back"]
//	}
func (c *PricingController) PriceSummary(w http.ResponseWriter, r *http.Request) {
	summary, _, ok := c.summarize(w, r)
	if !ok {
		return
	}
	writeJSON(w, c.log, http.StatusOK, summary)
}

// Manifest handles POST /pricing/manifest
// Returns the production manifest of the priced design, with one artwork spec per object.
func (c *PricingController) Manifest(w http.ResponseWriter, r *http.Request) {
	summary, req, ok := c.summarize(w, r)
	if !ok {
		return
	}
	writeJSON(w, c.log, http.StatusOK, c.buildManifest(req, summary))
}

// QuoteSheet handles POST /pricing/quote-sheet?format=pdf|html
// PDF is the default; html skips the browser and is what the storefront previews.
func (c *PricingController) QuoteSheet(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "pdf"
	}
	if format != "pdf" && format != "html" {
		writeError(w, c.log, http.StatusBadRequest, "format must be pdf or html")
		return
	}
	if c.quoteSheets == nil {
		writeError(w, c.log, http.StatusServiceUnavailable, "quote sheets are not configured")
		return
	}

	summary, req, ok := c.summarize(w, r)
	if !ok {
		return
	}
	manifest := c.buildManifest(req, summary)
	sheet := service.QuoteSheetFromManifest(manifest, summary)

	if format == "html" {
		html, err := c.quoteSheets.RenderHTML(sheet)
		if err != nil {
			writeServiceError(w, c.log, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
		return
	}

	pdf, err := c.quoteSheets.GeneratePDF(r.Context(), sheet)
	if err != nil {
		writeServiceError(w, c.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="quote-`+manifest.QuoteID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// ProductSides handles GET /products/{productID}/sides
func (c *PricingController) ProductSides(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		writeError(w, c.log, http.StatusBadRequest, "productID is required")
		return
	}

	sides, err := c.pricing.ProductSides(r.Context(), productID)
	if err != nil {
		writeServiceError(w, c.log, err)
		return
	}
	if sides == nil {
		sides = []models.ProductSide{}
	}
	writeJSON(w, c.log, http.StatusOK, map[string]any{"productId": productID, "sides": sides})
}

// summarize decodes a summary request and prices it, writing the error response
// itself when it fails
func (c *PricingController) summarize(w http.ResponseWriter, r *http.Request) (*models.PricingSummary, models.PriceSummaryRequest, bool) {
	var req models.PriceSummaryRequest
	if err := decodeJSON(w, r, c.maxBodyBytes, &req); err != nil {
		writeError(w, c.log, http.StatusBadRequest, err.Error())
		return nil, req, false
	}

	summary, err := c.pricing.PriceSummary(r.Context(), req.ProductID, req.Canvases, pricing.FromOptions(req.Options), service.Revision{SessionID: req.SessionID, Version: req.Version})
	if err != nil {
		writeServiceError(w, c.log, err)
		return nil, req, false
	}
	return summary, req, true
}

func (c *PricingController) buildManifest(req models.PriceSummaryRequest, summary *models.PricingSummary) *models.ProductionManifest {
	pc := c.pricing.Context(pricing.FromOptions(req.Options))
	return c.manifests.Build(req.ProductID, summary, pc.Quantity, c.pricing.Config().Currency)
}
