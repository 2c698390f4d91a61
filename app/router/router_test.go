package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-area-pricing/app/controller"
	"print-area-pricing/metrics"
	"print-area-pricing/models"
	"print-area-pricing/service"
)

const adminToken = "s3cret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	pricingService := service.NewPricingService(nil, service.PricingServiceDeps{Metrics: m})
	controllers := &Controllers{
		Pricing: controller.NewPricingController(pricingService, nil, service.NewQuoteSheetService("/nonexistent/chrome", 0, nil), 0, nil),
		Config:  controller.NewConfigController(pricingService, 0, nil),
	}
	srv := httptest.NewServer(New(controllers, Options{
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminToken: adminToken,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, headers ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const frontSide = `{"id": "front", "name": "Front", "printAreaWidthMm": 500, "renderedImageWidthPx": 1000}`

const redText = `{"type": "text", "left": 100, "top": 100, "width": 160, "height": 60, "scaleX": 1, "scaleY": 1, "fill": "#ff0000", "data": {"objectId": "obj-1"}}`

const summaryBody = `{
  "productId": "tee-01",
  "canvases": [
    {"side": ` + frontSide + `, "objects": [` + redText + `]},
    {"side": {"id": "back", "name": "Back", "printAreaWidthMm": 500, "renderedImageWidthPx": 1000}, "objects": []},
    {"side": {"id": "sleeve"}}
  ],
  "options": {"quantity": 10}
}`

func TestPing(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPriceObject(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/pricing/objects", `{"side": `+frontSide+`, "object": `+redText+`}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.ObjectPricing](t, resp)
	assert.Equal(t, "obj-1", got.ObjectID)
	assert.Equal(t, models.MethodDTF, got.PrintMethod)
	assert.Equal(t, models.Size10x10, got.PrintSize)
	assert.Equal(t, []string{"#ff0000"}, got.Colors)
	assert.Equal(t, int64(4000), got.Price)
	require.NotNil(t, got.Recommendation)
}

func TestPriceObject_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/pricing/objects", `{"object": `)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[models.ErrorResponse](t, resp).Error, "invalid request body")
}

func TestPriceSide(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/pricing/sides", `{"productId": "tee-01", "canvas": {"side": `+frontSide+`, "objects": [`+redText+`]}, "sessionId": "editor-1", "version": 5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	side := decode[models.SidePricing](t, resp)
	assert.Equal(t, int64(4000), side.TotalPrice)
	assert.True(t, side.HasObjects)

	stale := do(t, srv, http.MethodPost, "/pricing/sides", `{"productId": "tee-01", "canvas": {"side": `+frontSide+`, "objects": []}, "sessionId": "editor-1", "version": 3}`)
	assert.Equal(t, http.StatusNoContent, stale.StatusCode)
	assert.Equal(t, "true", stale.Header.Get(controller.StaleHeader))

	other := do(t, srv, http.MethodPost, "/pricing/sides", `{"productId": "tee-01", "canvas": {"side": `+frontSide+`, "objects": []}, "sessionId": "editor-2", "version": 1}`)
	assert.Equal(t, http.StatusOK, other.StatusCode, "another customer's session is tracked separately")

	anonymous := do(t, srv, http.MethodPost, "/pricing/sides", `{"productId": "tee-01", "canvas": {"side": `+frontSide+`, "objects": []}, "version": 1}`)
	assert.Equal(t, http.StatusOK, anonymous.StatusCode)
}

func TestPriceSide_Errors(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/pricing/sides", `{"canvas": {"side": {}, "objects": []}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/pricing/sides", `{"canvas": {"side": {"id": "front"}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPriceSummary(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/pricing/summary", summaryBody)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[models.PricingSummary](t, resp)
	assert.Len(t, summary.Sides, 2)
	assert.Equal(t, []string{"sleeve"}, summary.SkippedSides)
	assert.Equal(t, int64(4000), summary.TotalAdditionalPrice)
	assert.Equal(t, 1, summary.TotalObjectCount)
}

func TestManifest(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/pricing/manifest", summaryBody)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	manifest := decode[models.ProductionManifest](t, resp)
	assert.NotEmpty(t, manifest.QuoteID)
	assert.Equal(t, 10, manifest.Quantity)
	assert.Equal(t, "KRW", manifest.Currency)
	require.Len(t, manifest.Items, 1)
	assert.Equal(t, "tee-01_front_obj-1_dtf_80.0x30.0mm.png", manifest.Items[0].FileName)
}

func TestQuoteSheet_HTML(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/pricing/quote-sheet?format=html", summaryBody)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	var body strings.Builder
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "₩4,000")
	assert.Contains(t, body.String(), "Not priced: sleeve")
}

func TestQuoteSheet_UnknownFormat(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/pricing/quote-sheet?format=xml", summaryBody)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProductSides_WithoutCatalog(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/products/tee-01/sides", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConfigRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/pricing/config", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg := decode[models.PrintPricingConfig](t, resp)
	assert.Equal(t, int64(4000), cfg.DTF.Sizes[models.Size10x10])

	cfg.DTF.Sizes[models.Size10x10] = 4500
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	resp = do(t, srv, http.MethodPut, "/admin/pricing/config", string(body))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/admin/pricing/config", string(body), "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/admin/pricing/config", string(body), "Authorization", "Bearer "+adminToken, controller.UpdatedByHeader, "ops")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored := decode[models.StoredPricingConfig](t, resp)
	assert.Equal(t, "ops", stored.UpdatedBy)

	resp = do(t, srv, http.MethodPost, "/pricing/objects", `{"side": `+frontSide+`, "object": `+redText+`}`)
	assert.Equal(t, int64(4500), decode[models.ObjectPricing](t, resp).Price)

	delete(cfg.DTG.Sizes, models.SizeA3)
	body, err = json.Marshal(cfg)
	require.NoError(t, err)
	resp = do(t, srv, http.MethodPut, "/admin/pricing/config", string(body), "Authorization", "Bearer "+adminToken)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode[models.ErrorResponse](t, resp).Error, "dtg: missing price for size A3")
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	pricingService := service.NewPricingService(nil, service.PricingServiceDeps{})
	controllers := &Controllers{
		Pricing: controller.NewPricingController(pricingService, nil, nil, 0, nil),
		Config:  controller.NewConfigController(pricingService, 0, nil),
	}
	srv := httptest.NewServer(New(controllers, Options{}))
	t.Cleanup(srv.Close)

	resp := do(t, srv, http.MethodPut, "/admin/pricing/config", `{}`, "Authorization", "Bearer ")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, "/pricing/summary", summaryBody)

	resp := do(t, srv, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body strings.Builder
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "print_pricing_skipped_sides_total 1")
}
