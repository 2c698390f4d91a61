package service

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"print-area-pricing/models"
	"print-area-pricing/utils"
)

// DefaultManifestDPI is the artwork resolution requested from the factory
const DefaultManifestDPI = 300

const mmPerInch = 25.4

// ManifestService turns a pricing summary into the production manifest sent to the
// factory with an order
type ManifestService struct {
	dpi   int
	now   func() time.Time
	newID func() string
}

// NewManifestService creates a ManifestService, dpi <= 0 uses DefaultManifestDPI
func NewManifestService(dpi int) *ManifestService {
	if dpi <= 0 {
		dpi = DefaultManifestDPI
	}
	return &ManifestService{
		dpi:   dpi,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Build lists every priced object of summary with its artwork file spec.
// Zero-priced objects are kept so the factory sees the whole design. File names are
// unique within a manifest: object IDs that sanitize to the same name get -2, -3, ...
func (s *ManifestService) Build(productID string, summary *models.PricingSummary, quantity int, currency string) *models.ProductionManifest {
	manifest := &models.ProductionManifest{
		QuoteID:   s.newID(),
		ProductID: productID,
		Quantity:  quantity,
		Currency:  currency,
		Items:     []models.ManifestItem{},
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if summary == nil {
		return manifest
	}

	used := make(map[string]bool)
	for _, side := range summary.Sides {
		for _, obj := range side.Objects {
			name := utils.ManifestFileName{
				ProductID:   productID,
				SideID:      side.SideID,
				ObjectID:    obj.ObjectID,
				PrintMethod: obj.PrintMethod,
				WidthMm:     obj.WidthMm,
				HeightMm:    obj.HeightMm,
			}
			manifest.Items = append(manifest.Items, models.ManifestItem{
				SideID:      side.SideID,
				SideName:    side.SideName,
				ObjectID:    obj.ObjectID,
				PrintMethod: obj.PrintMethod,
				PrintSize:   obj.PrintSize,
				WidthMm:     obj.WidthMm,
				HeightMm:    obj.HeightMm,
				XMm:         obj.XMm,
				YMm:         obj.YMm,
				DPI:         s.dpi,
				WidthPx:     MmToDots(obj.WidthMm, s.dpi),
				HeightPx:    MmToDots(obj.HeightMm, s.dpi),
				Colors:      obj.Colors,
				Price:       obj.Price,
				FileName:    uniqueFileName(name, used),
			})
		}
	}
	manifest.TotalPrice = summary.TotalAdditionalPrice
	return manifest
}

func uniqueFileName(name utils.ManifestFileName, used map[string]bool) string {
	fileName := utils.BuildManifestFileName(name)
	objectID := name.ObjectID
	for n := 2; used[fileName]; n++ {
		name.ObjectID = objectID + "-" + strconv.Itoa(n)
		fileName = utils.BuildManifestFileName(name)
	}
	used[fileName] = true
	return fileName
}

// MmToDots converts a physical length to pixels at dpi
func MmToDots(mm float64, dpi int) int {
	if mm <= 0 || dpi <= 0 {
		return 0
	}
	return int(math.Round(mm / mmPerInch * float64(dpi)))
}
