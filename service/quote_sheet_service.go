package service

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"print-area-pricing/logger"
	"print-area-pricing/models"
	"print-area-pricing/utils"
)

//go:embed templates/quote_sheet.html
var quoteSheetTemplate string

// A4 paper in inches
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
)

var methodLabels = map[string]string{
	models.MethodDTF:            "DTF",
	models.MethodDTG:            "DTG",
	models.MethodScreenPrinting: "Screen printing",
	models.MethodEmbroidery:     "Embroidery",
	models.MethodApplique:       "Appliqué",
}

// QuoteSheet is the data rendered on a quote sheet
type QuoteSheet struct {
	QuoteID   string
	ProductID string
	Quantity  int
	Currency  string
	CreatedAt string
	Summary   *models.PricingSummary
}

// QuoteSheetFromManifest builds the sheet for a manifest and the summary it came from
func QuoteSheetFromManifest(manifest *models.ProductionManifest, summary *models.PricingSummary) QuoteSheet {
	return QuoteSheet{
		QuoteID:   manifest.QuoteID,
		ProductID: manifest.ProductID,
		Quantity:  manifest.Quantity,
		Currency:  manifest.Currency,
		CreatedAt: manifest.CreatedAt,
		Summary:   summary,
	}
}

// QuoteSheetService renders customer quote sheets as HTML and PDF
type QuoteSheetService struct {
	chromePath string
	timeout    time.Duration
	log        *zap.Logger
}

// NewQuoteSheetService creates a QuoteSheetService. An empty chromePath is detected.
func NewQuoteSheetService(chromePath string, timeout time.Duration, log *zap.Logger) *QuoteSheetService {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QuoteSheetService{
		chromePath: chromePath,
		timeout:    timeout,
		log:        logger.OrNop(log),
	}
}

// detectChromePath detects the path to Chrome/Chromium executable
// Checks CHROME_PATH env var first, then common installation paths
func detectChromePath() string {
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// RenderHTML renders the quote sheet template
func (s *QuoteSheetService) RenderHTML(sheet QuoteSheet) (string, error) {
	if sheet.Summary == nil {
		sheet.Summary = &models.PricingSummary{}
	}
	currency := sheet.Currency

	tmpl, err := template.New("quote_sheet").Funcs(template.FuncMap{
		"money": func(amount int64) string { return utils.FormatAmount(amount, currency) },
		"mm":    func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
		"join":  strings.Join,
		"methodLabel": func(method string) string {
			if label, ok := methodLabels[method]; ok {
				return label
			}
			return method
		},
	}).Parse(quoteSheetTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, sheet); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// GeneratePDF prints the quote sheet to an A4 PDF with headless Chrome
func (s *QuoteSheetService) GeneratePDF(ctx context.Context, sheet QuoteSheet) ([]byte, error) {
	html, err := s.RenderHTML(sheet)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
	)
	if s.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	var pdfBuf []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		s.log.Error("quote sheet PDF generation failed", zap.String("quoteId", sheet.QuoteID), zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	s.log.Info("quote sheet PDF generated", zap.String("quoteId", sheet.QuoteID), zap.Int("bytes", len(pdfBuf)))
	return pdfBuf, nil
}
