package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"print-area-pricing/app"
	"print-area-pricing/models"
	"print-area-pricing/pricing"
	"print-area-pricing/service"
)

var (
	quoteCanvas   string
	quoteFormat   string
	quoteOutput   string
	quoteQuantity int
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a saved design and print the summary, manifest or quote sheet",
	Long: `Reads a pricing request saved by the editor:

  {"productId": "tee-01", "canvases": [{"side": {...}, "objects": [...]}], "options": {"quantity": 50}}

and prints the pricing summary (json), the production manifest (manifest) or the
quote sheet (html, pdf).`,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&quoteCanvas, "canvas", "", "pricing request JSON file, - for stdin")
	quoteCmd.Flags().StringVar(&quoteFormat, "format", "json", "output format: json, manifest, html or pdf")
	quoteCmd.Flags().StringVarP(&quoteOutput, "output", "o", "", "output file (default stdout)")
	quoteCmd.Flags().IntVar(&quoteQuantity, "quantity", 0, "override the order quantity")
	_ = quoteCmd.MarkFlagRequired("canvas")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	req, err := readSummaryRequest(quoteCanvas, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if quoteQuantity > 0 {
		req.Options.Quantity = quoteQuantity
	}

	application, err := app.Initialize(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	summary, err := application.Pricing.PriceSummary(cmd.Context(), req.ProductID, req.Canvases, pricing.FromOptions(req.Options), service.Revision{})
	if err != nil {
		return fmt.Errorf("failed to price design: %w", err)
	}

	out := cmd.OutOrStdout()
	if quoteOutput != "" {
		f, err := os.Create(quoteOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	pc := application.Pricing.Context(pricing.FromOptions(req.Options))
	manifest := func() *models.ProductionManifest {
		return application.Manifests.Build(req.ProductID, summary, pc.Quantity, application.Pricing.Config().Currency)
	}

	switch quoteFormat {
	case "json":
		return writeIndented(out, summary)
	case "manifest":
		return writeIndented(out, manifest())
	case "html":
		html, err := application.QuoteSheets.RenderHTML(service.QuoteSheetFromManifest(manifest(), summary))
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, html)
		return err
	case "pdf":
		pdf, err := application.QuoteSheets.GeneratePDF(cmd.Context(), service.QuoteSheetFromManifest(manifest(), summary))
		if err != nil {
			return err
		}
		_, err = out.Write(pdf)
		return err
	}
	return fmt.Errorf("unknown format %q", quoteFormat)
}

func readSummaryRequest(path string, stdin io.Reader) (*models.PriceSummaryRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read canvas file: %w", err)
	}

	var req models.PriceSummaryRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse canvas file: %w", err)
	}
	return &req, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
