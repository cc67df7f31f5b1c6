// Command catalog-merge runs the supplier catalog pipeline (extract ->
// normalize -> classify -> merge) and writes the merged product list as the
// canonical CSV, optionally alongside an XLSX workbook for human review.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/xuri/excelize/v2"

	"storefront-catalog-service/internal/catalog"
	"storefront-catalog-service/internal/csvcodec"
	"storefront-catalog-service/internal/domain"
)

func main() {
	var (
		manifestPath = flag.String("manifest", "", "path to catalogs.toml (default: built-in source list under -data)")
		dataDir      = flag.String("data", "data/catalogs", "directory holding the supplier JSON files")
		outPath      = flag.String("out", "data/snapshots/products.csv", "merged CSV output path")
		xlsxPath     = flag.String("xlsx", "", "optional XLSX review workbook output path")
		pretty       = flag.Bool("pretty", false, "print the run summary as indented JSON")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[catalog-merge] ", log.LstdFlags)

	var sources []catalog.Source
	if *manifestPath != "" {
		manifest, err := catalog.LoadManifest(*manifestPath)
		if err != nil {
			logger.Fatalf("FATAL: %v", err)
		}
		sources = manifest.Sources
	} else {
		sources = catalog.DefaultManifest(*dataDir).Sources
	}

	merger := catalog.NewMerger(nil, logger)
	report := merger.Merge(context.Background(), sources)

	if *pretty {
		if err := printJSONSummary(os.Stdout, report); err != nil {
			logger.Fatalf("FATAL: encode summary: %v", err)
		}
	} else {
		printSummary(report, sources)
	}

	if len(report.Errors) == len(sources) {
		logger.Fatalf("FATAL: all %d sources failed, nothing to write", len(sources))
	}

	data := csvcodec.New(logger).EncodeProducts(report.Products)
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		logger.Fatalf("FATAL: write %s: %v", *outPath, err)
	}
	logger.Printf("INFO: wrote %d products to %s", len(report.Products), *outPath)

	if *xlsxPath != "" {
		if err := writeWorkbook(*xlsxPath, report.Products); err != nil {
			logger.Fatalf("FATAL: write %s: %v", *xlsxPath, err)
		}
		logger.Printf("INFO: wrote review workbook to %s", *xlsxPath)
	}
}

// runSummary is the -pretty JSON shape of one merge run.
type runSummary struct {
	RunID    string         `json:"run_id"`
	Products int            `json:"products"`
	Sources  map[string]int `json:"sources"`
	Errors   []string       `json:"errors,omitempty"`
	Duration string         `json:"duration"`
}

func printJSONSummary(w io.Writer, report *catalog.Report) error {
	summary := runSummary{
		RunID:    report.RunID,
		Products: len(report.Products),
		Sources:  report.PerSource,
		Duration: report.Duration.String(),
	}
	for _, srcErr := range report.Errors {
		summary.Errors = append(summary.Errors, srcErr.Error())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func printSummary(report *catalog.Report, sources []catalog.Source) {
	fmt.Printf("merge run %s: %d products from %d sources\n", report.RunID, len(report.Products), len(sources))

	names := make([]string, 0, len(report.PerSource))
	for name := range report.PerSource {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-40s %d\n", name, report.PerSource[name])
	}
	for _, srcErr := range report.Errors {
		fmt.Printf("  ERROR %s\n", srcErr)
	}
}

// writeWorkbook emits one "Products" sheet mirroring the CSV layout.
func writeWorkbook(path string, products []domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Products"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range csvcodec.ProductHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	for row, p := range products {
		for col, value := range productCells(p) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

func productCells(p domain.Product) []any {
	price := any("")
	if p.Price != nil {
		price = *p.Price
	}
	return []any{
		p.ID, p.Name, p.Category, p.Subcategory, p.Description, price,
		p.ImageURL, p.InStock, p.CreatedAt, p.UpdatedAt, p.Brand, p.Series,
		p.Material, p.Features, p.Specifications, p.Dimensions, p.Weight,
		p.Color, p.Model, p.SKU, p.Capacity, p.Variants,
	}
}
