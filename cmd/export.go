package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/source"

	"github.com/spf13/cobra"
)

var (
	exportFormat   string
	exportOutput   string
	exportWindow   bool
	exportCategory string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export expenses as JSONL, JSON, CSV or XLSX",
	Example: `  dolla export -o backup.json
  dolla export --format csv --window -n 90 > last-quarter.csv`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "jsonl, json, csv or xlsx (default: from --output extension, else jsonl)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportWindow, "window", false, "Only export the last --days days")
	exportCmd.Flags().StringVarP(&exportCategory, "category", "c", "", "Only this category")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	format, err := exportFormatFor(exportFormat, exportOutput)
	if err != nil {
		return err
	}
	if format == source.FormatXLSX && exportOutput == "" {
		return errors.New("xlsx export needs --output")
	}

	ctx := context.Background()
	records, sess, err := loadRecords(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if exportWindow {
		records, _, _ = window(records)
	}
	if exportCategory != "" {
		records = pipeline.FilterByCategory(records, exportCategory)
	}

	var w io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOutput, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := source.Export(w, format, records); err != nil {
		return fmt.Errorf("exporting: %w", err)
	}
	logger.Info("export finished", "format", format, "records", len(records), "output", exportOutput)
	if exportOutput != "" {
		info("  wrote %d expenses to %s\n", len(records), exportOutput)
	}
	return nil
}

// exportFormatFor resolves --format, falling back to the output file's
// extension and then JSONL.
func exportFormatFor(flag, output string) (source.Format, error) {
	if flag != "" {
		for _, f := range source.Formats {
			if string(f) == flag {
				return f, nil
			}
		}
		return "", fmt.Errorf("unknown format %q (want jsonl, json, csv or xlsx)", flag)
	}
	if output != "" {
		if f, ok := source.FormatOf(output); ok {
			return f, nil
		}
	}
	return source.FormatJSONL, nil
}
