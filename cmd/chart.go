package cmd

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/theirongolddev/dolla/internal/chart"
	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/spf13/cobra"
)

var (
	chartSVG    string
	chartSelect int
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Category donut geometry, optionally written as SVG",
	Example: `  dolla chart
  dolla chart --select 1 --svg spending.svg`,
	RunE: runChart,
}

func init() {
	chartCmd.Flags().StringVar(&chartSVG, "svg", "", "Write the donut as an SVG document to this path")
	chartCmd.Flags().IntVar(&chartSelect, "select", 0, "Highlight the Nth slice (1-based)")
	rootCmd.AddCommand(chartCmd)
}

func runChart(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	all, sess, err := loadRecords(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	records, _, _ := window(all)
	slices := pipeline.Aggregate(records, sess.registry.Names(), func(i int, _ string) string {
		return string(theme.Active.CategoryColor(i))
	})

	cc := appConfig.Chart
	d := chart.New(chart.Config{
		BaseRadius:   cc.BaseRadius,
		InnerRatio:   cc.InnerRatio,
		ExpandFactor: cc.ExpandFactor,
		Center:       chart.DefaultConfig().Center,
	})
	d.Build(slices)
	if chartSelect > 0 {
		d.Select(chartSelect - 1)
	}

	if d.Len() == 0 {
		fmt.Println("\n  Nothing to chart: no spending in the selected time range.")
		return nil
	}

	sym := appConfig.General.CurrencySymbol
	rows := make([][]string, 0, d.Len())
	for i, s := range d.Slices() {
		sec, _ := d.Sector(i)
		name := s.Category
		if s.Active {
			name = "▸ " + name
		}
		rows = append(rows, []string{
			cli.RenderSwatch(name, s.Color),
			cli.FormatMoney(s.Amount, sym),
			cli.FormatPercent(s.Percentage),
			fmt.Sprintf("%.1f°", degrees(s.StartAngle)),
			fmt.Sprintf("%.1f°", degrees(s.EndAngle)),
			fmt.Sprintf("%.0f", sec.OuterRadius),
			fmt.Sprintf("%v", sec.LargeArc()),
		})
	}

	value, caption := d.CenterLabel(sym)
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SPENDING DONUT  %s %s", caption, value)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Amount", "Share", "Start", "End", "Radius", "Large Arc"},
		Rows:    rows,
	}))

	if chartSVG == "" {
		return nil
	}

	t := theme.Active
	doc := d.SVG(chart.SVGOptions{
		Background:   string(t.Background),
		MaskColor:    string(t.Background),
		TextColor:    string(t.TextPrimary),
		TotalText:    value,
		TotalCaption: caption,
	})
	if err := os.WriteFile(chartSVG, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing svg: %w", err)
	}
	info("  wrote %s\n", chartSVG)
	return nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
