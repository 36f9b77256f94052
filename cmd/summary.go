package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Spending summary with category breakdown",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	all, sess, err := loadRecords(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if len(all) == 0 {
		fmt.Println("\n  No expenses recorded yet.")
		fmt.Println("  Add one with `dolla add` or open `dolla tui`.")
		return nil
	}

	records, since, until := window(all)
	if len(records) == 0 {
		fmt.Println("\n  No expenses in the selected time range.")
		return nil
	}

	sym := appConfig.General.CurrencySymbol
	sum := pipeline.Summarize(records, until)
	slices := pipeline.Aggregate(records, sess.registry.Names(), func(i int, _ string) string {
		return string(theme.Active.CategoryColor(i))
	})

	// Previous period of the same length for comparison.
	prevSince := since.AddDate(0, 0, -flagDays)
	prev := pipeline.Total(pipeline.FilterByTime(all, prevSince, since.AddDate(0, 0, -1)))

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DOLLA SPENDING  Last %dd", flagDays)))
	fmt.Println()

	totalStr := cli.FormatMoney(sum.TotalSpent, sym)
	if !prev.IsZero() {
		totalStr += fmt.Sprintf("  (%s prev %dd)", cli.FormatMoney(prev, sym), flagDays)
	}

	rows := [][]string{
		{"Total Spent", totalStr},
		{"This Month", cli.FormatMoney(sum.MonthSpent, sym)},
		{"Transactions", cli.FormatNumber(int64(sum.Records))},
		{"Average", cli.FormatMoney(sum.AveragePerItem, sym)},
	}
	if sum.Largest != nil {
		rows = append(rows, []string{"Largest", fmt.Sprintf("%s at %s", money(*sum.Largest), sum.Largest.Merchant)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	if len(slices) == 0 {
		return nil
	}

	shares := make([][]string, 0, len(slices))
	for _, s := range slices {
		shares = append(shares, []string{
			cli.RenderSwatch(s.Category, s.Color),
			cli.FormatMoney(s.Amount, sym),
			cli.RenderShareBar(s.Percentage, 16),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By category",
		Headers: []string{"Category", "Amount", "Share"},
		Rows:    shares,
	}))
	return nil
}
