package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/pipeline"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily spending table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	all, sess, err := loadRecords(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if len(all) == 0 {
		fmt.Println("\n  No expenses recorded yet.")
		return nil
	}

	_, since, until := window(all)
	if flagDays <= 0 {
		since = until.AddDate(0, 0, -29)
	}
	days := pipeline.AggregateDays(all, since, until)

	sym := appConfig.General.CurrencySymbol
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY SPENDING  Last %dd", len(days))))
	fmt.Println()

	vals := make([]float64, len(days))
	rows := make([][]string, 0, len(days))
	for i, d := range days {
		vals[len(days)-1-i] = d.Amount.InexactFloat64()
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(int64(d.Records)),
			cli.FormatMoney(d.Amount, sym),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Expenses", "Spent"},
		Rows:    rows,
	}))
	fmt.Printf("\n  %s\n", cli.RenderSparkline(vals))

	return nil
}
