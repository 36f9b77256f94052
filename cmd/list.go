package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	listLimit    int
	listCategory string
	listSearch   string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent expenses",
	RunE:    runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 20, "Number of expenses to show (0 for all)")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Only this category")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Match merchant, note or category")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	all, sess, err := loadRecords(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	records, _, _ := window(all)
	if listCategory != "" {
		records = pipeline.FilterByCategory(records, listCategory)
	}
	if listSearch != "" {
		records = pipeline.Search(records, listSearch)
	}
	total := pipeline.Total(records)

	limit := listLimit
	if limit <= 0 {
		limit = -1
	}
	records = pipeline.Recent(records, limit)

	if len(records) == 0 {
		fmt.Println("\n  No expenses match.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("EXPENSES  Last %dd (showing %d)", flagDays, len(records))))
	fmt.Println()

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date.Format("Mon Jan 02"),
			truncate(r.Merchant, 24),
			r.Category,
			string(r.PaymentMethod),
			money(r),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Merchant", "Category", "Payment", "Amount"},
		Rows:    rows,
		Footer:  []string{"", "Total", "", "", cli.FormatMoney(total, appConfig.General.CurrencySymbol)},
	}))
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
