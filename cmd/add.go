package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/entry"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/store"

	"github.com/spf13/cobra"
)

var (
	addAmount    string
	addMerchant  string
	addNote      string
	addCategory  string
	addPayment   string
	addDate      string
	addDaysAgo   int
	addCreateCat bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	Example: `  dolla add --amount 4.50 --merchant "Blue Bottle" --category food
  dolla add -a 32 -m Shell -c transport --payment credit --days-ago 1`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addAmount, "amount", "a", "", "Amount spent, e.g. 12.50")
	addCmd.Flags().StringVarP(&addMerchant, "merchant", "m", "", "Where the money was spent")
	addCmd.Flags().StringVar(&addNote, "note", "", "Optional note")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category name (default: first category)")
	addCmd.Flags().StringVarP(&addPayment, "payment", "p", "", "Payment method (default from config)")
	addCmd.Flags().StringVar(&addDate, "date", "", "Date as YYYY-MM-DD (default today)")
	addCmd.Flags().IntVar(&addDaysAgo, "days-ago", 0, "Date as a number of days before today")
	addCmd.Flags().BoolVar(&addCreateCat, "create-category", false, "Create the category if it does not exist")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	form := entry.NewForm(sess.registry, sess.ledger, entry.OptionsFromConfig(appConfig, logger))
	form.Amount = addAmount
	form.Merchant = addMerchant
	form.Note = addNote

	if addCategory != "" {
		if err := selectCategory(ctx, form, sess, addCategory); err != nil {
			return err
		}
	}

	if addPayment != "" {
		pm, ok := model.ParsePaymentMethod(strings.ToLower(addPayment))
		if !ok {
			return fmt.Errorf("%w: %q", entry.ErrUnknownPaymentMethod, addPayment)
		}
		if err := form.SetPaymentMethod(pm); err != nil {
			return err
		}
	}

	delta, err := dateDelta(addDate, addDaysAgo, time.Now())
	if err != nil {
		return err
	}
	if delta != 0 && !form.ChangeDate(delta) {
		return errors.New("date cannot be in the future")
	}

	rec, err := form.Submit(ctx)
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		for _, f := range ve.Fields {
			fmt.Println(cli.RenderError(fmt.Sprintf("  %s: %s", f.Field, f.Message)))
		}
		return errors.New("expense not recorded")
	case err != nil && rec.ID == "":
		return err
	case err != nil:
		return fmt.Errorf("expense %s not saved: %w", rec.ID, err)
	}

	// The CLI has no screen to navigate to, so the confirmation ends here.
	form.Leave()

	fmt.Printf("  %s %s at %s  %s · %s\n",
		cli.RenderMoney("✓"),
		cli.RenderMoney(money(rec)),
		rec.Merchant,
		rec.Category,
		cli.FormatRelativeDay(rec.Date, time.Now()))
	info("  id %s\n", rec.ID)
	return nil
}

// selectCategory picks the named category, creating it when asked to.
func selectCategory(ctx context.Context, form *entry.Form, sess *ledgerSession, name string) error {
	if c, ok := sess.registry.ByName(name); ok {
		_, err := form.SelectCategory(c.ID)
		return err
	}
	if !addCreateCat {
		return fmt.Errorf("unknown category %q (have: %s; pass --create-category to add it)",
			name, strings.Join(sess.registry.Names(), ", "))
	}
	c, err := form.CreateCategory(name, appConfig.Entry.DefaultIcon)
	if err != nil {
		return err
	}
	if err := sess.registry.Persist(ctx, sess.db, store.KeyCategories); err != nil {
		return fmt.Errorf("saving category: %w", err)
	}
	info("  created category %s\n", c.Name)
	return nil
}

// dateDelta converts --date or --days-ago into a day offset from today.
func dateDelta(date string, daysAgo int, now time.Time) (int, error) {
	if date == "" {
		if daysAgo < 0 {
			return 0, errors.New("--days-ago must not be negative")
		}
		return -daysAgo, nil
	}
	d, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return 0, fmt.Errorf("parsing --date: %w", err)
	}
	today := model.DateOnly(now)
	return int(math.Round(d.Sub(today).Hours() / 24)), nil
}
