package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/theirongolddev/dolla/internal/category"
	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/store"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	importCategory  string
	importCreateCat bool
	importDryRun    bool
	importForce     bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|dir>...",
	Short: "Import expenses from JSONL, JSON, CSV or XLSX files",
	Long: `Import expenses from files. Directories are searched recursively.

CSV and XLSX files need a header row with at least date, merchant and
amount columns. Records without an id get one derived from their content,
so importing the same file again adds nothing. Files already imported and
unchanged since are skipped unless --force is given.`,
	Example: `  dolla import ~/Downloads/statement.csv --category shopping
  dolla import backups/ --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importCategory, "category", "c", "", "Category for records that have none (default: first category)")
	importCmd.Flags().BoolVar(&importCreateCat, "create-categories", false, "Add unknown category names to the registry")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and report without writing")
	importCmd.Flags().BoolVarP(&importForce, "force", "f", false, "Re-parse files even if unchanged since the last import")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	tracker := pipeline.NewImportTracker()
	if !importForce {
		if tracker, err = pipeline.LoadImportTracker(ctx, sess.db, store.KeyImports); err != nil {
			return err
		}
	}

	progress := newImportProgress()
	res, err := pipeline.LoadImportsWithTracker(args, tracker, progress.update)
	progress.finish()
	if err != nil {
		return err
	}

	for _, p := range res.Problems {
		logger.Warn("import problem", "error", p)
	}

	fallback, err := importFallbackCategory(sess.registry)
	if err != nil {
		return err
	}
	pm, _ := model.ParsePaymentMethod(appConfig.Entry.DefaultPaymentMethod)
	unknown := assignCategories(res.Records, sess.registry, fallback, pm, appConfig.Entry.DefaultIcon)

	if len(unknown) > 0 && importCreateCat && !importDryRun {
		for _, name := range unknown {
			if _, err := sess.registry.Create(name, appConfig.Entry.DefaultIcon); err != nil {
				return err
			}
		}
		if err := sess.registry.Persist(ctx, sess.db, store.KeyCategories); err != nil {
			return fmt.Errorf("saving categories: %w", err)
		}
		info("  created categories: %s\n", strings.Join(unknown, ", "))
		unknown = nil
	}

	added := 0
	if !importDryRun && len(res.Records) > 0 {
		_, n, err := sess.ledger.Merge(ctx, res.Records...)
		if err != nil {
			return fmt.Errorf("saving imported expenses: %w", err)
		}
		added = n
	}
	if !importDryRun {
		for _, f := range res.Files {
			tracker.Mark(f.DiscoveredFile, f.Records)
		}
		if err := tracker.Save(ctx, sess.db, store.KeyImports); err != nil {
			logger.Warn("saving import history", "error", err)
		}
	}

	logger.Info("import finished",
		"files", res.TotalFiles, "parsed", res.ParsedFiles, "unchanged", res.Unchanged,
		"records", len(res.Records), "added", added, "dry_run", importDryRun)

	fmt.Print(cli.RenderTable(importSummaryTable(res, added)))
	for _, p := range res.Problems {
		fmt.Println(cli.RenderError("  " + p.Error()))
	}
	if len(unknown) > 0 {
		fmt.Println(cli.RenderMuted(fmt.Sprintf("  Categories not in the registry: %s (use --create-categories to add them)",
			strings.Join(unknown, ", "))))
	}
	return nil
}

func importSummaryTable(res *pipeline.TrackedImportResult, added int) cli.Table {
	title := "Import"
	addedCell := cli.FormatNumber(int64(added))
	if importDryRun {
		title = "Import (dry run)"
		addedCell = "-"
	}
	total := pipeline.Total(res.Records)
	return cli.Table{
		Title:   title,
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Files found", cli.FormatNumber(int64(res.TotalFiles))},
			{"Unchanged (skipped)", cli.FormatNumber(int64(res.Unchanged))},
			{"Parsed", cli.FormatNumber(int64(res.ParsedFiles))},
			{"Unreadable", cli.FormatNumber(int64(res.FileErrors))},
			{"Bad lines", cli.FormatNumber(int64(res.ParseErrors))},
			{"Expenses read", cli.FormatNumber(int64(len(res.Records)))},
			{"Amount read", cli.FormatMoney(total, appConfig.General.CurrencySymbol)},
			{"Added to ledger", addedCell},
		},
	}
}

// importFallbackCategory picks the category for records that carry none.
func importFallbackCategory(reg *category.Registry) (model.Category, error) {
	if importCategory == "" {
		c, ok := reg.First()
		if !ok {
			return model.Category{}, errors.New("no categories defined; pass --category")
		}
		return c, nil
	}
	c, ok := reg.ByName(importCategory)
	if !ok {
		return model.Category{}, fmt.Errorf("unknown category %q (have: %s)",
			importCategory, strings.Join(reg.Names(), ", "))
	}
	return c, nil
}

// assignCategories fills the gaps an import file may leave: missing
// categories get fallback, known categories lend their icon, and missing
// payment methods get pm. It returns the category names the registry does
// not know, sorted.
func assignCategories(records []model.ExpenseRecord, reg *category.Registry, fallback model.Category, pm model.PaymentMethod, defaultIcon string) []string {
	unknown := make(map[string]struct{})
	for i := range records {
		r := &records[i]
		if r.Category == "" {
			r.Category = fallback.Name
			if r.CategoryIcon == "" {
				r.CategoryIcon = fallback.Icon
			}
		}
		if c, ok := reg.ByName(r.Category); ok {
			if r.CategoryIcon == "" {
				r.CategoryIcon = c.Icon
			}
		} else {
			unknown[r.Category] = struct{}{}
			if r.CategoryIcon == "" {
				r.CategoryIcon = defaultIcon
			}
		}
		if r.PaymentMethod == "" {
			r.PaymentMethod = pm
		}
	}

	names := make([]string, 0, len(unknown))
	for n := range unknown {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// importProgress draws a progress bar on stderr while files are parsed.
// Workers report concurrently and possibly out of order.
type importProgress struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	seen int
}

func newImportProgress() *importProgress { return &importProgress{} }

func (p *importProgress) update(current, total int) {
	if flagQuiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("  Parsing files"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}
	if current > p.seen {
		p.seen = current
		if err := p.bar.Set(current); err != nil {
			logger.Debug("progress bar", "err", err)
		}
	}
}

func (p *importProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
