package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/store"

	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cats"},
		Short:   "Manage spending categories",
	}
	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(removeCategoryCmd())
	return cmd
}

func init() {
	rootCmd.AddCommand(categoriesCmd())
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories with their spending",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()
			records, sess, err := loadRecords(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			sym := appConfig.General.CurrencySymbol
			rows := make([][]string, 0, len(sess.registry.Real()))
			for _, c := range sess.registry.Real() {
				spent := pipeline.Total(pipeline.FilterByCategory(records, c.Name))
				rows = append(rows, []string{c.ID, c.Name, c.Icon, cli.FormatMoney(spent, sym)})
			}

			fmt.Print(cli.RenderTable(cli.Table{
				Headers: []string{"ID", "Name", "Icon", "Spent"},
				Rows:    rows,
			}))
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var icon string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()
			sess, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			c, err := sess.registry.Create(args[0], icon)
			if err != nil {
				return err
			}
			if err := sess.registry.Persist(ctx, sess.db, store.KeyCategories); err != nil {
				return fmt.Errorf("saving categories: %w", err)
			}
			fmt.Printf("  %s Created category %q (id %s)\n", cli.RenderMoney("✓"), c.Name, c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&icon, "icon", "", "Icon name (default from config)")
	return cmd
}

func removeCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|name>",
		Short: "Remove a category; recorded expenses keep their category name",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()
			sess, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			id := args[0]
			if c, ok := sess.registry.ByName(id); ok {
				id = c.ID
			}
			if !sess.registry.Remove(id) {
				return fmt.Errorf("no category %q", args[0])
			}
			if err := sess.registry.Persist(ctx, sess.db, store.KeyCategories); err != nil {
				return fmt.Errorf("saving categories: %w", err)
			}
			fmt.Printf("  Removed %s\n", args[0])
			return nil
		},
	}
}
