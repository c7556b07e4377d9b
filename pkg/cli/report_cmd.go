package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"report-studio/internal/app"
	"report-studio/internal/composer"
	"report-studio/internal/domain"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Manage saved report definitions",
	}
	cmd.AddCommand(newReportNewCmd())
	cmd.AddCommand(newReportListCmd())
	cmd.AddCommand(newReportShowCmd())
	cmd.AddCommand(newReportDeleteCmd())
	return cmd
}

func newReportNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <name>",
		Short: "Create and save an empty report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closer, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closer()

			store := a.NewStore()
			store.Initialize(composer.InitRequest{
				Name:       args[0],
				DataSource: catalogDataSource(a),
			})

			saved, err := a.Reports.Save(cmd.Context(), store.Current())
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"id": saved.ID, "name": saved.Name, "version": saved.Version,
				})
			}
			fmt.Printf("Created report %s (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}
}

func newReportListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closer, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closer()

			reports, err := a.Reports.List(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, reports)
			}
			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				rows = append(rows, []string{
					r.ID, r.Name, fmt.Sprintf("%d", r.Version),
					r.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(os.Stdout, []string{"ID", "NAME", "VERSION", "UPDATED"}, rows)
			return nil
		},
	}
}

func newReportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <report-id>",
		Short: "Print a report's section tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closer, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closer()

			def, err := a.Reports.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, def)
			}

			fmt.Printf("%s (version %d)\n", def.Name, def.Version)
			printSectionTree(def.Sections, "")
			return nil
		},
	}
}

func printSectionTree(sections []*domain.Section, indent string) {
	for _, sec := range sections {
		title := sec.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s- [%s] %s  id=%s  at(%d,%d) %dx%d\n",
			indent, sec.Kind, title, sec.ID, sec.Layout.X, sec.Layout.Y, sec.Layout.W, sec.Layout.H)
		if sec.Query != nil && !sec.Query.IsEmpty() {
			fmt.Printf("%s    dims=%v measures=%v filters=%d\n",
				indent, sec.Query.Dimensions, sec.Query.Measures, len(sec.Query.Filters))
		}
		printSectionTree(sec.Children, indent+"  ")
	}
}

func newReportDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <report-id>",
		Short: "Delete a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closer, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closer()

			if err := a.Reports.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted report %s\n", args[0])
			return nil
		},
	}
}

func catalogDataSource(a *app.App) *domain.DataSourceRef {
	return &domain.DataSourceRef{
		ID:    domain.NewID(),
		Name:  a.Catalog.Name(),
		Table: a.Catalog.Table(),
	}
}

// loadStore opens a saved report into a fresh composition store.
func loadStore(ctx context.Context, a *app.App, reportID string) (*composer.Store, error) {
	def, err := a.Reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	store := a.NewStore()
	store.Load(def)
	return store, nil
}

// saveStore persists the store's current definition and syncs the bumped
// version back into the session.
func saveStore(ctx context.Context, a *app.App, store *composer.Store) error {
	saved, err := a.Reports.Save(ctx, store.Current())
	if err != nil {
		return err
	}
	store.MarkSaved(saved)
	return nil
}
