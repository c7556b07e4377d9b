package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"report-studio/internal/composer"
	"report-studio/internal/domain"
)

// newDemoCmd walks one full authoring session: drag/drop composition,
// debounced title editing, undo/redo, preview execution, and save. Undo
// history is session-scoped, so the whole flow runs in one invocation.
func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Author a demo report end to end and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, closer, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer()

			store := a.NewStore()
			store.Initialize(composer.InitRequest{
				Name:       "Fund Overview (demo)",
				DataSource: catalogDataSource(a),
			})

			fundName, err := a.Catalog.GetField(ctx, "fund_name")
			if err != nil {
				return err
			}
			region, err := a.Catalog.GetField(ctx, "region")
			if err != nil {
				return err
			}
			totalAssets, err := a.Catalog.GetField(ctx, "total_assets")
			if err != nil {
				return err
			}
			netReturn, err := a.Catalog.GetField(ctx, "net_return")
			if err != nil {
				return err
			}
			avgReturn, err := a.Catalog.GetField(ctx, "avg_return")
			if err != nil {
				return err
			}
			expenseRatio, err := a.Catalog.GetField(ctx, "expense_ratio")
			if err != nil {
				return err
			}

			// A canvas drop on the empty report creates the first table.
			fmt.Println("--> drop fund_name + total_assets onto the empty canvas")
			res, err := store.ResolveDrop(ctx,
				composer.DropPayload{Fields: []domain.Field{*fundName, *totalAssets}},
				composer.DropTarget{},
			)
			if err != nil {
				return err
			}
			tableID := res.SectionID

			// A second drop targets the section: one consolidated query.
			fmt.Println("--> drop region + avg_return + expense_ratio + net_return onto the table")
			if _, err := store.ResolveDrop(ctx,
				composer.DropPayload{Fields: []domain.Field{*region, *avgReturn, *expenseRatio, *netReturn}},
				composer.DropTarget{SectionID: tableID},
			); err != nil {
				return err
			}

			// Debounced title editing: keystrokes settle into one commit.
			editor := a.NewEditor(store)
			defer editor.Close()
			if err := editor.Select(tableID); err != nil {
				return err
			}
			for _, v := range []string{"F", "Fu", "Fund", "Fund Overview"} {
				if err := editor.Stage(tableID, composer.FieldKeyTitle, v); err != nil {
					return err
				}
			}
			editor.Flush()
			fmt.Printf("--> staged 4 title keystrokes, committed once: %q\n",
				store.Current().FindSection(tableID).Title)

			// Undo the title edit, then bring it back.
			store.Undo()
			fmt.Printf("--> undo: title is now %q\n", store.Current().FindSection(tableID).Title)
			store.Redo()
			fmt.Printf("--> redo: title is back to %q\n", store.Current().FindSection(tableID).Title)

			fmt.Println("--> run all section queries")
			if err := store.RefreshAll(ctx); err != nil {
				return err
			}
			if err := printPreviews(cmd, store); err != nil {
				return err
			}

			if err := saveStore(ctx, a, store); err != nil {
				return err
			}
			def := store.Current()
			fmt.Printf("\nSaved report %s (%s) at version %d\n", def.Name, def.ID, def.Version)
			return nil
		},
	}
}
