package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"report-studio/internal/composer"
	"report-studio/internal/domain"
)

const previewWait = 30 * time.Second

func newDropCmd() *cobra.Command {
	var sectionID string

	cmd := &cobra.Command{
		Use:   "drop <report-id> <field-id>...",
		Short: "Drop one or more fields onto the canvas or a section",
		Long: `Simulates the drag/drop gesture: fields auto-route to dimensions or
measures, a canvas drop on an empty report creates a table section, and the
whole bundle triggers a single consolidated query whose preview is printed.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closer, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closer()

			fields := make([]domain.Field, 0, len(args)-1)
			for _, id := range args[1:] {
				f, err := a.Catalog.GetField(cmd.Context(), id)
				if err != nil {
					return err
				}
				fields = append(fields, *f)
			}

			store, err := loadStore(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}

			res, err := store.ResolveDrop(cmd.Context(),
				composer.DropPayload{Fields: fields},
				composer.DropTarget{SectionID: sectionID},
			)
			if err != nil {
				return err
			}

			if res.Created {
				fmt.Printf("Created section %s\n", res.SectionID)
			}
			if len(res.AddedIDs) > 0 {
				fmt.Printf("Added fields %v to section %s\n", res.AddedIDs, res.SectionID)
			}

			if err := saveStore(cmd.Context(), a, store); err != nil {
				return err
			}
			if !res.Dispatched {
				return nil
			}

			st, err := waitPreview(store, res.SectionID)
			if err != nil {
				return err
			}
			if st.Err != "" {
				return fmt.Errorf("query failed: %s", st.Err)
			}
			sec := store.Current().FindSection(res.SectionID)
			return printResultRows(cmd, sec.Query, st.Rows)
		},
	}

	cmd.Flags().StringVar(&sectionID, "section", "", "Target section id (empty = canvas)")
	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <report-id>",
		Short: "Run every section query and print the previews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closer, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closer()

			store, err := loadStore(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			if err := store.RefreshAll(cmd.Context()); err != nil {
				return err
			}
			return printPreviews(cmd, store)
		},
	}
}

// printPreviews walks the section tree and prints each query-bearing
// section's preview result.
func printPreviews(cmd *cobra.Command, store *composer.Store) error {
	var outerErr error
	store.Current().WalkSections(func(sec *domain.Section) bool {
		if sec.Query == nil || sec.Query.IsEmpty() {
			return true
		}
		st, ok := store.Preview(sec.ID)
		if !ok {
			return true
		}

		title := sec.Title
		if title == "" {
			title = sec.ID
		}
		fmt.Printf("\n== %s [%s] (%dms)\n", title, sec.Kind, st.ExecutionTimeMs)
		if st.Err != "" {
			fmt.Printf("query failed: %s\n", st.Err)
			return true
		}
		if err := printResultRows(cmd, sec.Query, st.Rows); err != nil {
			outerErr = err
			return false
		}
		return true
	})
	return outerErr
}

// waitPreview polls until the section's preview settles.
func waitPreview(store *composer.Store, sectionID string) (composer.PreviewState, error) {
	deadline := time.Now().Add(previewWait)
	for time.Now().Before(deadline) {
		st, ok := store.Preview(sectionID)
		if ok && !st.Loading {
			return st, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return composer.PreviewState{}, fmt.Errorf("timed out waiting for the preview of section %s", sectionID)
}
