package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"report-studio/internal/composer"
	"report-studio/internal/domain"
)

func newSectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Add, remove, and move report sections",
	}
	cmd.AddCommand(newSectionAddCmd())
	cmd.AddCommand(newSectionRmCmd())
	cmd.AddCommand(newSectionMoveCmd())
	return cmd
}

func newSectionAddCmd() *cobra.Command {
	var (
		kind       string
		parentID   string
		title      string
		x, y, w, h int
	)

	cmd := &cobra.Command{
		Use:   "add <report-id>",
		Short: "Add a section to a report",
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

			sec, err := store.AddSection(composer.AddSectionRequest{
				Kind:     kind,
				Layout:   domain.Layout{X: x, Y: y, W: w, H: h},
				ParentID: parentID,
			})
			if err != nil {
				return err
			}
			if title != "" {
				if err := store.UpdateSection(sec.ID, composer.SectionPatch{Title: &title}); err != nil {
					return err
				}
			}
			if err := saveStore(cmd.Context(), a, store); err != nil {
				return err
			}

			fmt.Printf("Added %s section %s\n", kind, sec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", domain.SectionKindTable, "Section kind (table, chart, text, container, pivot)")
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent container section id")
	cmd.Flags().StringVar(&title, "title", "", "Section title")
	cmd.Flags().IntVar(&x, "x", 0, "Grid column")
	cmd.Flags().IntVar(&y, "y", 0, "Grid row")
	cmd.Flags().IntVar(&w, "w", 4, "Width in grid units")
	cmd.Flags().IntVar(&h, "h", 3, "Height in grid units")
	return cmd
}

func newSectionRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <report-id> <section-id>",
		Short: "Remove a section (and its children)",
		Args:  cobra.ExactArgs(2),
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
			if err := store.RemoveSection(args[1]); err != nil {
				return err
			}
			if err := saveStore(cmd.Context(), a, store); err != nil {
				return err
			}

			fmt.Printf("Removed section %s\n", args[1])
			return nil
		},
	}
}

func newSectionMoveCmd() *cobra.Command {
	var x, y, w, h int

	cmd := &cobra.Command{
		Use:   "move <report-id> <section-id>",
		Short: "Move or resize a section",
		Args:  cobra.ExactArgs(2),
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

			// Only flags the caller set become part of the patch.
			var patch domain.LayoutPatch
			if cmd.Flags().Changed("x") {
				patch.X = &x
			}
			if cmd.Flags().Changed("y") {
				patch.Y = &y
			}
			if cmd.Flags().Changed("w") {
				patch.W = &w
			}
			if cmd.Flags().Changed("h") {
				patch.H = &h
			}

			if err := store.UpdateSectionLayout(args[1], patch); err != nil {
				return err
			}
			if err := saveStore(cmd.Context(), a, store); err != nil {
				return err
			}

			sec := store.Current().FindSection(args[1])
			fmt.Printf("Section %s now at (%d,%d) %dx%d\n",
				sec.ID, sec.Layout.X, sec.Layout.Y, sec.Layout.W, sec.Layout.H)
			return nil
		},
	}

	cmd.Flags().IntVar(&x, "x", 0, "Grid column")
	cmd.Flags().IntVar(&y, "y", 0, "Grid row")
	cmd.Flags().IntVar(&w, "w", 0, "Width in grid units")
	cmd.Flags().IntVar(&h, "h", 0, "Height in grid units")
	return cmd
}
