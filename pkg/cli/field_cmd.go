package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"report-studio/internal/composer"
)

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the catalog fields available for authoring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closer, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closer()

			fields, err := a.Catalog.ListFields(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, fields)
			}
			rows := make([][]string, 0, len(fields))
			for i := range fields {
				f := &fields[i]
				routes := "measures"
				if f.IsDimension() {
					routes = "dimensions"
				}
				source := f.Column
				if f.IsCalculated() {
					source = "= " + f.Formula
				}
				rows = append(rows, []string{f.ID, f.DisplayName, f.Type, f.Aggregation, routes, source})
			}
			printTable(os.Stdout, []string{"ID", "NAME", "TYPE", "AGG", "ROUTES TO", "SOURCE"}, rows)
			return nil
		},
	}
}

func newFieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Add or remove fields on a section",
	}
	cmd.AddCommand(newFieldAddCmd())
	cmd.AddCommand(newFieldRmCmd())
	return cmd
}

func newFieldAddCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "add <report-id> <section-id> <field-id>",
		Short: "Add a catalog field to a section's query",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closer, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closer()

			field, err := a.Catalog.GetField(cmd.Context(), args[2])
			if err != nil {
				return err
			}

			store, err := loadStore(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}

			var ft composer.FieldTarget
			switch target {
			case "auto":
				ft = composer.RouteField(*field)
			case "dimensions":
				ft = composer.TargetDimensions
			case "measures":
				ft = composer.TargetMeasures
			default:
				return fmt.Errorf("unsupported target %q: use auto, dimensions, or measures", target)
			}

			added, err := store.AddFieldToSection(args[1], *field, ft)
			if err != nil {
				return err
			}
			if !added {
				fmt.Printf("Field %s already present on section %s\n", field.ID, args[1])
				return nil
			}
			if err := saveStore(cmd.Context(), a, store); err != nil {
				return err
			}

			fmt.Printf("Added %s to %s of section %s\n", field.ID, ft, args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "auto", "Target list (auto, dimensions, measures)")
	return cmd
}

func newFieldRmCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "rm <report-id> <section-id> <field-id>",
		Short: "Remove a field from a section's query",
		Args:  cobra.ExactArgs(3),
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

			var ft composer.FieldTarget
			switch target {
			case "auto":
				field, err := a.Catalog.GetField(cmd.Context(), args[2])
				if err != nil {
					return err
				}
				ft = composer.RouteField(*field)
			case "dimensions":
				ft = composer.TargetDimensions
			case "measures":
				ft = composer.TargetMeasures
			default:
				return fmt.Errorf("unsupported target %q: use auto, dimensions, or measures", target)
			}

			if err := store.RemoveFieldFromSection(args[1], args[2], ft); err != nil {
				return err
			}
			if err := saveStore(cmd.Context(), a, store); err != nil {
				return err
			}

			fmt.Printf("Removed %s from section %s\n", args[2], args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "auto", "List to remove from (auto, dimensions, measures)")
	return cmd
}
