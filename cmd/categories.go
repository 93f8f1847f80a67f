// File: cmd/categories.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/catalog"
)

func newCategoriesCmd() *cobra.Command {
	var (
		showEmpty bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "categories [snapshot-file]",
		Short: "Print per-category element counts for a snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := readSnapshot(cmd, args)
			if err != nil {
				return err
			}
			s, _, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			res := s.Load(cmd.Context(), snapshot)
			v := s.View(catalog.Query{})

			counts := make([]schemas.CategoryCount, 0, len(v.Categories))
			for _, c := range v.Categories {
				if c.Count > 0 || showEmpty {
					counts = append(counts, c)
				}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), counts)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Caption.Caption())
			if res.Warning != nil {
				fmt.Fprintf(out, "warning: %v\n", res.Warning)
			}
			for _, c := range counts {
				fmt.Fprintf(out, "%-12s %-8s %4d\n", c.Label, c.Color, c.Count)
			}
			fmt.Fprintf(out, "%-12s %-8s %4d\n", "Total", "", v.Statistics.Total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showEmpty, "all", false, "include categories with no elements")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
