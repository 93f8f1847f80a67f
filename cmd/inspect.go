// File: cmd/inspect.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/canvas"
	"github.com/xkilldash9x/viewlens/internal/catalog"
)

// inspectReport is the JSON document printed by inspect.
type inspectReport struct {
	App        schemas.AppPageInfo     `json:"app"`
	Caption    string                  `json:"caption"`
	Warning    string                  `json:"warning,omitempty"`
	Page       catalog.Page            `json:"page"`
	Categories []schemas.CategoryCount `json:"categories"`
	Statistics schemas.Statistics      `json:"statistics"`
	Canvas     *canvasReport           `json:"canvas,omitempty"`
}

type canvasReport struct {
	Projection canvas.Projection  `json:"projection"`
	Placements []canvas.Placement `json:"placements"`
	GridLines  []canvas.GridLine  `json:"gridLines,omitempty"`
}

func newInspectCmd() *cobra.Command {
	var (
		flags      queryFlags
		withCanvas bool
		nonClick   bool
		keywords   string
	)
	cmd := &cobra.Command{
		Use:   "inspect [snapshot-file]",
		Short: "Parse a snapshot and print its categorized elements as JSON",
		Long: `Parse a uiautomator snapshot (from a file, or stdin when no file or "-" is
given), classify every surviving element and print the filtered, sorted page
together with category counts and statistics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := readSnapshot(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("include-non-clickable") {
				cfg.SetParserIncludeNonClickable(nonClick)
			}
			if keywords != "" {
				cfg.SetClassifierKeywordFile(keywords)
			}
			q, err := flags.query(cmd, cfg.Catalog())
			if err != nil {
				return err
			}

			s, _, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			res := s.Load(cmd.Context(), snapshot)
			v := s.View(q)
			report := inspectReport{
				App:        res.Caption,
				Caption:    res.Caption.Caption(),
				Page:       v.Page,
				Categories: v.Categories,
				Statistics: v.Statistics,
			}
			if res.Warning != nil {
				report.Warning = res.Warning.Error()
			}
			if withCanvas {
				report.Canvas = &canvasReport{Projection: v.Projection, Placements: v.Placements, GridLines: v.GridLines}
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&withCanvas, "canvas", false, "include the scaled canvas projection and styled placements")
	cmd.Flags().BoolVar(&nonClick, "include-non-clickable", false, "keep content-less, non-clickable nodes")
	cmd.Flags().StringVar(&keywords, "keywords", "", "YAML keyword table for the classifier")
	return cmd
}
