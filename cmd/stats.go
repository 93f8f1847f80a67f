// File: cmd/stats.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/classifier"
	"github.com/xkilldash9x/viewlens/internal/config"
	"github.com/xkilldash9x/viewlens/internal/hierarchy"
	"github.com/xkilldash9x/viewlens/internal/identifier"
	"github.com/xkilldash9x/viewlens/internal/observability"
)

// fileStats is one row of the stats report.
type fileStats struct {
	File     string                `json:"file"`
	Caption  string                `json:"caption"`
	Nodes    schemas.SnapshotStats `json:"nodes"`
	Elements int                   `json:"elements"`
	Warning  string                `json:"warning,omitempty"`
}

func newStatsCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "stats <snapshot-file>...",
		Short: "Print raw node counts and element totals for many snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := collectStats(cmd.Context(), cfg, args, concurrency)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 4, "files analysed in parallel")
	return cmd
}

// collectStats analyses files concurrently. Rows keep the order of files. A
// file that cannot be read aborts the whole run; a file that cannot be parsed
// is reported with a warning.
func collectStats(ctx context.Context, cfg config.Interface, files []string, concurrency int) ([]fileStats, error) {
	logger := observability.GetLogger().Named("stats")
	keywords, err := cfg.Classifier().KeywordTable()
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword table: %w", err)
	}
	parser := hierarchy.NewParser(logger, hierarchy.Options{IncludeNonClickable: cfg.Parser().IncludeNonClickable})
	ident := identifier.New(logger, classifier.New(keywords))

	rows := make([]fileStats, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			snapshot := string(data)

			res := parser.Parse(snapshot)
			row := fileStats{
				File:     file,
				Nodes:    hierarchy.Stats(snapshot),
				Elements: len(res.Nodes),
				Caption:  ident.IdentifyNodes(res.All, res.RootPackage).Caption(),
			}
			if res.Warning != nil {
				row.Warning = res.Warning.Error()
			}
			rows[i] = row
			logger.Debug("Snapshot analysed.", zap.String("file", file), zap.Int("elements", row.Elements))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
