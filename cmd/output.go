// File: cmd/output.go
package cmd

import (
	"fmt"
	"io"
	"os"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/catalog"
	"github.com/xkilldash9x/viewlens/internal/config"
	"github.com/xkilldash9x/viewlens/internal/inspector"
	"github.com/xkilldash9x/viewlens/internal/observability"
)

var jsonAPI = json.ConfigCompatibleWithStandardLibrary

// writeJSON renders v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// readSnapshot reads the snapshot named by args[0], or stdin when no file or
// "-" is given.
func readSnapshot(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read snapshot from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot: %w", err)
	}
	return string(data), nil
}

// newSession builds an inspector session from the configuration loaded by the
// root command.
func newSession(cmd *cobra.Command, opts ...inspector.Option) (*inspector.Session, *config.Config, error) {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	s, err := inspector.New(observability.GetLogger(), cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

// queryFlags are the catalog filters shared by inspect and select.
type queryFlags struct {
	search      string
	category    string
	clickable   bool
	sortBy      string
	descending  bool
	offset      int
	limit       int
	fullyHidden bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive substring over name, description, text and type")
	cmd.Flags().StringVar(&f.category, "category", "all", "category filter (all, navigation, tabs, search, content, buttons, text, images, other)")
	cmd.Flags().BoolVar(&f.clickable, "clickable", false, "only clickable elements")
	cmd.Flags().StringVar(&f.sortBy, "sort", "", "sort key (none, name, type, importance, position)")
	cmd.Flags().BoolVar(&f.descending, "desc", false, "reverse the sort order")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "skip this many matches")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "page size (default catalog.page_size, 0 for no limit)")
	cmd.Flags().BoolVar(&f.fullyHidden, "fully-hidden", false, "drop hidden elements instead of dimming them")
}

// query resolves the flags against the catalog configuration. Flags the user
// did not set fall back to the configured values.
func (f *queryFlags) query(cmd *cobra.Command, cfg config.CatalogConfig) (catalog.Query, error) {
	cat, ok := schemas.ParseCategory(f.category)
	if !ok {
		return catalog.Query{}, fmt.Errorf("unknown category %q", f.category)
	}
	sortBy := f.sortBy
	if !cmd.Flags().Changed("sort") {
		sortBy = cfg.SortBy
	}
	key, ok := catalog.ParseSortKey(sortBy)
	if !ok {
		return catalog.Query{}, fmt.Errorf("unknown sort key %q", sortBy)
	}
	q := catalog.Query{
		Search:        f.search,
		Category:      cat,
		OnlyClickable: f.clickable,
		FullyHidden:   f.fullyHidden || (!cmd.Flags().Changed("fully-hidden") && cfg.FullyHidden),
		SortBy:        key,
		Descending:    f.descending,
		Offset:        f.offset,
		Limit:         f.limit,
	}
	if !cmd.Flags().Changed("limit") {
		q.Limit = cfg.PageSize
	}
	return q, nil
}
