// internal/classifier/keywords.go
package classifier

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidKeywordTable is returned when a keyword table fails validation.
var ErrInvalidKeywordTable = errors.New("invalid keyword table")

// KeywordTable holds every keyword fragment the classification rules consult.
// Screens from different host applications need different vocabularies, so the
// table is swappable at runtime and loadable from YAML or the main config.
// Matching is a case-insensitive substring test.
type KeywordTable struct {
	// Navigation are primary navigation labels (bottom bar).
	Navigation []string `mapstructure:"navigation" yaml:"navigation"`
	// NavigationIDs are resource-id fragments of navigation controls.
	NavigationIDs []string `mapstructure:"navigation_ids" yaml:"navigation_ids"`
	// Tabs are secondary tab labels (top bar).
	Tabs []string `mapstructure:"tabs" yaml:"tabs"`
	// Search signals a search control in the description.
	Search []string `mapstructure:"search" yaml:"search"`
	// Content signals a content card in the description.
	Content []string `mapstructure:"content" yaml:"content"`
	// Attribution markers ("from ...") mark clickable content cards.
	Attribution []string `mapstructure:"attribution" yaml:"attribution"`
	// PrimaryAction descriptions rank an element high.
	PrimaryAction []string `mapstructure:"primary_action" yaml:"primary_action"`
	// PrimaryActionIDs are resource-id prefixes that rank an element high.
	PrimaryActionIDs []string `mapstructure:"primary_action_ids" yaml:"primary_action_ids"`
	// SecondaryAction descriptions rank an element medium.
	SecondaryAction []string `mapstructure:"secondary_action" yaml:"secondary_action"`
}

// DefaultKeywordTable returns the built-in vocabulary: English labels plus the
// fragments of the social-commerce app the heuristics were first tuned on.
func DefaultKeywordTable() *KeywordTable {
	return &KeywordTable{
		Navigation:       []string{"home", "messages", "profile", "marketplace", "publish", "首页", "消息", "我", "市集", "发布"},
		NavigationIDs:    []string{"tab_home", "tab_message", "tab_profile", "nav_"},
		Tabs:             []string{"follow", "discover", "video", "关注", "发现", "视频", "推荐", "同城"},
		Search:           []string{"search", "搜索"},
		Content:          []string{"note", "video", "笔记", "视频"},
		Attribution:      []string{"from ", "来自"},
		PrimaryAction:    []string{"home", "search", "note", "video", "publish", "首页", "搜索", "笔记", "视频", "发布"},
		PrimaryActionIDs: []string{"main_", "primary_", "action_"},
		SecondaryAction:  []string{"follow", "discover", "messages", "关注", "发现", "消息"},
	}
}

// LoadKeywordTable reads a YAML keyword table. Lists missing from the file
// keep their default values.
func LoadKeywordTable(path string) (*KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword table %q: %w", path, err)
	}
	return ParseKeywordTable(data)
}

// ParseKeywordTable decodes YAML into a table merged over the defaults.
func ParseKeywordTable(data []byte) (*KeywordTable, error) {
	var override KeywordTable
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeywordTable, err)
	}
	table := DefaultKeywordTable().Merge(&override)
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Merge returns a copy of t where every non-nil list in other replaces the
// corresponding list. An explicitly empty list in other clears it.
func (t *KeywordTable) Merge(other *KeywordTable) *KeywordTable {
	merged := t.clone()
	if other == nil {
		return merged
	}
	pick := func(dst *[]string, src []string) {
		if src != nil {
			*dst = append([]string(nil), src...)
		}
	}
	pick(&merged.Navigation, other.Navigation)
	pick(&merged.NavigationIDs, other.NavigationIDs)
	pick(&merged.Tabs, other.Tabs)
	pick(&merged.Search, other.Search)
	pick(&merged.Content, other.Content)
	pick(&merged.Attribution, other.Attribution)
	pick(&merged.PrimaryAction, other.PrimaryAction)
	pick(&merged.PrimaryActionIDs, other.PrimaryActionIDs)
	pick(&merged.SecondaryAction, other.SecondaryAction)
	return merged
}

// Validate rejects blank keywords, which would match everything.
func (t *KeywordTable) Validate() error {
	lists := map[string][]string{
		"navigation":         t.Navigation,
		"navigation_ids":     t.NavigationIDs,
		"tabs":               t.Tabs,
		"search":             t.Search,
		"content":            t.Content,
		"attribution":        t.Attribution,
		"primary_action":     t.PrimaryAction,
		"primary_action_ids": t.PrimaryActionIDs,
		"secondary_action":   t.SecondaryAction,
	}
	for name, list := range lists {
		for i, kw := range list {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("%w: %s[%d] is blank", ErrInvalidKeywordTable, name, i)
			}
		}
	}
	return nil
}

func (t *KeywordTable) clone() *KeywordTable {
	cp := func(s []string) []string {
		if s == nil {
			return nil
		}
		return append([]string(nil), s...)
	}
	return &KeywordTable{
		Navigation:       cp(t.Navigation),
		NavigationIDs:    cp(t.NavigationIDs),
		Tabs:             cp(t.Tabs),
		Search:           cp(t.Search),
		Content:          cp(t.Content),
		Attribution:      cp(t.Attribution),
		PrimaryAction:    cp(t.PrimaryAction),
		PrimaryActionIDs: cp(t.PrimaryActionIDs),
		SecondaryAction:  cp(t.SecondaryAction),
	}
}

// ContainsAny reports whether s contains any keyword, ignoring case.
func ContainsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// FirstMatch returns the first keyword contained in s, ignoring case.
func FirstMatch(s string, keywords []string) (string, bool) {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
