// internal/classifier/rules.go
package classifier

import (
	"strings"

	"github.com/xkilldash9x/viewlens/api/schemas"
)

// Input is the subset of a raw node the rules look at. Keeping it separate
// from the parser's node type lets every rule be tested on its own.
type Input struct {
	Text        string
	Description string
	Class       string
	ResourceID  string
	Clickable   bool
}

// Rule assigns Category when Match holds.
type Rule struct {
	Name     string
	Category schemas.Category
	Match    func(in Input, kw *KeywordTable) bool
}

// CategoryRules is evaluated top to bottom; the first match wins. Overlapping
// keywords (for example "video" as both a tab and a content marker) resolve
// by position in this list.
var CategoryRules = []Rule{
	{Name: "navigation", Category: schemas.CategoryNavigation, Match: isNavigation},
	{Name: "tabs", Category: schemas.CategoryTabs, Match: isTab},
	{Name: "search", Category: schemas.CategorySearch, Match: isSearch},
	{Name: "content", Category: schemas.CategoryContent, Match: isContent},
	{Name: "buttons", Category: schemas.CategoryButtons, Match: isButton},
	{Name: "text", Category: schemas.CategoryText, Match: isText},
	{Name: "images", Category: schemas.CategoryImages, Match: isImage},
}

// Categorize runs rules against in and returns the first matching category,
// or CategoryOther.
func Categorize(rules []Rule, in Input, kw *KeywordTable) schemas.Category {
	for _, r := range rules {
		if r.Match(in, kw) {
			return r.Category
		}
	}
	return schemas.CategoryOther
}

func isNavigation(in Input, kw *KeywordTable) bool {
	return ContainsAny(in.Description, kw.Navigation) ||
		ContainsAny(in.Text, kw.Navigation) ||
		ContainsAny(in.ResourceID, kw.NavigationIDs)
}

func isTab(in Input, kw *KeywordTable) bool {
	return ContainsAny(in.Description, kw.Tabs) ||
		ContainsAny(in.Text, kw.Tabs) ||
		strings.Contains(in.Class, "Tab")
}

func isSearch(in Input, kw *KeywordTable) bool {
	return ContainsAny(in.Description, kw.Search) ||
		strings.Contains(strings.ToLower(in.Class), "search") ||
		strings.Contains(strings.ToLower(in.ResourceID), "search")
}

func isContent(in Input, kw *KeywordTable) bool {
	if ContainsAny(in.Description, kw.Content) {
		return true
	}
	return in.Clickable && ContainsAny(in.Description, kw.Attribution)
}

func isButton(in Input, _ *KeywordTable) bool {
	return strings.Contains(in.Class, "Button") ||
		(in.Clickable && !strings.Contains(in.Class, "TextView"))
}

func isText(in Input, _ *KeywordTable) bool {
	return strings.Contains(in.Class, "TextView") && strings.TrimSpace(in.Text) != ""
}

func isImage(in Input, _ *KeywordTable) bool {
	return strings.Contains(in.Class, "ImageView")
}

// -- Display names --

// typeSynonym maps a class-name fragment to a display name. Order matters:
// "ImageButton" must resolve to "Button" before "ImageView" is considered.
type typeSynonym struct {
	fragment string
	name     string
}

var typeSynonyms = []typeSynonym{
	{"Button", "Button"},
	{"EditText", "Input"},
	{"TextView", "Text"},
	{"ImageView", "Image"},
	{"RecyclerView", "List"},
	{"ListView", "List"},
	{"ViewPager", "Pager"},
	{"Tab", "Tab"},
}

// UnknownName is the display name of an element nothing else describes.
const UnknownName = "Unknown element"

// DisplayName picks description, then text, then a type-name synonym.
func DisplayName(in Input) string {
	if d := strings.TrimSpace(in.Description); d != "" {
		return d
	}
	if t := strings.TrimSpace(in.Text); t != "" {
		return t
	}
	for _, s := range typeSynonyms {
		if strings.Contains(in.Class, s.fragment) {
			return s.name
		}
	}
	return UnknownName
}

// -- Importance --

// Importance ranks in. High needs a primary-action description or resource
// id prefix; medium a secondary-action description or a click handler.
func Importance(in Input, kw *KeywordTable) schemas.Importance {
	if ContainsAny(in.Description, kw.PrimaryAction) || hasIDPrefix(in.ResourceID, kw.PrimaryActionIDs) {
		return schemas.ImportanceHigh
	}
	if ContainsAny(in.Description, kw.SecondaryAction) || in.Clickable {
		return schemas.ImportanceMedium
	}
	return schemas.ImportanceLow
}

// hasIDPrefix checks the entry name of a resource id
// ("com.app:id/main_feed" -> "main_feed").
func hasIDPrefix(resourceID string, prefixes []string) bool {
	if resourceID == "" {
		return false
	}
	name := resourceID
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
