package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/classifier"
	"github.com/xkilldash9x/viewlens/internal/hierarchy"
)

const (
	textView    = "android.widget.TextView"
	imageView   = "android.widget.ImageView"
	frameLayout = "android.widget.FrameLayout"
)

func TestClassify_Categories(t *testing.T) {
	c := classifier.New(nil)

	tests := []struct {
		name string
		in   classifier.Input
		want schemas.Category
	}{
		{"clickable tab label", classifier.Input{Text: "Follow", Class: textView, Clickable: true}, schemas.CategoryTabs},
		{"navigation label", classifier.Input{Text: "Home", Class: textView, Clickable: true}, schemas.CategoryNavigation},
		{"navigation label in chinese", classifier.Input{Text: "首页", Class: textView, Clickable: true}, schemas.CategoryNavigation},
		{"navigation resource id", classifier.Input{ResourceID: "com.app:id/nav_profile", Class: frameLayout}, schemas.CategoryNavigation},
		{"tab widget class", classifier.Input{Class: "com.google.android.material.tabs.TabLayout$TabView"}, schemas.CategoryTabs},
		{"search description", classifier.Input{Description: "Search", Class: imageView, Clickable: true}, schemas.CategorySearch},
		{"search resource id", classifier.Input{Class: "android.widget.EditText", ResourceID: "com.app:id/search_box"}, schemas.CategorySearch},
		{"content keyword", classifier.Input{Description: "Note about cats", Clickable: true}, schemas.CategoryContent},
		{"attributed card", classifier.Input{Description: "Trail photos, from Alice", Class: frameLayout, Clickable: true}, schemas.CategoryContent},
		{"attribution needs a click handler", classifier.Input{Description: "Trail photos, from Alice", Class: frameLayout}, schemas.CategoryOther},
		{"button class", classifier.Input{Class: "android.widget.ImageButton"}, schemas.CategoryButtons},
		{"clickable container", classifier.Input{Class: frameLayout, Clickable: true}, schemas.CategoryButtons},
		{"plain text", classifier.Input{Text: "Hello", Class: textView}, schemas.CategoryText},
		{"empty text view", classifier.Input{Class: textView}, schemas.CategoryOther},
		{"image", classifier.Input{Class: imageView}, schemas.CategoryImages},
		{"unknown", classifier.Input{Class: "android.view.View"}, schemas.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.in).Category)
		})
	}
}

func TestCategorize_FirstMatchWins(t *testing.T) {
	// "video" is both a tab and a content keyword; tabs come first.
	in := classifier.Input{Description: "Video by Bob", Clickable: true}
	kw := classifier.DefaultKeywordTable()

	assert.Equal(t, schemas.CategoryTabs, classifier.Categorize(classifier.CategoryRules, in, kw))

	reordered := []classifier.Rule{classifier.CategoryRules[3], classifier.CategoryRules[1]}
	assert.Equal(t, schemas.CategoryContent, classifier.Categorize(reordered, in, kw))
	assert.Equal(t, schemas.CategoryOther, classifier.Categorize(nil, in, kw))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   classifier.Input
		want string
	}{
		{classifier.Input{Description: "  Search  ", Text: "ignored"}, "Search"},
		{classifier.Input{Description: " ", Text: " Follow "}, "Follow"},
		{classifier.Input{Class: "android.widget.ImageButton"}, "Button"},
		{classifier.Input{Class: "android.widget.EditText"}, "Input"},
		{classifier.Input{Class: textView}, "Text"},
		{classifier.Input{Class: imageView}, "Image"},
		{classifier.Input{Class: "androidx.recyclerview.widget.RecyclerView"}, "List"},
		{classifier.Input{Class: "android.widget.ListView"}, "List"},
		{classifier.Input{Class: "androidx.viewpager.widget.ViewPager"}, "Pager"},
		{classifier.Input{Class: "android.widget.TabWidget"}, "Tab"},
		{classifier.Input{Class: "android.view.View"}, classifier.UnknownName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifier.DisplayName(tt.in), "%+v", tt.in)
	}
}

func TestImportance(t *testing.T) {
	kw := classifier.DefaultKeywordTable()
	tests := []struct {
		name string
		in   classifier.Input
		want schemas.Importance
	}{
		{"primary description", classifier.Input{Description: "Home"}, schemas.ImportanceHigh},
		{"primary resource id", classifier.Input{ResourceID: "com.app:id/main_feed"}, schemas.ImportanceHigh},
		{"prefix only at the start", classifier.Input{ResourceID: "com.app:id/feed_main"}, schemas.ImportanceLow},
		{"secondary description", classifier.Input{Description: "Follow"}, schemas.ImportanceMedium},
		{"clickable", classifier.Input{Clickable: true}, schemas.ImportanceMedium},
		{"nothing", classifier.Input{Text: "Hello"}, schemas.ImportanceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Importance(tt.in, kw))
		})
	}
}

func TestElement(t *testing.T) {
	c := classifier.New(nil)
	node := hierarchy.RawNode{
		Index:      7,
		Rect:       schemas.Rect{Width: 100, Height: 50},
		Text:       "Follow",
		Class:      textView,
		ResourceID: "com.xingin.xhs:id/tab_follow",
		Clickable:  true,
		Selected:   true,
		Enabled:    true,
	}

	el := c.Element(node)
	assert.Equal(t, schemas.Element{
		ID:          "element-7",
		Index:       7,
		Text:        "Follow",
		Description: "Follow (clickable)",
		TypeTag:     "TextView",
		ResourceID:  "com.xingin.xhs:id/tab_follow",
		Category:    schemas.CategoryTabs,
		Importance:  schemas.ImportanceMedium,
		DisplayName: "Follow",
		Bounds:      schemas.Rect{Width: 100, Height: 50},
		Clickable:   true,
		Enabled:     true,
		Selected:    true,
	}, el)

	node.Description = "Follow Alice"
	node.Clickable = false
	assert.Equal(t, "Follow Alice", c.Element(node).Description)

	node.Description = ""
	assert.Equal(t, "Follow", c.Element(node).Description)
}

func TestElements_PreservesOrder(t *testing.T) {
	c := classifier.New(nil)
	els := c.Elements([]hierarchy.RawNode{{Index: 4, Text: "b"}, {Index: 2, Text: "a"}})
	require.Len(t, els, 2)
	assert.Equal(t, "element-4", els[0].ID)
	assert.Equal(t, "element-2", els[1].ID)
}

func TestSetKeywords(t *testing.T) {
	c := classifier.New(nil)
	follow := classifier.Input{Text: "Follow", Class: textView, Clickable: true}
	require.Equal(t, schemas.CategoryTabs, c.Classify(follow).Category)

	c.SetKeywords(classifier.DefaultKeywordTable().Merge(&classifier.KeywordTable{Tabs: []string{}}))
	assert.Empty(t, c.Keywords().Tabs)
	assert.Equal(t, schemas.CategoryText, c.Classify(follow).Category)

	c.SetKeywords(nil)
	assert.Equal(t, classifier.DefaultKeywordTable(), c.Keywords())
}
