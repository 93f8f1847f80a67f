package identifier_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/classifier"
	"github.com/xkilldash9x/viewlens/internal/hierarchy"
	"github.com/xkilldash9x/viewlens/internal/identifier"
)

func snapshot(pkg string, nodes string) string {
	return `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?><hierarchy rotation="0">` +
		`<node package="` + pkg + `" class="android.widget.FrameLayout" bounds="[0,0][1080,1920]">` +
		nodes + `</node></hierarchy>`
}

func TestAppName(t *testing.T) {
	tests := map[string]string{
		"com.xingin.xhs":       "Xiaohongshu",
		"com.tencent.mm":       "WeChat",
		"com.tencent.mm.debug": "WeChat",
		"org.example.notes":    "notes",
		"  com.sina.weibo  ":   "Weibo",
		"":                     identifier.UnknownApp,
		"com.example.":         identifier.UnknownApp,
		"launcher":             "launcher",
	}
	for pkg, want := range tests {
		assert.Equal(t, want, identifier.AppName(pkg), pkg)
	}
}

func TestIdentify_Fixture(t *testing.T) {
	data, err := os.ReadFile("../hierarchy/testdata/home_follow.xml")
	require.NoError(t, err)

	info := identifier.New(zaptest.NewLogger(t), nil).Identify(string(data))

	assert.Equal(t, schemas.AppPageInfo{
		AppName:         "Xiaohongshu",
		PageName:        "Home-Follow page",
		PackageName:     "com.xingin.xhs",
		NavigationTexts: []string{"Home", "Messages"},
		SelectedTabs:    []string{"Follow", "Home"},
	}, info)
	assert.Equal(t, "Xiaohongshu / Home-Follow page", info.Caption())
}

func TestIdentify_PageNames(t *testing.T) {
	id := identifier.New(zaptest.NewLogger(t), nil)

	tests := []struct {
		name  string
		nodes string
		want  string
	}{
		{
			"lone navigation",
			`<node text="Messages" selected="true" bounds="[0,0][10,10]"/><node text="Home" selected="false" bounds="[0,0][10,10]"/>`,
			"Messages page",
		},
		{
			"lone tab",
			`<node text="Discover" selected="true" bounds="[0,0][10,10]"/>`,
			"Discover page",
		},
		{
			"navigation matched by description",
			`<node content-desc="Profile, tab 4 of 4" selected="true" bounds="[0,0][10,10]"/>`,
			"Profile, tab 4 of 4 page",
		},
		{
			"selected node without a keyword",
			`<node text="Weekend deals" selected="true" bounds="[0,0][10,10]"/>`,
			identifier.DefaultPage,
		},
		{
			"sign-in hint",
			`<node text="Log in to continue" bounds="[0,0][10,10]"/>`,
			"Sign-in page",
		},
		{
			"settings hint",
			`<node content-desc="Settings" bounds="[0,0][10,10]"/>`,
			"Settings page",
		},
		{
			"search hint",
			`<node text="Search history" bounds="[0,0][10,10]"/>`,
			"Search page",
		},
		{"nothing to go on", ``, identifier.DefaultPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := id.Identify(snapshot("com.example.shop", tt.nodes))
			assert.Equal(t, tt.want, info.PageName)
			assert.Equal(t, "shop", info.AppName)
		})
	}
}

func TestIdentify_NeverFails(t *testing.T) {
	id := identifier.New(nil, nil)
	for _, in := range []string{"", "garbage", "<hierarchy><node>"} {
		info := id.Identify(in)
		assert.Equal(t, identifier.UnknownApp, info.AppName, in)
		assert.Equal(t, identifier.DefaultPage, info.PageName, in)
	}
}

func TestIdentifyNodes_UsesClassifierVocabulary(t *testing.T) {
	kw := classifier.DefaultKeywordTable().Merge(&classifier.KeywordTable{
		Navigation: []string{"accueil"},
		Tabs:       []string{"abonnements"},
	})
	c := classifier.New(kw)
	id := identifier.New(zaptest.NewLogger(t), c)

	nodes, err := hierarchy.Walk(snapshot("fr.example.social",
		`<node text="Accueil" selected="true" bounds="[0,0][10,10]"/><node text="Abonnements" selected="true" bounds="[0,0][10,10]"/>`))
	require.NoError(t, err)

	info := id.IdentifyNodes(nodes, "fr.example.social")
	assert.Equal(t, "Accueil-Abonnements page", info.PageName)
	assert.Equal(t, []string{"Accueil"}, info.NavigationTexts)

	// The identifier follows later vocabulary swaps on the shared classifier.
	c.SetKeywords(nil)
	info = id.IdentifyNodes(nodes, "fr.example.social")
	assert.Equal(t, identifier.DefaultPage, info.PageName)
}
