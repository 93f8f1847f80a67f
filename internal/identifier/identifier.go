// internal/identifier/identifier.go
package identifier

import (
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/classifier"
	"github.com/xkilldash9x/viewlens/internal/hierarchy"
)

const (
	UnknownApp  = "Unknown application"
	DefaultPage = "Main page"
)

// appNames maps well-known package names to application names.
var appNames = map[string]string{
	"com.xingin.xhs":              "Xiaohongshu",
	"com.tencent.mm":              "WeChat",
	"com.taobao.taobao":           "Taobao",
	"com.jingdong.app.mall":       "JD",
	"com.tmall.wireless":          "Tmall",
	"com.sina.weibo":              "Weibo",
	"com.ss.android.ugc.aweme":    "Douyin",
	"com.tencent.mobileqq":        "QQ",
	"com.alibaba.android.rimet":   "DingTalk",
	"com.autonavi.minimap":        "Amap",
	"com.baidu.BaiduMap":          "Baidu Maps",
	"com.netease.cloudmusic":      "NetEase Cloud Music",
	"com.tencent.qqmusic":         "QQ Music",
	"com.zhihu.android":           "Zhihu",
	"com.tencent.wework":          "WeCom",
	"com.eg.android.AlipayGphone": "Alipay",
	"com.android.settings":        "Settings",
	"com.google.android.youtube":  "YouTube",
}

// appNameOrder fixes the iteration order of the contains-match fallback.
var appNameOrder = []string{
	"com.xingin.xhs", "com.tencent.mm", "com.taobao.taobao", "com.jingdong.app.mall",
	"com.tmall.wireless", "com.sina.weibo", "com.ss.android.ugc.aweme", "com.tencent.mobileqq",
	"com.alibaba.android.rimet", "com.autonavi.minimap", "com.baidu.BaiduMap",
	"com.netease.cloudmusic", "com.tencent.qqmusic", "com.zhihu.android", "com.tencent.wework",
	"com.eg.android.AlipayGphone", "com.android.settings", "com.google.android.youtube",
}

// pageHint names a page found by scanning all visible text.
type pageHint struct {
	keywords []string
	page     string
}

var pageHints = []pageHint{
	{[]string{"sign in", "log in", "login", "登录"}, "Sign-in page"},
	{[]string{"settings", "设置"}, "Settings page"},
	{[]string{"search", "搜索"}, "Search page"},
}

// Identifier derives the advisory caption for a snapshot.
type Identifier struct {
	logger   *zap.Logger
	keywords func() *classifier.KeywordTable
}

// New creates an identifier sharing the classifier's navigation and tab
// vocabulary. A nil classifier uses the default table.
func New(logger *zap.Logger, c *classifier.Classifier) *Identifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	kw := classifier.DefaultKeywordTable
	if c != nil {
		kw = c.Keywords
	}
	return &Identifier{logger: logger.Named("identifier"), keywords: kw}
}

// Identify parses snapshot and derives the caption. It always returns a
// caption pair, even for malformed input.
func (id *Identifier) Identify(snapshot string) schemas.AppPageInfo {
	nodes, err := hierarchy.Walk(snapshot)
	if err != nil {
		id.logger.Debug("Caption falls back to defaults.", zap.Error(err))
		return schemas.AppPageInfo{AppName: UnknownApp, PageName: DefaultPage}
	}
	pkg := ""
	if len(nodes) > 0 {
		pkg = nodes[0].Package
	}
	return id.IdentifyNodes(nodes, pkg)
}

// IdentifyNodes derives the caption from an already walked node list.
func (id *Identifier) IdentifyNodes(nodes []hierarchy.RawNode, rootPackage string) (info schemas.AppPageInfo) {
	defer func() {
		if r := recover(); r != nil {
			id.logger.Error("Recovered from panic while identifying page.", zap.Any("panic", r))
			info = schemas.AppPageInfo{AppName: UnknownApp, PageName: DefaultPage}
		}
	}()

	info.PackageName = rootPackage
	info.AppName = AppName(rootPackage)

	kw := id.keywords()
	var selectedNav, selectedTab string
	for _, n := range nodes {
		label := strings.TrimSpace(n.Text)
		if label == "" {
			label = strings.TrimSpace(n.Description)
		}
		if label == "" {
			continue
		}
		isNav := matchesLabel(n, kw.Navigation)
		isTab := matchesLabel(n, kw.Tabs)
		if isNav {
			info.NavigationTexts = append(info.NavigationTexts, label)
		}
		if !n.Selected || (!isNav && !isTab) {
			continue
		}
		info.SelectedTabs = append(info.SelectedTabs, label)
		if isNav && selectedNav == "" {
			selectedNav = label
		} else if isTab && selectedTab == "" {
			selectedTab = label
		}
	}

	info.PageName = pageName(selectedNav, selectedTab, nodes)
	return info
}

// matchesLabel follows the page-detection convention: the description may
// contain the keyword, the text must equal it.
func matchesLabel(n hierarchy.RawNode, keywords []string) bool {
	if classifier.ContainsAny(n.Description, keywords) {
		return true
	}
	text := strings.TrimSpace(n.Text)
	for _, kw := range keywords {
		if strings.EqualFold(text, kw) {
			return true
		}
	}
	return false
}

func pageName(nav, tab string, nodes []hierarchy.RawNode) string {
	switch {
	case nav != "" && tab != "":
		return nav + "-" + tab + " page"
	case nav != "":
		return nav + " page"
	case tab != "":
		return tab + " page"
	}
	for _, hint := range pageHints {
		for _, n := range nodes {
			if classifier.ContainsAny(n.Text, hint.keywords) || classifier.ContainsAny(n.Description, hint.keywords) {
				return hint.page
			}
		}
	}
	return DefaultPage
}

// AppName maps a package name to an application name: exact match, then
// containment, then the last dotted segment.
func AppName(pkg string) string {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return UnknownApp
	}
	if name, ok := appNames[pkg]; ok {
		return name
	}
	for _, known := range appNameOrder {
		if strings.Contains(pkg, known) {
			return appNames[known]
		}
	}
	parts := strings.Split(pkg, ".")
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return UnknownApp
}
