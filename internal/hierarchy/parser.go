// internal/hierarchy/parser.go
package hierarchy

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/viewlens/api/schemas"
)

var (
	// ErrMalformedSnapshot is the warning returned when the snapshot text is not
	// a well-formed view hierarchy document.
	ErrMalformedSnapshot = errors.New("snapshot is not a well-formed view hierarchy")
	// ErrEmptySnapshot is the warning returned for blank input.
	ErrEmptySnapshot = errors.New("snapshot is empty")
)

// nodeTag is the element name uiautomator uses for every view.
const nodeTag = "node"

// boundsRegex matches "[x1,y1][x2,y2]", tolerating whitespace and signs.
var boundsRegex = regexp.MustCompile(`^\s*\[\s*(-?\d+)\s*,\s*(-?\d+)\s*\]\s*\[\s*(-?\d+)\s*,\s*(-?\d+)\s*\]\s*$`)

// RawNode is one view from the snapshot with its attributes copied out of the
// XML tree. It is transient: the classifier turns survivors into elements.
type RawNode struct {
	Index       int
	Bounds      string
	Rect        schemas.Rect
	HasRect     bool
	Text        string
	Description string
	Class       string
	ResourceID  string
	Package     string
	Clickable   bool
	Scrollable  bool
	Selected    bool
	Enabled     bool
}

// ID returns the positional identifier used for the element built from this
// node. It is only stable within one parse pass.
func (n RawNode) ID() string {
	return "element-" + strconv.Itoa(n.Index)
}

// TypeTag is the last dotted segment of the class name.
func (n RawNode) TypeTag() string {
	if n.Class == "" {
		return "Unknown"
	}
	if i := strings.LastIndex(n.Class, "."); i >= 0 && i < len(n.Class)-1 {
		return n.Class[i+1:]
	}
	return n.Class
}

// HasContent reports whether the node offers text or a description.
func (n RawNode) HasContent() bool {
	return strings.TrimSpace(n.Text) != "" || strings.TrimSpace(n.Description) != ""
}

// Result is the outcome of one parse pass.
type Result struct {
	// Nodes are the survivors, in document order.
	Nodes []RawNode
	// All holds every node visited, survivors or not. The page identifier
	// scans it for selected tabs.
	All []RawNode
	// RootPackage is the package attribute of the first node.
	RootPackage string
	// Warning is non-nil when the snapshot could not be read. The result is
	// then empty but still usable.
	Warning error
}

// Empty reports whether no element survived.
func (r Result) Empty() bool { return len(r.Nodes) == 0 }

// Options tune the survival filter.
type Options struct {
	// IncludeNonClickable keeps nodes that have neither text, description nor
	// a click handler. Degenerate bounds are still dropped.
	IncludeNonClickable bool
}

// Parser turns snapshot text into raw nodes. It holds no state between calls.
type Parser struct {
	logger *zap.Logger
	opts   Options
}

// NewParser creates a parser. A nil logger disables logging.
func NewParser(logger *zap.Logger, opts Options) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger.Named("hierarchy"), opts: opts}
}

// Parse is a convenience wrapper using default options and no logging.
func Parse(snapshot string) Result {
	return NewParser(nil, Options{}).Parse(snapshot)
}

// Parse reads the snapshot and returns the surviving nodes. It never panics
// and never returns an error; problems surface as Result.Warning.
func (p *Parser) Parse(snapshot string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered from panic while parsing snapshot.", zap.Any("panic", r))
			res = Result{Warning: fmt.Errorf("%w: %v", ErrMalformedSnapshot, r)}
		}
	}()

	all, err := Walk(snapshot)
	if err != nil {
		p.logger.Warn("Snapshot could not be parsed; returning an empty element set.", zap.Error(err))
		return Result{Warning: err}
	}

	res.All = all
	if len(all) > 0 {
		res.RootPackage = all[0].Package
	}
	for _, n := range all {
		if p.survives(n) {
			res.Nodes = append(res.Nodes, n)
		}
	}

	p.logger.Debug("Snapshot parsed.",
		zap.Int("nodes", len(all)),
		zap.Int("survivors", len(res.Nodes)),
		zap.String("package", res.RootPackage),
	)
	return res
}

// survives applies the relevance and geometry filter.
func (p *Parser) survives(n RawNode) bool {
	if !n.HasRect {
		return false
	}
	if n.Rect.Width <= 0 || n.Rect.Height <= 0 {
		return false
	}
	if !n.HasContent() && !n.Clickable {
		return p.opts.IncludeNonClickable
	}
	return true
}

// Walk returns every node in the snapshot in depth-first document order with
// bounds parsed where possible. Unlike Parse it reports malformed input as an
// error.
func Walk(snapshot string) ([]RawNode, error) {
	content, err := cleanSnapshot(snapshot)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedSnapshot)
	}

	var nodes []RawNode
	index := 0
	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		if el.Tag == nodeTag {
			nodes = append(nodes, rawNodeFrom(el, index))
			index++
		}
		for _, child := range el.ChildElements() {
			visit(child)
		}
	}
	visit(root)
	return nodes, nil
}

// Stats counts raw nodes by kind without applying any filter. Malformed input
// yields zero counts.
func Stats(snapshot string) schemas.SnapshotStats {
	var stats schemas.SnapshotStats
	nodes, err := Walk(snapshot)
	if err != nil {
		return stats
	}
	stats.TotalNodes = len(nodes)
	for _, n := range nodes {
		if n.Clickable {
			stats.ClickableNodes++
		}
		if strings.TrimSpace(n.Text) != "" {
			stats.TextNodes++
		}
		if strings.Contains(n.Class, "ImageView") {
			stats.ImageNodes++
		}
	}
	return stats
}

// ParseBounds reads a "[x1,y1][x2,y2]" string. The all-zero rectangle is
// rejected.
func ParseBounds(s string) (schemas.Rect, bool) {
	m := boundsRegex.FindStringSubmatch(s)
	if m == nil {
		return schemas.Rect{}, false
	}
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return schemas.Rect{}, false
		}
		v[i] = n
	}
	if v == [4]int{} {
		return schemas.Rect{}, false
	}
	return schemas.Rect{
		X:      float64(v[0]),
		Y:      float64(v[1]),
		Width:  float64(v[2] - v[0]),
		Height: float64(v[3] - v[1]),
	}, true
}

func rawNodeFrom(el *etree.Element, index int) RawNode {
	bounds := el.SelectAttrValue("bounds", "")
	rect, ok := ParseBounds(bounds)
	return RawNode{
		Index:       index,
		Bounds:      bounds,
		Rect:        rect,
		HasRect:     ok,
		Text:        el.SelectAttrValue("text", ""),
		Description: el.SelectAttrValue("content-desc", ""),
		Class:       el.SelectAttrValue("class", ""),
		ResourceID:  el.SelectAttrValue("resource-id", ""),
		Package:     el.SelectAttrValue("package", ""),
		Clickable:   attrTrue(el, "clickable"),
		Scrollable:  attrTrue(el, "scrollable"),
		Selected:    attrTrue(el, "selected"),
		// uiautomator omits enabled on some builds; absent means enabled.
		Enabled: el.SelectAttrValue("enabled", "true") == "true",
	}
}

func attrTrue(el *etree.Element, key string) bool {
	return strings.EqualFold(strings.TrimSpace(el.SelectAttrValue(key, "")), "true")
}

// cleanSnapshot trims the noise adb prints around a dump, such as
// "UI hierchary dumped to: /dev/tty".
func cleanSnapshot(snapshot string) (string, error) {
	if strings.TrimSpace(snapshot) == "" {
		return "", ErrEmptySnapshot
	}
	start := strings.Index(snapshot, "<?xml")
	if start < 0 {
		start = strings.Index(snapshot, "<hierarchy")
	}
	if start < 0 {
		start = strings.Index(snapshot, "<")
	}
	if start < 0 {
		return "", fmt.Errorf("%w: no markup found", ErrMalformedSnapshot)
	}
	end := strings.LastIndex(snapshot, ">")
	if end < start {
		return "", fmt.Errorf("%w: unterminated markup", ErrMalformedSnapshot)
	}
	return snapshot[start : end+1], nil
}
