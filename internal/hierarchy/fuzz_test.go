package hierarchy_test

import (
	"fmt"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/beevik/etree"

	"github.com/xkilldash9x/viewlens/internal/hierarchy"
)

// fuzzNode is the shape the structured fuzzer fills in.
type fuzzNode struct {
	X1, Y1, X2, Y2 int16
	Text           string
	Description    string
	Class          string
	Clickable      bool
	Selected       bool
	Depth          uint8
}

// FuzzParse_Raw feeds arbitrary text to the parser; it must never panic and
// every survivor must have positive dimensions.
func FuzzParse_Raw(f *testing.F) {
	f.Add(wrap(`<node text="Follow" clickable="true" bounds="[0,0][100,50]"/>`))
	f.Add(`UI hierchary dumped to: /dev/tty<hierarchy><node bounds="[0,0][0,0]"/></hierarchy>`)
	f.Add(`<hierarchy><node>`)
	f.Fuzz(func(t *testing.T, snapshot string) {
		res := hierarchy.Parse(snapshot)
		for _, n := range res.Nodes {
			if n.Rect.Width <= 0 || n.Rect.Height <= 0 {
				t.Fatalf("degenerate survivor %s: %+v", n.ID(), n.Rect)
			}
		}
	})
}

// FuzzParse_Structured builds well-formed snapshots from generated nodes.
func FuzzParse_Structured(f *testing.F) {
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		var nodes []fuzzNode
		if err := consumer.CreateSlice(&nodes); err != nil {
			return
		}

		doc := etree.NewDocument()
		parent := doc.CreateElement("hierarchy")
		stack := []*etree.Element{parent}
		for _, n := range nodes {
			depth := int(n.Depth) % len(stack)
			stack = stack[:depth+1]
			el := stack[depth].CreateElement("node")
			el.CreateAttr("bounds", fmt.Sprintf("[%d,%d][%d,%d]", n.X1, n.Y1, n.X2, n.Y2))
			el.CreateAttr("text", n.Text)
			el.CreateAttr("content-desc", n.Description)
			el.CreateAttr("class", n.Class)
			el.CreateAttr("clickable", fmt.Sprint(n.Clickable))
			el.CreateAttr("selected", fmt.Sprint(n.Selected))
			stack = append(stack, el)
		}
		snapshot, err := doc.WriteToString()
		if err != nil {
			return
		}

		res := hierarchy.Parse(snapshot)
		if res.Warning != nil {
			// Generated strings may carry characters XML cannot represent.
			return
		}
		if len(res.All) != len(nodes) {
			t.Fatalf("walked %d nodes, built %d", len(res.All), len(nodes))
		}
		for _, n := range res.Nodes {
			if n.Rect.Width <= 0 || n.Rect.Height <= 0 {
				t.Fatalf("degenerate survivor %s: %+v", n.ID(), n.Rect)
			}
		}
	})
}
