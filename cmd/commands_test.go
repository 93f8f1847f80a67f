// File: cmd/commands_test.go
package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/config"
)

func TestCategoriesCmd(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		out, err := executeCommand(t, "", "categories", fixturePath())
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Equal(t, "Xiaohongshu / Home-Follow page", lines[0])
		assert.Contains(t, out, "Tabs")
		assert.NotContains(t, out, "Images", "empty categories are omitted by default")
		assert.Regexp(t, `Total\s+8`, lines[len(lines)-1])
	})

	t.Run("json with empty categories", func(t *testing.T) {
		out, err := executeCommand(t, "", "categories", fixturePath(), "--json", "--all")
		require.NoError(t, err)

		var counts []schemas.CategoryCount
		require.NoError(t, jsonAPI.Unmarshal([]byte(out), &counts))
		require.Len(t, counts, len(schemas.AllCategories))
		assert.Equal(t, schemas.CategoryNavigation, counts[0].Category)
		assert.Equal(t, 2, counts[0].Count)
	})
}

func TestStatsCmd(t *testing.T) {
	broken := writeTemp(t, "broken.xml", "not a snapshot")

	out, err := executeCommand(t, "", "stats", "-j", "2", fixturePath(), broken, fixturePath())
	require.NoError(t, err)

	var rows []fileStats
	require.NoError(t, jsonAPI.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)

	assert.Equal(t, fixturePath(), rows[0].File)
	assert.Equal(t, schemas.SnapshotStats{TotalNodes: 12, ClickableNodes: 7, TextNodes: 5, ImageNodes: 2}, rows[0].Nodes)
	assert.Equal(t, 8, rows[0].Elements)
	assert.Equal(t, "Xiaohongshu / Home-Follow page", rows[0].Caption)

	assert.Equal(t, broken, rows[1].File)
	assert.NotEmpty(t, rows[1].Warning)
	assert.Zero(t, rows[1].Elements)
	assert.Equal(t, "Unknown application / Main page", rows[1].Caption)

	assert.Equal(t, rows[0].Nodes, rows[2].Nodes)
}

func TestCollectStats_MissingFile(t *testing.T) {
	_, err := collectStats(context.Background(), config.NewDefaultConfig(), []string{fixturePath(), "nope.xml"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read nope.xml")
}

func TestFollowCmd(t *testing.T) {
	snapshot := strings.ReplaceAll(readFixture(t), "\n", " ")
	stream := writeTemp(t, "stream.log", snapshot+"\n\n<hierarchy><node>\n"+snapshot+"\n")

	out, err := executeCommand(t, "", "follow", stream, "--follow=false")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	var events []followEvent
	for _, l := range lines {
		var ev followEvent
		require.NoError(t, jsonAPI.Unmarshal([]byte(l), &ev), l)
		events = append(events, ev)
	}

	assert.Equal(t, 1, events[0].Line)
	assert.Equal(t, 8, events[0].Elements)
	assert.False(t, events[0].Cached)
	assert.Equal(t, "Xiaohongshu / Home-Follow page", events[0].Caption)
	assert.Len(t, events[0].Categories, 6)

	assert.NotEmpty(t, events[1].Warning)
	assert.Zero(t, events[1].Elements)

	assert.Equal(t, 3, events[2].Line)
	assert.True(t, events[2].Cached, "an identical snapshot is served from the parse cache")
	assert.Equal(t, 8, events[2].Elements)
}

func TestFollowCmd_MissingFile(t *testing.T) {
	_, err := executeCommand(t, "", "follow", "does-not-exist.log", "--follow=false")
	assert.ErrorContains(t, err, "failed to tail snapshot stream")
}

func TestSelectCmd(t *testing.T) {
	script := strings.Join([]string{
		"list",
		"click element-3",
		"confirm",
		"confirm",
		"hide element-1",
		"state element-1",
		"click element-1",
		"restore element-1",
		"state element-1",
		"click nope",
		"tap 0 0",
		"dance",
		"quit",
		"list",
	}, "\n")

	out, err := executeCommand(t, script, "select", fixturePath())
	require.NoError(t, err)

	assert.Contains(t, out, "Xiaohongshu / Home-Follow page: 8 elements")
	assert.Contains(t, out, "8 of 8 shown")
	assert.Equal(t, 1, strings.Count(out, "of 8 shown"), "commands after quit are ignored")
	assert.Contains(t, out, "pending element-3, confirm or cancel")

	// The confirmation is a JSON object with the tap point in device pixels.
	assert.Contains(t, out, `"id": "element-3"`)
	assert.Contains(t, out, `"tapX": 1000`)
	assert.Contains(t, out, `"tapY": 120`)
	assert.Contains(t, out, "error: nothing is pending")

	assert.Contains(t, out, "hidden element-1 for 1m0s")
	assert.Contains(t, out, "hidden\n")
	assert.Contains(t, out, "error: element-1 cannot be selected")
	assert.Contains(t, out, "normal\n")
	assert.Contains(t, out, "error: nope cannot be selected")
	assert.Contains(t, out, "error: nothing selectable at 0,0")
	assert.Contains(t, out, `error: unknown command "dance" (try help)`)
}

func TestSelectCmd_Tap(t *testing.T) {
	// Center of the search icon, device [960,80][1040,160], at scale 550/1920.
	out, err := executeCommand(t, "tap 286.458 34.375\nconfirm\n", "select", fixturePath())
	require.NoError(t, err)
	assert.Contains(t, out, "pending element-3")
	assert.Contains(t, out, `"tapX": 1000`)
}
