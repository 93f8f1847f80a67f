package selection_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/selection"
)

func testElements() []schemas.Element {
	return []schemas.Element{
		{ID: "element-0", DisplayName: "Home", Clickable: true, Bounds: schemas.Rect{Width: 100, Height: 50}},
		{ID: "element-1", DisplayName: "Follow", Text: "Follow", Clickable: true, Bounds: schemas.Rect{X: 100, Width: 100, Height: 50}},
		{ID: "element-2", DisplayName: "Caption", Clickable: false, Bounds: schemas.Rect{Y: 100, Width: 300, Height: 40}},
	}
}

func newController(t *testing.T, opts ...selection.Option) *selection.Controller {
	t.Helper()
	opts = append([]selection.Option{selection.WithLogger(zaptest.NewLogger(t))}, opts...)
	c := selection.New(opts...)
	c.SetElements(testElements())
	t.Cleanup(c.Close)
	return c
}

func pendingCount(c *selection.Controller, ids ...string) int {
	n := 0
	for _, id := range ids {
		if c.State(id) == selection.StatePending {
			n++
		}
	}
	return n
}

func TestClick_SecondClickReplacesPending(t *testing.T) {
	c := newController(t)

	require.True(t, c.Click("element-0", schemas.Point{X: 10, Y: 10}))
	assert.Equal(t, selection.StatePending, c.State("element-0"))

	require.True(t, c.Click("element-1", schemas.Point{X: 110, Y: 10}))
	assert.Equal(t, selection.StateNormal, c.State("element-0"))
	assert.Equal(t, selection.StatePending, c.State("element-1"))

	p, ok := c.Pending()
	require.True(t, ok)
	assert.Equal(t, "element-1", p.Element.ID)
	assert.Equal(t, schemas.Point{X: 110, Y: 10}, p.Anchor)
}

func TestClick_AtMostOnePendingUnderConcurrency(t *testing.T) {
	c := newController(t)
	ids := []string{"element-0", "element-1", "element-2"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Click(ids[i%2], schemas.Point{})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, pendingCount(c, ids...))
}

func TestClick_Rejections(t *testing.T) {
	c := newController(t)

	assert.False(t, c.Click("element-2", schemas.Point{}), "non-clickable")
	assert.False(t, c.Click("element-42", schemas.Point{}), "stale id")

	require.True(t, c.HideElement("element-0"))
	assert.False(t, c.Click("element-0", schemas.Point{}), "hidden")
	_, ok := c.Pending()
	assert.False(t, ok)
}

func TestConfirm_InvokesCallbackOnce(t *testing.T) {
	var got []schemas.ConfirmedElement
	c := newController(t, selection.WithOnConfirm(func(ce schemas.ConfirmedElement) {
		got = append(got, ce)
	}))

	require.True(t, c.Click("element-1", schemas.Point{}))
	require.True(t, c.Confirm())
	assert.False(t, c.Confirm(), "nothing left to confirm")

	require.Len(t, got, 1)
	assert.Equal(t, "element-1", got[0].ID)
	assert.Equal(t, "Follow", got[0].Text)
	assert.Equal(t, schemas.Point{X: 150, Y: 25}, got[0].TapPoint())
	assert.Equal(t, selection.StateNormal, c.State("element-1"))
}

func TestCancel(t *testing.T) {
	c := newController(t)

	require.True(t, c.Click("element-0", schemas.Point{}))
	c.Cancel()
	assert.Equal(t, selection.StateNormal, c.State("element-0"))
	assert.False(t, c.Confirm())
}

func TestHover(t *testing.T) {
	c := newController(t)

	c.PointerEnter("element-2")
	assert.Equal(t, selection.StateHovered, c.State("element-2"))
	assert.True(t, c.DisplayState("element-2").Hovered)

	c.PointerLeave("element-2")
	assert.Equal(t, selection.StateNormal, c.State("element-2"))

	c.PointerEnter("element-99")
	_, ok := c.Hovered()
	assert.False(t, ok, "stale ids are ignored")
}

func TestHover_Delay(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := selection.New(selection.WithHoverDelay(20 * time.Millisecond))
	defer c.Close()
	c.SetElements(testElements())

	c.PointerEnter("element-0")
	assert.Equal(t, selection.StateNormal, c.State("element-0"))
	require.Eventually(t, func() bool {
		return c.State("element-0") == selection.StateHovered
	}, time.Second, 5*time.Millisecond)

	// leaving before the delay cancels the hover.
	c.PointerEnter("element-1")
	c.PointerLeave("element-1")
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, selection.StateNormal, c.State("element-1"))
}

func TestHiddenCannotBeHoveredOrPending(t *testing.T) {
	c := newController(t)

	c.PointerEnter("element-0")
	require.True(t, c.Click("element-0", schemas.Point{}))
	require.True(t, c.HideElement("element-0"))

	assert.Equal(t, selection.StateHidden, c.State("element-0"))
	ds := c.DisplayState("element-0")
	assert.True(t, ds.Hidden)
	assert.False(t, ds.Hovered)
	assert.False(t, ds.Pending)

	c.PointerEnter("element-0")
	assert.Equal(t, selection.StateHidden, c.State("element-0"))
}

func TestHide_HidesPendingElement(t *testing.T) {
	c := newController(t)

	assert.False(t, c.Hide(), "nothing pending")
	require.True(t, c.Click("element-1", schemas.Point{}))
	require.True(t, c.Hide())

	assert.Equal(t, selection.StateHidden, c.State("element-1"))
	_, ok := c.Pending()
	assert.False(t, ok)
	assert.Equal(t, []string{"element-1"}, c.HiddenIDs())
}

func TestHide_ConcurrentWithClick(t *testing.T) {
	var hiddenEvents atomic.Int64
	c := newController(t, selection.WithOnChange(func(ev selection.Event) {
		if ev.Type == selection.EventHidden {
			hiddenEvents.Add(1)
		}
	}))
	ids := []string{"element-0", "element-1"}

	var (
		wg    sync.WaitGroup
		hides atomic.Int64
	)
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Restore(ids[i%2])
			c.Click(ids[i%2], schemas.Point{})
		}(i)
		go func() {
			defer wg.Done()
			if c.Hide() {
				hides.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, hides.Load(), hiddenEvents.Load(), "one hidden event per successful hide")
	assert.LessOrEqual(t, pendingCount(c, ids...), 1)
	if p, ok := c.Pending(); ok {
		assert.NotEqual(t, selection.StateHidden, c.State(p.Element.ID))
		assert.NotContains(t, c.HiddenIDs(), p.Element.ID)
	}
}

func TestAutoRestore(t *testing.T) {
	defer goleak.VerifyNone(t)

	var restored atomic.Int32
	c := selection.New(
		selection.WithAutoRestore(30*time.Millisecond),
		selection.WithOnChange(func(ev selection.Event) {
			if ev.Type == selection.EventRestored {
				restored.Add(1)
			}
		}),
	)
	defer c.Close()
	c.SetElements(testElements())

	hiddenAt := time.Now()
	require.True(t, c.HideElement("element-0"))
	assert.Equal(t, selection.StateHidden, c.State("element-0"))

	require.Eventually(t, func() bool {
		return restored.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(hiddenAt), 30*time.Millisecond)
	assert.Equal(t, selection.StateNormal, c.State("element-0"))
	assert.Empty(t, c.HiddenIDs())
}

func TestHiddenEntries_UseClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newController(t, selection.WithClock(func() time.Time { return fixed }))

	require.True(t, c.HideElement("element-2"))
	entries := c.HiddenEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, fixed, entries[0].HiddenAt)
	assert.Equal(t, fixed.Add(selection.DefaultAutoRestore), entries[0].ExpiresAt)
}

func TestRestore(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := selection.New(selection.WithAutoRestore(20 * time.Millisecond))
	defer c.Close()
	c.SetElements(testElements())

	require.True(t, c.HideElement("element-0"))
	require.True(t, c.Restore("element-0"))
	assert.False(t, c.Restore("element-0"))

	// hide again; the first timer must not cut the second hide short.
	require.True(t, c.HideElement("element-0"))
	assert.Equal(t, selection.StateHidden, c.State("element-0"))
}

func TestRestoreAll(t *testing.T) {
	c := newController(t)

	require.True(t, c.HideElement("element-0"))
	require.True(t, c.HideElement("element-2"))

	hidden := c.HiddenSet()
	assert.True(t, hidden("element-0"))
	assert.False(t, hidden("element-1"))

	assert.Equal(t, 2, c.RestoreAll())
	assert.Empty(t, c.HiddenIDs())
	assert.Equal(t, selection.StateNormal, c.State("element-2"))
}

func TestSetElements_ResetsAndCancelsTimers(t *testing.T) {
	defer goleak.VerifyNone(t)

	var restored atomic.Int32
	c := selection.New(
		selection.WithAutoRestore(20*time.Millisecond),
		selection.WithOnChange(func(ev selection.Event) {
			if ev.Type == selection.EventRestored {
				restored.Add(1)
			}
		}),
	)
	defer c.Close()
	c.SetElements(testElements())

	c.PointerEnter("element-0")
	require.True(t, c.Click("element-1", schemas.Point{}))
	require.True(t, c.HideElement("element-2"))

	c.SetElements(testElements())

	assert.Equal(t, selection.StateNormal, c.State("element-0"))
	assert.Equal(t, selection.StateNormal, c.State("element-1"))
	assert.Equal(t, selection.StateNormal, c.State("element-2"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), restored.Load(), "timer from the previous pass must not fire")
}

func TestStaleIDsAfterNewPass(t *testing.T) {
	c := newController(t)

	c.SetElements([]schemas.Element{{ID: "element-7", Clickable: true, Bounds: schemas.Rect{Width: 1, Height: 1}}})

	assert.False(t, c.Click("element-0", schemas.Point{}))
	assert.False(t, c.HideElement("element-0"))
	assert.True(t, c.Click("element-7", schemas.Point{}))
}

func TestListenerMayCallBack(t *testing.T) {
	var c *selection.Controller
	var states []selection.State
	c = selection.New(selection.WithOnChange(func(ev selection.Event) {
		if ev.ElementID != "" {
			states = append(states, c.State(ev.ElementID))
		}
	}))
	defer c.Close()
	c.SetElements(testElements())

	require.True(t, c.Click("element-0", schemas.Point{}))
	require.True(t, c.Confirm())

	assert.Equal(t, []selection.State{selection.StatePending, selection.StateNormal}, states)
}

func TestClose_IsInert(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := selection.New(selection.WithAutoRestore(time.Hour))
	c.SetElements(testElements())
	require.True(t, c.HideElement("element-0"))

	c.Close()
	c.Close()

	assert.False(t, c.Click("element-1", schemas.Point{}))
	assert.False(t, c.HideElement("element-1"))
	assert.Empty(t, c.HiddenIDs())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending_confirmation", selection.StatePending.String())
	assert.Equal(t, "normal", selection.State(42).String())
}
