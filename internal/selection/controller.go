// internal/selection/controller.go
package selection

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/viewlens/api/schemas"
)

// DefaultAutoRestore is how long a hidden element stays hidden.
const DefaultAutoRestore = 60 * time.Second

// State is the interaction state of one element.
type State int

const (
	StateNormal State = iota
	StateHovered
	StatePending
	StateHidden
)

func (s State) String() string {
	switch s {
	case StateHovered:
		return "hovered"
	case StatePending:
		return "pending_confirmation"
	case StateHidden:
		return "hidden"
	default:
		return "normal"
	}
}

// EventType names a state transition reported to the change listener.
type EventType string

const (
	EventHovered   EventType = "hovered"
	EventUnhovered EventType = "unhovered"
	EventPending   EventType = "pending"
	EventConfirmed EventType = "confirmed"
	EventCancelled EventType = "cancelled"
	EventHidden    EventType = "hidden"
	EventRestored  EventType = "restored"
	EventReset     EventType = "reset"
)

// Event describes one transition. ElementID is empty for EventReset.
type Event struct {
	Type      EventType
	ElementID string
}

// Pending is the element awaiting confirmation and the point the
// confirmation popover is anchored at.
type Pending struct {
	Element schemas.Element
	Anchor  schemas.Point
}

// HiddenEntry describes one hidden element.
type HiddenEntry struct {
	ElementID string    `json:"elementId"`
	HiddenAt  time.Time `json:"hiddenAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type hiddenState struct {
	entry HiddenEntry
	timer *time.Timer
}

// Controller drives hover, pending confirmation and hidden states over the
// element set of one parse pass. It is safe for concurrent use; auto-restore
// timers fire on their own goroutines.
//
// Listeners are always invoked without the controller lock held, so they may
// call back into the controller.
type Controller struct {
	logger      *zap.Logger
	autoRestore time.Duration
	hoverDelay  time.Duration
	now         func() time.Time
	onConfirm   func(schemas.ConfirmedElement)
	onChange    func(Event)

	mu         sync.Mutex
	elements   map[string]schemas.Element
	hovered    string
	hoverWant  string
	hoverTimer *time.Timer
	pending    *Pending
	hidden     map[string]*hiddenState
	// generation advances on every reset. Timers capture it and do nothing
	// once it moves on.
	generation uint64
	closed     bool

	// timersWg tracks scheduled timer callbacks so Close can wait for any
	// that already fired.
	timersWg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithAutoRestore sets the hidden-state timeout. Non-positive values keep the
// default.
func WithAutoRestore(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.autoRestore = d
		}
	}
}

// WithHoverDelay defers the hovered state until the pointer has rested on an
// element for d. Zero hovers immediately.
func WithHoverDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.hoverDelay = d
		}
	}
}

// WithClock replaces the clock used for hidden timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnConfirm sets the callback invoked once per confirmed selection.
func WithOnConfirm(fn func(schemas.ConfirmedElement)) Option {
	return func(c *Controller) { c.onConfirm = fn }
}

// WithOnChange sets a listener for every state transition, including
// auto-restores.
func WithOnChange(fn func(Event)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// New creates a controller with an empty element set.
func New(opts ...Option) *Controller {
	c := &Controller{
		logger:      zap.NewNop(),
		autoRestore: DefaultAutoRestore,
		now:         time.Now,
		elements:    make(map[string]schemas.Element),
		hidden:      make(map[string]*hiddenState),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("selection")
	return c
}

// AutoRestore returns the configured hidden-state timeout.
func (c *Controller) AutoRestore() time.Duration { return c.autoRestore }

// -- Lifecycle --

// SetElements installs the element set of a new parse pass. All hover,
// pending and hidden state from the previous pass is discarded and its timers
// cancelled; ids are never reconciled across passes.
func (c *Controller) SetElements(elements []schemas.Element) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.elements = make(map[string]schemas.Element, len(elements))
	for _, el := range elements {
		c.elements[el.ID] = el
	}
	c.mu.Unlock()

	c.logger.Debug("Element set replaced.", zap.Int("elements", len(elements)))
	c.notify(Event{Type: EventReset})
}

// Reset clears every interaction state but keeps the element set.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.mu.Unlock()
	c.notify(Event{Type: EventReset})
}

// Close cancels every timer, waits for callbacks already in flight and makes
// the controller inert.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.resetLocked()
	c.elements = make(map[string]schemas.Element)
	c.mu.Unlock()

	c.timersWg.Wait()
	c.logger.Debug("Selection controller closed.")
}

func (c *Controller) resetLocked() {
	c.generation++
	c.stopHoverTimerLocked()
	c.hovered = ""
	c.hoverWant = ""
	c.pending = nil
	for id, h := range c.hidden {
		c.stopTimerLocked(h.timer)
		delete(c.hidden, id)
	}
}

// -- Hover --

// PointerEnter marks id hovered, after the hover delay if one is set. Hidden
// and unknown elements are ignored.
func (c *Controller) PointerEnter(id string) {
	c.mu.Lock()
	if !c.usableLocked(id) {
		c.mu.Unlock()
		return
	}
	c.stopHoverTimerLocked()
	c.hoverWant = id
	if c.hoverDelay <= 0 {
		changed := c.hovered != id
		c.hovered = id
		c.mu.Unlock()
		if changed {
			c.notify(Event{Type: EventHovered, ElementID: id})
		}
		return
	}

	gen := c.generation
	c.timersWg.Add(1)
	c.hoverTimer = time.AfterFunc(c.hoverDelay, func() {
		defer c.timersWg.Done()
		c.applyHover(id, gen)
	})
	c.mu.Unlock()
}

func (c *Controller) applyHover(id string, gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.generation || c.hoverWant != id || !c.usableLocked(id) {
		c.mu.Unlock()
		return
	}
	changed := c.hovered != id
	c.hovered = id
	c.mu.Unlock()
	if changed {
		c.notify(Event{Type: EventHovered, ElementID: id})
	}
}

// PointerLeave clears the hovered state of id.
func (c *Controller) PointerLeave(id string) {
	c.mu.Lock()
	if c.hoverWant == id {
		c.stopHoverTimerLocked()
		c.hoverWant = ""
	}
	changed := c.hovered == id && id != ""
	if changed {
		c.hovered = ""
	}
	c.mu.Unlock()
	if changed {
		c.notify(Event{Type: EventUnhovered, ElementID: id})
	}
}

// -- Pending confirmation --

// Click opens a pending confirmation for a clickable, visible element,
// anchored at the click position. Any earlier pending selection is cancelled.
// It reports whether the element is now pending.
func (c *Controller) Click(id string, at schemas.Point) bool {
	c.mu.Lock()
	if !c.usableLocked(id) {
		c.mu.Unlock()
		c.logger.Debug("Ignoring click on unavailable element.", zap.String("element_id", id))
		return false
	}
	el := c.elements[id]
	if !el.Clickable {
		c.mu.Unlock()
		return false
	}
	var replaced string
	if c.pending != nil && c.pending.Element.ID != id {
		replaced = c.pending.Element.ID
	}
	c.pending = &Pending{Element: el, Anchor: at}
	c.mu.Unlock()

	if replaced != "" {
		c.notify(Event{Type: EventCancelled, ElementID: replaced})
	}
	c.notify(Event{Type: EventPending, ElementID: id})
	return true
}

// Confirm delivers the pending element to the confirm callback and returns
// it to normal. It reports false when nothing was pending.
func (c *Controller) Confirm() bool {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return false
	}
	el := c.pending.Element
	c.pending = nil
	onConfirm := c.onConfirm
	c.mu.Unlock()

	c.logger.Info("Element selection confirmed.",
		zap.String("element_id", el.ID),
		zap.String("name", el.DisplayName),
	)
	if onConfirm != nil {
		onConfirm(el.Confirmed())
	}
	c.notify(Event{Type: EventConfirmed, ElementID: el.ID})
	return true
}

// Cancel drops the pending selection, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	id := c.pending.Element.ID
	c.pending = nil
	c.mu.Unlock()
	c.notify(Event{Type: EventCancelled, ElementID: id})
}

// -- Hidden --

// Hide hides the element awaiting confirmation. This is the "hide" action of
// the confirmation popover.
func (c *Controller) Hide() bool {
	c.mu.Lock()
	if c.closed || c.pending == nil {
		c.mu.Unlock()
		return false
	}
	id := c.pending.Element.ID
	c.hideLocked(id)
	c.mu.Unlock()

	c.notify(Event{Type: EventHidden, ElementID: id})
	return true
}

// HideElement hides id until it is restored or the auto-restore timeout
// elapses. Hiding an already hidden element restarts its timeout.
func (c *Controller) HideElement(id string) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if _, ok := c.elements[id]; !ok {
		c.mu.Unlock()
		c.logger.Debug("Ignoring hide of unknown element.", zap.String("element_id", id))
		return false
	}
	c.hideLocked(id)
	c.mu.Unlock()

	c.notify(Event{Type: EventHidden, ElementID: id})
	return true
}

// hideLocked moves id to the hidden set and arms its restore timer. id must
// belong to the current pass.
func (c *Controller) hideLocked(id string) {
	if prev, ok := c.hidden[id]; ok {
		c.stopTimerLocked(prev.timer)
	}
	if c.pending != nil && c.pending.Element.ID == id {
		c.pending = nil
	}
	if c.hovered == id {
		c.hovered = ""
	}
	if c.hoverWant == id {
		c.stopHoverTimerLocked()
		c.hoverWant = ""
	}

	now := c.now()
	h := &hiddenState{entry: HiddenEntry{ElementID: id, HiddenAt: now, ExpiresAt: now.Add(c.autoRestore)}}
	gen := c.generation
	c.timersWg.Add(1)
	h.timer = time.AfterFunc(c.autoRestore, func() {
		defer c.timersWg.Done()
		c.expire(id, h, gen)
	})
	c.hidden[id] = h
}

func (c *Controller) expire(id string, h *hiddenState, gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.generation || c.hidden[id] != h {
		c.mu.Unlock()
		return
	}
	delete(c.hidden, id)
	c.mu.Unlock()

	c.logger.Debug("Hidden element restored after timeout.", zap.String("element_id", id))
	c.notify(Event{Type: EventRestored, ElementID: id})
}

// Restore returns a hidden element to normal and cancels its timer.
func (c *Controller) Restore(id string) bool {
	c.mu.Lock()
	h, ok := c.hidden[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.stopTimerLocked(h.timer)
	delete(c.hidden, id)
	c.mu.Unlock()

	c.notify(Event{Type: EventRestored, ElementID: id})
	return true
}

// RestoreAll restores every hidden element and cancels all timers. It returns
// the number of elements restored.
func (c *Controller) RestoreAll() int {
	c.mu.Lock()
	restored := make([]string, 0, len(c.hidden))
	for id, h := range c.hidden {
		c.stopTimerLocked(h.timer)
		delete(c.hidden, id)
		restored = append(restored, id)
	}
	c.mu.Unlock()

	sort.Strings(restored)
	for _, id := range restored {
		c.notify(Event{Type: EventRestored, ElementID: id})
	}
	return len(restored)
}

// -- Queries --

// State returns the state of id. Unknown ids are normal.
func (c *Controller) State(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(id)
}

func (c *Controller) stateLocked(id string) State {
	switch {
	case c.hidden[id] != nil:
		return StateHidden
	case c.pending != nil && c.pending.Element.ID == id:
		return StatePending
	case c.hovered == id && id != "":
		return StateHovered
	default:
		return StateNormal
	}
}

// DisplayState returns the flags the canvas styles id by.
func (c *Controller) DisplayState(id string) schemas.DisplayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return schemas.DisplayState{
		Hidden:  c.hidden[id] != nil,
		Hovered: c.hovered == id && id != "",
		Pending: c.pending != nil && c.pending.Element.ID == id,
	}
}

// Pending returns the element awaiting confirmation.
func (c *Controller) Pending() (Pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Pending{}, false
	}
	return *c.pending, true
}

// Hovered returns the hovered element id.
func (c *Controller) Hovered() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered, c.hovered != ""
}

// HiddenIDs returns the hidden element ids, sorted.
func (c *Controller) HiddenIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.hidden))
	for id := range c.hidden {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HiddenEntries returns the hidden elements with their timestamps, sorted by
// expiry.
func (c *Controller) HiddenEntries() []HiddenEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]HiddenEntry, 0, len(c.hidden))
	for _, h := range c.hidden {
		out = append(out, h.entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ExpiresAt.Before(out[j].ExpiresAt)
		}
		return out[i].ElementID < out[j].ElementID
	})
	return out
}

// HiddenSet returns a point-in-time membership test of the hidden set. It
// does not take the controller lock when called.
func (c *Controller) HiddenSet() func(id string) bool {
	c.mu.Lock()
	set := make(map[string]struct{}, len(c.hidden))
	for id := range c.hidden {
		set[id] = struct{}{}
	}
	c.mu.Unlock()
	return func(id string) bool {
		_, ok := set[id]
		return ok
	}
}

// -- internals --

// usableLocked reports whether id may be hovered or selected.
func (c *Controller) usableLocked(id string) bool {
	if c.closed {
		return false
	}
	if _, ok := c.elements[id]; !ok {
		return false
	}
	return c.hidden[id] == nil
}

func (c *Controller) stopHoverTimerLocked() {
	c.stopTimerLocked(c.hoverTimer)
	c.hoverTimer = nil
}

// stopTimerLocked stops t. When the timer had not fired yet its callback will
// never run, so the wait group is released here.
func (c *Controller) stopTimerLocked(t *time.Timer) {
	if t != nil && t.Stop() {
		c.timersWg.Done()
	}
}

func (c *Controller) notify(ev Event) {
	if c.onChange != nil {
		c.onChange(ev)
	}
}
