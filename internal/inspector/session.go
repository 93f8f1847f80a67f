// internal/inspector/session.go
package inspector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/bus"
	"github.com/xkilldash9x/viewlens/internal/canvas"
	"github.com/xkilldash9x/viewlens/internal/catalog"
	"github.com/xkilldash9x/viewlens/internal/classifier"
	"github.com/xkilldash9x/viewlens/internal/config"
	"github.com/xkilldash9x/viewlens/internal/hierarchy"
	"github.com/xkilldash9x/viewlens/internal/identifier"
	"github.com/xkilldash9x/viewlens/internal/selection"
)

// postTimeout bounds how long a bus post may wait on a slow subscriber.
const postTimeout = 2 * time.Second

// parsed is one cached parse pass. Its element slice is never mutated.
type parsed struct {
	elements []schemas.Element
	caption  schemas.AppPageInfo
	warning  error
}

// LoadResult summarizes one snapshot load.
type LoadResult struct {
	Warning error               `json:"-"`
	Caption schemas.AppPageInfo `json:"caption"`
	Count   int                 `json:"count"`
	// Cached is true when an identical snapshot was parsed before.
	Cached bool `json:"cached"`
}

// View is one consistent rendering of the session: the list page and the
// canvas are derived from the same filtered set.
type View struct {
	Page       catalog.Page            `json:"page"`
	Projection canvas.Projection       `json:"projection"`
	Placements []canvas.Placement      `json:"placements"`
	GridLines  []canvas.GridLine       `json:"gridLines,omitempty"`
	Categories []schemas.CategoryCount `json:"categories"`
	Statistics schemas.Statistics      `json:"statistics"`
	Caption    schemas.AppPageInfo     `json:"caption"`
}

// Session owns one snapshot at a time and everything derived from it.
type Session struct {
	logger     *zap.Logger
	parser     *hierarchy.Parser
	classifier *classifier.Classifier
	identifier *identifier.Identifier
	projector  *canvas.Projector
	viewport   canvas.Viewport
	controller *selection.Controller
	cache      *lru.Cache[string, parsed]

	bus     *bus.EventBus
	ownsBus bool

	onConfirm func(schemas.ConfirmedElement)

	mu      sync.RWMutex
	catalog *catalog.Catalog
	caption schemas.AppPageInfo
}

// Option configures a Session.
type Option func(*Session)

// WithBus publishes session events on eb. Without it the session creates and
// owns a private bus.
func WithBus(eb *bus.EventBus) Option {
	return func(s *Session) { s.bus = eb }
}

// WithOnConfirm receives every confirmed element.
func WithOnConfirm(fn func(schemas.ConfirmedElement)) Option {
	return func(s *Session) { s.onConfirm = fn }
}

// New creates a session from configuration.
func New(logger *zap.Logger, cfg config.Interface, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{logger: logger.Named("inspector")}
	for _, opt := range opts {
		opt(s)
	}

	keywords, err := cfg.Classifier().KeywordTable()
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword table: %w", err)
	}
	cacheSize := cfg.Session().CacheSize
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New[string, parsed](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse cache: %w", err)
	}

	if s.bus == nil {
		s.bus = bus.New(logger, cfg.Session().BusBufferSize)
		s.ownsBus = true
	}

	canvasCfg := cfg.Canvas()
	s.viewport = canvas.WidthOnly(canvasCfg.ViewportWidth)
	if canvasCfg.ViewportHeight > 0 {
		s.viewport = canvas.WithHeight(canvasCfg.ViewportWidth, canvasCfg.ViewportHeight)
	}

	s.parser = hierarchy.NewParser(logger, hierarchy.Options{IncludeNonClickable: cfg.Parser().IncludeNonClickable})
	s.classifier = classifier.New(keywords)
	s.identifier = identifier.New(logger, s.classifier)
	s.projector = canvas.NewProjector(canvasCfg.MinScale, canvasCfg.MaxScale)
	s.cache = cache
	s.catalog = catalog.New(nil)
	s.caption = schemas.AppPageInfo{AppName: identifier.UnknownApp, PageName: identifier.DefaultPage}
	s.controller = selection.New(
		selection.WithLogger(logger),
		selection.WithAutoRestore(cfg.Selection().AutoRestore),
		selection.WithHoverDelay(cfg.Selection().HoverDelay),
		selection.WithOnConfirm(s.confirmed),
		selection.WithOnChange(s.changed),
	)
	return s, nil
}

// Load parses snapshot, replaces the catalog and resets every interaction
// state. It never fails; unreadable input leaves an empty catalog and a
// warning in the result.
func (s *Session) Load(ctx context.Context, snapshot string) LoadResult {
	key := snapshotKey(snapshot)
	p, cached := s.cache.Get(key)
	if !cached {
		p = s.parse(snapshot)
		s.cache.Add(key, p)
	}

	cat := catalog.New(p.elements)
	s.mu.Lock()
	s.catalog = cat
	s.caption = p.caption
	s.mu.Unlock()
	s.controller.SetElements(p.elements)

	res := LoadResult{Warning: p.warning, Caption: p.caption, Count: len(p.elements), Cached: cached}
	s.logger.Info("Snapshot loaded.",
		zap.Int("elements", res.Count),
		zap.String("caption", res.Caption.Caption()),
		zap.Bool("cached", cached),
	)

	loaded := bus.SnapshotLoaded{Elements: res.Count, Caption: res.Caption.Caption()}
	if p.warning != nil {
		loaded.Warning = p.warning.Error()
	}
	s.post(ctx, bus.TopicSnapshotLoaded, loaded)
	return res
}

func (s *Session) parse(snapshot string) parsed {
	res := s.parser.Parse(snapshot)
	if res.Warning != nil {
		return parsed{
			caption: schemas.AppPageInfo{AppName: identifier.UnknownApp, PageName: identifier.DefaultPage},
			warning: res.Warning,
		}
	}
	return parsed{
		elements: s.classifier.Elements(res.Nodes),
		caption:  s.identifier.IdentifyNodes(res.All, res.RootPackage),
	}
}

// SetKeywords swaps the classifier vocabulary. Cached parses are dropped
// since they were classified with the old table; the current snapshot keeps
// its elements until the next Load.
func (s *Session) SetKeywords(kw *classifier.KeywordTable) {
	s.classifier.SetKeywords(kw)
	s.cache.Purge()
}

// View filters, sorts and paginates the catalog and projects the resulting
// page. The scale is derived from every element of the snapshot, so it does
// not jump while filters change.
func (s *Session) View(q catalog.Query) View {
	s.mu.RLock()
	cat := s.catalog
	caption := s.caption
	s.mu.RUnlock()

	hidden := s.controller.HiddenSet()
	page := cat.Filter(q, hidden)
	all := cat.Elements()
	dw, dh := canvas.DeviceExtent(all, s.viewport)
	proj := s.projector.ProjectWithExtent(page.Items, dw, dh, s.viewport)

	return View{
		Page:       page,
		Projection: proj,
		Placements: canvas.Render(proj, page.Items, s.controller.DisplayState, q.FullyHidden),
		GridLines:  canvas.GridLines(proj),
		Categories: cat.Categories(),
		Statistics: cat.Statistics(hidden),
		Caption:    caption,
	}
}

// ClickAt hit-tests canvas coordinates against v and clicks the element
// found there. The returned id is empty when nothing was hit.
func (s *Session) ClickAt(v View, x, y float64) (string, bool) {
	id, ok := canvas.HitTest(v.Placements, x, y)
	if !ok {
		return "", false
	}
	return id, s.controller.Click(id, schemas.Point{X: x, Y: y})
}

// Click selects id with the popover anchored at the element's projected
// center in v. An id missing from v anchors at the origin.
func (s *Session) Click(v View, id string) bool {
	var at schemas.Point
	if it, ok := v.Projection.Lookup(id); ok {
		at = it.Rect.Center()
	}
	return s.controller.Click(id, at)
}

// Element looks up an element of the current snapshot.
func (s *Session) Element(id string) (schemas.Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Get(id)
}

// Caption returns the advisory caption of the current snapshot.
func (s *Session) Caption() schemas.AppPageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caption
}

// Controller exposes the interaction controller.
func (s *Session) Controller() *selection.Controller { return s.controller }

// Bus exposes the event bus the session publishes on.
func (s *Session) Bus() *bus.EventBus { return s.bus }

// Close stops every timer and, if the session created its bus, shuts it
// down.
func (s *Session) Close() {
	s.controller.Close()
	if s.ownsBus {
		s.bus.Shutdown()
	}
}

func (s *Session) confirmed(ce schemas.ConfirmedElement) {
	if s.onConfirm != nil {
		s.onConfirm(ce)
	}
	s.post(context.Background(), bus.TopicElementConfirmed, ce)
}

func (s *Session) changed(ev selection.Event) {
	s.post(context.Background(), bus.TopicSelectionChanged, ev)
}

func (s *Session) post(ctx context.Context, topic bus.Topic, payload interface{}) {
	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()
	if err := s.bus.Post(ctx, topic, payload); err != nil {
		s.logger.Warn("Failed to publish session event.", zap.String("topic", string(topic)), zap.Error(err))
	}
}

// snapshotKey identifies snapshot text in the parse cache.
func snapshotKey(snapshot string) string {
	sum := sha256.Sum256([]byte(snapshot))
	return hex.EncodeToString(sum[:])
}
