// Package store owns the current fog map and everything derived from it:
// the undo log, the raster cache and change notifications.
//
// Every successful mutation records a history entry, drops all cached
// rasters and then announces a Change to subscribers.
package store

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/golang/groupcache/singleflight"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/rotblauer/catfog/archive"
	"github.com/rotblauer/catfog/compositor"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/fogdb"
	"github.com/rotblauer/catfog/history"
	"github.com/rotblauer/catfog/params"
	"github.com/rotblauer/catfog/rastercache"
)

type ChangeKind string

const (
	ChangeImport ChangeKind = "import"
	ChangeErase  ChangeKind = "erase"
	ChangeDraw   ChangeKind = "draw"
	ChangeUndo   ChangeKind = "undo"
	ChangeRedo   ChangeKind = "redo"
)

// Change describes one accepted mutation.
// Region is the area a view should redraw.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	Region orb.Bound  `json:"region"`
	Map    *fog.Map   `json:"-"`
}

type Config struct {
	Compositor  params.CompositorConfig
	RasterCache params.RasterCacheConfig
	History     params.HistoryConfig
	// RegionCoder tags newly drawn blocks. Optional.
	RegionCoder fog.RegionCoder
}

func DefaultConfig() Config {
	return Config{
		Compositor:  params.DefaultCompositorConfig(),
		RasterCache: params.DefaultRasterCacheConfig(),
		History:     params.DefaultHistoryConfig(),
	}
}

type Store struct {
	// edit serializes mutations; mu guards the fields below it.
	edit    sync.Mutex
	mu      sync.RWMutex
	current *fog.Map
	saved   *fog.Map
	gen     uint64
	history *history.History

	cfg    Config
	comp   *compositor.Compositor
	cache  *rastercache.Cache
	flight singleflight.Group
	feed   event.FeedOf[Change]
	logger *slog.Logger
}

// New returns a store whose history starts at initial.
func New(initial *fog.Map, cfg Config) (*Store, error) {
	if initial == nil {
		initial = fog.Empty()
	}
	if cfg.RegionCoder != nil {
		initial = initial.WithRegionCoder(cfg.RegionCoder)
	}
	cache, err := rastercache.New(cfg.RasterCache)
	if err != nil {
		return nil, fmt.Errorf("raster cache: %w", err)
	}
	return &Store{
		current: initial,
		history: history.New(initial, cfg.History.MaxSize),
		cfg:     cfg,
		comp:    compositor.New(cfg.Compositor),
		cache:   cache,
		logger:  slog.With("store", "fog"),
	}, nil
}

// Config returns the configuration the store was built with.
func (s *Store) Config() Config {
	return s.cfg
}

// Current returns the current snapshot. It is safe to use from any goroutine.
func (s *Store) Current() *fog.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SubscribeChanges delivers every accepted Change to ch.
// Sends block until ch receives, so subscribers should drain promptly.
func (s *Store) SubscribeChanges(ch chan<- Change) event.Subscription {
	return s.feed.Subscribe(ch)
}

// commit installs next, recording it in history unless it came from history.
func (s *Store) commit(kind ChangeKind, next *fog.Map, region orb.Bound, record bool) {
	s.mu.Lock()
	if record {
		s.history.Append(next, region)
	}
	s.current = next
	s.gen++
	s.cache.InvalidateAll()
	s.mu.Unlock()

	s.logger.Debug("Fog changed", "kind", kind, "tiles", next.Len(), "region", region)
	s.feed.Send(Change{Kind: kind, Region: region, Map: next})
}

// Import decodes blobs and merges their tiles into the current map.
// Failed files are reported without affecting the others.
func (s *Store) Import(blobs []archive.Blob) archive.ImportReport {
	s.edit.Lock()
	defer s.edit.Unlock()
	cur := s.Current()
	next, report := archive.ImportBlobs(cur, blobs)
	if next != cur {
		s.commit(ChangeImport, next, changedBound(cur, next), true)
	}
	return report
}

// ClearBbox erases every visited pixel in b.
// It reports whether anything changed.
func (s *Store) ClearBbox(b orb.Bound) (bool, error) {
	s.edit.Lock()
	defer s.edit.Unlock()
	cur := s.Current()
	next, err := cur.ClearBbox(b)
	if err != nil || next == cur {
		return false, err
	}
	s.commit(ChangeErase, next, b, true)
	return true, nil
}

// AddLine marks the segment between two points visited.
// It reports whether anything changed.
func (s *Store) AddLine(lng1, lat1, lng2, lat2 float64) (bool, error) {
	s.edit.Lock()
	defer s.edit.Unlock()
	cur := s.Current()
	next, err := cur.AddLine(lng1, lat1, lng2, lat2)
	if err != nil || next == cur {
		return false, err
	}
	region := orb.MultiPoint{{lng1, lat1}, {lng2, lat2}}.Bound()
	s.commit(ChangeDraw, next, region, true)
	return true, nil
}

// Undo steps back one history entry, returning the region to redraw.
func (s *Store) Undo() (orb.Bound, bool) {
	s.edit.Lock()
	defer s.edit.Unlock()
	s.mu.Lock()
	m, region, ok := s.history.Undo()
	s.mu.Unlock()
	if !ok {
		return orb.Bound{}, false
	}
	s.commit(ChangeUndo, m, region, false)
	return region, true
}

// Redo steps forward one history entry, returning the region to redraw.
func (s *Store) Redo() (orb.Bound, bool) {
	s.edit.Lock()
	defer s.edit.Unlock()
	s.mu.Lock()
	m, region, ok := s.history.Redo()
	s.mu.Unlock()
	if !ok {
		return orb.Bound{}, false
	}
	s.commit(ChangeRedo, m, region, false)
	return region, true
}

func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// Raster returns the fog raster of display tile t, from cache when possible.
// Concurrent requests for the same tile share one render.
func (s *Store) Raster(t maptile.Tile) *compositor.Raster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, gen := s.current, s.gen
	key := fmt.Sprintf("%d/%d/%d@%d", t.Z, t.X, t.Y, gen)
	v, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.cache.GetOrRender(t, func(t maptile.Tile) *compositor.Raster {
			return s.comp.Render(m, t)
		}), nil
	})
	return v.(*compositor.Raster)
}

// Generation counts accepted changes. It changes whenever Current does.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// CacheLen returns the number of cached rasters.
func (s *Store) CacheLen() int {
	return s.cache.Len()
}

// Persist writes the current map to db, re-encoding only tiles
// changed since the last Persist or Load.
func (s *Store) Persist(db *fogdb.DB) error {
	s.mu.RLock()
	cur, prev := s.current, s.saved
	s.mu.RUnlock()
	if cur == prev {
		return nil
	}
	if err := db.Save(cur, prev); err != nil {
		return err
	}
	s.mu.Lock()
	s.saved = cur
	s.mu.Unlock()
	return nil
}

// Load opens a store over the snapshot in db.
func Load(db *fogdb.DB, cfg Config) (*Store, error) {
	m, err := db.Load()
	if err != nil {
		return nil, err
	}
	s, err := New(m, cfg)
	if err != nil {
		return nil, err
	}
	s.saved = s.current
	return s, nil
}

// changedBound unions the bounds of tiles that differ between two maps.
func changedBound(prev, next *fog.Map) orb.Bound {
	var b orb.Bound
	first := true
	add := func(k fog.TileKey) {
		if first {
			b, first = k.Bound(), false
			return
		}
		b = b.Union(k.Bound())
	}
	for _, k := range next.Keys() {
		if prev.Tile(k) != next.Tile(k) {
			add(k)
		}
	}
	for _, k := range prev.Keys() {
		if next.Tile(k) == nil {
			add(k)
		}
	}
	return b
}
