// Package viewstate owns the state behind the city table: the reference list
// from the last successful load, the displayed list derived from it, the sort
// configuration and the loading flag.
//
// Every mutation goes through Load, ChangeSort or Search. Callers from several
// goroutines are serialized, so each operation runs to completion before the
// next one observes the state. The network fetch itself runs outside the lock.
package viewstate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"stedentabel/libs/cities"
)

// ErrLoadInProgress is returned when a load is requested while one is running.
var ErrLoadInProgress = errors.New("city load already in progress")

// Observer receives a notification after each operation. Implementations must
// not call back into the controller.
type Observer interface {
	LoadFinished(count int, took time.Duration, err error)
	Searched(keyword string, matches int)
	Sorted(key cities.SortKey, dir cities.Direction)
}

// State is a copy of the controller state, safe to read without locking.
type State struct {
	All       []cities.City
	Displayed []cities.City
	SortKey   cities.SortKey
	Direction cities.Direction
	Keyword   string
	Loading   bool
	Loaded    bool
	Err       error
	LoadedAt  time.Time
}

type Controller struct {
	loader   cities.Loader
	log      *slog.Logger
	observer Observer
	now      func() time.Time

	mu        sync.Mutex
	all       []cities.City
	displayed []cities.City
	sortKey   cities.SortKey
	direction cities.Direction
	keyword   string
	loading   bool
	loaded    bool
	err       error
	loadedAt  time.Time
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.log = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Controller) { c.observer = observer }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a controller sorted by city name, ascending, with nothing loaded.
func New(loader cities.Loader, opts ...Option) *Controller {
	c := &Controller{
		loader:    loader,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		all:       []cities.City{},
		displayed: []cities.City{},
		sortKey:   cities.SortByCity,
		direction: cities.Ascending,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the dataset and blocks until it settles. On success the result
// is sorted with the current configuration and becomes both the reference and
// the displayed list; any previous search is cleared. On failure the previous
// lists are kept and the error is recorded. Loading is cleared either way.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.beginLoad(); err != nil {
		return err
	}
	return c.runLoad(ctx)
}

// Start marks the controller as loading before returning and performs the
// load on a new goroutine. The channel yields the load result once and is
// then closed.
func (c *Controller) Start(ctx context.Context) <-chan error {
	errc := make(chan error, 1)
	if err := c.beginLoad(); err != nil {
		errc <- err
		close(errc)
		return errc
	}
	go func() {
		defer close(errc)
		errc <- c.runLoad(ctx)
	}()
	return errc
}

func (c *Controller) beginLoad() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrLoadInProgress
	}
	c.loading = true
	c.err = nil
	return nil
}

func (c *Controller) runLoad(ctx context.Context) error {
	start := c.now()
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	list, err := c.loader.Load(ctx)

	c.mu.Lock()
	if err != nil {
		c.err = err
	} else {
		sorted := cities.Sort(list, c.sortKey, c.direction)
		c.all = sorted
		c.displayed = sorted
		c.keyword = ""
		c.loaded = true
		c.loadedAt = c.now()
	}
	count := len(c.all)
	c.mu.Unlock()

	took := c.now().Sub(start)
	if err != nil {
		c.log.Error("city load failed", "err", err, "duration_ms", took.Milliseconds())
	} else {
		c.log.Info("cities loaded", "count", count, "duration_ms", took.Milliseconds())
	}
	if c.observer != nil {
		c.observer.LoadFinished(count, took, err)
	}
	return err
}

// ChangeSort re-sorts the displayed list. The reference list keeps its order.
func (c *Controller) ChangeSort(key cities.SortKey, dir cities.Direction) {
	c.mu.Lock()
	c.displayed = cities.Sort(c.displayed, key, dir)
	c.sortKey = key
	c.direction = dir
	c.mu.Unlock()

	c.log.Debug("cities sorted", "key", key.String(), "direction", dir.String())
	if c.observer != nil {
		c.observer.Sorted(key, dir)
	}
}

// ToggleSort applies header-click semantics: the active column flips its
// direction, any other column starts ascending. It returns the new direction.
func (c *Controller) ToggleSort(key cities.SortKey) cities.Direction {
	c.mu.Lock()
	dir := cities.Ascending
	if key == c.sortKey {
		dir = c.direction.Toggle()
	}
	c.mu.Unlock()

	c.ChangeSort(key, dir)
	return dir
}

// Search derives the displayed list from the reference list, never from the
// current displayed list, and orders it with the current sort. Sort key and
// direction are left alone.
func (c *Controller) Search(keyword string) {
	c.mu.Lock()
	c.displayed = cities.Sort(cities.Filter(c.all, keyword), c.sortKey, c.direction)
	c.keyword = keyword
	matches := len(c.displayed)
	c.mu.Unlock()

	c.log.Debug("cities searched", "keyword", keyword, "matches", matches)
	if c.observer != nil {
		c.observer.Searched(keyword, matches)
	}
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Snapshot returns a copy of the full state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		All:       slices.Clone(c.all),
		Displayed: slices.Clone(c.displayed),
		SortKey:   c.sortKey,
		Direction: c.direction,
		Keyword:   c.keyword,
		Loading:   c.loading,
		Loaded:    c.loaded,
		Err:       c.err,
		LoadedAt:  c.loadedAt,
	}
}

// Page is one window of the displayed list together with the state needed
// to render it.
type Page struct {
	Cities    []cities.City
	Offset    int
	Total     int
	SortKey   cities.SortKey
	Direction cities.Direction
	Keyword   string
	Loading   bool
	Loaded    bool
	Err       error
	LoadedAt  time.Time
}

// Window returns up to limit displayed cities starting at offset. Offsets
// past the end yield an empty page; Total always counts the whole displayed
// list.
func (c *Controller) Window(offset, limit int) Page {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.displayed)
	if offset < 0 {
		offset = 0
	}
	page := Page{
		Cities:    []cities.City{},
		Offset:    offset,
		Total:     total,
		SortKey:   c.sortKey,
		Direction: c.direction,
		Keyword:   c.keyword,
		Loading:   c.loading,
		Loaded:    c.loaded,
		Err:       c.err,
		LoadedAt:  c.loadedAt,
	}
	if offset >= total || limit <= 0 {
		return page
	}
	end := offset + min(limit, total-offset)
	page.Cities = slices.Clone(c.displayed[offset:end])
	return page
}
