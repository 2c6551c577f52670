package wave

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"WaveSentinel/internal/model"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// Store is an optional second-level cache shared across processes.
type Store interface {
	Load(key string) (*Result, bool, error)
	Save(key string, res *Result) error
}

// CacheObserver receives cache hit and miss events.
type CacheObserver interface {
	CacheHit(layer string)
	CacheMiss()
}

const (
	LayerMemory = "memory"
	LayerStore  = "store"
)

// CacheOption configures a Cached analyzer.
type CacheOption func(*Cached)

// WithStore adds a second-level store consulted on memory misses.
func WithStore(s Store, namespace string) CacheOption {
	return func(c *Cached) {
		c.store = s
		c.namespace = namespace
	}
}

func WithCacheLogger(l zerolog.Logger) CacheOption {
	return func(c *Cached) { c.log = l }
}

func WithObserver(o CacheObserver) CacheOption {
	return func(c *Cached) { c.observer = o }
}

type prefixKey struct {
	length int
	last   int64
	sum    uint64
}

// keyOf identifies a prefix by its length, last timestamp and a digest of
// every bar, so a revised bar never matches an earlier analysis.
func keyOf(bars []model.OHLCV) prefixKey {
	d := xxhash.New()
	var buf [48]byte
	for _, b := range bars {
		binary.LittleEndian.PutUint64(buf[0:], uint64(b.Time.UnixNano()))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(b.Open))
		binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(b.High))
		binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(b.Low))
		binary.LittleEndian.PutUint64(buf[32:], math.Float64bits(b.Close))
		binary.LittleEndian.PutUint64(buf[40:], math.Float64bits(b.Volume))
		_, _ = d.Write(buf[:])
	}
	return prefixKey{length: len(bars), last: bars[len(bars)-1].Time.UnixNano(), sum: d.Sum64()}
}

// Cached memoizes an analyzer by bar prefix content. Cached is safe for
// concurrent use.
type Cached struct {
	inner    Analyzer
	capacity int

	store     Store
	namespace string
	observer  CacheObserver
	log       zerolog.Logger

	mu      sync.Mutex
	entries map[prefixKey]*Result
	order   []prefixKey
}

// NewCached wraps inner, keeping at most capacity results in memory.
func NewCached(inner Analyzer, capacity int, opts ...CacheOption) *Cached {
	if capacity <= 0 {
		capacity = 1024
	}
	c := &Cached{
		inner:    inner,
		capacity: capacity,
		log:      zerolog.Nop(),
		entries:  make(map[prefixKey]*Result, capacity),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cached) Analyze(bars []model.OHLCV) (*Result, error) {
	if len(bars) == 0 {
		return c.inner.Analyze(bars)
	}
	key := keyOf(bars)

	c.mu.Lock()
	res, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		c.hit(LayerMemory)
		return res, nil
	}

	if c.store != nil {
		res, ok, err := c.store.Load(c.storeKey(key))
		if err != nil {
			c.log.Warn().Err(err).Int("bars", key.length).Msg("wave store load failed")
		} else if ok {
			c.hit(LayerStore)
			c.put(key, res)
			return res, nil
		}
	}

	if c.observer != nil {
		c.observer.CacheMiss()
	}
	res, err := c.inner.Analyze(bars)
	if err != nil {
		return nil, err
	}
	c.put(key, res)
	if c.store != nil {
		if err := c.store.Save(c.storeKey(key), res); err != nil {
			c.log.Warn().Err(err).Int("bars", key.length).Msg("wave store save failed")
		}
	}
	return res, nil
}

// Len returns the number of results held in memory.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cached) put(key prefixKey, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = res
	c.order = append(c.order, key)
}

func (c *Cached) hit(layer string) {
	if c.observer != nil {
		c.observer.CacheHit(layer)
	}
}

func (c *Cached) storeKey(k prefixKey) string {
	return fmt.Sprintf("%s:%d:%d:%016x", c.namespace, k.length, k.last, k.sum)
}
