package measure

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// key 由参与测量的五个样式字段加文本组成；Color 等其他字段不进入缓存键。
type key struct {
	family     string
	size       float64
	weight     string
	style      string
	decoration string
	text       string
}

func keyOf(text string, s Style) key {
	return key{
		family:     s.FontFamily,
		size:       s.FontSize,
		weight:     s.FontWeight,
		style:      s.FontStyle,
		decoration: s.TextDecoration,
		text:       text,
	}
}

func (k key) String() string {
	return fmt.Sprintf("%q/%g/%q/%q/%q/%q", k.family, k.size, k.weight, k.style, k.decoration, k.text)
}

// Cache 包装一个 Measurer，按 (样式, 文本) 缓存测量结果。
// 缓存只增不删；并发未命中同一键时只调用一次底层 Measurer。
type Cache struct {
	inner Measurer

	mu      sync.RWMutex
	entries map[key]Metrics
	group   singleflight.Group

	hits, misses atomic.Uint64
}

var _ Measurer = (*Cache)(nil)

// NewCache returns a cache in front of m.
func NewCache(m Measurer) *Cache {
	return &Cache{inner: m, entries: map[key]Metrics{}}
}

// Measure 返回缓存结果，未命中时委托底层 Measurer。空串宽度恒为 0。
func (c *Cache) Measure(text string, style Style) Metrics {
	k := keyOf(text, style)
	c.mu.RLock()
	m, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return m
	}

	v, _, _ := c.group.Do(k.String(), func() (any, error) {
		c.mu.RLock()
		m, ok := c.entries[k]
		c.mu.RUnlock()
		if ok {
			return m, nil
		}
		m = c.inner.Measure(text, style)
		if text == "" {
			m.Width = 0
		}
		c.mu.Lock()
		c.entries[k] = m
		c.mu.Unlock()
		c.misses.Add(1)
		return m, nil
	})
	return v.(Metrics)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Reset 清空缓存与计数，主要供测试隔离使用。
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[key]Metrics{}
	c.hits.Store(0)
	c.misses.Store(0)
}
