package index

import (
	"path/filepath"
	"sync"
)

// Cache holds the most recently used engine, keyed by resolved root.
// Switching roots closes the previous engine and opens a fresh one.
// Callers own the cache; there is no package-level instance.
type Cache struct {
	mu   sync.Mutex
	root string
	eng  *Engine
}

// Get returns the cached engine for root, creating one (and evicting the
// previous root's engine) as needed.
func (c *Cache) Get(root string, cfg Config) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng != nil && c.root == abs {
		return c.eng, nil
	}
	if c.eng != nil {
		_ = c.eng.Close()
		c.eng = nil
	}

	eng, err := NewEngine(abs, cfg)
	if err != nil {
		return nil, err
	}
	c.root = abs
	c.eng = eng
	return eng, nil
}

// Invalidate closes and drops the cached engine.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng != nil {
		_ = c.eng.Close()
		c.eng = nil
	}
	c.root = ""
}
