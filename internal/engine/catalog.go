package engine

import (
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Catalog memoizes loaded datasets by source path. A process builds one at
// startup and hands it to whoever needs a dataset; repeated loads of the
// same source return the same *Dataset without touching the file again.
type Catalog struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	group    singleflight.Group

	// load is swapped in tests.
	load func(path string) (*Dataset, error)
}

func NewCatalog() *Catalog {
	return &Catalog{
		datasets: make(map[string]*Dataset),
		load:     LoadFile,
	}
}

// Load returns the dataset for path, reading it on first use. Failures are
// not cached.
func (c *Catalog) Load(path string) (*Dataset, error) {
	key := sourceKey(path)

	c.mu.RLock()
	ds, ok := c.datasets[key]
	c.mu.RUnlock()
	if ok {
		return ds, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.datasets[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := c.load(path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.datasets[key] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

// Len reports how many sources are cached.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.datasets)
}

func sourceKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
