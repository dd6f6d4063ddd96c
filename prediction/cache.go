package prediction

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResultCache memoizes classifier output by raw feature vector. The pipeline
// is a pure function of the vector for a fixed set of artifacts, so a cache
// must never be shared between services holding different artifacts.
type ResultCache struct {
	entries *lru.Cache[FeatureVector, PredictionResult]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

func NewResultCache(size int) (*ResultCache, error) {
	entries, err := lru.New[FeatureVector, PredictionResult](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &ResultCache{entries: entries}, nil
}

func (c *ResultCache) Get(vector FeatureVector) (PredictionResult, bool) {
	result, ok := c.entries.Get(vector)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return result, ok
}

func (c *ResultCache) Add(vector FeatureVector, result PredictionResult) {
	c.entries.Add(vector, result)
}

func (c *ResultCache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}
