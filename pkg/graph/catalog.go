package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCatalogSize bounds the number of compiled graphs kept in memory.
const DefaultCatalogSize = 64

// Digest returns the content address used to share compiled graphs.
func Digest(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Catalog caches compiled graphs by source digest so that sessions loading
// the same workflow share one read-only Graph.
type Catalog struct {
	cache *lru.Cache[string, *Graph]
}

// NewCatalog creates a catalog holding at most size graphs.
func NewCatalog(size int) (*Catalog, error) {
	if size <= 0 {
		size = DefaultCatalogSize
	}
	cache, err := lru.New[string, *Graph](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph catalog: %w", err)
	}
	return &Catalog{cache: cache}, nil
}

// Get returns the graph compiled from the source with the given digest.
func (c *Catalog) Get(digest string) (*Graph, bool) {
	return c.cache.Get(digest)
}

// Put stores g under its digest.
func (c *Catalog) Put(g *Graph) {
	if g.Digest() == "" {
		return
	}
	c.cache.Add(g.Digest(), g)
}

// Len returns the number of cached graphs.
func (c *Catalog) Len() int {
	return c.cache.Len()
}
