// Package cache wraps an LRU of immutable per-id lookups (method debug
// info, type info) that the debugger facade would otherwise re-fetch
// from the debuggee on every call.
package cache

import (
	lru "github.com/hashicorp/golang-lru"
)

// DefaultSize is the default entry count when Config.CacheSize is zero.
const DefaultSize = 4096

// kind disambiguates ids that share the uint32 namespace across
// command sets (a method id and a type id can collide numerically).
type kind uint8

const (
	kindMethod kind = iota
	kindType
)

type key struct {
	kind kind
	id   uint32
}

// Cache stores MethodDebugInfo and TypeInfo values under a single LRU,
// keyed by (kind, id) so the two domains never collide.
type Cache struct {
	lru *lru.Cache
}

// New builds a Cache with the given capacity, or DefaultSize if size <= 0.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// GetMethod returns the cached value for methodID, if present.
func (c *Cache) GetMethod(methodID uint32) (any, bool) {
	return c.lru.Get(key{kind: kindMethod, id: methodID})
}

// PutMethod caches v under methodID.
func (c *Cache) PutMethod(methodID uint32, v any) {
	c.lru.Add(key{kind: kindMethod, id: methodID}, v)
}

// GetType returns the cached value for typeID, if present.
func (c *Cache) GetType(typeID uint32) (any, bool) {
	return c.lru.Get(key{kind: kindType, id: typeID})
}

// PutType caches v under typeID.
func (c *Cache) PutType(typeID uint32, v any) {
	c.lru.Add(key{kind: kindType, id: typeID}, v)
}

// Clear purges every entry, for callers who know method bodies changed
// after a hot-reload or who are resetting state between tests.
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Len reports the number of entries currently cached (methods + types).
func (c *Cache) Len() int {
	return c.lru.Len()
}
