// Package cache provides a small generic LRU cache.
//
// The wgpu device keeps lowered SPIR-V in one so that engines rebuilt
// for a mode switch or a second surface skip shader compilation:
//
//	c := cache.New[key, []uint32](64)
//	words, err := c.GetOrCreate(k, func() ([]uint32, error) {
//	    return lower(mod)
//	})
//
// Cache is safe for concurrent use.
package cache
