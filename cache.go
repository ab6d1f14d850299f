package spool

import (
	"reflect"
	"sync"
)

// cacheKey combines type and registry for processor lookup.
type cacheKey struct {
	typ reflect.Type
	reg *Registry
}

var (
	cache   = make(map[cacheKey]any)
	cacheMu sync.RWMutex
)

// Use returns a cached processor or builds a new one.
// The processor is cached by type and registry; opts apply only when it is built.
func Use[T any](reg *Registry, opts ...Option) (*Processor[T], error) {
	key := cacheKey{typ: reflect.TypeFor[T](), reg: reg}

	// Fast path: read-lock cache check
	cacheMu.RLock()
	if cached, ok := cache[key]; ok {
		cacheMu.RUnlock()
		return cached.(*Processor[T]), nil
	}
	cacheMu.RUnlock()

	// Slow path: build and cache with write-lock
	cacheMu.Lock()
	defer cacheMu.Unlock()

	// Double-check pattern
	if cached, ok := cache[key]; ok {
		return cached.(*Processor[T]), nil
	}

	processor, err := NewProcessor[T](reg, opts...)
	if err != nil {
		return nil, err
	}

	cache[key] = processor
	return processor, nil
}

// Reset clears the processor cache.
// This is primarily useful for test isolation.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = make(map[cacheKey]any)
}
