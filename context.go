package gametestx

import (
	"maps"
	"sync"
)

// Context is per-instance scratch storage shared by a test's body, its
// callbacks and, for async tests, the body goroutine. Every instance gets a
// fresh Context through T.Context; nothing in it survives the instance.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Get returns the value under key, or nil.
func (c *Context) Get(key string) any {
	v, _ := c.Lookup(key)
	return v
}

// Lookup returns the value under key and whether it was set.
func (c *Context) Lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

func (c *Context) Delete(key string) {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
}

// Int returns the int under key. Missing and non-int values read as 0.
func (c *Context) Int(key string) int {
	n, _ := c.Get(key).(int)
	return n
}

// Add adds delta to the counter under key and returns the new total. A
// missing or non-int value restarts the counter from 0.
func (c *Context) Add(key string, delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := c.values[key].(int)
	n += delta
	c.values[key] = n
	return n
}

// Incr is Add(key, 1).
func (c *Context) Incr(key string) int { return c.Add(key, 1) }

// Len reports how many keys are set.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Snapshot returns a shallow copy of every key and value.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}
