package gametestx_test

import (
	"strconv"
	"sync"
	"testing"

	. "github.com/comalice/gametestx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_SetGetDelete(t *testing.T) {
	c := NewContext()
	c.Set("lever", "on")
	assert.Equal(t, "on", c.Get("lever"))

	_, ok := c.Lookup("lamp")
	assert.False(t, ok)
	assert.Nil(t, c.Get("lamp"))

	c.Set("lamp", nil)
	v, ok := c.Lookup("lamp")
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 2, c.Len())

	c.Delete("lever")
	assert.Nil(t, c.Get("lever"))
	assert.Equal(t, 1, c.Len())
}

func TestContext_Counters(t *testing.T) {
	c := NewContext()
	assert.Equal(t, 0, c.Int("items"))
	assert.Equal(t, 1, c.Incr("items"))
	assert.Equal(t, 5, c.Add("items", 4))
	assert.Equal(t, 3, c.Add("items", -2))

	c.Set("label", "hopper")
	assert.Equal(t, 0, c.Int("label"))
	assert.Equal(t, 1, c.Incr("label"), "non-int value restarts the counter")
}

func TestContext_ConcurrentUse(t *testing.T) {
	c := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set("slot"+strconv.Itoa(i), i)
			c.Incr("total")
		}()
		go func() {
			defer wg.Done()
			_ = c.Get("slot" + strconv.Itoa(i))
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, c.Int("total"))
	assert.Equal(t, 101, c.Len())
}

func TestContext_SnapshotIsCopy(t *testing.T) {
	c := NewContext()
	c.Set("a", 1)
	c.Set("b", 2)

	snap := c.Snapshot()
	require.Equal(t, map[string]any{"a": 1, "b": 2}, snap)
	snap["c"] = 3
	assert.Nil(t, c.Get("c"))
}

func TestContext_FreshPerInstance(t *testing.T) {
	reg := NewRegistry()
	var seen []int
	body := func(t *T) {
		seen = append(seen, t.Context().Incr("runs"))
		t.Succeed()
	}
	reg.MustRegister("ctx", "first", body)
	reg.MustRegister("ctx", "second", body)

	rep := runAll(t, reg)
	assert.Equal(t, 2, rep.Passed)
	assert.Equal(t, []int{1, 1}, seen)
}
