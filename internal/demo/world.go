// Package demo holds a toy block world and the suites the gametest CLI and
// the examples run against it.
package demo

import (
	"fmt"
	"slices"
	"sync"

	"github.com/comalice/gametestx"
)

// Block names used by the demo suites.
const (
	Air      = "air"
	Lever    = "lever"
	LampOff  = "lamp_off"
	LampOn   = "lamp_on"
	Sapling  = "sapling"
	Log      = "log"
	Sand     = "sand"
	Observer = "observer"
)

// World is a sparse block map with a day/night flag. Positions never set
// read as Air. It is safe for concurrent use, though the scheduler only
// touches it from the tick goroutine.
type World struct {
	mu     sync.Mutex
	blocks map[gametestx.Pos]string
	night  bool
	writes int
}

func NewWorld() *World {
	return &World{blocks: make(map[gametestx.Pos]string)}
}

func (w *World) Block(p gametestx.Pos) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.blocks[p]; ok {
		return b
	}
	return Air
}

// SetBlock places block at p. Setting Air removes the entry.
func (w *World) SetBlock(p gametestx.Pos, block string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	if block == Air {
		delete(w.blocks, p)
		return
	}
	w.blocks[p] = block
}

// Fill sets every block of r.
func (w *World) Fill(r gametestx.Region, block string) {
	for x := r.Min.X; x < r.Max.X; x++ {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for z := r.Min.Z; z < r.Max.Z; z++ {
				w.SetBlock(gametestx.Pos{X: x, Y: y, Z: z}, block)
			}
		}
	}
}

// Clear removes every block inside r.
func (w *World) Clear(r gametestx.Region) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p := range w.blocks {
		if r.Contains(p) {
			delete(w.blocks, p)
		}
	}
}

// Count returns how many blocks inside r equal block.
func (w *World) Count(r gametestx.Region, block string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for p, b := range w.blocks {
		if b == block && r.Contains(p) {
			n++
		}
	}
	return n
}

// Positions returns the set positions inside r, sorted by Y, Z then X.
func (w *World) Positions(r gametestx.Region) []gametestx.Pos {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []gametestx.Pos
	for p := range w.blocks {
		if r.Contains(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b gametestx.Pos) int {
		switch {
		case a.Y != b.Y:
			return a.Y - b.Y
		case a.Z != b.Z:
			return a.Z - b.Z
		}
		return a.X - b.X
	})
	return out
}

func (w *World) SetNight(night bool) {
	w.mu.Lock()
	w.night = night
	w.mu.Unlock()
}

func (w *World) Night() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.night
}

// Writes returns the number of SetBlock calls so far.
func (w *World) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

// ExpectBlock is an assertion that passes once p, relative to the test's
// origin, holds block.
func (w *World) ExpectBlock(rel gametestx.Pos, block string) gametestx.Assertion {
	return func(t *gametestx.T) error {
		p := t.Origin().Add(rel)
		if got := w.Block(p); got != block {
			return fmt.Errorf("expected %s at %s, got %s", block, p, got)
		}
		return nil
	}
}
