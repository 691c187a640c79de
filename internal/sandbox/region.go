// Package sandbox reserves non-overlapping regions of world space for
// concurrently running test instances.
package sandbox

import "fmt"

// Pos is an integer block position.
type Pos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Add returns p offset by o.
func (p Pos) Add(o Pos) Pos {
	return Pos{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Size is the extent of a structure's bounding box along each axis.
type Size struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// Valid reports whether every axis is positive.
func (s Size) Valid() bool {
	return s.X > 0 && s.Y > 0 && s.Z > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%dx%d", s.X, s.Y, s.Z)
}

// Region is a half-open box [Min, Max).
type Region struct {
	Min Pos `json:"min" yaml:"min"`
	Max Pos `json:"max" yaml:"max"`
}

// NewRegion returns the region of the given size anchored at min.
func NewRegion(min Pos, size Size) Region {
	return Region{
		Min: min,
		Max: Pos{X: min.X + size.X, Y: min.Y + size.Y, Z: min.Z + size.Z},
	}
}

// Size returns the extent of r.
func (r Region) Size() Size {
	return Size{X: r.Max.X - r.Min.X, Y: r.Max.Y - r.Min.Y, Z: r.Max.Z - r.Min.Z}
}

// Empty reports whether r has no volume.
func (r Region) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y || r.Max.Z <= r.Min.Z
}

// Intersects reports whether r and o share any volume.
func (r Region) Intersects(o Region) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X &&
		r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y &&
		r.Min.Z < o.Max.Z && o.Min.Z < r.Max.Z
}

// Contains reports whether p lies inside r.
func (r Region) Contains(p Pos) bool {
	return p.X >= r.Min.X && p.X < r.Max.X &&
		p.Y >= r.Min.Y && p.Y < r.Max.Y &&
		p.Z >= r.Min.Z && p.Z < r.Max.Z
}

// Union returns the smallest region containing both r and o.
func (r Region) Union(o Region) Region {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Region{
		Min: Pos{X: min(r.Min.X, o.Min.X), Y: min(r.Min.Y, o.Min.Y), Z: min(r.Min.Z, o.Min.Z)},
		Max: Pos{X: max(r.Max.X, o.Max.X), Y: max(r.Max.Y, o.Max.Y), Z: max(r.Max.Z, o.Max.Z)},
	}
}

// Gap returns the number of free blocks between r and o along the axis that
// separates them, or 0 if they touch or overlap on every axis.
func (r Region) Gap(o Region) int {
	gap := 0
	for _, d := range []int{
		o.Min.X - r.Max.X, r.Min.X - o.Max.X,
		o.Min.Z - r.Max.Z, r.Min.Z - o.Max.Z,
		o.Min.Y - r.Max.Y, r.Min.Y - o.Max.Y,
	} {
		gap = max(gap, d)
	}
	return gap
}

func (r Region) String() string {
	return fmt.Sprintf("%s..%s", r.Min, r.Max)
}

// Rotation is a clockwise quarter-turn count applied to a structure.
type Rotation int

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// Degrees returns the rotation in degrees.
func (r Rotation) Degrees() int {
	return int(r%4) * 90
}

// Apply returns the bounding box of s after rotation. Quarter turns swap
// the horizontal axes.
func (r Rotation) Apply(s Size) Size {
	if r%2 == 1 {
		return Size{X: s.Z, Y: s.Y, Z: s.X}
	}
	return s
}
