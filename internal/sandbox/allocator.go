package sandbox

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNoSpace means no free footprint fits right now. Callers retry on a later tick.
	ErrNoSpace = errors.New("sandbox: no space available")
	// ErrTooLarge means the request cannot fit even in an empty grid.
	ErrTooLarge = errors.New("sandbox: request exceeds grid bounds")
	// ErrUnknownLease is returned when releasing a lease that is not live.
	ErrUnknownLease = errors.New("sandbox: unknown lease")
)

// DefaultStructureSize is used when a test names no structure or the
// catalog does not know it.
var DefaultStructureSize = Size{X: 5, Y: 5, Z: 5}

// StructureCatalog resolves structure names to bounding boxes.
type StructureCatalog interface {
	Size(name string) (Size, bool)
}

// Catalog is a map-backed StructureCatalog.
type Catalog map[string]Size

// Size implements StructureCatalog.
func (c Catalog) Size(name string) (Size, bool) {
	s, ok := c[name]
	return s, ok && s.Valid()
}

// Config bounds the virtual grid. Width and Depth of 0 leave that axis
// unbounded.
type Config struct {
	Origin Pos `json:"origin" yaml:"origin"`
	Width  int `json:"width" yaml:"width"`
	Depth  int `json:"depth" yaml:"depth"`
}

// Request asks for room for one structure.
type Request struct {
	Size    Size
	Padding int
}

// Lease is a live reservation. Region holds the structure itself and
// Footprint the region expanded by padding, which is what must not overlap.
type Lease struct {
	ID        uint64 `json:"id" yaml:"id"`
	Region    Region `json:"region" yaml:"region"`
	Footprint Region `json:"footprint" yaml:"footprint"`
}

// Allocator packs footprints into the grid bottom-left first: candidate
// corners are the origin and the far corners of live footprints, scanned
// by Z then X. Not safe for concurrent use; the scheduler calls it from
// the tick goroutine only.
type Allocator struct {
	cfg    Config
	live   map[uint64]Lease
	nextID uint64
	extent Region
}

// NewAllocator creates an Allocator for the given grid.
func NewAllocator(cfg Config) *Allocator {
	return &Allocator{
		cfg:  cfg,
		live: make(map[uint64]Lease),
	}
}

// Reserve places a footprint for req. It returns ErrNoSpace when the grid
// is currently full and ErrTooLarge when it never could fit.
func (a *Allocator) Reserve(req Request) (Lease, error) {
	if !req.Size.Valid() {
		return Lease{}, fmt.Errorf("sandbox: invalid size %s", req.Size)
	}
	if req.Padding < 0 {
		return Lease{}, fmt.Errorf("sandbox: negative padding %d", req.Padding)
	}
	w := req.Size.X + 2*req.Padding
	d := req.Size.Z + 2*req.Padding
	if (a.cfg.Width > 0 && w > a.cfg.Width) || (a.cfg.Depth > 0 && d > a.cfg.Depth) {
		return Lease{}, fmt.Errorf("%w: footprint %dx%d in grid %dx%d", ErrTooLarge, w, d, a.cfg.Width, a.cfg.Depth)
	}

	footprints := a.footprints()
	xs := []int{a.cfg.Origin.X}
	zs := []int{a.cfg.Origin.Z}
	for _, f := range footprints {
		xs = append(xs, f.Max.X)
		zs = append(zs, f.Max.Z)
	}
	slices.Sort(xs)
	xs = slices.Compact(xs)
	slices.Sort(zs)
	zs = slices.Compact(zs)

	h := req.Size.Y + req.Padding
	for _, z := range zs {
		if a.cfg.Depth > 0 && z+d > a.cfg.Origin.Z+a.cfg.Depth {
			break
		}
		for _, x := range xs {
			if a.cfg.Width > 0 && x+w > a.cfg.Origin.X+a.cfg.Width {
				break
			}
			fp := NewRegion(Pos{X: x, Y: a.cfg.Origin.Y, Z: z}, Size{X: w, Y: h, Z: d})
			if overlapsAny(fp, footprints) {
				continue
			}
			a.nextID++
			lease := Lease{
				ID:        a.nextID,
				Region:    NewRegion(Pos{X: x + req.Padding, Y: a.cfg.Origin.Y, Z: z + req.Padding}, req.Size),
				Footprint: fp,
			}
			a.live[lease.ID] = lease
			a.extent = a.extent.Union(fp)
			return lease, nil
		}
	}
	return Lease{}, ErrNoSpace
}

// Release returns a lease's footprint to the free pool.
func (a *Allocator) Release(l Lease) error {
	if _, ok := a.live[l.ID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLease, l.ID)
	}
	delete(a.live, l.ID)
	return nil
}

// Live returns the number of live leases.
func (a *Allocator) Live() int {
	return len(a.live)
}

// Leases returns the live leases ordered by ID.
func (a *Allocator) Leases() []Lease {
	out := make([]Lease, 0, len(a.live))
	for _, l := range a.live {
		out = append(out, l)
	}
	slices.SortFunc(out, func(x, y Lease) int { return cmp.Compare(x.ID, y.ID) })
	return out
}

// Extent is the union of every footprint ever placed. It only grows.
func (a *Allocator) Extent() Region {
	return a.extent
}

func (a *Allocator) footprints() []Region {
	leases := a.Leases()
	out := make([]Region, len(leases))
	for i, l := range leases {
		out[i] = l.Footprint
	}
	return out
}

func overlapsAny(r Region, others []Region) bool {
	for _, o := range others {
		if r.Intersects(o) {
			return true
		}
	}
	return false
}
