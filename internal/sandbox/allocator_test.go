package sandbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_PaddedNeighboursAndDeferral(t *testing.T) {
	a := NewAllocator(Config{Width: 16, Depth: 8})
	req := Request{Size: Size{X: 4, Y: 4, Z: 4}, Padding: 2}

	first, err := a.Reserve(req)
	require.NoError(t, err)
	second, err := a.Reserve(req)
	require.NoError(t, err)

	assert.False(t, first.Footprint.Intersects(second.Footprint))
	assert.GreaterOrEqual(t, first.Region.Gap(second.Region), 2)
	assert.Equal(t, Pos{X: 2, Y: 0, Z: 2}, first.Region.Min)
	assert.Equal(t, Pos{X: 10, Y: 0, Z: 2}, second.Region.Min)

	_, err = a.Reserve(req)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, 2, a.Live())
}

func TestAllocator_ReleaseFreesFootprint(t *testing.T) {
	a := NewAllocator(Config{Width: 16, Depth: 8})
	req := Request{Size: Size{X: 4, Y: 4, Z: 4}, Padding: 2}

	first, err := a.Reserve(req)
	require.NoError(t, err)
	_, err = a.Reserve(req)
	require.NoError(t, err)

	require.NoError(t, a.Release(first))
	third, err := a.Reserve(req)
	require.NoError(t, err)
	assert.Equal(t, first.Region, third.Region)
	assert.NotEqual(t, first.ID, third.ID)

	err = a.Release(first)
	assert.True(t, errors.Is(err, ErrUnknownLease))
}

func TestAllocator_TooLarge(t *testing.T) {
	a := NewAllocator(Config{Width: 10, Depth: 10})
	_, err := a.Reserve(Request{Size: Size{X: 8, Y: 1, Z: 8}, Padding: 2})
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Zero(t, a.Live())
}

func TestAllocator_InvalidRequest(t *testing.T) {
	a := NewAllocator(Config{})
	_, err := a.Reserve(Request{Size: Size{X: 0, Y: 1, Z: 1}})
	assert.Error(t, err)
	_, err = a.Reserve(Request{Size: Size{X: 1, Y: 1, Z: 1}, Padding: -1})
	assert.Error(t, err)
}

func TestAllocator_UnboundedGrowsAndStaysDisjoint(t *testing.T) {
	a := NewAllocator(Config{Origin: Pos{X: 100, Y: -60, Z: 100}, Width: 32})
	var leases []Lease
	for i := range 12 {
		l, err := a.Reserve(Request{Size: Size{X: 3 + i%3, Y: 2, Z: 4}, Padding: 1})
		require.NoError(t, err)
		leases = append(leases, l)
	}
	for i := range leases {
		for j := i + 1; j < len(leases); j++ {
			assert.Falsef(t, leases[i].Footprint.Intersects(leases[j].Footprint),
				"footprints %d and %d overlap: %s %s", i, j, leases[i].Footprint, leases[j].Footprint)
		}
		assert.Equal(t, -60, leases[i].Region.Min.Y)
	}

	before := a.Extent()
	for _, l := range leases {
		require.NoError(t, a.Release(l))
	}
	assert.Equal(t, before, a.Extent(), "extent must not shrink on release")
}

func TestAllocator_Deterministic(t *testing.T) {
	run := func() []Region {
		a := NewAllocator(Config{Width: 20, Depth: 20})
		var out []Region
		for i := range 6 {
			l, err := a.Reserve(Request{Size: Size{X: 2 + i, Y: 1, Z: 3}, Padding: 1})
			if err != nil {
				break
			}
			out = append(out, l.Region)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestRotation_Apply(t *testing.T) {
	s := Size{X: 2, Y: 3, Z: 7}
	assert.Equal(t, s, Rotate0.Apply(s))
	assert.Equal(t, Size{X: 7, Y: 3, Z: 2}, Rotate90.Apply(s))
	assert.Equal(t, s, Rotate180.Apply(s))
	assert.Equal(t, Size{X: 7, Y: 3, Z: 2}, Rotate270.Apply(s))
	assert.Equal(t, 270, Rotate270.Degrees())
}

func TestCatalog_Size(t *testing.T) {
	c := Catalog{"flying_machine": {X: 4, Y: 4, Z: 4}, "broken": {}}
	s, ok := c.Size("flying_machine")
	assert.True(t, ok)
	assert.Equal(t, Size{X: 4, Y: 4, Z: 4}, s)
	_, ok = c.Size("broken")
	assert.False(t, ok)
	_, ok = c.Size("missing")
	assert.False(t, ok)
}
