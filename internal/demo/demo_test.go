package demo

import (
	"context"
	"testing"

	"github.com/comalice/gametestx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorld(t *testing.T) {
	w := NewWorld()
	r := gametestx.Region{Max: gametestx.Pos{X: 2, Y: 2, Z: 2}}
	w.Fill(r, Sand)
	assert.Equal(t, 8, w.Count(r, Sand))
	assert.Equal(t, Sand, w.Block(gametestx.Pos{X: 1, Y: 1, Z: 1}))
	assert.Equal(t, Air, w.Block(gametestx.Pos{X: 2}))

	w.SetBlock(gametestx.Pos{}, Air)
	assert.Equal(t, 7, w.Count(r, Sand))
	assert.Equal(t, gametestx.Pos{X: 1}, w.Positions(r)[0])

	w.Clear(r)
	assert.Empty(t, w.Positions(r))
	assert.Equal(t, 9, w.Writes())
}

func TestDefaultSuite(t *testing.T) {
	w := NewWorld()
	reg := gametestx.NewRegistry()
	require.NoError(t, Register(reg, w))

	rep, err := gametestx.NewScheduler(reg, gametestx.WithStructures(Structures)).
		RunSuite(context.Background(), gametestx.Tags(gametestx.TagSuiteDefault))
	require.NoError(t, err)
	assert.Equal(t, gametestx.ExitSuccess, rep.ExitCode)

	want := map[string]struct {
		state   gametestx.State
		elapsed int
	}{
		"redstone:lamp_lights":    {gametestx.Succeeded, 3},
		"redstone:observer_pulse": {gametestx.Succeeded, 6},
		"farming:sapling_grows":   {gametestx.Succeeded, 9},
		"physics:sand_falls":      {gametestx.Succeeded, 6},
		"components:counter":      {gametestx.Succeeded, 2},
		"mobs:zombie_burns":       {gametestx.Succeeded, 3},
		"mobs:skeleton_burns":     {gametestx.Succeeded, 3},
		"mobs:phantom_spawns":     {gametestx.TimedOut, 20},
		"debug:dump_region":       {gametestx.Skipped, 0},
		"redstone:broken_clock":   {gametestx.Skipped, 0},
	}
	require.Len(t, rep.Results, len(want))
	for _, res := range rep.Results {
		exp, ok := want[res.ID]
		require.True(t, ok, res.ID)
		assert.Equal(t, exp.state, res.State, res.ID)
		assert.Equal(t, exp.elapsed, res.ElapsedTicks, res.ID)
	}

	zombie, _ := rep.Result("mobs:zombie_burns")
	skeleton, _ := rep.Result("mobs:skeleton_burns")
	assert.Greater(t, skeleton.StartTick, zombie.EndTick)
	assert.False(t, w.Night(), "night batch must restore day")
	assert.Equal(t, 1, rep.Optional)
}

func TestDebugSuite(t *testing.T) {
	reg := gametestx.NewRegistry()
	require.NoError(t, Register(reg, NewWorld()))

	rep, err := gametestx.NewScheduler(reg).RunSuite(context.Background(), gametestx.Tags(gametestx.TagSuiteDebug))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 9, rep.Skipped)
}
