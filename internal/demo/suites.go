package demo

import (
	"context"
	"errors"

	"github.com/comalice/gametestx"
)

// Structures is the catalog of the demo structures.
var Structures = gametestx.Catalog{
	"lamp_circuit": {X: 3, Y: 2, Z: 1},
	"tree_farm":    {X: 5, Y: 8, Z: 5},
	"sand_tower":   {X: 1, Y: 6, Z: 1},
	"mob_pen":      {X: 7, Y: 4, Z: 7},
}

// Register adds the demo suites to reg. The tests read and write w.
func Register(reg *gametestx.Registry, w *World) error {
	reg.Register("redstone", "lamp_lights", func(t *gametestx.T) {
		lever := gametestx.Pos{}
		lamp := gametestx.Pos{X: 2}
		w.Clear(t.Region())
		w.SetBlock(t.Origin().Add(lever), Lever)
		w.SetBlock(t.Origin().Add(lamp), LampOff)
		// The lamp reacts one tick after the lever is flipped.
		t.RunAtTick(2, func(t *gametestx.T) {
			t.RunAfterDelay(1, func(t *gametestx.T) { w.SetBlock(t.Origin().Add(lamp), LampOn) })
		})
		t.SucceedWhen(w.ExpectBlock(lamp, LampOn))
	}).StructureName("lamp_circuit").Padding(1).Tag("suite:default", "suite:redstone")

	reg.Register("redstone", "observer_pulse", func(t *gametestx.T) {
		obs := gametestx.Pos{Y: 1}
		t.StartSequence().
			ThenExecute(func(t *gametestx.T) { w.SetBlock(t.Origin().Add(obs), Observer) }).
			ThenIdle(2).
			ThenExecute(func(t *gametestx.T) { t.Context().Incr("pulses") }).
			ThenExecuteAfter(2, func(t *gametestx.T) { t.Context().Incr("pulses") }).
			ThenWait(func(t *gametestx.T) error {
				return gametestx.Assertf(t.Context().Int("pulses") == 2, "saw %d pulses", t.Context().Int("pulses"))
			}).
			ThenSucceed()
	}).StructureName("lamp_circuit").RotateTest(true).Tag("suite:default", "suite:redstone")

	reg.RegisterAsync("farming", "sapling_grows", func(t *gametestx.T) error {
		base := t.Origin().Add(gametestx.Pos{X: 2, Z: 2})
		w.Clear(t.Region())
		w.SetBlock(base, Sapling)
		t.Idle(5)
		if w.Block(base) != Sapling {
			return errors.New("sapling was trampled")
		}
		for y := range 4 {
			w.SetBlock(base.Add(gametestx.Pos{Y: y}), Log)
			t.Idle(1)
		}
		if n := w.Count(t.Region(), Log); n != 4 {
			t.Failf("expected a 4 block trunk, got %d", n)
			return nil
		}
		t.Succeed()
		return nil
	}).StructureName("tree_farm").SetupTicks(2)

	reg.Register("physics", "sand_falls", func(t *gametestx.T) {
		top := t.Origin().Add(gametestx.Pos{Y: 5})
		w.SetBlock(top, Sand)
		for i := 1; i <= 5; i++ {
			t.RunAtTick(i, func(t *gametestx.T) {
				from := top.Add(gametestx.Pos{Y: 1 - i})
				w.SetBlock(from, Air)
				w.SetBlock(from.Add(gametestx.Pos{Y: -1}), Sand)
			})
		}
		t.SucceedOnTickWhen(6, w.ExpectBlock(gametestx.Pos{}, Sand))
	}).StructureName("sand_tower")

	reg.Register("components", "counter", func(t *gametestx.T) {
		t.RunAtTick(1, func(t *gametestx.T) { t.Context().Incr("count") })
		t.RunAtTick(2, func(t *gametestx.T) { t.Context().Incr("count") })
		t.SucceedWhen(func(t *gametestx.T) error {
			return gametestx.Assertf(t.Context().Int("count") == 2, "count is %d", t.Context().Int("count"))
		})
	})

	for _, name := range []string{"zombie_burns", "skeleton_burns"} {
		reg.Register("mobs", name, func(t *gametestx.T) {
			if !w.Night() {
				t.Fail("expected night at spawn")
				return
			}
			t.SucceedOnTick(3)
		}).StructureName("mob_pen").Batch("night")
	}
	reg.Batch("night").
		BeforeBatch(func(context.Context) error {
			w.SetNight(true)
			return nil
		}).
		AfterBatch(func(context.Context) error {
			w.SetNight(false)
			return nil
		})

	reg.Register("mobs", "phantom_spawns", func(t *gametestx.T) {
		t.SucceedWhen(func(*gametestx.T) error { return errors.New("no phantom in pen") })
	}).StructureName("mob_pen").MaxTicks(20).Required(false).Tag("slow")

	reg.Register("debug", "dump_region", func(t *gametestx.T) {
		for _, p := range w.Positions(t.Region()) {
			t.Logger().Info("block", "pos", p.String(), "block", w.Block(p))
		}
		t.Succeed()
	}).Tag(gametestx.TagSuiteDebug)

	reg.Register("redstone", "broken_clock", func(t *gametestx.T) {
		t.Fail("clock circuit is known to be broken")
	}).Tag(gametestx.TagSuiteDisabled)

	return reg.Validate()
}
