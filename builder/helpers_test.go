package builder

import (
	"context"
	"testing"

	"github.com/comalice/gametestx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesOptions(t *testing.T) {
	d := New("farm", "wheat", func(t *gametestx.T) { t.Succeed() },
		Structure("field"),
		MaxTicks(40),
		SetupTicks(2),
		Padding(3),
		Batch("day"),
		Tags("slow", "suite:farm"),
		Optional(),
		Rotate(),
	)

	assert.Equal(t, "farm:wheat", d.ID())
	assert.Equal(t, "field", d.StructureName)
	assert.Equal(t, 40, d.MaxTicks)
	assert.Equal(t, 2, d.SetupTicks)
	assert.Equal(t, 3, d.Padding)
	assert.Equal(t, "day", d.Batch)
	assert.Equal(t, []string{"slow", "suite:farm"}, d.Tags)
	assert.False(t, d.Required)
	assert.True(t, d.RotateTest)
	assert.NoError(t, d.Validate())
}

func TestNewKeepsDefaults(t *testing.T) {
	d := NewAsync("farm", "cactus", func(*gametestx.T) error { return nil })
	assert.True(t, d.IsAsync())
	assert.True(t, d.Required)
	assert.Equal(t, gametestx.DefaultMaxTicks, d.MaxTicks)
}

func TestSuiteStopsAtFirstError(t *testing.T) {
	reg := gametestx.NewRegistry()
	err := Suite(reg,
		New("farm", "wheat", func(t *gametestx.T) { t.Succeed() }),
		New("farm", "broken", func(t *gametestx.T) {}, MaxTicks(0)),
		New("farm", "carrot", func(t *gametestx.T) { t.Succeed() }),
	)
	require.ErrorIs(t, err, gametestx.ErrInvalidConfig)
	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Lookup("farm", "carrot")
	assert.False(t, ok)
}

func TestDisabledIsNotInDefaultSuite(t *testing.T) {
	reg := gametestx.NewRegistry()
	require.NoError(t, Suite(reg,
		New("farm", "wheat", func(t *gametestx.T) { t.Succeed() }),
		New("farm", "rice", func(t *gametestx.T) { t.Fail("flooded") }, Disabled()),
	))

	rep, err := gametestx.NewScheduler(reg).RunSuite(context.Background(), gametestx.Tags())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, gametestx.ExitSuccess, rep.ExitCode)
}
