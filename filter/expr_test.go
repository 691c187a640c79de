package filter_test

import (
	"testing"

	"github.com/comalice/gametestx"
	"github.com/comalice/gametestx/builder"
	"github.com/comalice/gametestx/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(*gametestx.T) {}

func definitions(t *testing.T) []gametestx.Definition {
	t.Helper()
	reg := gametestx.NewRegistry()
	require.NoError(t, builder.Suite(reg,
		builder.New("redstone", "torch", noop, builder.Tags("suite:redstone"), builder.MaxTicks(40)),
		builder.New("redstone", "piston_push", noop, builder.Batch("night")),
		builder.New("mobs", "zombie_burn", noop, builder.Optional(), builder.Batch("night")),
		builder.New("mobs", "slow", noop, builder.Disabled()),
	))
	return reg.Definitions()
}

func ids(defs []gametestx.Definition) []string {
	var out []string
	for _, d := range defs {
		out = append(out, d.ID())
	}
	return out
}

func TestExprSelectsDefinitions(t *testing.T) {
	defs := definitions(t)
	reg := gametestx.NewRegistry()
	for _, d := range defs {
		require.NoError(t, reg.Add(d))
	}

	tests := []struct {
		expression string
		want       []string
	}{
		{`"suite:redstone" in tags`, []string{"redstone:torch"}},
		{`batch == "night"`, []string{"redstone:piston_push", "mobs:zombie_burn"}},
		{`!required`, []string{"mobs:zombie_burn"}},
		{`suite == "mobs" && maxTicks == 100`, []string{"mobs:zombie_burn", "mobs:slow"}},
		{`name startsWith "piston"`, []string{"redstone:piston_push"}},
		{`"suite:disabled" in tags`, []string{"mobs:slow"}},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := filter.Compile(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(reg.SelectSuite(f)))
		})
	}
}

func TestCompileRejectsInvalidExpressions(t *testing.T) {
	for _, expression := range []string{
		`suite + 1`,
		`unknown == 1`,
		`name`,
		`maxTicks >`,
	} {
		_, err := filter.Compile(expression)
		assert.Error(t, err, expression)
	}
}

func TestCombinators(t *testing.T) {
	defs := definitions(t)
	night := filter.MustCompile(`batch == "night"`)
	redstone := gametestx.Tags("suite:redstone")

	and := filter.And(night, filter.MustCompile(`required`))
	or := filter.Or(redstone, filter.MustCompile(`suite == "mobs" && !("suite:disabled" in tags)`))

	var gotAnd, gotOr []string
	for _, d := range defs {
		if and.Match(d) {
			gotAnd = append(gotAnd, d.ID())
		}
		if or.Match(d) {
			gotOr = append(gotOr, d.ID())
		}
	}
	assert.Equal(t, []string{"redstone:piston_push"}, gotAnd)
	assert.Equal(t, []string{"redstone:torch", "mobs:zombie_burn"}, gotOr)
	assert.Contains(t, and.String(), "&&")
}
