package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pigeon-pope/internal/social"
)

func TestCELRegistry(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	seagulls := &social.Faction{ID: "seagulls", Relationship: -20, Power: 150, Status: social.Neutral}

	t.Run("Seagull Rivalry Condition", func(t *testing.T) {
		expr := "player.power > faction.power * 0.8 && player.territory >= 5.0 && faction.relationship < -15.0"

		strong := PlayerFacts{Level: 10, Followers: 30, Territory: 6}
		ok, err := registry.Check(expr, BuildEvalContext(strong, seagulls))
		require.NoError(t, err)
		assert.True(t, ok)

		weak := PlayerFacts{Level: 1, Followers: 1, Territory: 6}
		ok, err = registry.Check(expr, BuildEvalContext(weak, seagulls))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("String Comparison", func(t *testing.T) {
		ok, err := registry.Check("faction.status == 'Neutral' && !faction.has_treaty", BuildEvalContext(PlayerFacts{}, seagulls))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Non Boolean Result", func(t *testing.T) {
		_, err := registry.Check("player.crumbs + 1.0", BuildEvalContext(PlayerFacts{Crumbs: 3}, seagulls))
		assert.Error(t, err)

		out, err := registry.Eval("player.crumbs + 1.0", BuildEvalContext(PlayerFacts{Crumbs: 3}, seagulls))
		require.NoError(t, err)
		assert.Equal(t, 4.0, out)
	})

	t.Run("Compile Error", func(t *testing.T) {
		_, err := registry.Compile("player.power >")
		assert.Error(t, err)
	})

	t.Run("Programs Are Cached", func(t *testing.T) {
		_, err := registry.Compile("player.level > 1.0")
		require.NoError(t, err)
		_, err = registry.Compile("player.level > 1.0")
		require.NoError(t, err)
		assert.Contains(t, registry.programs, "player.level > 1.0")
	})
}

func TestPlayerPower(t *testing.T) {
	p := PlayerFacts{Level: 2, Followers: 3, Territory: 1}
	assert.Equal(t, 19.0, p.Power())
}
