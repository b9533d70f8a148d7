package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/entropy"
	"github.com/talgya/pigeon-pope/internal/social"
)

type fixedRoll float64

func (f fixedRoll) Float64() float64                   { return float64(f) }
func (f fixedRoll) Intn(n int) int                     { return 0 }
func (f fixedRoll) Shuffle(n int, swap func(i, j int)) {}

func TestDefaultContent(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	t.Run("cards", func(t *testing.T) {
		card, ok := c.Card("card-004")
		require.True(t, ok)
		assert.Equal(t, "Righteous Peck", card.Name)
		assert.Equal(t, economy.Faith, card.Cost.Resource)
		assert.Equal(t, 15.0, card.Cost.Amount)
		require.Len(t, card.Effects, 1)
		assert.Equal(t, effects.DamageRival, card.Effects[0].Kind)
		assert.Equal(t, 10.0, card.Effects[0].Value)

		hymn, _ := c.Card("card-008")
		assert.Equal(t, 300, hymn.Effects[0].Duration)
	})

	t.Run("starting deck", func(t *testing.T) {
		deck, err := c.Deck(c.StartingDeck)
		require.NoError(t, err)
		assert.Len(t, deck, 5)
	})

	t.Run("buildings", func(t *testing.T) {
		require.NotEmpty(t, c.Buildings)
		silo := c.Buildings[0]
		assert.Equal(t, "bld-crumb-silo", silo.ID)
		assert.Equal(t, economy.Crumbs, silo.ProductionType)
		assert.Nil(t, silo.Buff)

		var buffed int
		for _, b := range c.Buildings {
			if b.Buff != nil {
				buffed++
			}
		}
		assert.Positive(t, buffed)
	})

	t.Run("factions start neutral", func(t *testing.T) {
		factions := c.NewFactions()
		require.Len(t, factions, 3)
		for _, f := range factions {
			assert.Equal(t, social.Neutral, f.Status)
			assert.NotEmpty(t, f.Treaties)
			assert.NotNil(t, f.AllianceBonus)
			_, ok := c.Dialogue(f.DialogueID)
			assert.True(t, ok, "intro dialogue for %s", f.ID)
			_, ok = c.Dialogue(f.ID + "-declare-alliance")
			assert.True(t, ok, "alliance dialogue for %s", f.ID)
		}
		factions[0].Treaties[0].Active = true
		assert.False(t, c.Factions[0].Treaties[0].Active, "templates untouched")
	})

	t.Run("triggers", func(t *testing.T) {
		trig := c.TriggersFor("seagulls")
		require.Len(t, trig, 1)
		assert.Equal(t, social.Rivalry, trig[0].SetStatus)
		assert.Equal(t, 0.15, trig[0].Chance)
		for _, tr := range c.Triggers {
			_, ok := c.Dialogue(tr.Message)
			assert.True(t, ok, "trigger message %s", tr.Message)
		}
	})

	t.Run("relationship tags", func(t *testing.T) {
		d, ok := c.Dialogue("rats-tribute")
		require.True(t, ok)
		e := d.Options[0].Effects[0]
		assert.Equal(t, effects.ImproveRelations, e.Kind)
		assert.Equal(t, "rats", e.Faction)
		assert.Equal(t, 20.0, e.Value)
	})

	t.Run("dialogue chains resolve", func(t *testing.T) {
		for _, d := range c.Dialogues {
			for _, o := range d.Options {
				if o.NextID == "" {
					continue
				}
				_, ok := c.Dialogue(o.NextID)
				assert.True(t, ok, "%s -> %s", d.ID, o.NextID)
			}
		}
		for _, id := range c.Events {
			_, ok := c.Dialogue(id)
			assert.True(t, ok, "event %s", id)
		}
	})

	t.Run("boss", func(t *testing.T) {
		assert.Equal(t, 250.0, c.Boss.Faith)
		require.Len(t, c.Boss.Abilities, 2)
		assert.Equal(t, []effects.Effect{effects.New(effects.AttackFaith, 20)}, c.Boss.Abilities[0].Effects)
		assert.Equal(t, effects.DiscardCards, c.Boss.Abilities[1].Effects[0].Kind)
	})

	t.Run("skills", func(t *testing.T) {
		require.Len(t, c.Skills, 6)
		auto2, ok := c.Skill("auto-2")
		require.True(t, ok)
		assert.Equal(t, []string{"auto-1"}, auto2.DependsOn)
		assert.Equal(t, 2.0, auto2.Cost)

		coo, _ := c.Skill("prop-1")
		require.NotNil(t, coo.OnPlay)
		assert.Equal(t, cards.Propaganda, coo.OnPlay.CardType)
		assert.Equal(t, effects.GainFollowers, coo.OnPlay.Effect)

		meme, _ := c.Skill("memes-1")
		assert.Equal(t, 60, meme.Cooldown)
		assert.Equal(t, 300, meme.Active[0].Duration)

		_, ok = c.Skill("auto-9")
		assert.False(t, ok)
	})
}

func TestCardBonus(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	sermon, _ := c.Card("card-003")
	blessing, _ := c.Card("card-001")
	peck, _ := c.Card("card-004")

	t.Run("matching", func(t *testing.T) {
		coo, _ := c.Skill("prop-1")
		assert.True(t, coo.OnPlay.Matches(sermon))
		assert.False(t, coo.OnPlay.Matches(blessing))

		fury, _ := c.Skill("combat-1")
		assert.True(t, fury.OnPlay.Matches(peck))
		assert.False(t, fury.OnPlay.Matches(sermon))
	})

	t.Run("scale applies to its kind only", func(t *testing.T) {
		boost, _ := c.Skill("prop-2")
		assert.True(t, boost.OnPlay.Matches(blessing))
		assert.InDelta(t, 12.0, boost.OnPlay.Adjust(effects.New(effects.GainMorale, 10)).Value, 1e-9)
		assert.Equal(t, 10.0, boost.OnPlay.Adjust(effects.New(effects.GainFaith, 10)).Value)
	})

	t.Run("combat bonus applies to damage only", func(t *testing.T) {
		fury, _ := c.Skill("combat-1")
		assert.Equal(t, 12.0, fury.OnPlay.Adjust(effects.New(effects.DamageRival, 10)).Value)
		assert.Equal(t, 10.0, fury.OnPlay.Adjust(effects.New(effects.GainCrumbs, 10)).Value)
	})
}

func TestOpenLootBox(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	t.Run("first bucket", func(t *testing.T) {
		out, ok := c.OpenLootBox("coocoo_crate", fixedRoll(0))
		require.True(t, ok)
		assert.Equal(t, []effects.Effect{effects.New(effects.GainCrumbs, 50)}, out)
	})

	t.Run("rarest bucket", func(t *testing.T) {
		out, ok := c.OpenLootBox("coocoo_crate", fixedRoll(0.995))
		require.True(t, ok)
		require.Len(t, out, 2)
		assert.Equal(t, effects.GainRelic, out[0].Kind)
		assert.Equal(t, "relic-002", out[0].Ref)
		assert.Equal(t, effects.GainXP, out[1].Kind)
	})

	t.Run("seeded draws repeat", func(t *testing.T) {
		a, _ := c.OpenLootBox("coocoo_crate", entropy.NewSeeded(5))
		b, _ := c.OpenLootBox("coocoo_crate", entropy.NewSeeded(5))
		assert.Equal(t, a, b)
	})

	t.Run("unknown box", func(t *testing.T) {
		out, ok := c.OpenLootBox("mystery", fixedRoll(0))
		assert.False(t, ok)
		assert.Nil(t, out)
	})
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
cards:
  - id: c1
    name: Only Card
    type: Miracle
    cost: {resource: Faith, amount: 1}
    effects: [{type: GAIN_FAITH, value: 2}, {type: SUMMON_METEOR, value: 9}]
starting_deck: [c1, c1]
`), 0o644))

	c, err := Load(good)
	require.NoError(t, err)
	card, ok := c.Card("c1")
	require.True(t, ok)
	assert.Equal(t, effects.Unhandled, card.Effects[1].Kind)
	assert.Equal(t, "SUMMON_METEOR", card.Effects[1].Tag)

	loop := filepath.Join(dir, "skills.yaml")
	require.NoError(t, os.WriteFile(loop, []byte(`
skills:
  - {id: s1, name: One, cost: 1, depends_on: [s0]}
`), 0o644))
	_, err = Load(loop)
	assert.ErrorContains(t, err, "unknown skill s0")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("starting_deck: [nope]\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "unknown card nope")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
