package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/catalog"
	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/entropy"
	"github.com/talgya/pigeon-pope/internal/flock"
	"github.com/talgya/pigeon-pope/internal/quest"
	"github.com/talgya/pigeon-pope/internal/social"
	"github.com/talgya/pigeon-pope/internal/weather"
)

type fixedRoll float64

func (f fixedRoll) Float64() float64                   { return float64(f) }
func (f fixedRoll) Intn(n int) int                     { return 0 }
func (f fixedRoll) Shuffle(n int, swap func(i, j int)) {}

func newTestGame(t *testing.T) *Game {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	g, err := NewGame(cat, entropy.NewSeeded(7), Options{Seed: 7})
	require.NoError(t, err)
	return g
}

func testCard(id string, res economy.Resource, cost float64, list ...effects.Effect) *cards.Card {
	return &cards.Card{ID: id, Name: id, Cost: cards.Cost{Resource: res, Amount: cost}, Effects: list}
}

func TestNewGame(t *testing.T) {
	g := newTestGame(t)
	s := g.Snapshot()

	assert.Equal(t, 10.0, s.Resources.Faith)
	assert.Equal(t, 25.0, s.Resources.Crumbs)
	assert.Equal(t, 75.0, s.Resources.Morale)
	assert.Equal(t, 1.0, s.Resources.Inflation)
	assert.Len(t, s.Followers, 1)
	assert.Len(t, s.Hand, cards.MaxHandSize)
	assert.Equal(t, 1, s.Player.Level)
	assert.Equal(t, 50.0, s.Player.XPToNextLevel)
	assert.Equal(t, "quest-001", s.Quest.ID)
	assert.Equal(t, 50.0, s.Rival.Faith)
	assert.Len(t, s.Rival.Piles.Hand, cards.MaxHandSize)
	for _, f := range s.Factions {
		assert.Equal(t, social.Neutral, f.Status)
	}
}

func TestEconomyTick(t *testing.T) {
	t.Run("building crumb production", func(t *testing.T) {
		g := newTestGame(t)
		g.followers = nil
		g.building("bld-crumb-silo").Level = 3

		before := g.pool.Crumbs
		g.Tick()
		assert.InDelta(t, 0.15, g.pool.Crumbs-before, 1e-9)
	})

	t.Run("follower crumbs and faith", func(t *testing.T) {
		g := newTestGame(t)
		g.Tick()
		assert.InDelta(t, 25.01, g.pool.Crumbs, 1e-9)
		assert.InDelta(t, 10.05, g.pool.Faith, 1e-9)
	})

	t.Run("faith multiplier from buffed buildings", func(t *testing.T) {
		g := newTestGame(t)
		g.building("bld-choir-loft").Level = 2
		g.Tick()
		assert.InDelta(t, 10.055, g.pool.Faith, 1e-9)
	})

	t.Run("bread coin", func(t *testing.T) {
		g := newTestGame(t)
		g.building("bld-bread-mint").Level = 2
		g.Tick()
		assert.InDelta(t, 0.02, g.pool.BreadCoin, 1e-9)
	})

	t.Run("inflation compounds", func(t *testing.T) {
		g := newTestGame(t)
		g.Tick()
		g.Tick()
		assert.InDelta(t, math.Pow(economy.InflationPerTick, 2), g.pool.Inflation, 1e-12)
	})

	t.Run("heresy drains morale", func(t *testing.T) {
		g := newTestGame(t)
		g.Tick()
		assert.InDelta(t, 74.98, g.pool.Morale, 1e-9)
	})

	t.Run("heresy buff and treaty reduction", func(t *testing.T) {
		g := newTestGame(t)
		g.rival.AddBuff(effects.RivalHeresyRateMultiplier, 0.5, 300, "test")
		social.Find(g.factions, "crows").Treaties[0].Active = true
		g.Tick()
		// 0.2 × 0.5 × 0.8 per second.
		assert.InDelta(t, 75-0.008, g.pool.Morale, 1e-9)
		require.Len(t, g.rival.Buffs, 1)
		assert.Equal(t, 299, g.rival.Buffs[0].Duration)
	})

	t.Run("buffs expire", func(t *testing.T) {
		g := newTestGame(t)
		g.rival.AddBuff(effects.RivalHeresyRateMultiplier, 0.5, 2, "test")
		g.Tick()
		g.Tick()
		assert.Empty(t, g.rival.Buffs)
	})

	t.Run("defeated rival stops draining", func(t *testing.T) {
		g := newTestGame(t)
		g.rival.Defeated = true
		g.Tick()
		assert.Equal(t, 75.0, g.pool.Morale)
	})

	t.Run("morale floors at zero", func(t *testing.T) {
		g := newTestGame(t)
		g.pool.Morale = 0.01
		g.rival.HeresyPerSecond = 10
		g.Tick()
		assert.Equal(t, 0.0, g.pool.Morale)
	})

	t.Run("morale ceiling", func(t *testing.T) {
		g := newTestGame(t)
		g.rival.Defeated = true
		g.pool.Morale = 100
		g.relics = append(g.relics, mustRelic(t, g, "relic-002"))
		g.Tick()
		assert.Equal(t, 100.0, g.pool.Morale)

		g.building("bld-sanctuary").Level = 1
		for range 20 {
			g.Tick()
		}
		assert.InDelta(t, 100.2, g.pool.Morale, 1e-9)
		assert.LessOrEqual(t, g.pool.Morale, 105.0)
	})

	t.Run("level up", func(t *testing.T) {
		g := newTestGame(t)
		g.stats.XP = 60
		g.Tick()
		assert.Equal(t, 2, g.stats.Level)
		assert.Equal(t, 10.0, g.stats.XP)
		assert.Equal(t, 75.0, g.stats.XPToNextLevel)
		assert.Equal(t, 6.0, g.stats.Luck)
		assert.Equal(t, "LEVEL UP! You are now Level 2!", g.events[len(g.events)-1].Description)
	})

	t.Run("weather multiplies crumbs", func(t *testing.T) {
		g := newTestGame(t)
		g.followers = nil
		g.building("bld-crumb-silo").Level = 3
		g.weather = weatherStart(t, g, "weather-001")
		before := g.pool.Crumbs
		g.Tick()
		assert.InDelta(t, 0.3, g.pool.Crumbs-before, 1e-9)
	})
}

func TestPlayCard(t *testing.T) {
	blessing := testCard("t-bless", economy.Faith, 5, effects.New(effects.GainCrumbs, 1))
	filler := testCard("t-fill", economy.Crumbs, 0)

	t.Run("pays and redraws", func(t *testing.T) {
		g := newTestGame(t)
		g.piles = cards.Piles{Deck: []*cards.Card{filler}, Hand: []*cards.Card{blessing}}

		res := g.PlayCard("t-bless")
		require.True(t, res.OK, res.Message)
		assert.Equal(t, 5.0, g.pool.Faith)
		assert.Equal(t, 26.0, g.pool.Crumbs)
		assert.Equal(t, []string{"t-bless"}, cards.IDs(g.piles.Discard))
		assert.Equal(t, []string{"t-fill"}, cards.IDs(g.piles.Hand))
		assert.Empty(t, g.piles.Deck)
		assert.Equal(t, 1, g.cardsPlayed)
		assert.Equal(t, "Played 't-bless'.", g.events[len(g.events)-1].Description)
	})

	t.Run("unaffordable leaves state untouched", func(t *testing.T) {
		g := newTestGame(t)
		g.pool.Faith = 3
		g.piles = cards.Piles{Deck: []*cards.Card{filler}, Hand: []*cards.Card{blessing}}
		pool := g.pool
		events := len(g.events)

		res := g.PlayCard("t-bless")
		assert.False(t, res.OK)
		assert.ErrorIs(t, res.Err, ErrInsufficientResources)
		assert.Equal(t, pool, g.pool)
		assert.Equal(t, []string{"t-fill"}, cards.IDs(g.piles.Deck))
		assert.Equal(t, []string{"t-bless"}, cards.IDs(g.piles.Hand))
		assert.Empty(t, g.piles.Discard)
		assert.Len(t, g.events, events)
	})

	t.Run("card not in hand", func(t *testing.T) {
		g := newTestGame(t)
		res := g.PlayCard("card-404")
		assert.ErrorIs(t, res.Err, ErrInvalidReference)
	})

	t.Run("inflation raises cost", func(t *testing.T) {
		g := newTestGame(t)
		g.pool.Inflation = 1.5
		g.piles = cards.Piles{Hand: []*cards.Card{blessing}}
		require.True(t, g.PlayCard("t-bless").OK)
		assert.Equal(t, 2.0, g.pool.Faith)
	})

	t.Run("rival faith floors at zero", func(t *testing.T) {
		g := newTestGame(t)
		g.rival.Faith = 8
		g.piles = cards.Piles{Hand: []*cards.Card{testCard("t-peck", economy.Faith, 0, effects.New(effects.DamageRival, 10))}}
		require.True(t, g.PlayCard("t-peck").OK)
		assert.Equal(t, 0.0, g.rival.Faith)

		g.Tick()
		assert.True(t, g.rival.Defeated)
	})

	t.Run("conflict dogma scales damage", func(t *testing.T) {
		g := newTestGame(t)
		g.dogma, _ = g.cat.Dogma("dogma-iron-wing")
		g.piles = cards.Piles{Hand: []*cards.Card{testCard("t-peck", economy.Faith, 0, effects.New(effects.DamageRival, 10))}}
		require.True(t, g.PlayCard("t-peck").OK)
		assert.Equal(t, 37.0, g.rival.Faith)
	})

	t.Run("crumb dogma discounts crumb cards", func(t *testing.T) {
		g := newTestGame(t)
		g.dogma, _ = g.cat.Dogma("dogma-bread-body")
		g.piles = cards.Piles{Hand: []*cards.Card{testCard("t-ritual", economy.Crumbs, 10)}}
		require.True(t, g.PlayCard("t-ritual").OK)
		assert.Equal(t, 16.0, g.pool.Crumbs)
	})

	t.Run("duplicate ids discard first only", func(t *testing.T) {
		g := newTestGame(t)
		g.piles = cards.Piles{Hand: []*cards.Card{blessing, filler, blessing}}
		require.True(t, g.PlayCard("t-bless").OK)
		assert.Equal(t, []string{"t-fill", "t-bless", "t-bless"}, cards.IDs(g.piles.Hand))
		assert.Empty(t, g.piles.Discard)
	})

	t.Run("deck conservation", func(t *testing.T) {
		g := newTestGame(t)
		g.pool.Faith = 1000
		g.pool.Crumbs = 1000
		total := g.piles.Total()
		for range 30 {
			g.PlayCard(g.piles.Hand[0].ID)
			assert.Equal(t, total, g.piles.Total())
			assert.LessOrEqual(t, len(g.piles.Hand), cards.MaxHandSize)
		}
	})
}

func TestDispatch(t *testing.T) {
	t.Run("relationships clamp", func(t *testing.T) {
		g := newTestGame(t)
		g.apply(effects.Relations("rats", true, 500), "test")
		assert.Equal(t, 100.0, social.Find(g.factions, "rats").Relationship)
		g.apply(effects.Relations("rats", false, 500), "test")
		assert.Equal(t, -100.0, social.Find(g.factions, "rats").Relationship)
	})

	t.Run("unknown references no-op and siblings continue", func(t *testing.T) {
		g := newTestGame(t)
		g.applyAll([]effects.Effect{
			effects.Relations("badgers", true, 10),
			{Kind: effects.GainRelic, Ref: "relic-999"},
			{Kind: effects.GainLootBox, Ref: "mystery"},
			{Kind: effects.Unhandled, Tag: "SUMMON_METEOR", Value: 9},
			effects.New(effects.GainFaith, 5),
		}, "test")
		assert.Equal(t, 15.0, g.pool.Faith)
		assert.Empty(t, g.relics)
		assert.Empty(t, g.lootBoxes)
	})

	t.Run("relic is granted once", func(t *testing.T) {
		g := newTestGame(t)
		g.apply(effects.Effect{Kind: effects.GainRelic, Ref: "relic-001"}, "test")
		g.apply(effects.Effect{Kind: effects.GainRelic, Ref: "relic-001"}, "test")
		assert.Len(t, g.relics, 1)
		assert.Equal(t, 0.5, g.coefficients().CrumbFlatAdd)
	})

	t.Run("resource floors", func(t *testing.T) {
		g := newTestGame(t)
		g.apply(effects.New(effects.AttackFaith, 100), "test")
		g.apply(effects.New(effects.StealCrumbs, 100), "test")
		g.apply(effects.New(effects.AddHeresy, 100), "test")
		g.apply(effects.New(effects.StealFollowers, 5), "test")
		assert.Equal(t, 0.0, g.pool.Faith)
		assert.Equal(t, 0.0, g.pool.Crumbs)
		assert.Equal(t, 0.0, g.pool.Morale)
		assert.Empty(t, g.followers)
	})

	t.Run("morale gain clamps to ceiling", func(t *testing.T) {
		g := newTestGame(t)
		g.pool.Morale = 95
		g.apply(effects.New(effects.GainMorale, 10), "test")
		assert.Equal(t, 100.0, g.pool.Morale)

		g.building("bld-sanctuary").Level = 1
		g.apply(effects.New(effects.GainMorale, 10), "test")
		assert.Equal(t, 105.0, g.pool.Morale)
	})

	t.Run("xp scales with alliance", func(t *testing.T) {
		g := newTestGame(t)
		social.Find(g.factions, "crows").Status = social.Alliance
		g.apply(effects.New(effects.GainXP, 10), "test")
		assert.Equal(t, 15.0, g.stats.XP)
	})

	t.Run("combat kinds", func(t *testing.T) {
		g := newTestGame(t)
		g.followers = []*flock.Follower{
			{Personality: flock.Devout},
			{Personality: flock.Devout},
			{Personality: flock.Lazy},
		}

		g.apply(effects.New(effects.LuckyDamageRival, 5), "test")
		assert.Equal(t, 40.0, g.rival.Faith)
		g.apply(effects.New(effects.PiousDamageRival, 4), "test")
		assert.Equal(t, 32.0, g.rival.Faith)
		g.apply(effects.New(effects.SwarmDamageRival, 0), "test")
		assert.Equal(t, 29.0, g.rival.Faith)
		g.apply(effects.New(effects.SwarmDamageRival, 7), "test")
		assert.Equal(t, 26.0, g.rival.Faith, "swarm damage is the follower count")

		social.Find(g.factions, "seagulls").Status = social.Alliance
		g.apply(effects.New(effects.DamageRival, 10), "test")
		assert.Equal(t, 11.0, g.rival.Faith)
	})

	t.Run("discard cards", func(t *testing.T) {
		g := newTestGame(t)
		g.rng = fixedRoll(0)
		first := g.piles.Hand[0]
		deck := len(g.piles.Deck)

		g.apply(effects.New(effects.DiscardCards, 2), "Gale Force Wings")
		assert.Len(t, g.piles.Hand, cards.MaxHandSize-2)
		assert.Len(t, g.piles.Discard, 2)
		assert.Equal(t, first, g.piles.Discard[0])
		assert.Len(t, g.piles.Deck, deck, "nothing is drawn back")

		g.apply(effects.New(effects.DiscardCards, 10), "Gale Force Wings")
		assert.Empty(t, g.piles.Hand)
	})

	t.Run("damage and debuffs hit the boss when present", func(t *testing.T) {
		g := newTestGame(t)
		g.summonBoss()
		require.NotNil(t, g.boss)

		g.apply(effects.New(effects.DamageRival, 10), "test")
		g.apply(effects.Effect{Kind: effects.RivalHeresyRateMultiplier, Value: 0.5, Duration: 300}, "Card: Holy Hymn")
		assert.Equal(t, 240.0, g.boss.Faith)
		assert.Equal(t, 50.0, g.rival.Faith)
		require.Len(t, g.boss.Buffs, 1)
		assert.Equal(t, "Card: Holy Hymn", g.boss.Buffs[0].Source)
		assert.Empty(t, g.rival.Buffs)
	})

	t.Run("followers by level", func(t *testing.T) {
		g := newTestGame(t)
		g.stats.Level = 3
		g.apply(effects.New(effects.GainFollowersByLevel, 1), "test")
		assert.Len(t, g.followers, 4)
	})

	t.Run("faith from buildings", func(t *testing.T) {
		g := newTestGame(t)
		g.building("bld-crumb-silo").Level = 2
		g.building("bld-faith-spire").Level = 1
		g.apply(effects.New(effects.FaithFromBuildings, 0), "test")
		assert.Equal(t, 25.0, g.pool.Faith)
	})

	t.Run("crusade", func(t *testing.T) {
		g := newTestGame(t)
		g.rng = fixedRoll(0.1)
		g.apply(effects.New(effects.CrumbCrusade, 0), "test")
		assert.Equal(t, 75.0, g.pool.Crumbs)

		g.rng = fixedRoll(0.9)
		g.apply(effects.New(effects.CrumbCrusade, 0), "test")
		assert.Empty(t, g.followers)
	})
}

func TestFactionAI(t *testing.T) {
	t.Run("alliance", func(t *testing.T) {
		g := newTestGame(t)
		g.rng = fixedRoll(0.1)
		rats := social.Find(g.factions, "rats")
		rats.Relationship = 85
		rats.Treaties[0].Active = true
		require.Equal(t, 1.0, g.coefficients().FollowerCrumbMultiplier)

		actions := g.runFactions()
		assert.Equal(t, social.Alliance, rats.Status)
		assert.Equal(t, []string{"rats-declare-alliance"}, g.inbox)
		assert.Len(t, actions, 2)
		assert.Equal(t, 1.25, g.coefficients().FollowerCrumbMultiplier)
	})

	t.Run("alliance roll fails", func(t *testing.T) {
		g := newTestGame(t)
		g.rng = fixedRoll(0.9)
		rats := social.Find(g.factions, "rats")
		rats.Relationship = 85
		rats.Treaties[0].Active = true

		assert.Empty(t, g.runFactions())
		assert.Equal(t, social.Neutral, rats.Status)
		assert.Empty(t, g.inbox)
	})

	t.Run("non-neutral factions are skipped", func(t *testing.T) {
		g := newTestGame(t)
		g.rng = fixedRoll(0)
		rats := social.Find(g.factions, "rats")
		rats.Relationship = 90
		rats.Treaties[0].Active = true
		rats.Status = social.Rivalry

		g.runFactions()
		assert.Equal(t, social.Rivalry, rats.Status)
		assert.Empty(t, g.inbox)
	})

	t.Run("rivalry trigger", func(t *testing.T) {
		g := newTestGame(t)
		g.rng = fixedRoll(0.1)
		g.stats.Level = 10
		g.followers = g.spawner.Recruit(30)

		g.SetTerritory(4)
		g.runFactions()
		assert.Equal(t, social.Neutral, social.Find(g.factions, "seagulls").Status, "not enough territory")

		assert.Equal(t, 6, g.SetTerritory(6))
		g.runFactions()
		assert.Equal(t, social.Rivalry, social.Find(g.factions, "seagulls").Status)
		assert.Equal(t, []string{"seagulls-declare-rivalry"}, g.inbox)
		assert.Zero(t, g.SetTerritory(-3))
	})

	t.Run("message-only trigger keeps status", func(t *testing.T) {
		g := newTestGame(t)
		g.rng = fixedRoll(0.1)
		g.pool.Crumbs = 500

		g.runFactions()
		g.runFactions()
		assert.Equal(t, social.Neutral, social.Find(g.factions, "rats").Status)
		assert.Equal(t, []string{"rats-demand-crumbs"}, g.inbox)
	})
}

func TestProposeTreaty(t *testing.T) {
	g := newTestGame(t)
	crows := social.Find(g.factions, "crows")

	res := g.ProposeTreaty("crows")
	assert.ErrorIs(t, res.Err, ErrInsufficientResources)

	g.pool.DivineFavor = 12
	crows.Relationship = 25
	res = g.ProposeTreaty("crows")
	require.True(t, res.OK, res.Message)
	assert.True(t, crows.HasActiveTreaty())
	assert.Equal(t, 2.0, g.pool.DivineFavor)
	assert.Equal(t, 0.2, g.coefficients().HeresyReductionFraction)

	g.pool.DivineFavor = 20
	res = g.ProposeTreaty("crows")
	assert.ErrorIs(t, res.Err, ErrInvalidTransition)

	social.Find(g.factions, "seagulls").Status = social.Rivalry
	res = g.ProposeTreaty("seagulls")
	assert.ErrorIs(t, res.Err, ErrInvalidTransition)
	assert.Equal(t, 20.0, g.pool.DivineFavor)

	assert.ErrorIs(t, g.ProposeTreaty("badgers").Err, ErrInvalidReference)
}

func TestCommands(t *testing.T) {
	t.Run("upgrade building", func(t *testing.T) {
		g := newTestGame(t)
		res := g.UpgradeBuilding("bld-crumb-silo")
		require.True(t, res.OK, res.Message)
		assert.Equal(t, 1, g.building("bld-crumb-silo").Level)
		assert.Equal(t, 0.0, g.pool.Crumbs)

		g.pool.Crumbs = 27
		assert.ErrorIs(t, g.UpgradeBuilding("bld-crumb-silo").Err, ErrInsufficientResources)
		g.pool.Crumbs = 28
		assert.True(t, g.UpgradeBuilding("bld-crumb-silo").OK)

		assert.ErrorIs(t, g.UpgradeBuilding("bld-moon-base").Err, ErrInvalidReference)
	})

	t.Run("dogma is offered once", func(t *testing.T) {
		g := newTestGame(t)
		assert.ErrorIs(t, g.SelectDogma("dogma-endless-coo").Err, ErrInvalidTransition)

		g.dogmaOffered = true
		assert.ErrorIs(t, g.SelectDogma("dogma-nonsense").Err, ErrInvalidReference)
		require.True(t, g.SelectDogma("dogma-endless-coo").OK)
		assert.ErrorIs(t, g.SelectDogma("dogma-iron-wing").Err, ErrInvalidTransition)

		g.rival.Defeated = true
		g.Tick()
		assert.InDelta(t, 10.1, g.pool.Faith, 1e-9)
	})

	t.Run("dialogue chain", func(t *testing.T) {
		g := newTestGame(t)
		g.pool.Crumbs = 100
		require.True(t, g.StartDialogue("rats-intro").OK)

		res := g.ResolveDialogueChoice(0)
		require.True(t, res.OK)
		assert.Equal(t, 50.0, g.pool.Crumbs)
		assert.Equal(t, "rats-tribute", g.activeDialogue)

		require.True(t, g.ResolveDialogueChoice(0).OK)
		assert.Equal(t, -30.0, social.Find(g.factions, "rats").Relationship)
		assert.Empty(t, g.activeDialogue)

		assert.ErrorIs(t, g.ResolveDialogueChoice(0).Err, ErrInvalidTransition)

		g.StartDialogue("rats-intro")
		assert.ErrorIs(t, g.ResolveDialogueChoice(9).Err, ErrInvalidReference)
		assert.ErrorIs(t, g.StartDialogue("nobody-intro").Err, ErrInvalidReference)
	})

	t.Run("inbox", func(t *testing.T) {
		g := newTestGame(t)
		g.queueMessage("ghost-letter")
		g.queueMessage("event-001")
		g.queueMessage("event-001")

		require.True(t, g.OpenNextMessage().OK)
		assert.Equal(t, "event-001", g.activeDialogue)
		assert.ErrorIs(t, g.OpenNextMessage().Err, ErrInvalidTransition)
	})

	t.Run("loot box", func(t *testing.T) {
		g := newTestGame(t)
		assert.ErrorIs(t, g.OpenLootBox("coocoo_crate").Err, ErrInvalidReference)

		g.apply(effects.Effect{Kind: effects.GainLootBox, Ref: "coocoo_crate"}, "test")
		require.Equal(t, []string{"coocoo_crate"}, g.lootBoxes)

		g.rng = fixedRoll(0)
		res := g.OpenLootBox("coocoo_crate")
		require.True(t, res.OK)
		assert.Equal(t, []effects.Effect{effects.New(effects.GainCrumbs, 50)}, res.Effects)
		assert.Equal(t, 75.0, g.pool.Crumbs)
		assert.Empty(t, g.lootBoxes)
	})

	t.Run("followers", func(t *testing.T) {
		g := newTestGame(t)
		founder := g.followers[0]
		devotion := founder.Devotion

		require.True(t, g.PraiseFollower(founder.ID).OK)
		assert.Equal(t, math.Min(100, devotion+10), founder.Devotion)

		require.True(t, g.Excommunicate(founder.ID).OK)
		assert.Empty(t, g.followers)
		assert.ErrorIs(t, g.Excommunicate(founder.ID).Err, ErrInvalidReference)
	})
}

func TestQuestChain(t *testing.T) {
	g := newTestGame(t)

	g.followers = append(g.followers, g.spawner.Recruit(4)...)
	g.Tick()
	require.NotNil(t, g.quest)
	assert.Equal(t, "quest-002", g.quest.ID)
	assert.Equal(t, 1.0, g.pool.DivineFavor)
	assert.True(t, g.dogmaOffered)

	g.quest = quest.Find(g.cat.Quests, "quest-003")
	g.rival.Faith = 0
	g.Tick()
	assert.True(t, g.rival.Defeated)
	require.NotNil(t, g.boss)
	assert.Equal(t, "quest-004", g.quest.ID)

	g.boss.Faith = 0
	g.Tick()
	assert.Nil(t, g.boss)
	assert.True(t, g.bossDefeated)
	assert.Nil(t, g.quest)
	assert.Equal(t, 16.0, g.pool.DivineFavor)
}

func TestAITurn(t *testing.T) {
	t.Run("rival plays against the player", func(t *testing.T) {
		g := newTestGame(t)
		g.rng = fixedRoll(0.9)
		g.forecaster.Threshold = 2
		sermon, ok := g.cat.Card("rival-002")
		require.True(t, ok)
		g.rival.Faith = 1
		g.rival.Piles = cards.Piles{Hand: []*cards.Card{sermon}}

		rep := g.AITurn()
		assert.Contains(t, rep.Action, "Gutter Sermon")
		assert.Equal(t, 2.0, g.pool.Faith)
		assert.Equal(t, 1.0, g.rival.Faith)
		assert.Equal(t, 1, g.rival.Piles.Total())
	})

	t.Run("rival knocked out between ticks stays down", func(t *testing.T) {
		g := newTestGame(t)
		g.rival.Faith = 8
		g.rival.Piles = cards.Piles{}
		g.piles = cards.Piles{Hand: []*cards.Card{testCard("t-smite", economy.Faith, 0, effects.New(effects.DamageRival, 10))}}
		require.True(t, g.PlayCard("t-smite").OK)
		require.Zero(t, g.rival.Faith)

		rep := g.AITurn()
		assert.Empty(t, rep.Action)
		assert.True(t, g.rival.Defeated)
		assert.Zero(t, g.rival.Faith)

		g.Tick()
		assert.True(t, g.rival.Defeated)
		assert.Zero(t, g.rival.Faith)
	})

	t.Run("boss knocked out between ticks falls", func(t *testing.T) {
		g := newTestGame(t)
		g.rival.Defeated = true
		g.summonBoss()
		require.NotNil(t, g.boss)
		g.boss.Faith = 0

		rep := g.AITurn()
		assert.Empty(t, rep.Action)
		assert.Nil(t, g.boss)
		assert.True(t, g.bossDefeated)
	})

	t.Run("defeated rival idles", func(t *testing.T) {
		g := newTestGame(t)
		g.rival.Defeated = true
		faith := g.rival.Faith
		rep := g.AITurn()
		assert.Empty(t, rep.Action)
		assert.Equal(t, faith, g.rival.Faith)
	})

	t.Run("seeded turns repeat", func(t *testing.T) {
		a, b := newTestGame(t), newTestGame(t)
		for range 5 {
			ra, rb := a.AITurn(), b.AITurn()
			assert.Equal(t, ra.Action, rb.Action)
		}
		assert.Equal(t, a.rival.Faith, b.rival.Faith)
		assert.Equal(t, cards.IDs(a.rival.Piles.Hand), cards.IDs(b.rival.Piles.Hand))
		assert.Equal(t, a.pool, b.pool)
	})
}

func TestSnapshotIsolation(t *testing.T) {
	g := newTestGame(t)
	s := g.Snapshot()
	s.Followers[0].Devotion = -1
	s.Factions[0].Treaties[0].Active = true
	s.Rival.Piles.Hand = nil

	assert.NotEqual(t, -1.0, g.followers[0].Devotion)
	assert.False(t, g.factions[0].Treaties[0].Active)
	assert.Len(t, g.rival.Piles.Hand, cards.MaxHandSize)
}

func mustRelic(t *testing.T, g *Game, id string) *catalog.Relic {
	t.Helper()
	r, ok := g.cat.Relic(id)
	require.True(t, ok)
	return r
}

func weatherStart(t *testing.T, g *Game, id string) *weather.Active {
	t.Helper()
	for _, def := range g.cat.Weather {
		if def.ID == id {
			return weather.Start(def, TicksPerSecond)
		}
	}
	t.Fatalf("no weather %s", id)
	return nil
}
