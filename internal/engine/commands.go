package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/social"
)

// Command failures. Validation always runs before any mutation, so a
// failed command leaves state untouched.
var (
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrInvalidReference      = errors.New("invalid reference")
	ErrInvalidTransition     = errors.New("invalid transition")
)

// Result is what every command returns to the presentation layer.
type Result struct {
	OK      bool             `json:"ok"`
	Message string           `json:"message,omitempty"`
	Err     error            `json:"-"`
	Effects []effects.Effect `json:"effects,omitempty"`
}

func ok(msg string) Result {
	return Result{OK: true, Message: msg}
}

func fail(err error, format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...), Err: err}
}

// cardCost is the effective price of a card under current inflation and
// dogma.
func (g *Game) cardCost(c *cards.Card) float64 {
	cost := economy.InflatedCost(c.Cost.Amount, g.pool.Inflation)
	if c.Cost.Resource == economy.Crumbs {
		if d := g.dogmaValue(effects.CrumbGainMultiplier, 0); d > 0 {
			cost = math.Round(cost / d)
		}
	}
	return cost
}

// PlayCard resolves the first card in hand with the given ID.
func (g *Game) PlayCard(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	card, found := g.piles.FindInHand(id)
	if !found {
		return fail(ErrInvalidReference, "That card is not in your hand.")
	}
	cost := g.cardCost(card)
	if g.pool.Get(card.Cost.Resource) < cost {
		return fail(ErrInsufficientResources, "Not enough %s to play %s.", card.Cost.Resource, card.Name)
	}

	g.pool.Add(card.Cost.Resource, -cost)
	source := "Card: " + card.Name
	conflict := g.dogmaValue(effects.ConflictDamageMultiplier, 0)
	bonuses := g.cardBonuses(card)
	for _, e := range card.Effects {
		if conflict > 0 && e.Kind == effects.DamageRival {
			e.Value = math.Round(e.Value * conflict)
		}
		for _, b := range bonuses {
			e = b.Adjust(e)
		}
		g.apply(e, source)
	}
	for _, b := range bonuses {
		g.applyAll(b.Extra, source)
	}

	g.piles.DiscardFromHand(card.ID)
	g.piles.Draw(1, g.rng)
	g.cardsPlayed++
	g.record(fmt.Sprintf("Played '%s'.", card.Name), CategoryCard)
	return Result{OK: true, Message: fmt.Sprintf("Played '%s'.", card.Name), Effects: card.Effects}
}

// DrawCards draws up to n cards and returns how many were drawn.
func (g *Game) DrawCards(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.piles.Draw(n, g.rng)
}

// UpgradeBuilding raises a building one level at its inflated cost.
func (g *Game) UpgradeBuilding(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := g.building(id)
	if b == nil {
		return fail(ErrInvalidReference, "No such building.")
	}
	cost := economy.InflatedCost(b.UpgradeCost(), g.pool.Inflation)
	if g.pool.Get(b.CostResource) < cost {
		return fail(ErrInsufficientResources, "Not enough %s to upgrade %s.", b.CostResource, b.Name)
	}
	g.pool.Add(b.CostResource, -cost)
	b.Level++
	msg := fmt.Sprintf("Upgraded %s to level %d for %s %s.", b.Name, b.Level, humanize.Comma(int64(cost)), b.CostResource)
	g.record(msg, CategoryEconomy)
	return ok(msg)
}

// ProposeTreaty activates the faction's next inactive treaty.
func (g *Game) ProposeTreaty(factionID string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	f := social.Find(g.factions, factionID)
	if f == nil {
		return fail(ErrInvalidReference, "No such faction.")
	}
	if f.Status == social.Rivalry {
		return fail(ErrInvalidTransition, "%s will not negotiate with a rival.", f.Name)
	}
	t := f.NextTreaty()
	if t == nil {
		return fail(ErrInvalidTransition, "There are no more treaties to sign with %s.", f.Name)
	}
	if g.pool.DivineFavor < social.TreatyFavorCost || f.Relationship < social.TreatyRelationshipMin {
		return fail(ErrInsufficientResources, "%s is not willing to sign the %s. Improve relations or gain more Divine Favor.", f.Name, t.Name)
	}
	g.pool.Add(economy.DivineFavor, -social.TreatyFavorCost)
	t.Active = true
	msg := fmt.Sprintf("Signed the %s with %s!", t.Name, f.Name)
	g.record(msg, CategoryFaction)
	slog.Info("treaty signed", "faction", f.ID, "treaty", t.ID)
	return ok(msg)
}

// SelectDogma adopts a dogma. It is offered once and may be chosen once.
func (g *Game) SelectDogma(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dogma != nil {
		return fail(ErrInvalidTransition, "A Dogma has already been declared.")
	}
	if !g.dogmaOffered {
		return fail(ErrInvalidTransition, "The flock is not ready for a Dogma.")
	}
	d, found := g.cat.Dogma(id)
	if !found {
		return fail(ErrInvalidReference, "No such Dogma.")
	}
	g.dogma = d
	g.dogmaOffered = false
	msg := fmt.Sprintf("You have declared the %s.", d.Name)
	g.record(msg, CategorySystem)
	return ok(msg)
}

// StartDialogue opens a dialogue by ID.
func (g *Game) StartDialogue(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	d, found := g.cat.Dialogue(id)
	if !found {
		return fail(ErrInvalidReference, "No such dialogue.")
	}
	g.activeDialogue = d.ID
	return ok(d.Text)
}

// OpenNextMessage moves the oldest queued message into the active dialogue.
func (g *Game) OpenNextMessage() Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	for len(g.inbox) > 0 {
		id := g.inbox[0]
		g.inbox = g.inbox[1:]
		d, found := g.cat.Dialogue(id)
		if !found {
			slog.Warn("queued message has no dialogue", "id", id)
			continue
		}
		g.activeDialogue = d.ID
		return ok(d.Text)
	}
	return fail(ErrInvalidTransition, "No new messages.")
}

// ResolveDialogueChoice applies the chosen option of the active dialogue
// and follows its next link.
func (g *Game) ResolveDialogueChoice(option int) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.activeDialogue == "" {
		return fail(ErrInvalidTransition, "No conversation is open.")
	}
	d, found := g.cat.Dialogue(g.activeDialogue)
	if !found {
		g.activeDialogue = ""
		return fail(ErrInvalidReference, "The conversation has vanished.")
	}
	if option < 0 || option >= len(d.Options) {
		return fail(ErrInvalidReference, "No such option.")
	}

	opt := d.Options[option]
	g.applyAll(opt.Effects, "Dialogue: "+d.Speaker)
	g.activeDialogue = ""
	if opt.NextID != "" {
		if _, found := g.cat.Dialogue(opt.NextID); found {
			g.activeDialogue = opt.NextID
		} else {
			slog.Warn("dialogue option points nowhere", "dialogue", d.ID, "next", opt.NextID)
		}
	}
	return Result{OK: true, Message: opt.Text, Effects: opt.Effects}
}

// OpenLootBox opens one owned loot box, applies its contents and returns them.
func (g *Game) OpenLootBox(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := -1
	for i, owned := range g.lootBoxes {
		if owned == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fail(ErrInvalidReference, "You do not own that loot box.")
	}
	out, found := g.cat.OpenLootBox(id, g.rng)
	if !found {
		return fail(ErrInvalidReference, "That loot box cannot be opened.")
	}
	g.lootBoxes = append(g.lootBoxes[:idx:idx], g.lootBoxes[idx+1:]...)
	g.applyAll(out, "Loot Box")
	box, _ := g.cat.LootBox(id)
	msg := fmt.Sprintf("Opened the %s!", box.Name)
	g.record(msg, CategorySystem)
	return Result{OK: true, Message: msg, Effects: out}
}

// PraiseFollower raises one follower's devotion and loyalty.
func (g *Game) PraiseFollower(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, f := range g.followers {
		if f.ID == id {
			f.Praise()
			return ok(fmt.Sprintf("%s coos with delight.", f.Name))
		}
	}
	return fail(ErrInvalidReference, "No such follower.")
}

// Excommunicate removes a follower from the flock.
func (g *Game) Excommunicate(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, f := range g.followers {
		if f.ID == id {
			g.followers = append(g.followers[:i:i], g.followers[i+1:]...)
			msg := fmt.Sprintf("%s has been cast out of the flock.", f.Name)
			g.record(msg, CategoryFlock)
			return ok(msg)
		}
	}
	return fail(ErrInvalidReference, "No such follower.")
}

// UseBossAbility fires one of the boss's specials against the player. The
// ability then cools down for its configured number of AI turns.
func (g *Game) UseBossAbility(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.boss == nil {
		return fail(ErrInvalidTransition, "There is no boss in the skies.")
	}
	a, found := g.boss.Ability(id)
	if !found {
		return fail(ErrInvalidReference, "The boss has no such ability.")
	}
	name, list := a.Name, a.Effects
	if !g.boss.UseAbility(id, int(g.aiTurn)) {
		return fail(ErrInvalidTransition, "%s is still recharging.", name)
	}

	g.applyAll(list, g.boss.Name)
	msg := fmt.Sprintf("%s unleashes %s!", g.boss.Name, name)
	g.record(msg, CategoryCombat)
	return Result{OK: true, Message: msg, Effects: list}
}
