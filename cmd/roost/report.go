package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/talgya/pigeon-pope/internal/engine"
	"github.com/talgya/pigeon-pope/internal/persistence"
)

func amount(v float64) string {
	return humanize.CommafWithDigits(v, 1)
}

func rate(v float64) string {
	return fmt.Sprintf("%+.2f/s", v)
}

func printSummary(w io.Writer, s engine.Snapshot) {
	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)

	titleColor.Fprintln(w, "\n╭──────────────────────────╮")
	titleColor.Fprintln(w, "│  The Roost               │")
	titleColor.Fprintln(w, "╰──────────────────────────╯")
	fmt.Fprintf(w, "Tick %s  (%s game time)  Level %d  Followers %d  Cards played %d\n",
		humanize.Comma(int64(s.Tick)), engine.GameTime(s.Tick), s.Player.Level, len(s.Followers), s.CardsPlayed)
	if s.Dogma != nil {
		fmt.Fprintf(w, "Dogma: %s\n", s.Dogma.Name)
	}
	if s.Weather != nil {
		infoColor.Fprintf(w, "Weather: %s (%ds left)\n", s.Weather.Name, s.Weather.Remaining/engine.TicksPerSecond)
	}

	fmt.Fprintln(w, "\n📊 Resources:")
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Resource", "Held", "Rate"}))
	table.Append([]string{"Faith", amount(s.Resources.Faith), rate(s.Rates.Faith)})
	table.Append([]string{"Crumbs", amount(s.Resources.Crumbs), rate(s.Rates.Crumbs)})
	table.Append([]string{"Bread-coin", amount(s.Resources.BreadCoin), rate(s.Rates.BreadCoin)})
	table.Append([]string{"Divine favor", amount(s.Resources.DivineFavor), ""})
	table.Append([]string{"Morale", amount(s.Resources.Morale), rate(-s.Rates.Heresy)})
	table.Append([]string{"Inflation", fmt.Sprintf("×%.4f", s.Resources.Inflation), ""})
	table.Render()

	fmt.Fprintln(w, "\n🏛  Buildings:")
	table = tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Building", "Level", "Produces", "Next upgrade"}))
	for _, b := range s.Buildings {
		table.Append([]string{
			b.Name,
			strconv.Itoa(b.Level),
			fmt.Sprintf("%s %s/s", amount(b.Production), b.ProductionType),
			fmt.Sprintf("%s %s", amount(b.UpgradeCost), b.CostResource),
		})
	}
	table.Render()

	fmt.Fprintln(w, "\n🐀 Factions:")
	table = tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Faction", "Relationship", "Status", "Treaties"}))
	for _, f := range s.Factions {
		active := 0
		for _, t := range f.Treaties {
			if t.Active {
				active++
			}
		}
		table.Append([]string{f.Name, fmt.Sprintf("%.0f", f.Relationship), string(f.Status), fmt.Sprintf("%d/%d", active, len(f.Treaties))})
	}
	table.Render()

	fmt.Fprintln(w, "\n⚔️  Opposition:")
	table = tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Combatant", "Faith", "Heresy/s", "State"}))
	state := "active"
	if s.Rival.Defeated {
		state = "defeated"
	}
	table.Append([]string{s.Rival.Name, amount(s.Rival.Faith), fmt.Sprintf("%.2f", s.Rival.HeresyPerSecond), state})
	if s.Boss != nil {
		table.Append([]string{s.Boss.Name, amount(s.Boss.Faith), fmt.Sprintf("%.2f", s.Boss.HeresyPerSecond), "boss"})
	}
	table.Render()

	if s.Quest != nil {
		fmt.Fprintf(w, "\n📜 Quest: %s\n", s.Quest.Name)
	} else {
		color.New(color.FgGreen).Fprintln(w, "\n📜 Every quest is complete.")
	}

	fmt.Fprintln(w, "\n📖 Recent chronicle:")
	events := s.Chronicle
	if len(events) > 8 {
		events = events[len(events)-8:]
	}
	for _, e := range events {
		fmt.Fprintf(w, "   [%s] %s\n", engine.GameTime(e.Tick), e.Description)
	}
}

func printSlots(w io.Writer, slots []persistence.SlotInfo) {
	if len(slots) == 0 {
		return
	}
	fmt.Fprintln(w, "💾 Save slots:")
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Slot", "Version", "Tick", "Saved", "Size"}))
	for _, sl := range slots {
		table.Append([]string{
			sl.Slot,
			strconv.Itoa(sl.Version),
			humanize.Comma(int64(sl.Tick)),
			humanize.Time(sl.SavedAt),
			humanize.Bytes(uint64(sl.Size)),
		})
	}
	table.Render()
}
