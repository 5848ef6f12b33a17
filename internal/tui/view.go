package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"splitbook/internal/core"
	"splitbook/internal/view"
)

type Styles struct {
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	OwedStyle   lipgloss.Style
	OweStyle    lipgloss.Style
	Cursor      lipgloss.Style
	Muted       lipgloss.Style
	ErrorStyle  lipgloss.Style
	Overlay     lipgloss.Style
}

func defaultStyles() Styles {
	return Styles{
		TabActive:   lipgloss.NewStyle().Bold(true).Underline(true),
		TabInactive: lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")),
		OwedStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00af5f")),
		OweStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("#d75f5f")),
		Cursor:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d29b1d")),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")),
		ErrorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")),
		Overlay:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2),
	}
}

var styles = defaultStyles()

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")

	switch m.mode {
	case modeConfirm:
		b.WriteString(m.confirmView())
	case modeForm:
		b.WriteString(m.formView())
	case modePayment:
		b.WriteString(m.paymentView())
	case modeQuick:
		b.WriteString(m.quickView())
	default:
		b.WriteString(m.listView())
	}

	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) headerView() string {
	active := styles.TabInactive.Render("Active")
	settled := styles.TabInactive.Render("Settled")
	if m.state.Tab == view.TabActive {
		active = styles.TabActive.Render("Active")
	} else {
		settled = styles.TabActive.Render("Settled")
	}
	tabs := active + "  " + settled

	s := m.state.Stats
	stats := fmt.Sprintf("%s %s   %s %s   Net %s",
		styles.OwedStyle.Render("Owed to you"), s.OwedToYou.Format(),
		styles.OweStyle.Render("You owe"), s.YouOwe.Format(),
		s.Net.Format())

	line := tabs + "    " + stats
	if m.searching || m.filter.Query != "" {
		line += "\n" + m.searchInput.View()
	}
	if m.state.Tab == view.TabActive && m.filter.Direction != view.FilterAll {
		line += "\n" + styles.Muted.Render("filter: "+string(m.filter.Direction))
	}
	if m.filter.Sort != view.SortNewest {
		line += "\n" + styles.Muted.Render("sort: "+string(m.filter.Sort))
	}
	return line
}

func (m Model) listView() string {
	if m.state.Err != nil {
		return styles.ErrorStyle.Render(m.state.Err.Error()) +
			"\n" + styles.Muted.Render("press r to retry")
	}
	if m.state.Loading && len(m.items) == 0 {
		return styles.Muted.Render("Loading...")
	}
	if len(m.items) == 0 {
		return styles.Muted.Render(m.emptyMessage())
	}

	var b strings.Builder
	for i, item := range m.items {
		prefix := "  "
		line := m.itemLine(item)
		if i == m.cursor {
			prefix = styles.Cursor.Render("> ")
			line = styles.Cursor.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}
	if m.actionErr != nil {
		b.WriteString("\n" + styles.ErrorStyle.Render(m.actionErr.Error()))
	}
	return b.String()
}

func (m Model) emptyMessage() string {
	if m.filter.Query != "" {
		return "No results matching your search"
	}
	if m.state.Tab == view.TabSettled {
		return "No settled dues"
	}
	return "No active dues"
}

func (m Model) itemLine(item view.Item) string {
	if item.Kind == view.KindGroup {
		names := make([]string, 0, len(item.Members))
		for _, ob := range item.Members {
			names = append(names, ob.PersonName)
		}
		return fmt.Sprintf("%s  %s of %s  %s",
			strings.Join(names, ", "),
			item.TotalRemaining.Format(), item.TotalAmount.Format(),
			styles.Muted.Render("split"))
	}

	ob := item.Obligation
	dir := styles.OwedStyle.Render("owes you")
	if ob.Direction == core.IOwe {
		dir = styles.OweStyle.Render("you owe")
	}
	line := fmt.Sprintf("%s  %s  %s of %s",
		ob.PersonName, dir, ob.RemainingAmount.Format(), ob.TotalAmount.Format())
	if ob.Type == core.Recurring {
		line += "  " + styles.Muted.Render(ob.ExpectedPerCycle.Format()+"/mo")
	}
	if ob.Note != "" {
		line += "  " + styles.Muted.Render(ob.Note)
	}
	return line
}

func (m Model) confirmView() string {
	body := m.confirm.Message + "\n\n" + styles.Muted.Render("y to confirm, n to cancel")
	if m.actionErr != nil {
		body += "\n" + styles.ErrorStyle.Render(m.actionErr.Error())
	}
	return styles.Overlay.Render(body)
}

func (m Model) formView() string {
	f := m.form
	var b strings.Builder
	if f.editing != nil {
		b.WriteString("Edit dues\n\n")
	} else {
		b.WriteString("Add split\n\n")
		b.WriteString(fmt.Sprintf("direction: %s (ctrl+d)   type: %s (ctrl+o)\n\n",
			f.direction, f.obType))
	}
	for i, in := range f.inputs {
		if f.obType == core.OneTime && f.labels[i] == "Monthly deduction (₹)" {
			continue
		}
		b.WriteString(f.labels[i] + "\n" + in.View() + "\n")
	}
	if m.actionErr != nil {
		b.WriteString("\n" + styles.ErrorStyle.Render(m.actionErr.Error()))
	}
	b.WriteString("\n" + styles.Muted.Render("enter to advance/submit, esc to cancel"))
	return styles.Overlay.Render(b.String())
}

func (m Model) paymentView() string {
	p := m.payment
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Record payment for %s (%s remaining)\n\n",
		p.target.PersonName, p.target.RemainingAmount.Format()))
	for i, in := range p.inputs {
		b.WriteString(p.labels[i] + "\n" + in.View() + "\n")
	}
	if m.actionErr != nil {
		b.WriteString("\n" + styles.ErrorStyle.Render(m.actionErr.Error()))
	}
	b.WriteString("\n" + styles.Muted.Render("enter to advance/submit, esc to cancel"))
	return styles.Overlay.Render(b.String())
}

func (m Model) quickView() string {
	var b strings.Builder
	b.WriteString("Quick add\n\n")
	b.WriteString(m.quickInput.View() + "\n")
	b.WriteString(styles.Muted.Render("names, amount, optional \"monthly <amount>\" and \"for <note>\""))
	if m.actionErr != nil {
		b.WriteString("\n" + styles.ErrorStyle.Render(m.actionErr.Error()))
	}
	b.WriteString("\n" + styles.Muted.Render("enter to submit, esc to cancel"))
	return styles.Overlay.Render(b.String())
}

func (m Model) footerView() string {
	return styles.Muted.Render(
		"tab switch · / search · s sort · f filter · a add · c quick add · e edit · p pay · m settle · x delete · q quit")
}
