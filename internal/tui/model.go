// Package tui is the terminal frontend: tab bar, summary header, the
// filtered obligation list, and the confirm/add/edit/payment overlays. All
// ledger state lives in view.Store; the model only holds presentation
// state and re-reads the store on every update notification.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"splitbook/internal/core"
	"splitbook/internal/poller"
	"splitbook/internal/quickadd"
	"splitbook/internal/view"
	"splitbook/internal/workflow"
)

// StoreUpdated signals that the poller merged a fetch result; the model
// re-reads the store. Sent from outside the program via Program.Send.
type StoreUpdated struct{}

// actionDone reports a finished mutation command.
type actionDone struct{ err error }

type mode int

const (
	modeList mode = iota
	modeConfirm
	modeForm
	modePayment
	modeQuick
)

type Model struct {
	store    *view.Store
	poller   *poller.Poller
	workflow *workflow.Workflow

	state  view.State
	filter view.Filter
	items  []view.Item
	cursor int

	mode    mode
	confirm *workflow.Confirmation
	form    *formModel
	payment *paymentModel

	searching   bool
	searchInput textinput.Model
	quickInput  textinput.Model

	actionErr error
	width     int
	height    int
}

func New(store *view.Store, p *poller.Poller, w *workflow.Workflow) Model {
	si := textinput.New()
	si.Placeholder = "search by name"
	si.CharLimit = 50
	si.Width = 30

	qi := textinput.New()
	qi.Placeholder = "Rahul and Priya 900 for dinner"
	qi.CharLimit = 200
	qi.Width = 50

	m := Model{
		store:       store,
		poller:      p,
		workflow:    w,
		filter:      view.Filter{Direction: view.FilterAll, Sort: view.SortNewest},
		searchInput: si,
		quickInput:  qi,
	}
	m.rebuild()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) rebuild() {
	m.state = m.store.View()
	m.items = view.BuildItems(m.state.Obligations, m.filter, m.state.Tab)
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (view.Item, bool) {
	if len(m.items) == 0 || m.cursor >= len(m.items) {
		return view.Item{}, false
	}
	return m.items[m.cursor], true
}

// selectedObligation resolves the row under the cursor to one obligation.
// Group rows act on their first member.
func (m Model) selectedObligation() (core.Obligation, bool) {
	item, ok := m.selected()
	if !ok {
		return core.Obligation{}, false
	}
	if item.Kind == view.KindGroup {
		if len(item.Members) == 0 {
			return core.Obligation{}, false
		}
		return item.Members[0], true
	}
	return item.Obligation, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StoreUpdated:
		m.rebuild()
		return m, nil

	case actionDone:
		m.actionErr = msg.err
		if msg.err == nil {
			m.mode = modeList
			m.confirm = nil
			m.form = nil
			m.payment = nil
			m.quickInput.Blur()
			m.quickInput.SetValue("")
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeForm:
			return m.updateForm(msg)
		case modePayment:
			return m.updatePayment(msg)
		case modeQuick:
			return m.updateQuick(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		next := view.TabSettled
		if m.state.Tab == view.TabSettled {
			next = view.TabActive
		}
		m.poller.SelectTab(context.Background(), next)
		m.cursor = 0
		m.rebuild()
		return m, nil

	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "/":
		m.searching = true
		m.searchInput.Focus()
		return m, textinput.Blink

	case "s":
		m.filter.Sort = nextSort(m.filter.Sort)
		m.rebuild()
		return m, nil

	case "f":
		if m.state.Tab == view.TabActive {
			m.filter.Direction = nextDirection(m.filter.Direction)
			m.rebuild()
		}
		return m, nil

	case "r":
		if m.state.Err != nil {
			m.poller.Retry(context.Background())
			m.rebuild()
		}
		return m, nil

	case "a":
		m.actionErr = nil
		m.form = newAddForm()
		m.mode = modeForm
		return m, m.form.focusCmd()

	case "c":
		m.actionErr = nil
		m.mode = modeQuick
		m.quickInput.Focus()
		return m, textinput.Blink

	case "e":
		ob, ok := m.selectedObligation()
		if !ok || !ob.IsActive() {
			return m, nil
		}
		m.actionErr = nil
		m.form = newEditForm(ob)
		m.mode = modeForm
		return m, m.form.focusCmd()

	case "p":
		ob, ok := m.selectedObligation()
		if !ok || !ob.IsActive() {
			return m, nil
		}
		m.actionErr = nil
		m.payment = newPaymentForm(ob)
		m.mode = modePayment
		return m, m.payment.focusCmd()

	case "m":
		ob, ok := m.selectedObligation()
		if !ok || !ob.IsActive() {
			return m, nil
		}
		m.actionErr = nil
		m.confirm = m.workflow.ConfirmSettle(ob)
		m.mode = modeConfirm
		return m, nil

	case "x":
		ob, ok := m.selectedObligation()
		if !ok {
			return m, nil
		}
		m.actionErr = nil
		m.confirm = m.workflow.ConfirmDelete(ob)
		m.mode = modeConfirm
		return m, nil
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.filter.Query = ""
		m.rebuild()
		return m, nil
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.filter.Query = m.searchInput.Value()
	m.rebuild()
	return m, cmd
}

// updateQuick handles the one-line quick-add phrase. Parse failures and
// workflow errors both land in actionErr with the input kept open for
// another try.
func (m Model) updateQuick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.quickInput.Blur()
		m.quickInput.SetValue("")
		m.actionErr = nil
		return m, nil
	case "enter":
		draft, err := quickadd.Parse(m.quickInput.Value())
		if err != nil {
			m.actionErr = err
			return m, nil
		}
		w := m.workflow
		return m, func() tea.Msg {
			return actionDone{err: w.CreateSplit(context.Background(), draft)}
		}
	}
	var cmd tea.Cmd
	m.quickInput, cmd = m.quickInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		confirm := m.confirm
		return m, func() tea.Msg {
			return actionDone{err: confirm.Confirm(context.Background())}
		}
	case "n", "esc":
		m.confirm = nil
		m.mode = modeList
		return m, nil
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form = nil
		m.mode = modeList
		return m, nil
	case "enter":
		if !m.form.onLastField() {
			return m, m.form.nextField()
		}
		form := m.form
		w := m.workflow
		return m, func() tea.Msg {
			return actionDone{err: form.submit(context.Background(), w)}
		}
	case "tab", "shift+tab", "up", "down":
		return m, m.form.cycleField(msg.String())
	}
	var cmd tea.Cmd
	m.form.update(msg, &cmd)
	return m, cmd
}

func (m Model) updatePayment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.payment = nil
		m.mode = modeList
		return m, nil
	case "enter":
		if !m.payment.onLastField() {
			return m, m.payment.nextField()
		}
		payment := m.payment
		w := m.workflow
		return m, func() tea.Msg {
			return actionDone{err: payment.submit(context.Background(), w)}
		}
	case "tab", "shift+tab", "up", "down":
		return m, m.payment.cycleField(msg.String())
	}
	var cmd tea.Cmd
	m.payment.update(msg, &cmd)
	return m, cmd
}

func nextSort(s view.SortOrder) view.SortOrder {
	switch s {
	case view.SortNewest:
		return view.SortAmount
	case view.SortAmount:
		return view.SortName
	default:
		return view.SortNewest
	}
}

func nextDirection(d view.DirectionFilter) view.DirectionFilter {
	switch d {
	case view.FilterAll:
		return view.FilterOwesMe
	case view.FilterOwesMe:
		return view.FilterIOwe
	default:
		return view.FilterAll
	}
}
