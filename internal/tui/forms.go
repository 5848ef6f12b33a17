package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"splitbook/internal/core"
	"splitbook/internal/workflow"
)

// formModel backs both the add-split and edit overlays. Direction and type
// are fixed at creation time for edits; for adds they cycle with ctrl+d
// and ctrl+o.
type formModel struct {
	editing   *core.Obligation
	direction core.Direction
	obType    core.ObligationType
	labels    []string
	inputs    []textinput.Model
	focus     int
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 40
	return in
}

func newAddForm() *formModel {
	return &formModel{
		direction: core.OwesMe,
		obType:    core.OneTime,
		labels:    []string{"Names (comma-separated)", "Total amount (₹)", "Monthly deduction (₹)", "Note"},
		inputs: []textinput.Model{
			newInput("Rahul, Ananya", 200),
			newInput("900", 15),
			newInput("leave empty for one-time", 15),
			newInput("optional", 200),
		},
	}
}

func newEditForm(ob core.Obligation) *formModel {
	target := ob
	f := &formModel{
		editing:   &target,
		direction: ob.Direction,
		obType:    ob.Type,
		labels:    []string{"Name", "Total amount (₹)", "Monthly deduction (₹)", "Note"},
		inputs: []textinput.Model{
			newInput("", 50),
			newInput("", 15),
			newInput("", 15),
			newInput("", 200),
		},
	}
	f.inputs[0].SetValue(ob.PersonName)
	f.inputs[1].SetValue(formatAmountInput(ob.TotalAmount))
	if ob.ExpectedPerCycle > 0 {
		f.inputs[2].SetValue(formatAmountInput(ob.ExpectedPerCycle))
	}
	f.inputs[3].SetValue(ob.Note)
	return f
}

func (f *formModel) focusCmd() tea.Cmd {
	f.inputs[f.focus].Focus()
	return textinput.Blink
}

func (f *formModel) onLastField() bool {
	return f.focus == len(f.inputs)-1
}

func (f *formModel) nextField() tea.Cmd {
	return f.setFocus(f.focus + 1)
}

func (f *formModel) cycleField(key string) tea.Cmd {
	delta := 1
	if key == "shift+tab" || key == "up" {
		delta = -1
	}
	return f.setFocus(f.focus + delta)
}

func (f *formModel) setFocus(idx int) tea.Cmd {
	delta := 1
	if idx < f.focus {
		delta = -1
	}
	if idx < 0 {
		idx = len(f.inputs) - 1
	}
	if idx >= len(f.inputs) {
		idx = 0
	}
	// The per-cycle field is hidden for one-time splits.
	if idx == 2 && f.obType == core.OneTime {
		idx += delta
		if idx < 0 {
			idx = len(f.inputs) - 1
		}
		if idx >= len(f.inputs) {
			idx = 0
		}
	}
	f.inputs[f.focus].Blur()
	f.focus = idx
	f.inputs[f.focus].Focus()
	return textinput.Blink
}

func (f *formModel) update(msg tea.KeyMsg, cmd *tea.Cmd) {
	if f.editing == nil {
		switch msg.String() {
		case "ctrl+d":
			if f.direction == core.OwesMe {
				f.direction = core.IOwe
			} else {
				f.direction = core.OwesMe
			}
			return
		case "ctrl+o":
			if f.obType == core.OneTime {
				f.obType = core.Recurring
			} else {
				f.obType = core.OneTime
			}
			return
		}
	}
	f.inputs[f.focus], *cmd = f.inputs[f.focus].Update(msg)
}

func (f *formModel) submit(ctx context.Context, w *workflow.Workflow) error {
	amount, err := core.ParseDecimalToPaise(f.inputs[1].Value())
	if err != nil {
		return errors.New("enter a valid amount greater than 0")
	}
	var perCycle core.Money
	if v := strings.TrimSpace(f.inputs[2].Value()); v != "" {
		perCycle, err = core.ParseDecimalToPaise(v)
		if err != nil {
			return errors.New("enter a valid monthly deduction amount")
		}
	}
	note := f.inputs[3].Value()

	if f.editing != nil {
		return w.Edit(ctx, *f.editing, core.EditDraft{
			PersonName:       f.inputs[0].Value(),
			TotalAmount:      amount,
			ExpectedPerCycle: perCycle,
			Note:             note,
		})
	}

	return w.CreateSplit(ctx, core.SplitDraft{
		Names:            strings.Split(f.inputs[0].Value(), ","),
		Direction:        f.direction,
		Type:             f.obType,
		TotalAmount:      amount,
		ExpectedPerCycle: perCycle,
		Note:             note,
	})
}

// paymentModel backs the record-payment overlay.
type paymentModel struct {
	target core.Obligation
	labels []string
	inputs []textinput.Model
	focus  int
}

func newPaymentForm(ob core.Obligation) *paymentModel {
	return &paymentModel{
		target: ob,
		labels: []string{"Amount (₹)", "Note"},
		inputs: []textinput.Model{
			newInput("200", 15),
			newInput("optional", 200),
		},
	}
}

func (p *paymentModel) focusCmd() tea.Cmd {
	p.inputs[p.focus].Focus()
	return textinput.Blink
}

func (p *paymentModel) onLastField() bool {
	return p.focus == len(p.inputs)-1
}

func (p *paymentModel) nextField() tea.Cmd {
	return p.setFocus(p.focus + 1)
}

func (p *paymentModel) cycleField(key string) tea.Cmd {
	delta := 1
	if key == "shift+tab" || key == "up" {
		delta = -1
	}
	return p.setFocus(p.focus + delta)
}

func (p *paymentModel) setFocus(idx int) tea.Cmd {
	if idx < 0 {
		idx = len(p.inputs) - 1
	}
	if idx >= len(p.inputs) {
		idx = 0
	}
	p.inputs[p.focus].Blur()
	p.focus = idx
	p.inputs[p.focus].Focus()
	return textinput.Blink
}

func (p *paymentModel) update(msg tea.KeyMsg, cmd *tea.Cmd) {
	p.inputs[p.focus], *cmd = p.inputs[p.focus].Update(msg)
}

func (p *paymentModel) submit(ctx context.Context, w *workflow.Workflow) error {
	amount, err := core.ParseDecimalToPaise(p.inputs[0].Value())
	if err != nil {
		return errors.New("enter a valid amount greater than 0")
	}
	return w.RecordPayment(ctx, p.target.ID, core.PaymentDraft{
		Amount: amount,
		Note:   strings.TrimSpace(p.inputs[1].Value()),
	})
}

// formatAmountInput renders a paise amount as a plain decimal for editing.
func formatAmountInput(m core.Money) string {
	if m%100 == 0 {
		return strconv.FormatInt(int64(m)/100, 10)
	}
	return strconv.FormatFloat(m.Rupees(), 'f', 2, 64)
}
