// Package quickadd turns a one-line phrase into a split draft, the
// keyboard-first cousin of filling the add form field by field. A phrase
// names the people, the amount, an optional monthly deduction and an
// optional note:
//
//	Rahul and Priya 3200 for dinner
//	i owe Amit ₹1,500
//	Sunita 5k monthly 1k for advance
//
// Parsing is deterministic; anything it cannot place is an error, never a
// guess. The resulting draft still goes through the same validation and
// equal-split arithmetic as the form.
package quickadd

import (
	"errors"
	"strings"

	"splitbook/internal/core"
)

var (
	ErrNoAmount = errors.New("could not find an amount, e.g. 900, ₹1,500 or 5k")
	ErrNoNames  = errors.New("start with one or more names, e.g. Rahul and Priya 900")
)

// Parse builds a split draft from a phrase. The words before the first
// amount are the people (separated by commas or "and"), "monthly <amount>"
// after it makes the split recurring, and "for <text>" or any leftover
// words become the note.
func Parse(text string) (core.SplitDraft, error) {
	draft := core.SplitDraft{Direction: core.OwesMe, Type: core.OneTime}

	head := strings.TrimSpace(text)
	if rest, ok := cutPrefixFold(head, "i owe "); ok {
		draft.Direction = core.IOwe
		head = rest
	}
	if at := strings.Index(strings.ToLower(head), " for "); at >= 0 {
		draft.Note = strings.TrimSpace(head[at+len(" for "):])
		head = head[:at]
	}

	words := strings.Fields(head)
	amountAt := -1
	for i, w := range words {
		if m, ok := parseAmount(w); ok {
			draft.TotalAmount = m
			amountAt = i
			break
		}
	}
	if amountAt < 0 {
		return core.SplitDraft{}, ErrNoAmount
	}

	for _, w := range words[:amountAt] {
		for _, name := range strings.Split(w, ",") {
			name = strings.TrimSpace(name)
			if name == "" || strings.EqualFold(name, "and") || name == "&" {
				continue
			}
			draft.Names = append(draft.Names, name)
		}
	}
	if len(draft.Names) == 0 {
		return core.SplitDraft{}, ErrNoNames
	}

	var note []string
	rest := words[amountAt+1:]
	for i := 0; i < len(rest); i++ {
		if strings.EqualFold(rest[i], "monthly") && i+1 < len(rest) {
			if m, ok := parseAmount(rest[i+1]); ok {
				draft.Type = core.Recurring
				draft.ExpectedPerCycle = m
				i++
				continue
			}
		}
		note = append(note, rest[i])
	}
	if len(note) > 0 && draft.Note == "" {
		draft.Note = strings.Join(note, " ")
	}

	return draft, nil
}

// parseAmount reads one amount token: an optional ₹ or rs marker, grouping
// commas, and a k suffix multiplying by 1000 (5k, 1.5k).
func parseAmount(tok string) (core.Money, bool) {
	tok = strings.ToLower(tok)
	tok = strings.TrimPrefix(tok, "₹")
	tok = strings.TrimPrefix(tok, "rs")
	tok = strings.TrimSuffix(tok, "rs")
	if tok == "" {
		return 0, false
	}

	thousands := strings.HasSuffix(tok, "k")
	tok = strings.TrimSuffix(tok, "k")
	if grouped(tok) {
		tok = strings.ReplaceAll(tok, ",", "")
	}

	m, err := core.ParseDecimalToPaise(tok)
	if err != nil {
		return 0, false
	}
	if thousands {
		m *= 1000
	}
	return m, true
}

// grouped reports whether commas in the token are thousands separators
// (3,200 or the Indian 1,23,456) rather than a decimal mark.
func grouped(tok string) bool {
	parts := strings.Split(tok, ",")
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	last := parts[len(parts)-1]
	if len(last) != 3 {
		return false
	}
	for _, p := range parts[1 : len(parts)-1] {
		if len(p) != 2 && len(p) != 3 {
			return false
		}
	}
	return true
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
