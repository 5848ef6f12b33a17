package core

import (
	"strings"
	"testing"
)

func TestSplitDraftNormalize(t *testing.T) {
	d := SplitDraft{
		Names: []string{" Rahul ", "Ananya", "Rahul", "", "  "},
		Note:  "  dinner ",
	}
	d.Normalize()
	if len(d.Names) != 2 || d.Names[0] != "Rahul" || d.Names[1] != "Ananya" {
		t.Fatalf("unexpected names after normalize: %v", d.Names)
	}
	if d.Note != "dinner" {
		t.Fatalf("note not trimmed: %q", d.Note)
	}
}

func TestSplitDraftValidate(t *testing.T) {
	good := SplitDraft{
		Names:       []string{"Rahul"},
		Direction:   OwesMe,
		Type:        OneTime,
		TotalAmount: 100000,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	recurring := good
	recurring.Type = Recurring
	recurring.ExpectedPerCycle = 10000
	if err := recurring.Validate(); err != nil {
		t.Fatalf("expected ok for recurring, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*SplitDraft)
	}{
		{"no names", func(d *SplitDraft) { d.Names = nil }},
		{"name too long", func(d *SplitDraft) { d.Names = []string{strings.Repeat("x", 51)} }},
		{"zero amount", func(d *SplitDraft) { d.TotalAmount = 0 }},
		{"bad direction", func(d *SplitDraft) { d.Direction = "sideways" }},
		{"note too long", func(d *SplitDraft) { d.Note = strings.Repeat("n", 201) }},
		{"recurring without deduction", func(d *SplitDraft) { d.Type = Recurring }},
		{"deduction above total", func(d *SplitDraft) {
			d.Type = Recurring
			d.ExpectedPerCycle = d.TotalAmount + 1
		}},
		{"deduction on one-time", func(d *SplitDraft) { d.ExpectedPerCycle = 100 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := good
			tc.mutate(&d)
			if err := d.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestEditDraftValidate(t *testing.T) {
	good := EditDraft{
		Type:        Recurring,
		PersonName:  "Anita",
		TotalAmount: 450000,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	withPerCycle := good
	withPerCycle.ExpectedPerCycle = 100000
	if err := withPerCycle.Validate(); err != nil {
		t.Fatalf("expected ok with per-cycle, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*EditDraft)
	}{
		{"blank name", func(d *EditDraft) { d.PersonName = "   " }},
		{"zero amount", func(d *EditDraft) { d.TotalAmount = 0 }},
		{"deduction above total", func(d *EditDraft) { d.ExpectedPerCycle = d.TotalAmount + 1 }},
		{"deduction on one-time", func(d *EditDraft) {
			d.Type = OneTime
			d.ExpectedPerCycle = 100
		}},
		{"note too long", func(d *EditDraft) { d.Note = strings.Repeat("n", 201) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := good
			tc.mutate(&d)
			if err := d.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestPaymentDraftValidate(t *testing.T) {
	if err := (PaymentDraft{Amount: 20000}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (PaymentDraft{Amount: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero amount")
	}
	if err := (PaymentDraft{Amount: 1, Note: strings.Repeat("n", 201)}).Validate(); err == nil {
		t.Fatalf("expected error for long note")
	}
}
