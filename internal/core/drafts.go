package core

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Drafts are the validated inputs behind every mutating action. Validation
// runs before any network call; an invalid draft never reaches the ledger
// engine.

// SplitDraft creates one or more obligations from a single split.
type SplitDraft struct {
	Names            []string
	Direction        Direction
	Type             ObligationType
	TotalAmount      Money
	ExpectedPerCycle Money
	Note             string
}

// Normalize trims and de-duplicates person names, preserving first-seen
// order, and trims the note.
func (d *SplitDraft) Normalize() {
	seen := make(map[string]struct{}, len(d.Names))
	names := d.Names[:0]
	for _, n := range d.Names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	d.Names = names
	d.Note = strings.TrimSpace(d.Note)
}

func (d SplitDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Names,
			validation.Required.Error("enter at least one person name"),
			validation.Each(
				validation.Required.Error("person name cannot be empty"),
				validation.RuneLength(1, 50).Error("person name must be 50 characters or less"),
			),
		),
		validation.Field(&d.Direction, validation.Required, validation.In(OwesMe, IOwe)),
		validation.Field(&d.Type, validation.Required, validation.In(OneTime, Recurring)),
		validation.Field(&d.TotalAmount, validation.By(positiveAmount)),
		validation.Field(&d.ExpectedPerCycle, validation.By(d.checkPerCycle)),
		validation.Field(&d.Note, validation.RuneLength(0, 200).Error("note must be 200 characters or less")),
	)
}

func (d SplitDraft) checkPerCycle(value interface{}) error {
	per, _ := value.(Money)
	if d.Type != Recurring {
		if per != 0 {
			return errors.New("only applies to recurring splits")
		}
		return nil
	}
	if per <= 0 {
		return errors.New("enter a valid monthly deduction amount")
	}
	if per > d.TotalAmount {
		return errors.New("monthly deduction cannot exceed total amount")
	}
	return nil
}

// EditDraft updates the editable fields of an existing obligation.
// ExpectedPerCycle zero means "leave unchanged"; it is only sent for
// recurring obligations.
type EditDraft struct {
	Type             ObligationType // of the target obligation
	PersonName       string
	TotalAmount      Money
	ExpectedPerCycle Money
	Note             string
}

func (d EditDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.PersonName,
			validation.By(nonBlank("person name cannot be empty")),
			validation.RuneLength(1, 50).Error("person name must be 50 characters or less"),
		),
		validation.Field(&d.TotalAmount, validation.By(positiveAmount)),
		validation.Field(&d.ExpectedPerCycle, validation.By(d.checkPerCycle)),
		validation.Field(&d.Note, validation.RuneLength(0, 200).Error("note must be 200 characters or less")),
	)
}

func (d EditDraft) checkPerCycle(value interface{}) error {
	per, _ := value.(Money)
	if per == 0 {
		return nil
	}
	if d.Type != Recurring {
		return errors.New("only applies to recurring obligations")
	}
	if per > d.TotalAmount {
		return errors.New("monthly deduction cannot exceed total amount")
	}
	return nil
}

// PaymentDraft records one payment against an obligation.
type PaymentDraft struct {
	Amount Money
	Note   string
}

func (d PaymentDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Amount, validation.By(positiveAmount)),
		validation.Field(&d.Note, validation.RuneLength(0, 200).Error("note must be 200 characters or less")),
	)
}

func positiveAmount(value interface{}) error {
	m, _ := value.(Money)
	if m <= 0 {
		return errors.New("enter a valid amount greater than 0")
	}
	return nil
}

func nonBlank(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}
