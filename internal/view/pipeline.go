package view

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"splitbook/internal/core"
)

// SortOrder selects the single active sort criterion.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortAmount SortOrder = "amount"
	SortName   SortOrder = "name"
)

// DirectionFilter restricts the active tab by obligation direction.
// FilterOwesMe selects everything that is not i_owe.
type DirectionFilter string

const (
	FilterAll    DirectionFilter = "all"
	FilterOwesMe DirectionFilter = "owes_me"
	FilterIOwe   DirectionFilter = "i_owe"
)

// Filter is the user-selected presentation state fed to the pipeline.
type Filter struct {
	Direction DirectionFilter
	Query     string
	Sort      SortOrder
}

type ItemKind int

const (
	KindSingle ItemKind = iota
	KindGroup
)

// Item is one rendered row: either a standalone obligation or a composite
// of all obligations sharing a trxn_id.
type Item struct {
	Kind       ItemKind
	Key        string            // obligation id or trxn_id
	Obligation core.Obligation   // KindSingle
	Members    []core.Obligation // KindGroup

	// Group aggregates; for singles these mirror the obligation.
	TotalRemaining core.Money
	TotalAmount    core.Money

	SortDate   time.Time
	SortAmount core.Money
	SortName   string
}

var nameCollator = collate.New(language.English)

// BuildItems runs the full pipeline: direction filter (active tab only),
// case-insensitive name search, trxn_id grouping, then one sort criterion.
// It is pure; re-run whenever the list or the filter changes.
func BuildItems(obligations []core.Obligation, f Filter, tab Tab) []Item {
	filtered := obligations
	if tab == TabActive && f.Direction != FilterAll && f.Direction != "" {
		filtered = make([]core.Obligation, 0, len(obligations))
		for _, o := range obligations {
			if f.Direction == FilterIOwe {
				if o.Direction == core.IOwe {
					filtered = append(filtered, o)
				}
			} else if o.Direction != core.IOwe {
				filtered = append(filtered, o)
			}
		}
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		matched := make([]core.Obligation, 0, len(filtered))
		for _, o := range filtered {
			if strings.Contains(strings.ToLower(o.PersonName), q) {
				matched = append(matched, o)
			}
		}
		filtered = matched
	}

	items := buildGroups(filtered)
	sortItems(items, f.Sort)
	return items
}

func buildGroups(obligations []core.Obligation) []Item {
	var items []Item
	groupIdx := make(map[string]int)
	var groups [][]core.Obligation
	var groupKeys []string

	for _, o := range obligations {
		if o.TrxnID == "" {
			items = append(items, Item{
				Kind:           KindSingle,
				Key:            o.ID,
				Obligation:     o,
				TotalRemaining: o.RemainingAmount,
				TotalAmount:    o.TotalAmount,
				SortDate:       o.CreatedAt,
				SortAmount:     o.RemainingAmount,
				SortName:       strings.ToLower(o.PersonName),
			})
			continue
		}
		i, ok := groupIdx[o.TrxnID]
		if !ok {
			i = len(groups)
			groupIdx[o.TrxnID] = i
			groups = append(groups, nil)
			groupKeys = append(groupKeys, o.TrxnID)
		}
		groups[i] = append(groups[i], o)
	}

	for i, members := range groups {
		item := Item{
			Kind:    KindGroup,
			Key:     groupKeys[i],
			Members: members,
		}
		for _, m := range members {
			item.TotalRemaining += m.RemainingAmount
			item.TotalAmount += m.TotalAmount
			if m.CreatedAt.After(item.SortDate) {
				item.SortDate = m.CreatedAt
			}
			lower := strings.ToLower(m.PersonName)
			if item.SortName == "" || lower < item.SortName {
				item.SortName = lower
			}
		}
		item.SortAmount = item.TotalRemaining
		items = append(items, item)
	}
	return items
}

func sortItems(items []Item, order SortOrder) {
	switch order {
	case SortAmount:
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].SortAmount > items[b].SortAmount
		})
	case SortName:
		sort.SliceStable(items, func(a, b int) bool {
			return nameCollator.CompareString(items[a].SortName, items[b].SortName) < 0
		})
	default: // SortNewest
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].SortDate.After(items[b].SortDate)
		})
	}
}
