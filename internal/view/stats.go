package view

import "splitbook/internal/core"

// Stats are the aggregate figures shown above the list. They are derived
// from the active snapshot only, independent of tab, search and filters.
type Stats struct {
	OwedToYou core.Money
	YouOwe    core.Money
	Net       core.Money
}

// Summarize recomputes the stats from scratch. Linear in the snapshot size,
// which stays small enough that incremental updates are not worth having.
func Summarize(active []core.Obligation) Stats {
	var s Stats
	for _, o := range active {
		if o.Direction == core.IOwe {
			s.YouOwe += o.RemainingAmount
		} else {
			s.OwedToYou += o.RemainingAmount
		}
	}
	s.Net = s.OwedToYou - s.YouOwe
	return s
}
