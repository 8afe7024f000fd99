package monitor

// Roster is the current human-faction list, keyed by normalized name with
// the published display form retained. It is replaced wholesale whenever a
// fresh payload carries a civilization list; subscriptions live outside the
// roster and survive replacement.
type Roster struct {
	order   []string
	display map[string]string
}

func newRoster(factions []string) Roster {
	roster := Roster{display: make(map[string]string, len(factions))}
	for _, faction := range factions {
		key := NormalizeFaction(faction)
		if key == "" {
			continue
		}
		if _, seen := roster.display[key]; !seen {
			roster.order = append(roster.order, key)
		}
		roster.display[key] = faction
	}
	return roster
}

// Display resolves a normalized key to its published display form.
func (r Roster) Display(key string) (string, bool) {
	display, ok := r.display[key]
	return display, ok
}

// Factions returns display forms in payload order.
func (r Roster) Factions() []string {
	factions := make([]string, 0, len(r.order))
	for _, key := range r.order {
		factions = append(factions, r.display[key])
	}
	return factions
}

// Empty reports whether no human factions are known.
func (r Roster) Empty() bool {
	return len(r.order) == 0
}
