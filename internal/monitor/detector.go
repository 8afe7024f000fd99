package monitor

import "strings"

// Change classifies what one tick's fetch outcome means for the session.
type Change int

const (
	// ChangeIndeterminate means the tick carried no usable turn
	// information. Nothing is written and nothing is notified.
	ChangeIndeterminate Change = iota
	// ChangeFirstObservation is the first holder seen for this session.
	// It is recorded silently so a restart never pings anyone.
	ChangeFirstObservation
	// ChangeUnchanged means the holder carried over from the previous tick.
	ChangeUnchanged
	// ChangeNewHolder means the turn moved to a different player.
	ChangeNewHolder
)

// TurnState is the last observed turn holder. An empty Key means no holder
// has been observed for the current session.
type TurnState struct {
	Key     string
	Display string
}

// Observation is the detector's reading of a single tick.
type Observation struct {
	Change  Change
	Key     string
	Display string
}

// NormalizeFaction folds a faction name to its lookup key. Keys are
// whitespace-trimmed and case-folded so Rome, ROME and rome address the
// same player; the published display form is kept separately.
func NormalizeFaction(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// classify interprets a fetch result against the last observed turn state.
func classify(result FetchResult, last TurnState) Observation {
	if result.Unchanged {
		if last.Key == "" {
			return Observation{Change: ChangeIndeterminate}
		}
		return Observation{Change: ChangeUnchanged, Key: last.Key, Display: last.Display}
	}
	if result.State == nil {
		return Observation{Change: ChangeIndeterminate}
	}
	display := strings.TrimSpace(result.State.CurrentPlayer)
	if display == "" {
		return Observation{Change: ChangeIndeterminate}
	}
	key := NormalizeFaction(display)
	switch {
	case last.Key == "":
		return Observation{Change: ChangeFirstObservation, Key: key, Display: display}
	case key == last.Key:
		return Observation{Change: ChangeUnchanged, Key: key, Display: display}
	default:
		return Observation{Change: ChangeNewHolder, Key: key, Display: display}
	}
}
