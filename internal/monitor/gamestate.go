package monitor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// playerTypeHuman marks a civilization controlled by a person rather than
// the game AI.
const playerTypeHuman = "Human"

// GameState is the subset of the remote game payload the monitor reads.
type GameState struct {
	CurrentPlayer        string         `json:"currentPlayer"`
	CurrentTurnStartTime int64          `json:"currentTurnStartTime"`
	Civilizations        []Civilization `json:"civilizations"`
}

// Civilization describes one participant in the game payload.
type Civilization struct {
	Name       string `json:"civName"`
	PlayerType string `json:"playerType"`
}

func decodeGameState(raw []byte) (*GameState, error) {
	var state GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode game state: %w", err)
	}
	return &state, nil
}

// HumanFactions returns the display names of human-controlled factions in
// payload order. It returns nil when the payload carries no civilization
// list at all, so callers can tell "no roster published" from "roster with
// no humans".
func (g *GameState) HumanFactions() []string {
	if g == nil || g.Civilizations == nil {
		return nil
	}
	factions := make([]string, 0, len(g.Civilizations))
	for _, civ := range g.Civilizations {
		name := strings.TrimSpace(civ.Name)
		if name == "" || civ.PlayerType != playerTypeHuman {
			continue
		}
		factions = append(factions, name)
	}
	return factions
}

// TurnStartedAt converts the payload's epoch-millisecond turn start into a
// time, falling back to now when the field is absent or not positive.
func (g *GameState) TurnStartedAt(now time.Time) time.Time {
	if g == nil || g.CurrentTurnStartTime <= 0 {
		return now
	}
	return time.UnixMilli(g.CurrentTurnStartTime).UTC()
}
