package service

import (
	"strings"
	"time"

	"github.com/twipi/tttbot/game"
)

// EventType names what an Event reports.
type EventType string

const (
	EventGameStarted EventType = "game_started"
	EventMove        EventType = "move"
	EventGameOver    EventType = "game_over"
	// EventQuery is a stateless best-move query outside any session.
	EventQuery EventType = "query"
)

// Event is published for everything that happens in the service.
type Event struct {
	Type   EventType `json:"type"`
	GameID string    `json:"game_id,omitempty"`
	// Board is the board after the event: nine of "X", "O" and "-" for
	// sessions, nine wire digits for queries.
	Board string `json:"board"`
	// Position is 1-based; 0 means none.
	Position int       `json:"position,omitempty"`
	Player   string    `json:"player,omitempty"`
	Winner   string    `json:"winner,omitempty"`
	Source   string    `json:"source,omitempty"`
	Time     time.Time `json:"time"`
}

// Snapshot is the state of a session.
type Snapshot struct {
	ID     string    `json:"id"`
	Board  [9]string `json:"board"`
	Human  string    `json:"human"`
	Turn   string    `json:"turn"`
	Ended  bool      `json:"ended"`
	Winner string    `json:"winner,omitempty"`
	// AIMove is the 1-based position the AI just played, 0 if none.
	AIMove    int       `json:"ai_move,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

func (rg *runningGame) snapshot(aiMove int) Snapshot {
	snap := Snapshot{
		ID:        rg.ID,
		Human:     rg.Human.String(),
		Turn:      rg.Turn().String(),
		AIMove:    aiMove,
		StartedAt: rg.StartedAt,
	}
	for i := range snap.Board {
		snap.Board[i] = playerString(rg.At(i))
	}
	winner, ended := rg.GameState()
	snap.Ended = ended
	snap.Winner = playerString(winner)
	if ended {
		snap.Turn = ""
	}
	return snap
}

func playerString(p game.Player) string {
	if p == game.NoPlayer {
		return ""
	}
	return p.String()
}

func boardString(b game.Board) string {
	var s strings.Builder
	for _, p := range b {
		if p == game.NoPlayer {
			s.WriteByte('-')
		} else {
			s.WriteString(p.String())
		}
	}
	return s.String()
}
