// Package service runs Tic-Tac-Toe sessions against the search engine and
// publishes what happens in them as events.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/twipi/pubsub"
	"github.com/twipi/twipi/proto/out/twismsproto"
	"github.com/twipi/tttbot/engine"
	"github.com/twipi/tttbot/game"
	"golang.org/x/sync/errgroup"
)

// DefaultGameExpiry is how long a session is kept after it started.
const DefaultGameExpiry = 24 * time.Hour

const (
	expiryInterval = 4 * time.Hour
	eventBuffer    = 64
)

var (
	// ErrGameNotFound is returned for unknown or expired session ids.
	ErrGameNotFound = errors.New("no game found, please start a new game")
	// ErrIllegalMove is returned when the position is already taken.
	ErrIllegalMove = errors.New("invalid move, please try again")
	// ErrGameOver is returned when moving in a finished game.
	ErrGameOver = errors.New("the game is over")
)

type runningGame struct {
	mu sync.Mutex
	*game.Game
	ID        string
	AI        *game.AI
	Human     game.Player
	StartedAt time.Time
}

// Service is the main running Tic-Tac-Toe service. Besides its Go API it
// is a twicmd service, so games can be played over SMS.
type Service struct {
	engine   *engine.Engine
	eventCh  chan Event
	eventSub pubsub.Subscriber[Event]
	sendCh   chan *twismsproto.Message
	sendSub  pubsub.Subscriber[*twismsproto.Message]
	games    *xsync.MapOf[string, *runningGame]
	players  *xsync.MapOf[string, string] // phone number to game id
	expiry   time.Duration
	logger   *slog.Logger
}

// NewService creates a service whose sessions expire after expiry. A
// non-positive expiry selects DefaultGameExpiry.
func NewService(e *engine.Engine, expiry time.Duration, logger *slog.Logger) *Service {
	if expiry <= 0 {
		expiry = DefaultGameExpiry
	}
	return &Service{
		engine:  e,
		eventCh: make(chan Event, eventBuffer),
		sendCh:  make(chan *twismsproto.Message),
		games:   xsync.NewMapOf[string, *runningGame](),
		players: xsync.NewMapOf[string, string](),
		expiry:  expiry,
		logger:  logger,
	}
}

// Engine returns the engine shared by every session.
func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// BestMove answers a stateless move query for board, with the engine's own
// side to move.
func (s *Service) BestMove(board engine.Board) engine.Result {
	res := s.engine.BestMove(board)
	s.publish(Event{
		Type:     EventQuery,
		Board:    board.String(),
		Position: res.Move + 1,
		Source:   res.Source.String(),
	})
	return res
}

// NewGame starts a session. If humanFirst is false the AI opens and its
// move is already on the returned board.
func (s *Service) NewGame(humanFirst bool) Snapshot {
	human := game.Player1
	if !humanFirst {
		human = game.Player2
	}

	gm := game.NewGame()
	rg := &runningGame{
		Game:      gm,
		ID:        uuid.NewString(),
		AI:        game.NewAI(gm, human.Opponent(), s.engine),
		Human:     human,
		StartedAt: time.Now(),
	}

	rg.mu.Lock()
	defer rg.mu.Unlock()

	s.games.Store(rg.ID, rg)

	s.logger.Debug(
		"starting new game",
		"game_id", rg.ID,
		"human", human.String())
	s.publish(Event{
		Type:   EventGameStarted,
		GameID: rg.ID,
		Board:  boardString(gm.Board),
	})

	aiMove := 0
	if !humanFirst {
		aiMove = s.playAI(rg)
	}
	return rg.snapshot(aiMove)
}

// Game returns the current state of a session.
func (s *Service) Game(id string) (Snapshot, error) {
	rg, ok := s.games.Load(id)
	if !ok {
		return Snapshot{}, ErrGameNotFound
	}

	rg.mu.Lock()
	defer rg.mu.Unlock()

	return rg.snapshot(0), nil
}

// Place plays the human move at board index pos, then the AI reply.
func (s *Service) Place(id string, pos int) (Snapshot, error) {
	rg, ok := s.games.Load(id)
	if !ok {
		return Snapshot{}, ErrGameNotFound
	}

	rg.mu.Lock()
	defer rg.mu.Unlock()

	s.logger.Debug(
		"placing piece",
		"game_id", id,
		"position", pos+1)

	if rg.HasEnded() {
		return rg.snapshot(0), ErrGameOver
	}
	if rg.Turn() != rg.Human || !rg.MakeMove(pos) {
		return rg.snapshot(0), ErrIllegalMove
	}
	s.publishMove(rg, rg.Human, pos)

	aiMove := 0
	if !rg.HasEnded() {
		aiMove = s.playAI(rg)
	}
	return rg.snapshot(aiMove), nil
}

// playAI makes the AI move in rg and returns its 1-based position, or 0 if
// the AI could not move. rg.mu must be held.
func (s *Service) playAI(rg *runningGame) int {
	pos, ok := rg.AI.NextMove()
	if !ok || !rg.MakeMove(pos) {
		return 0
	}
	s.publishMove(rg, rg.AI.Player(), pos)
	return pos + 1
}

func (s *Service) publishMove(rg *runningGame, p game.Player, pos int) {
	s.publish(Event{
		Type:     EventMove,
		GameID:   rg.ID,
		Board:    boardString(rg.Board),
		Player:   p.String(),
		Position: pos + 1,
	})

	if winner, ended := rg.GameState(); ended {
		s.logger.Debug(
			"game over",
			"game_id", rg.ID,
			"winner", winner.String())
		s.publish(Event{
			Type:   EventGameOver,
			GameID: rg.ID,
			Board:  boardString(rg.Board),
			Winner: playerString(winner),
		})
	}
}

func (s *Service) publish(ev Event) {
	ev.Time = time.Now()
	select {
	case s.eventCh <- ev:
	default:
		s.logger.Warn(
			"event buffer full, dropping event",
			"type", ev.Type,
			"game_id", ev.GameID)
	}
}

// Start runs the event feed, the outgoing SMS feed and the session expiry
// loop until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		return s.eventSub.Listen(ctx, s.eventCh)
	})

	errg.Go(func() error {
		return s.sendSub.Listen(ctx, s.sendCh)
	})

	errg.Go(func() error {
		ticker := time.NewTicker(expiryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()

			case now := <-ticker.C:
				s.expireGames(now)
			}
		}
	})

	return errg.Wait()
}

func (s *Service) expireGames(now time.Time) {
	s.games.Range(func(key string, value *runningGame) bool {
		if value.StartedAt.Add(s.expiry).Before(now) {
			s.logger.Debug(
				"game expired, deleting",
				"game_id", key,
				"started_at", value.StartedAt)
			s.games.Delete(key)
		}
		return true
	})
	s.players.Range(func(phone, id string) bool {
		if _, ok := s.games.Load(id); !ok {
			s.players.Delete(phone)
		}
		return true
	})
}

// SubscribeEvents sends events to ch. If gameID is not empty, only events
// of that session are sent.
func (s *Service) SubscribeEvents(ch chan<- Event, gameID string) {
	s.eventSub.Subscribe(ch, func(ev Event) bool {
		return gameID == "" || ev.GameID == gameID
	})
}

// UnsubscribeEvents stops sending events to ch.
func (s *Service) UnsubscribeEvents(ch chan<- Event) {
	s.eventSub.Unsubscribe(ch)
}
