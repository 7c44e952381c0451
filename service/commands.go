package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"github.com/twipi/tttbot/engine"
	"github.com/twipi/tttbot/game"
	"github.com/twipi/twipi/proto/out/twicmdproto"
	"github.com/twipi/twipi/proto/out/twismsproto"
	"github.com/twipi/twipi/twicmd"
	"github.com/twipi/twipi/twisms"
	"google.golang.org/protobuf/encoding/prototext"
)

//go:embed service.txtpb
var servicePrototext []byte

var service = (func() *twicmdproto.Service {
	service := new(twicmdproto.Service)
	if err := prototext.Unmarshal(servicePrototext, service); err != nil {
		panic(fmt.Sprintf("failed to unmarshal service proto: %v", err))
	}
	return service
})()

var (
	_ twicmd.Service           = (*Service)(nil)
	_ twisms.MessageSubscriber = (*Service)(nil)
)

// Name implements [twicmd.Service].
func (s *Service) Name() string {
	return service.Name
}

// Service implements [twicmd.Service].
func (s *Service) Service(ctx context.Context) (*twicmdproto.Service, error) {
	return service, nil
}

// Execute implements [twicmd.Service]. Board replies are sent as messages
// to the subscribers; the returned response carries the final word.
func (s *Service) Execute(ctx context.Context, req *twicmdproto.ExecuteRequest) (*twicmdproto.ExecuteResponse, error) {
	args := twicmd.MapArguments(req.GetCommand().GetArguments())
	phone := req.GetMessage().GetFrom()

	switch req.GetCommand().GetCommand() {
	case "start":
		var humanFirst bool
		switch strings.ToLower(strings.TrimSpace(args["first"])) {
		case "", "me":
			humanFirst = true
		case "ai":
			humanFirst = false
		default:
			return twicmd.StatusResponse(`Invalid argument. Who goes first must be "me" or "ai".`), nil
		}

		s.logger.Debug(
			"starting new game over SMS",
			"phone_number", phone,
			"human_first", humanFirst)

		snap := s.NewGame(humanFirst)

		text := "A new game has started. It is now your turn."
		if oldID, overridden := s.players.LoadAndStore(phone, snap.ID); overridden {
			s.games.Delete(oldID)
			text = "An existing game was overridden. A new game has started. It is now your turn."
		}

		prefix := ""
		if snap.AIMove != 0 {
			prefix = fmt.Sprintf("The AI opened at %d:", snap.AIMove)
		}

		for _, body := range []*twismsproto.MessageBody{
			textBody(text),
			drawBoardMessage(prefix, snap),
		} {
			if err := s.reply(ctx, req.Message, body); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case "place":
		s.logger.Debug(
			"placing piece over SMS",
			"phone_number", phone,
			"position", args["position"])

		id, ok := s.players.Load(phone)
		if !ok {
			return twicmd.StatusResponse("No game found. Please start a new game."), nil
		}

		pos, err := game.ParsePosition(args["position"])
		if err != nil {
			return twicmd.StatusResponse("Invalid position. Please provide a number between 1 and 9."), nil
		}

		snap, err := s.Place(id, pos)
		switch {
		case errors.Is(err, ErrGameNotFound):
			s.players.Delete(phone)
			return twicmd.StatusResponse("No game found. Please start a new game."), nil
		case errors.Is(err, ErrGameOver):
			return twicmd.TextResponse(gameOverText(snap)), nil
		case errors.Is(err, ErrIllegalMove):
			return twicmd.StatusResponse("Invalid move. Please try again."), nil
		case err != nil:
			return nil, err
		}

		prefix := "You just placed:"
		if snap.AIMove != 0 {
			prefix = fmt.Sprintf("You just placed. In return, the AI placed at %d:", snap.AIMove)
		}
		if err := s.reply(ctx, req.Message, drawBoardMessage(prefix, snap)); err != nil {
			return nil, err
		}

		if snap.Ended {
			return twicmd.TextResponse(gameOverText(snap)), nil
		}
		return nil, nil

	case "move":
		b, err := engine.ParseBoard(strings.TrimSpace(args["board"]))
		if err != nil {
			return twicmd.StatusResponse("Invalid board. Please provide nine digits from 0 to 2."), nil
		}
		if !engine.IsMovesLeft(&b) {
			return twicmd.StatusResponse("The board is full, there is no move to make."), nil
		}

		res := s.BestMove(b)
		return twicmd.TextResponse(fmt.Sprintf("The best move is %d (%s).", res.Move+1, res.Source)), nil

	default:
		return nil, fmt.Errorf("unknown command: %q", req.GetCommand().GetCommand())
	}
}

func (s *Service) reply(ctx context.Context, msg *twismsproto.Message, body *twismsproto.MessageBody) error {
	select {
	case s.sendCh <- twisms.NewReplyingMessage(msg, body):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func gameOverText(snap Snapshot) string {
	switch snap.Winner {
	case "":
		return "The game is over. It's a draw!"
	case snap.Human:
		return "The game is over. You win!"
	default:
		return "The game is over. The AI wins!"
	}
}

const (
	humanPiece = "❌"
	aiPiece    = "⚫"
	emptyPiece = "⬜"
)

func drawBoardMessage(prefix string, snap Snapshot) *twismsproto.MessageBody {
	var s strings.Builder
	if prefix != "" {
		s.WriteString(prefix)
		s.WriteString("\n\n")
	}
	for i, cell := range snap.Board {
		switch cell {
		case "":
			s.WriteString(emptyPiece)
		case snap.Human:
			s.WriteString(humanPiece)
		default:
			s.WriteString(aiPiece)
		}
		if i%3 == 2 {
			s.WriteString("\n")
		}
	}
	s.WriteString(humanPiece + " is your piece.\n")
	s.WriteString(aiPiece + " is the AI's piece.")
	return textBody(s.String())
}

func textBody(text string) *twismsproto.MessageBody {
	return &twismsproto.MessageBody{
		Text: &twismsproto.TextBody{Text: text},
	}
}

// SubscribeMessages implements [twisms.MessageSubscriber].
func (s *Service) SubscribeMessages(ch chan<- *twismsproto.Message, filters *twismsproto.MessageFilters) {
	s.sendSub.Subscribe(ch, func(msg *twismsproto.Message) bool {
		return twisms.FilterMessage(filters, msg)
	})
}

// UnsubscribeMessages implements [twisms.MessageSubscriber].
func (s *Service) UnsubscribeMessages(ch chan<- *twismsproto.Message) {
	s.sendSub.Unsubscribe(ch)
}
