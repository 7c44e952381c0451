package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twipi/tttbot/engine"
	"github.com/twipi/tttbot/service"
)

func newTestHandler(t *testing.T) (*Handler, *service.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewService(engine.NewEngine(engine.DefaultCacheLimit, logger), time.Hour, logger)
	return NewHandler(svc, logger), svc
}

func do(t *testing.T, h http.Handler, method, target string, v any) int {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	if v != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
	}
	return w.Code
}

func moveURL(board string) string {
	return "/move?board=" + url.QueryEscape(board)
}

func TestMove(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		board string
		want  int
	}{
		{"[0,0,0,0,0,0,0,0,0]", 4},
		{"[1,1,0,2,2,0,0,0,0]", 2},
		{"[1,0,0,2,2,0,0,0,0]", 5},
	}
	for _, test := range tests {
		t.Run(test.board, func(t *testing.T) {
			var resp moveResponse
			code := do(t, h, http.MethodGet, moveURL(test.board), &resp)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, test.want, resp.Move)
			assert.GreaterOrEqual(t, resp.ElapsedMS, 0.0)
		})
	}
}

func TestMoveValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name  string
		board string
		want  error
	}{
		{"not json", "nope", errBoardNotJSON},
		{"missing", "", errBoardNotJSON},
		{"not an array", `{"a":1}`, errBoardLength},
		{"too short", "[0,0,0]", errBoardLength},
		{"foreign value", "[0,0,0,0,3,0,0,0,0]", errBoardAlphabet},
		{"string value", `[0,0,0,0,"1",0,0,0,0]`, errBoardAlphabet},
		{"fraction", "[0,0,0,0,1.5,0,0,0,0]", errBoardAlphabet},
		{"full board", "[1,2,1,2,1,1,2,1,2]", errNoMovesLeft},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var resp errorResponse
			code := do(t, h, http.MethodGet, moveURL(test.board), &resp)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, test.want.Error(), resp.Error)
		})
	}
}

func TestCacheEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	var stats statsResponse
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/stats", &stats))
	assert.Equal(t, 0, stats.CacheSize)
	assert.Equal(t, engine.OpeningBookSize(), stats.OpeningPositions)

	var move moveResponse
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, moveURL("[2,0,0,0,1,0,0,0,2]"), &move))
	assert.Equal(t, "search", move.Source)
	assert.Positive(t, move.CacheSize)

	var msg messageResponse
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/clear-cache", &msg))
	assert.Equal(t, "cache cleared", msg.Message)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/stats", &stats))
	assert.Equal(t, 0, stats.CacheSize)

	var again moveResponse
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, moveURL("[2,0,0,0,1,0,0,0,2]"), &again))
	assert.Equal(t, move.Move, again.Move)
}

func TestGames(t *testing.T) {
	h, _ := newTestHandler(t)

	var snap service.Snapshot
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/games?human_first=false", &snap))
	assert.Equal(t, "O", snap.Human)
	assert.Equal(t, 5, snap.AIMove)

	var got service.Snapshot
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/games/"+snap.ID, &got))
	assert.Equal(t, snap.Board, got.Board)

	var errResp errorResponse
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/games/"+snap.ID+"/moves?position=5", &errResp))
	assert.Equal(t, service.ErrIllegalMove.Error(), errResp.Error)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/games/"+snap.ID+"/moves?position=10", &errResp))
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/games/nope/moves?position=1", &errResp))
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/games/nope", &errResp))
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/games?human_first=maybe", &errResp))

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/games/"+snap.ID+"/moves?position=1", &got))
	assert.Equal(t, "O", got.Board[0])
	assert.NotZero(t, got.AIMove)
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil))
}

func TestEventStream(t *testing.T) {
	h, svc := newTestHandler(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is made by the handler goroutine after the upgrade;
	// keep querying until an event comes through.
	received := make(chan service.Event, 1)
	go func() {
		var ev service.Event
		if err := conn.ReadJSON(&ev); err == nil {
			received <- ev
		}
	}()

	deadline := time.After(5 * time.Second)
	for {
		resp, err := http.Get(srv.URL + moveURL("[0,0,0,0,0,0,0,0,0]"))
		require.NoError(t, err)
		resp.Body.Close()

		select {
		case ev := <-received:
			assert.Equal(t, service.EventQuery, ev.Type)
			assert.Equal(t, 5, ev.Position)

			// Events queued before Close may still arrive ahead of the close
			// frame.
			h.Close()
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
					return
				}
			}
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("timed out waiting for an event")
		}
	}
}
