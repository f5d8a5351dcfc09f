package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"neondraw/internal/domain"
)

type stubWords string

func (w stubWords) PickRandom() string { return string(w) }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingClient keeps every event it is sent
type recordingClient struct {
	playerID string

	mu     sync.Mutex
	events []*domain.GameEvent
}

func newRecordingClient(playerID string) *recordingClient {
	return &recordingClient{playerID: playerID}
}

func (c *recordingClient) Send(message interface{}) error {
	event, ok := message.(*domain.GameEvent)
	if !ok {
		return errors.New("unexpected message type")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *recordingClient) GetPlayerID() string { return c.playerID }

func (c *recordingClient) Close() error { return nil }

func (c *recordingClient) ofType(eventType domain.EventType) []*domain.GameEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*domain.GameEvent
	for _, e := range c.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (c *recordingClient) waitFor(t *testing.T, eventType domain.EventType, count int) []*domain.GameEvent {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(c.ofType(eventType)) >= count
	}, time.Second, 5*time.Millisecond, "waiting for %d %s events", count, eventType)
	return c.ofType(eventType)
}

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Send(message interface{}) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockClient) GetPlayerID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

type sessionFixture struct {
	session *GameSession
	clock   *testClock
	clients map[string]*recordingClient
}

// newTestSession seats players p1..pN (host p1) with a recording client each.
// Every turn draws the word "apple".
func newTestSession(t *testing.T, intermission time.Duration, maxRounds, players int) *sessionFixture {
	t.Helper()

	clock := newTestClock()
	room := domain.NewRoom("ROOM01", "p1", domain.RoomOptions{
		MaxPlayers: 4,
		MaxRounds:  maxRounds,
		RoundTime:  80 * time.Second,
		Words:      stubWords("apple"),
		Clock:      clock.Now,
	})
	session := NewGameSession(room, intermission, zerolog.Nop())
	t.Cleanup(session.Close)

	fx := &sessionFixture{session: session, clock: clock, clients: make(map[string]*recordingClient)}
	for i := 1; i <= players; i++ {
		id := seatID(i)
		client := newRecordingClient(id)
		fx.clients[id] = client
		session.RegisterClient(id, client)
		_, err := session.AddPlayer(id, "user-"+id, "#FF6B6B")
		require.NoError(t, err)
	}
	return fx
}

func seatID(i int) string {
	return "p" + string(rune('0'+i))
}

func TestSessionStartGame(t *testing.T) {
	t.Run("requires a seated player", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		assert.ErrorIs(t, fx.session.StartGame("stranger"), domain.ErrPlayerNotFound)
	})

	t.Run("requires two players", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 1)
		assert.ErrorIs(t, fx.session.StartGame("p1"), domain.ErrInsufficientPlayers)
		assert.Equal(t, domain.StateWaiting, fx.session.GetState())
	})

	t.Run("any player may start", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p2"))
		assert.Equal(t, domain.StateDrawing, fx.session.GetState())
		assert.Equal(t, "user-p1", fx.session.Snapshot().CurrentDrawer)
	})

	t.Run("cannot restart a running game", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))
		assert.ErrorIs(t, fx.session.StartGame("p2"), domain.ErrGameInProgress)
	})

	t.Run("locks the lobby", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))
		assert.False(t, fx.session.CanJoin())

		_, err := fx.session.AddPlayer("p3", "late", "#4ECDC4")
		assert.ErrorIs(t, err, domain.ErrGameAlreadyStarted)
	})
}

func TestSessionSecretWordOnlyReachesDrawer(t *testing.T) {
	fx := newTestSession(t, time.Second, 3, 3)
	require.NoError(t, fx.session.StartGame("p1"))

	secrets := fx.clients["p1"].waitFor(t, domain.EventSecretWord, 1)
	assert.Equal(t, &domain.SecretWordPayload{Word: "apple"}, secrets[0].Payload)

	turns := fx.clients["p2"].waitFor(t, domain.EventTurnStarted, 1)
	info := turns[0].Payload.(domain.TurnInfo)
	assert.Equal(t, "p1", info.DrawerID)
	assert.Equal(t, "a...e", info.WordHint)
	assert.Equal(t, 5, info.WordLength)

	assert.Empty(t, fx.clients["p2"].ofType(domain.EventSecretWord))
	assert.Empty(t, fx.clients["p3"].ofType(domain.EventSecretWord))

	word, ok := fx.session.SecretWord("p2")
	assert.False(t, ok)
	assert.Empty(t, word)
	assert.Equal(t, "a...e", fx.session.Snapshot().WordHint)
}

func TestSessionDrawing(t *testing.T) {
	stroke := domain.Stroke{Kind: domain.StrokeStart, X: 0.25, Y: 0.5, Color: "#000000", Size: 4}

	t.Run("rejected before the game starts", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		assert.ErrorIs(t, fx.session.SubmitDraw("p1", stroke), domain.ErrNotDrawing)
		assert.ErrorIs(t, fx.session.ClearCanvas("p1"), domain.ErrNotDrawing)
	})

	t.Run("only the drawer draws", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))

		assert.ErrorIs(t, fx.session.SubmitDraw("p2", stroke), domain.ErrNotDrawer)
		assert.ErrorIs(t, fx.session.SubmitDraw("ghost", stroke), domain.ErrPlayerNotFound)
		assert.ErrorIs(t, fx.session.ClearCanvas("p2"), domain.ErrNotDrawer)
		assert.Empty(t, fx.session.Canvas())
	})

	t.Run("strokes reach everyone but the drawer", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))
		require.NoError(t, fx.session.SubmitDraw("p1", stroke))

		appended := fx.clients["p2"].waitFor(t, domain.EventCanvasAppended, 1)
		assert.Equal(t, stroke, appended[0].Payload)
		assert.Empty(t, fx.clients["p1"].ofType(domain.EventCanvasAppended))
		assert.Equal(t, []domain.Stroke{stroke}, fx.session.Canvas())
	})

	t.Run("clear wipes the canvas", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))
		require.NoError(t, fx.session.SubmitDraw("p1", stroke))
		require.NoError(t, fx.session.ClearCanvas("p1"))

		fx.clients["p1"].waitFor(t, domain.EventCanvasCleared, 1)
		fx.clients["p2"].waitFor(t, domain.EventCanvasCleared, 1)
		assert.Empty(t, fx.session.Canvas())
	})
}

func TestSessionChat(t *testing.T) {
	t.Run("empty messages are rejected", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		_, err := fx.session.SubmitChat("p1", "   ")
		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	})

	t.Run("unknown player", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		_, err := fx.session.SubmitChat("ghost", "hello")
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("lobby chat is plain", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		result, err := fx.session.SubmitChat("p2", "apple")
		require.NoError(t, err)
		assert.False(t, result.Correct)
		assert.Empty(t, fx.clients["p1"].ofType(domain.EventGuessResult))
	})

	t.Run("wrong guess", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))

		result, err := fx.session.SubmitChat("p2", "banana")
		require.NoError(t, err)
		assert.False(t, result.Correct)
		assert.Equal(t, "banana", result.Guess)

		results := fx.clients["p1"].waitFor(t, domain.EventGuessResult, 1)
		assert.False(t, results[0].Payload.(domain.GuessResult).Correct)
		assert.Equal(t, domain.StateDrawing, fx.session.GetState())
	})

	t.Run("drawer chats without scoring", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))

		result, err := fx.session.SubmitChat("p1", "it's a fruit")
		require.NoError(t, err)
		assert.False(t, result.Correct)
		assert.Equal(t, map[string]int{"p1": 0, "p2": 0}, fx.session.Snapshot().Scores)
		assert.Equal(t, domain.StateDrawing, fx.session.GetState())
	})

	t.Run("drawer cannot say the word", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))
		fx.clients["p2"].waitFor(t, domain.EventTurnStarted, 1)
		chatBefore := len(fx.clients["p2"].ofType(domain.EventChatMessage))

		_, err := fx.session.SubmitChat("p1", " Apple ")
		assert.ErrorIs(t, err, domain.ErrWordRevealed)

		_, err = fx.session.SubmitChat("p1", "marker")
		require.NoError(t, err)
		chats := fx.clients["p2"].waitFor(t, domain.EventChatMessage, chatBefore+1)
		for _, e := range chats {
			assert.NotContains(t, e.Payload.(*domain.ChatPayload).Message, "Apple")
		}
		assert.Equal(t, domain.StateDrawing, fx.session.GetState())
	})

	t.Run("correct guess scores guesser and drawer", func(t *testing.T) {
		fx := newTestSession(t, time.Hour, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))
		fx.clock.Advance(10 * time.Second)

		result, err := fx.session.SubmitChat("p2", "  APPLE ")
		require.NoError(t, err)
		assert.True(t, result.Correct)
		assert.Equal(t, 800, result.Score)
		assert.Equal(t, "apple", result.Word)

		assert.Equal(t, map[string]int{"p1": 50, "p2": 800}, fx.session.Snapshot().Scores)
		assert.Equal(t, domain.StateBetweenRounds, fx.session.GetState())

		ended := fx.clients["p2"].waitFor(t, domain.EventRoundEnded, 1)
		payload := ended[0].Payload.(*domain.RoundEndedPayload)
		assert.Equal(t, "apple", payload.Word)
		assert.Equal(t, "guessed", payload.Reason)
		assert.Equal(t, 1, payload.Round)
	})
}

func TestSessionConcurrentCorrectGuessesScoreOnce(t *testing.T) {
	fx := newTestSession(t, time.Hour, 3, 4)
	require.NoError(t, fx.session.StartGame("p1"))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		correct int
	)
	for _, id := range []string{"p2", "p3", "p4"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			result, err := fx.session.SubmitChat(id, "apple")
			if err == nil && result.Correct {
				mu.Lock()
				correct++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, correct)

	total := 0
	for _, score := range fx.session.Snapshot().Scores {
		total += score
	}
	assert.Equal(t, 900+domain.DrawerBonus, total)
}

func TestSessionRoundClock(t *testing.T) {
	t.Run("timeout ends the turn and intermission starts the next", func(t *testing.T) {
		fx := newTestSession(t, 3*time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))

		fx.clock.Advance(79 * time.Second)
		fx.session.Tick()
		assert.Equal(t, domain.StateDrawing, fx.session.GetState())

		fx.clock.Advance(time.Second)
		fx.session.Tick()
		assert.Equal(t, domain.StateBetweenRounds, fx.session.GetState())

		ended := fx.clients["p1"].waitFor(t, domain.EventRoundEnded, 1)
		payload := ended[0].Payload.(*domain.RoundEndedPayload)
		assert.Equal(t, "timeout", payload.Reason)
		assert.Equal(t, 1, payload.Round)
		assert.Equal(t, domain.StateBetweenRounds, payload.State)

		fx.session.Tick()
		assert.Equal(t, domain.StateBetweenRounds, fx.session.GetState())

		fx.clock.Advance(3 * time.Second)
		fx.session.Tick()
		snap := fx.session.Snapshot()
		assert.Equal(t, domain.StateDrawing, snap.GameState)
		assert.Equal(t, "user-p2", snap.CurrentDrawer)
		assert.Equal(t, 2, snap.Round)
	})

	t.Run("no intermission chains straight into the next turn", func(t *testing.T) {
		fx := newTestSession(t, 0, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))

		_, err := fx.session.SubmitChat("p2", "apple")
		require.NoError(t, err)

		snap := fx.session.Snapshot()
		assert.Equal(t, domain.StateDrawing, snap.GameState)
		assert.Equal(t, "user-p2", snap.CurrentDrawer)

		secrets := fx.clients["p2"].waitFor(t, domain.EventSecretWord, 1)
		assert.Equal(t, "apple", secrets[0].Payload.(*domain.SecretWordPayload).Word)
	})

	t.Run("game finishes after the last round", func(t *testing.T) {
		fx := newTestSession(t, 0, 2, 2)
		require.NoError(t, fx.session.StartGame("p1"))

		_, err := fx.session.SubmitChat("p2", "apple")
		require.NoError(t, err)
		_, err = fx.session.SubmitChat("p1", "apple")
		require.NoError(t, err)

		assert.Equal(t, domain.StateFinished, fx.session.GetState())

		ended := fx.clients["p1"].waitFor(t, domain.EventRoundEnded, 2)
		assert.Equal(t, 1, ended[0].Payload.(*domain.RoundEndedPayload).Round)
		assert.Equal(t, 2, ended[1].Payload.(*domain.RoundEndedPayload).Round)

		finished := fx.clients["p1"].waitFor(t, domain.EventGameFinished, 1)
		board := finished[0].Payload.(*domain.GameFinishedPayload).Leaderboard
		require.Len(t, board, 2)
		assert.Equal(t, 950, board[0].Score)
		assert.Equal(t, 950, board[1].Score)

		fx.session.Tick()
		assert.Equal(t, domain.StateFinished, fx.session.GetState())

		require.NoError(t, fx.session.StartGame("p2"))
		snap := fx.session.Snapshot()
		assert.Equal(t, 1, snap.Round)
		assert.Equal(t, map[string]int{"p1": 0, "p2": 0}, snap.Scores)
	})
}

func TestSessionRemovePlayer(t *testing.T) {
	t.Run("unknown player", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		assert.Equal(t, 2, fx.session.RemovePlayer("ghost"))
	})

	t.Run("drawer leaving ends the turn", func(t *testing.T) {
		fx := newTestSession(t, 0, 3, 3)
		require.NoError(t, fx.session.StartGame("p1"))

		assert.Equal(t, 2, fx.session.RemovePlayer("p1"))

		ended := fx.clients["p2"].waitFor(t, domain.EventRoundEnded, 1)
		payload := ended[0].Payload.(*domain.RoundEndedPayload)
		assert.Equal(t, "drawer_left", payload.Reason)
		assert.Equal(t, 1, payload.Round)

		snap := fx.session.Snapshot()
		assert.Equal(t, domain.StateDrawing, snap.GameState)
		assert.Equal(t, "user-p2", snap.CurrentDrawer)
		assert.Equal(t, 2, snap.Round)
	})

	t.Run("down to one player returns to the lobby", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		require.NoError(t, fx.session.StartGame("p1"))

		assert.Equal(t, 1, fx.session.RemovePlayer("p2"))
		assert.Equal(t, domain.StateWaiting, fx.session.GetState())
		assert.True(t, fx.session.CanJoin())
	})
}

func TestSessionClients(t *testing.T) {
	t.Run("stale client does not unregister its replacement", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		stale := fx.clients["p2"]
		fresh := newRecordingClient("p2")
		fx.session.RegisterClient("p2", fresh)

		assert.False(t, fx.session.UnregisterClient("p2", stale))
		_, err := fx.session.SubmitChat("p1", "hi")
		require.NoError(t, err)

		fresh.waitFor(t, domain.EventChatMessage, 1)
	})

	t.Run("replacing a client closes the old one", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)

		old := new(MockClient)
		old.On("Send", mock.Anything).Return(nil).Maybe()
		old.On("Close").Return(nil).Once()
		fx.session.RegisterClient("p2", old)
		fx.session.RegisterClient("p2", fx.clients["p2"])

		old.AssertExpectations(t)
		assert.False(t, fx.session.UnregisterClient("p2", old))

		// registering the same client again leaves it open
		again := new(MockClient)
		again.On("Send", mock.Anything).Return(nil).Maybe()
		again.On("Close").Return(nil).Maybe()
		fx.session.RegisterClient("p1", again)
		fx.session.RegisterClient("p1", again)
		again.AssertNotCalled(t, "Close")
	})

	t.Run("seats without a client go idle", func(t *testing.T) {
		fx := newTestSession(t, time.Second, 3, 2)
		_, err := fx.session.AddPlayer("p3", "user-p3", "#4ECDC4")
		require.NoError(t, err)

		fx.clock.Advance(time.Minute)
		assert.Empty(t, fx.session.IdleSeats(fx.clock.Now(), 2*time.Minute))

		require.True(t, fx.session.UnregisterClient("p2", fx.clients["p2"]))
		fx.clock.Advance(90 * time.Second)
		assert.Equal(t, []string{"p3"}, fx.session.IdleSeats(fx.clock.Now(), 2*time.Minute))

		fx.clock.Advance(time.Minute)
		assert.Equal(t, []string{"p2", "p3"}, fx.session.IdleSeats(fx.clock.Now(), 2*time.Minute))

		fx.session.RegisterClient("p3", newRecordingClient("p3"))
		fx.session.RemovePlayer("p2")
		assert.Empty(t, fx.session.IdleSeats(fx.clock.Now(), 2*time.Minute))
	})

	t.Run("close closes every client", func(t *testing.T) {
		clock := newTestClock()
		room := domain.NewRoom("ROOM02", "p1", domain.RoomOptions{Clock: clock.Now})
		session := NewGameSession(room, time.Second, zerolog.Nop())

		client := new(MockClient)
		client.On("Close").Return(nil).Once()
		session.RegisterClient("p1", client)

		session.Close()
		session.Close()

		client.AssertExpectations(t)
	})
}
