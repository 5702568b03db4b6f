package httpserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/motus/internal/api"
	"github.com/robalobadob/motus/internal/config"
	"github.com/robalobadob/motus/internal/db"
	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/words"
)

func newTestServer(t *testing.T, opts ...func(*Server)) (*Server, *httptest.Server) {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "motus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	cfg := config.Server{
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		ClientOrigin:    "http://localhost:3000",
		ShutdownTimeout: time.Second,
	}
	s := New(cfg, conn, words.FromWords([]string{"CATS", "PLANE", "GARDEN"}))
	s.bcryptCost = bcrypt.MinCost
	for _, o := range opts {
		o(s)
	}

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

// signedIn registers and logs in a player, returning an authenticated client.
func signedIn(t *testing.T, base, pseudo string) *api.Client {
	t.Helper()
	ctx := context.Background()
	c := api.New(base)
	email := pseudo + "@example.com"
	require.NoError(t, c.Register(ctx, pseudo, email, "password123"))
	tok, err := c.Login(ctx, email, "password123")
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	return c.WithToken(tok)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAuthFlow(t *testing.T) {
	ctx := context.Background()
	_, ts := newTestServer(t)
	c := signedIn(t, ts.URL, "alice")

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.User{Pseudo: "alice", Email: "alice@example.com"}, me)

	require.NoError(t, c.Verify(ctx, c.Token()))

	err = c.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	_, err = api.New(ts.URL).Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	err = api.New(ts.URL).Register(ctx, "alice", "other@example.com", "password123")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	_, err = api.New(ts.URL).Me(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	_, ts := newTestServer(t)
	c := api.New(ts.URL)

	tests := []struct{ pseudo, email, pw string }{
		{"al", "al@example.com", "password123"},
		{"bad name", "x@example.com", "password123"},
		{"carol", "not-an-email", "password123"},
		{"dave", "dave@example.com", "short"},
	}
	for _, tt := range tests {
		err := c.Register(ctx, tt.pseudo, tt.email, tt.pw)
		var apiErr *api.Error
		require.ErrorAs(t, err, &apiErr, "%+v", tt)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status, "%+v", tt)
	}
}

func TestRegisterStorageErrors(t *testing.T) {
	ctx := context.Background()
	s, ts := newTestServer(t)

	// A signup that loses the race past the existence check hits the unique index.
	first := &userRow{ID: "u1", Pseudo: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, s.insertUser(ctx, first))
	dup := &userRow{ID: "u2", Pseudo: "ALICE", Email: "other@example.com", PasswordHash: "x"}
	assert.ErrorIs(t, s.insertUser(ctx, dup), errTaken)

	require.NoError(t, s.db.Close())
	err := api.New(ts.URL).Register(ctx, "bobby", "bob@example.com", "password123")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status, "storage failures are not reported as bad input")
}

func TestExpiredToken(t *testing.T) {
	ctx := context.Background()
	_, ts := newTestServer(t, func(s *Server) { s.cfg.TokenTTL = -time.Minute })
	c := signedIn(t, ts.URL, "alice")

	_, err := c.Me(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRoundLifecycle(t *testing.T) {
	ctx := context.Background()
	_, ts := newTestServer(t)
	c := signedIn(t, ts.URL, "alice")

	for _, d := range game.Difficulties() {
		rs, err := c.NewWord(ctx, d)
		require.NoError(t, err)
		assert.NotEmpty(t, rs.GameID)
		assert.Len(t, rs.Word, d.Config().WordLength)
	}

	rs, err := c.NewWord(ctx, game.Medium)
	require.NoError(t, err)
	assert.Equal(t, "PLANE", rs.Word)
	require.NoError(t, c.FinishGame(ctx, rs.GameID, []string{"PLANK", "plane"}, true))

	err = c.FinishGame(ctx, rs.GameID, []string{"PLANK", "PLANE"}, true)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr, "a round is finished once")
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	entries, err := c.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 4, entries[0].TotalGames, "the three unfinished rounds count as losses")
	assert.Equal(t, 20, entries[0].TotalScore)
	assert.Equal(t, 1, entries[0].MediumWins)
	assert.Equal(t, 2.0, entries[0].AverageAttempts)
}

func TestFinishReplaysGuesses(t *testing.T) {
	ctx := context.Background()
	_, ts := newTestServer(t)
	alice := signedIn(t, ts.URL, "alice")
	bob := signedIn(t, ts.URL, "bobby")

	rs, err := alice.NewWord(ctx, game.Hard)
	require.NoError(t, err)

	tests := []struct {
		name    string
		client  *api.Client
		guesses []string
		won     bool
		status  int
	}{
		{"win without a guess", alice, nil, true, http.StatusBadRequest},
		{"win claimed on a miss", alice, []string{"GOBLIN"}, true, http.StatusBadRequest},
		{"loss before max", alice, []string{"GOBLIN", "GALLON", "GARBLE"}, false, http.StatusBadRequest},
		{"guess after the end", alice, []string{"GARDEN", "GOBLIN"}, true, http.StatusBadRequest},
		{"wrong first letter", alice, []string{"HARDEN", "GOBLIN", "GALLON", "GARBLE"}, false, http.StatusBadRequest},
		{"other player", bob, []string{"GARDEN"}, true, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.client.FinishGame(ctx, rs.GameID, tt.guesses, tt.won)
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}

	entries, err := alice.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected reports change nothing")

	require.NoError(t, alice.FinishGame(ctx, rs.GameID, []string{"GOBLIN", "GALLON", "GARBLE", "GARDEN"}, true))
	entries, err = alice.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 30, entries[0].TotalScore)
	assert.Equal(t, 4.0, entries[0].AverageAttempts)
}

func TestAbandonedRoundBreaksStreak(t *testing.T) {
	ctx := context.Background()
	s, ts := newTestServer(t)
	c := signedIn(t, ts.URL, "alice")

	rs, err := c.NewWord(ctx, game.Easy)
	require.NoError(t, err)
	require.NoError(t, c.FinishGame(ctx, rs.GameID, []string{"CATS"}, true))

	left, err := c.NewWord(ctx, game.Easy)
	require.NoError(t, err)
	next, err := c.NewWord(ctx, game.Easy)
	require.NoError(t, err)

	var streak, played int
	require.NoError(t, s.db.QueryRow(`SELECT current_streak, games_played FROM users WHERE pseudo='alice'`).
		Scan(&streak, &played))
	assert.Equal(t, 0, streak)
	assert.Equal(t, 2, played)

	err = c.FinishGame(ctx, left.GameID, []string{"CATS"}, true)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr, "the abandoned round is gone")
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	require.NoError(t, c.FinishGame(ctx, next.GameID, []string{"CATS"}, true))
	entries, err := c.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].CurrentStreak)
	assert.Equal(t, 20, entries[0].TotalScore)
}

func TestActiveRoundsStayBounded(t *testing.T) {
	ctx := context.Background()
	s, ts := newTestServer(t)
	c := signedIn(t, ts.URL, "alice")

	ids := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		rs, err := c.NewWord(ctx, game.Medium)
		require.NoError(t, err)
		ids = append(ids, rs.GameID)
	}
	live := 0
	for _, id := range ids {
		if _, err := s.rounds.Get(ctx, id); err == nil {
			live++
		}
	}
	assert.Equal(t, 1, live)

	var playing int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM games WHERE status='playing'`).Scan(&playing))
	assert.Equal(t, 1, playing)
}

func TestSweepClosesExpiredRounds(t *testing.T) {
	ctx := context.Background()
	s, ts := newTestServer(t, func(s *Server) { s.cfg.RoundTTL = time.Hour })
	c := signedIn(t, ts.URL, "alice")

	rs, err := c.NewWord(ctx, game.Hard)
	require.NoError(t, err)
	assert.Zero(t, s.sweepRounds(ctx), "fresh rounds stay")

	// A negative TTL puts the cutoff in the future.
	s.cfg.RoundTTL = -time.Hour
	assert.Equal(t, 1, s.sweepRounds(ctx))
	assert.Zero(t, s.sweepRounds(ctx))

	err = c.FinishGame(ctx, rs.GameID, []string{"GARDEN"}, true)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	var status string
	require.NoError(t, s.db.QueryRow(`SELECT status FROM games WHERE id=?`, rs.GameID).Scan(&status))
	assert.Equal(t, "lost", status)
}

func TestNewWordRequiresAuthAndDifficulty(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/game/new-word", "application/json", strings.NewReader(`{"difficulty":"easy"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c := signedIn(t, ts.URL, "alice")
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/game/new-word", bytes.NewBufferString(`{"difficulty":"extreme"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+c.Token())
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, func(s *Server) { s.cfg.Addr = "127.0.0.1:0" })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
