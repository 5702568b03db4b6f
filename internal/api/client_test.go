package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/motus/internal/game"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "test@example.com" || body["password"] != "password123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-1"}`))
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["pseudo"] == "taken" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"pseudo taken"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["token"] != "tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"valid":true}`))
	})
	mux.HandleFunc("GET /api/user/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"pseudo":"testuser","email":"test@example.com"}`))
	})
	mux.HandleFunc("POST /api/game/new-word", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["difficulty"] != "medium" {
			http.Error(w, "plain text failure", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"gameId":"g-42","word":"HOUSE"}`))
	})
	mux.HandleFunc("POST /api/game/finish", func(w http.ResponseWriter, r *http.Request) {
		var body finishReq
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.GameID != "g-42" || body.Attempts != 3 || !body.Won || len(body.Guesses) != 3 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"leaderboard":[{"id":"1","username":"testuser","totalScore":1520,"winRate":84.4}]}`))
	})
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL + "/")
	ctx := context.Background()

	_, err := c.Login(ctx, "test@example.com", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid credentials", apiErr.Message)

	tok, err := c.Login(ctx, "test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	require.NoError(t, c.Verify(ctx, tok))
	assert.ErrorIs(t, c.Verify(ctx, "stale"), ErrUnauthorized)

	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	authed := c.WithToken(tok)
	assert.Empty(t, c.Token(), "WithToken must not mutate the receiver")
	u, err := authed.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, User{Pseudo: "testuser", Email: "test@example.com"}, u)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	require.NoError(t, c.Register(context.Background(), "alice", "a@example.com", "password123"))

	err := c.Register(context.Background(), "taken", "b@example.com", "password123")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "pseudo taken", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestGameCalls(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL).WithToken("tok-1")
	ctx := context.Background()

	rs, err := c.NewWord(ctx, game.Medium)
	require.NoError(t, err)
	assert.Equal(t, RoundStart{GameID: "g-42", Word: "HOUSE"}, rs)

	_, err = c.NewWord(ctx, game.Hard)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "plain text failure", apiErr.Message)

	require.NoError(t, c.FinishGame(ctx, "g-42", []string{"HORSE", "HOUND", "HOUSE"}, true))
	assert.Error(t, c.FinishGame(ctx, "g-42", []string{"HOUND", "HOUSE"}, true))
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t)
	entries, err := New(ts.URL).Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "testuser", entries[0].Username)
	assert.Equal(t, 1520, entries[0].TotalScore)
	assert.InDelta(t, 84.4, entries[0].WinRate, 0.001)
}

func TestContextCancellation(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL, WithTimeout(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.do(ctx, http.MethodGet, "/slow", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "api: 502 Bad Gateway", (&Error{Status: 502}).Error())
	assert.Equal(t, "api: 400 nope", (&Error{Status: 400, Message: "nope"}).Error())
}
