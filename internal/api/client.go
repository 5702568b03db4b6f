// internal/api/client.go
//
// HTTP client for the remote Motus services.
// Responsibilities:
//   - Auth: login, register, token verification, current user.
//   - Game: request a target word for a difficulty, report a finished round.
//   - Stats: fetch the leaderboard.
//
// Notes:
//   - Every call takes a context; the underlying http.Client carries a timeout too.
//   - Non-2xx answers are decoded into *Error; 401 matches ErrUnauthorized.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/leaderboard"
)

var ErrUnauthorized = errors.New("api: unauthorized")

// Error is a non-2xx answer from the service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 answers.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// User is the profile returned by /api/user/me.
type User struct {
	Pseudo string `json:"pseudo"`
	Email  string `json:"email"`
}

// RoundStart is the answer to a new-word request.
type RoundStart struct {
	GameID string `json:"gameId"`
	Word   string `json:"word"`
}

// Client talks to one API base URL. Safe for concurrent use; the token is
// fixed per Client (see WithToken).
type Client struct {
	base  string
	http  *http.Client
	token string
}

// Option tweaks a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New builds a client for baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithToken returns a copy that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token is the bearer token in use, if any.
func (c *Client) Token() string { return c.token }

// ------------------------------- auth --------------------------------------

type credentials struct {
	Pseudo   string `json:"pseudo,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var res struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &res); err != nil {
		return "", err
	}
	if res.Token == "" {
		return "", errors.New("api: login returned no token")
	}
	return res.Token, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, pseudo, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/register", credentials{Pseudo: pseudo, Email: email, Password: password}, nil)
}

// Verify asks the auth service whether token is still valid.
func (c *Client) Verify(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/verify", map[string]string{"token": token}, nil)
}

// Me returns the profile behind the client's token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/api/user/me", nil, &u)
	return u, err
}

// ------------------------------- game --------------------------------------

// NewWord requests a target word and round id for d.
func (c *Client) NewWord(ctx context.Context, d game.Difficulty) (RoundStart, error) {
	var rs RoundStart
	err := c.do(ctx, http.MethodPost, "/api/game/new-word", map[string]string{"difficulty": string(d)}, &rs)
	return rs, err
}

type finishReq struct {
	GameID   string   `json:"gameId"`
	Attempts int      `json:"attempts"`
	Won      bool     `json:"won"`
	Guesses  []string `json:"guesses"`
}

// FinishGame reports the end of round gameID. Each guess counts as one
// attempt; the service may replay them against the target.
func (c *Client) FinishGame(ctx context.Context, gameID string, guesses []string, won bool) error {
	req := finishReq{GameID: gameID, Attempts: len(guesses), Won: won, Guesses: guesses}
	return c.do(ctx, http.MethodPost, "/api/game/finish", req, nil)
}

// ------------------------------- stats -------------------------------------

// Leaderboard fetches every ranked player.
func (c *Client) Leaderboard(ctx context.Context) ([]leaderboard.Entry, error) {
	var res struct {
		Leaderboard []leaderboard.Entry `json:"leaderboard"`
	}
	err := c.do(ctx, http.MethodGet, "/api/leaderboard", nil, &res)
	return res.Leaderboard, err
}

// ------------------------------ plumbing -----------------------------------

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s: %w", path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		e.Message = body.Error
		if e.Message == "" {
			e.Message = body.Message
		}
	} else {
		e.Message = strings.TrimSpace(string(raw))
	}
	return e
}
