// internal/account/account.go
//
// Sign-in flow of the client.
// Responsibilities:
//   - Restore a session at start-up from the stored token (verify + profile).
//   - Login / register / logout, keeping the token store in sync.
//   - Hand out an API client that carries the current token.
//
// Notes:
//   - A stored JWT whose exp already passed is dropped without a network call.
//     Opaque (non-JWT) tokens are always sent for verification.
//   - Any failure while restoring clears the token; the user starts anonymous.

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/api"
	"github.com/robalobadob/motus/internal/session"
)

var (
	ErrMissingFields = errors.New("account: all fields are required")
	ErrTokenExpired  = errors.New("account: stored token expired")
)

// Service owns the token and the authenticated API client.
type Service struct {
	base   *api.Client
	tokens TokenStore
	now    func() time.Time

	mu     sync.RWMutex
	client *api.Client
}

// NewService wires the flow to the API at base and the token store.
func NewService(base *api.Client, tokens TokenStore) *Service {
	return &Service{base: base, tokens: tokens, now: time.Now, client: base}
}

// Client returns the API client for the current user (anonymous if signed out).
func (s *Service) Client() *api.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *Service) setClient(c *api.Client) {
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
}

// Restore checks the stored token. ok is false when nobody is signed in.
func (s *Service) Restore(ctx context.Context) (u session.User, ok bool, err error) {
	tok, err := s.tokens.Load()
	if err != nil {
		return session.User{}, false, fmt.Errorf("load token: %w", err)
	}
	if tok == "" {
		return session.User{}, false, nil
	}

	u, err = s.restore(ctx, tok)
	if err != nil {
		log.Info().Err(err).Msg("stored token rejected, signing out")
		if cerr := s.tokens.Clear(); cerr != nil {
			log.Warn().Err(cerr).Msg("clear token")
		}
		s.setClient(s.base)
		return session.User{}, false, nil
	}
	return u, true, nil
}

func (s *Service) restore(ctx context.Context, tok string) (session.User, error) {
	if expired(tok, s.now()) {
		return session.User{}, ErrTokenExpired
	}
	if err := s.base.Verify(ctx, tok); err != nil {
		return session.User{}, err
	}
	return s.profile(ctx, tok)
}

// Login signs in with email and password and stores the token.
func (s *Service) Login(ctx context.Context, email, password string) (session.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return session.User{}, ErrMissingFields
	}
	tok, err := s.base.Login(ctx, email, password)
	if err != nil {
		return session.User{}, err
	}
	u, err := s.profile(ctx, tok)
	if err != nil {
		return session.User{}, err
	}
	if err := s.tokens.Save(tok); err != nil {
		log.Warn().Err(err).Msg("save token")
	}
	return u, nil
}

// Register creates the account, then logs in with the same credentials.
func (s *Service) Register(ctx context.Context, username, email, password string) (session.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return session.User{}, ErrMissingFields
	}
	if err := s.base.Register(ctx, username, email, password); err != nil {
		return session.User{}, err
	}
	return s.Login(ctx, email, password)
}

// Logout forgets the token locally.
func (s *Service) Logout() error {
	s.setClient(s.base)
	return s.tokens.Clear()
}

func (s *Service) profile(ctx context.Context, tok string) (session.User, error) {
	c := s.base.WithToken(tok)
	me, err := c.Me(ctx)
	if err != nil {
		return session.User{}, fmt.Errorf("fetch profile: %w", err)
	}
	s.setClient(c)
	return session.User{Username: me.Pseudo, Email: me.Email}, nil
}

// expired reports whether tok is a JWT whose exp is not after now.
// The signature is not checked; the service does that on Verify.
func expired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
