// internal/session/session.go
//
// Screen state machine for the client.
// Responsibilities:
//   - Track the current screen (home, dashboard, playing, leaderboard) and user.
//   - Gate signed-in screens; "play now" asks for the login panel when anonymous.
//   - Own the current round and discard round-start responses that were
//     superseded by a newer request.
//
// State is a plain value held by the top-level model. Transition methods work
// on a pointer receiver but there is no package-level state.

package session

import (
	"errors"

	"github.com/robalobadob/motus/internal/game"
)

// Screen is one of the four top-level views.
type Screen string

const (
	ScreenHome        Screen = "home"
	ScreenDashboard   Screen = "dashboard"
	ScreenPlaying     Screen = "playing"
	ScreenLeaderboard Screen = "leaderboard"
)

var (
	ErrStaleResponse = errors.New("session: response superseded by a newer request")
	ErrNoRound       = errors.New("session: no round in progress")
)

// User is the signed-in player as shown by the client.
type User struct {
	Username string
	Email    string
}

// RoundStart is what the game service hands back for a new round.
type RoundStart struct {
	GameID string
	Word   string
}

// State is the whole client session.
type State struct {
	Screen     Screen
	User       *User
	Difficulty game.Difficulty

	// LoginRequested is set when "play now" needs a login first; the login
	// panel is open while it is true.
	LoginRequested bool

	Round     *game.Round
	Loading   bool  // a round start is in flight
	RoundErr  error // last round-start failure, if any
	latestTag uint64
}

// New returns the initial anonymous state on the home screen.
func New() State {
	return State{Screen: ScreenHome, Difficulty: game.Easy}
}

// SignedIn reports whether a user is attached.
func (s State) SignedIn() bool { return s.User != nil }

// Login attaches u. If the login was requested by "play now" the player lands
// on the dashboard.
func (s *State) Login(u User) {
	s.User = &u
	if s.LoginRequested {
		s.Screen = ScreenDashboard
	}
	s.LoginRequested = false
}

// Logout drops the user and any round, back to home.
func (s *State) Logout() {
	s.User = nil
	s.Screen = ScreenHome
	s.LoginRequested = false
	s.dropRound()
}

// PlayNow goes to the dashboard, or asks for the login panel when anonymous.
func (s *State) PlayNow() {
	if s.SignedIn() {
		s.Screen = ScreenDashboard
		return
	}
	s.LoginRequested = true
}

// CloseLoginPanel cancels a pending login request.
func (s *State) CloseLoginPanel() { s.LoginRequested = false }

// StartGame selects d and switches to the board. The caller then requests a round.
func (s *State) StartGame(d game.Difficulty) bool {
	if !s.SignedIn() || !d.Valid() {
		return false
	}
	s.Difficulty = d
	s.Screen = ScreenPlaying
	return true
}

// BackToDashboard leaves the board or the leaderboard.
func (s *State) BackToDashboard() {
	if !s.SignedIn() {
		s.Screen = ScreenHome
		return
	}
	s.Screen = ScreenDashboard
	s.dropRound()
}

// NavigateHome is always allowed.
func (s *State) NavigateHome() {
	s.Screen = ScreenHome
	s.dropRound()
}

// ShowLeaderboard only works for a signed-in user.
func (s *State) ShowLeaderboard() bool {
	if !s.SignedIn() {
		return false
	}
	s.Screen = ScreenLeaderboard
	s.dropRound()
	return true
}

// RequestRound issues a fresh tag for a round start and clears the current
// round. Only the response carrying the latest tag will be applied.
func (s *State) RequestRound() uint64 {
	s.latestTag++
	s.Round = nil
	s.RoundErr = nil
	s.Loading = true
	return s.latestTag
}

// Current reports whether tag is the most recently issued one.
func (s *State) Current(tag uint64) bool { return tag == s.latestTag }

// ApplyRound installs the round for tag. Superseded responses are discarded
// with ErrStaleResponse; a word that does not fit the difficulty is an error.
func (s *State) ApplyRound(tag uint64, rs RoundStart) error {
	if !s.Current(tag) || s.Screen != ScreenPlaying {
		return ErrStaleResponse
	}
	s.Loading = false
	r, err := game.NewRound(rs.GameID, s.Difficulty, rs.Word)
	if err != nil {
		s.RoundErr = err
		return err
	}
	s.Round = r
	return nil
}

// FailRound records a round-start failure, unless it was superseded.
func (s *State) FailRound(tag uint64, err error) error {
	if !s.Current(tag) || s.Screen != ScreenPlaying {
		return ErrStaleResponse
	}
	s.Loading = false
	s.RoundErr = err
	return nil
}

// Submit plays guess on the current round. finished is true only for the
// guess that ended the round, so completion is reported exactly once.
func (s *State) Submit(guess string) (a game.Attempt, finished bool, err error) {
	if s.Round == nil {
		return game.Attempt{}, false, ErrNoRound
	}
	a, st, err := s.Round.Submit(guess)
	if err != nil {
		return game.Attempt{}, false, err
	}
	return a, st != game.StatusPlaying, nil
}

func (s *State) dropRound() {
	s.Round = nil
	s.Loading = false
	s.RoundErr = nil
	// Bump the tag so a round start still in flight is ignored on arrival.
	s.latestTag++
}
