// internal/game/engine.go
//
// Guess evaluation and round bookkeeping.
// Responsibilities:
//   - Classify a guess against the target with the two-pass algorithm.
//   - Validate guesses (length, leading letter, letters only) before evaluation.
//   - Track state transitions: playing → won/lost.
//
// The target word is supplied by the game service; this package never picks one.
package game

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrEmptyWord      = errors.New("game: empty word")
	ErrLengthMismatch = errors.New("game: guess and target differ in length")
	ErrRoundOver      = errors.New("game: round is over")
	ErrWrongLength    = errors.New("game: wrong word length")
	ErrWrongPrefix    = errors.New("game: guess must start with the revealed letter")
	ErrNotLetters     = errors.New("game: guess must contain letters only")
)

// Evaluate classifies every letter of guess against target.
//
// Pass 1 marks exact matches correct and consumes both positions.
// Pass 2 walks the remaining guess letters in order; each takes the leftmost
// unconsumed equal target letter as present, or stays absent.
//
// Each target letter satisfies at most one guess position, so repeated letters
// are never over-counted. Equal, non-empty lengths are a precondition.
func Evaluate(guess, target string) ([]LetterState, error) {
	g := []rune(guess)
	t := []rune(target)
	if len(g) == 0 || len(t) == 0 {
		return nil, ErrEmptyWord
	}
	if len(g) != len(t) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(g), len(t))
	}

	out := make([]LetterState, len(g))
	used := make([]bool, len(t))
	resolved := make([]bool, len(g))
	for i := range out {
		out[i] = StateAbsent
	}

	for i := range g {
		if g[i] == t[i] {
			out[i] = StateCorrect
			used[i] = true
			resolved[i] = true
		}
	}

	for i := range g {
		if resolved[i] {
			continue
		}
		for j := range t {
			if !used[j] && t[j] == g[i] {
				out[i] = StatePresent
				used[j] = true
				break
			}
		}
	}
	return out, nil
}

// IsWin reports whether guess matches target character for character.
func IsWin(guess, target string) bool {
	return guess == target
}

// Round holds one play from target assignment to win or loss.
type Round struct {
	ID         string
	Difficulty Difficulty
	Target     string // upper case
	Attempts   []Attempt
	status     Status
}

// NewRound starts a round for d. The target must be letters only, of the
// difficulty's word length.
func NewRound(id string, d Difficulty, target string) (*Round, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("game: unknown difficulty %q", d)
	}
	target = normalize(target)
	if n := utf8.RuneCountInString(target); n != d.Config().WordLength {
		return nil, fmt.Errorf("%w: target has %d letters, %s wants %d",
			ErrWrongLength, n, d, d.Config().WordLength)
	}
	for _, c := range target {
		if !unicode.IsLetter(c) {
			return nil, fmt.Errorf("%w: target %q", ErrNotLetters, target)
		}
	}
	return &Round{ID: id, Difficulty: d, Target: target, status: StatusPlaying}, nil
}

// FirstLetter is the pre-revealed prefix every guess must start with.
func (r *Round) FirstLetter() rune {
	first, _ := utf8.DecodeRuneInString(r.Target)
	return first
}

// Status reports playing, won or lost.
func (r *Round) Status() Status { return r.status }

// Over reports whether the round has terminated.
func (r *Round) Over() bool { return r.status != StatusPlaying }

// Remaining is the number of guesses still allowed.
func (r *Round) Remaining() int {
	return r.Difficulty.Config().MaxAttempts - len(r.Attempts)
}

// Validate applies the caller-side checks that must pass before evaluation.
func (r *Round) Validate(guess string) error {
	if r.Over() {
		return ErrRoundOver
	}
	guess = normalize(guess)
	cfg := r.Difficulty.Config()
	if utf8.RuneCountInString(guess) != cfg.WordLength {
		return fmt.Errorf("%w: word must be %d letters long", ErrWrongLength, cfg.WordLength)
	}
	if first, _ := utf8.DecodeRuneInString(guess); first != r.FirstLetter() {
		return fmt.Errorf("%w: word must start with %q", ErrWrongPrefix, string(r.FirstLetter()))
	}
	for _, c := range guess {
		if !unicode.IsLetter(c) {
			return ErrNotLetters
		}
	}
	return nil
}

// Submit validates, evaluates and records guess.
// Returns the recorded attempt and the status after it.
//
// State transitions:
//   - guess equals the target → won.
//   - else attempts reach MaxAttempts → lost.
func (r *Round) Submit(guess string) (Attempt, Status, error) {
	if err := r.Validate(guess); err != nil {
		return Attempt{}, r.status, err
	}
	guess = normalize(guess)

	states, err := Evaluate(guess, r.Target)
	if err != nil {
		return Attempt{}, r.status, err
	}
	a := Attempt{Word: guess, States: states}
	r.Attempts = append(r.Attempts, a)

	if IsWin(guess, r.Target) {
		r.status = StatusWon
	} else if len(r.Attempts) >= r.Difficulty.Config().MaxAttempts {
		r.status = StatusLost
	}
	return a, r.status, nil
}

// Board lays the round out as MaxAttempts rows of WordLength cells.
// Rows without a guess hold zero letters in the unknown state.
func (r *Round) Board() [][]Cell {
	cfg := r.Difficulty.Config()
	rows := make([][]Cell, cfg.MaxAttempts)
	for i := range rows {
		row := make([]Cell, cfg.WordLength)
		for j := range row {
			row[j].State = StateUnknown
		}
		if i < len(r.Attempts) {
			a := r.Attempts[i]
			for j, c := range []rune(a.Word) {
				row[j] = Cell{Letter: c, State: a.States[j]}
			}
		}
		rows[i] = row
	}
	return rows
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
