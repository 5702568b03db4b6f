// internal/game/types.go
//
// Core type definitions for the Motus game.
// Defines:
//   - LetterState: per-letter verdict of a guess (correct/present/absent).
//   - Difficulty + Config: the fixed difficulty table.
//   - Attempt, Status: what a Round records.

package game

import (
	"fmt"
	"strings"
)

// LetterState represents the evaluation result for a single letter in a guess.
// Possible values:
//   - "correct": letter is in the target at this exact position.
//   - "present": letter is in the target at another, not yet matched, position.
//   - "absent":  no unmatched occurrence of the letter remains in the target.
//   - "unknown": placeholder for board cells that hold no guess yet.
type LetterState string

const (
	StateCorrect LetterState = "correct"
	StatePresent LetterState = "present"
	StateAbsent  LetterState = "absent"
	StateUnknown LetterState = "unknown"
)

// Difficulty names a (word length, max attempts) configuration.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Config is the shape of a round for a given difficulty.
type Config struct {
	WordLength  int
	MaxAttempts int
}

var configs = map[Difficulty]Config{
	Easy:   {WordLength: 4, MaxAttempts: 6},
	Medium: {WordLength: 5, MaxAttempts: 5},
	Hard:   {WordLength: 6, MaxAttempts: 4},
}

// Difficulties returns every difficulty in dashboard order.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// Config returns the fixed table entry for d. Unknown difficulties yield a zero Config.
func (d Difficulty) Config() Config {
	return configs[d]
}

// Valid reports whether d is one of the three known difficulties.
func (d Difficulty) Valid() bool {
	_, ok := configs[d]
	return ok
}

// ParseDifficulty accepts "easy", "medium" or "hard" in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Status is the coarse lifecycle of a round.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Attempt is one submitted guess and its classification. Never mutated once recorded.
type Attempt struct {
	Word   string        `json:"word"`
	States []LetterState `json:"states"`
}

// Cell is a single board square as handed to renderers.
type Cell struct {
	Letter rune
	State  LetterState
}
