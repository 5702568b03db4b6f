package game

import (
	"unicode"
)

// GuessBuffer is the edit line under the board. The revealed first letter is a
// prefix the player cannot erase, and the buffer never grows past the word length.
type GuessBuffer struct {
	prefix rune
	max    int
	runes  []rune
}

// NewGuessBuffer returns a buffer pre-filled with the round's first letter.
func NewGuessBuffer(r *Round) *GuessBuffer {
	b := &GuessBuffer{prefix: r.FirstLetter(), max: r.Difficulty.Config().WordLength}
	b.Reset()
	return b
}

// Type appends c upper-cased. Non-letters and overflow are ignored.
func (b *GuessBuffer) Type(c rune) bool {
	if !unicode.IsLetter(c) || len(b.runes) >= b.max {
		return false
	}
	b.runes = append(b.runes, unicode.ToUpper(c))
	return true
}

// Backspace removes the last letter unless only the prefix is left.
func (b *GuessBuffer) Backspace() bool {
	if len(b.runes) <= 1 {
		return false
	}
	b.runes = b.runes[:len(b.runes)-1]
	return true
}

// Reset goes back to the bare prefix.
func (b *GuessBuffer) Reset() {
	b.runes = append(b.runes[:0], b.prefix)
}

// Full reports whether the buffer holds a complete word.
func (b *GuessBuffer) Full() bool { return len(b.runes) == b.max }

func (b *GuessBuffer) String() string { return string(b.runes) }
