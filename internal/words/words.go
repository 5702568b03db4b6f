// internal/words/words.go
//
// Target word lists for the reference server.
//
// Responsibilities:
//   - Load words from a file (WORDS_FILE) or fall back to the embedded list.
//   - Bucket them by length so each difficulty draws from its own pool.
//   - Pick a random target for a difficulty.
//
// Constraints:
//   • Words must be letters only; other entries are skipped.
//   • Lists are normalized to upper case.
//   • Only lengths used by a difficulty are kept.

package words

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"unicode"
	"unicode/utf8"

	"github.com/robalobadob/motus/assets"
	"github.com/robalobadob/motus/internal/game"
)

var ErrNoWords = errors.New("words: no word for this length")

// List holds the target pools keyed by word length. Read-only after Load.
type List struct {
	byLen map[int][]string
}

// Load reads path, or the embedded list when path is empty.
// Returns an error if any difficulty ends up without words.
func Load(path string) (*List, error) {
	var raw []string
	var err error
	if path != "" {
		f, oerr := os.Open(path)
		if oerr != nil {
			return nil, oerr
		}
		defer f.Close()
		raw, err = assets.ReadWords(f)
	} else {
		raw, err = assets.DefaultWords()
	}
	if err != nil {
		return nil, err
	}

	l := FromWords(raw)
	for _, d := range game.Difficulties() {
		if len(l.byLen[d.Config().WordLength]) == 0 {
			return nil, fmt.Errorf("%w: %s needs %d letters", ErrNoWords, d, d.Config().WordLength)
		}
	}
	return l, nil
}

// FromWords builds a list from already-read words, dropping invalid and
// duplicate entries.
func FromWords(ws []string) *List {
	wanted := map[int]bool{}
	for _, d := range game.Difficulties() {
		wanted[d.Config().WordLength] = true
	}
	seen := map[string]bool{}
	l := &List{byLen: map[int][]string{}}
	for _, w := range ws {
		n := utf8.RuneCountInString(w)
		if !wanted[n] || !isAlpha(w) || seen[w] {
			continue
		}
		seen[w] = true
		l.byLen[n] = append(l.byLen[n], w)
	}
	return l
}

// Random returns a cryptographically random word for d.
func (l *List) Random(d game.Difficulty) (string, error) {
	pool := l.byLen[d.Config().WordLength]
	if len(pool) == 0 {
		return "", ErrNoWords
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	if err != nil {
		return "", err
	}
	return pool[nBig.Int64()], nil
}

// Count returns how many words d can draw from.
func (l *List) Count(d game.Difficulty) int {
	return len(l.byLen[d.Config().WordLength])
}

// isAlpha reports whether s is made of letters only.
func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
