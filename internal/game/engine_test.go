package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	C = StateCorrect
	P = StatePresent
	A = StateAbsent
)

func TestEvaluate_Golden(t *testing.T) {
	cases := []struct {
		name   string
		guess  string
		target string
		want   []LetterState
	}{
		{"exact match", "CRANE", "CRANE", []LetterState{C, C, C, C, C}},
		{"disjoint", "BUMP", "FISH", []LetterState{A, A, A, A}},
		{"llama vs alarm", "LLAMA", "ALARM", []LetterState{A, C, C, P, P}},
		{"duplicate guess letter, one left over", "AABB", "ABAX", []LetterState{C, P, P, A}},
		{"second A finds nothing", "AABC", "ABXX", []LetterState{C, A, P, A}},
		{"exact matches resolved before leftovers", "EERIE", "THREE", []LetterState{P, A, C, A, C}},
		{"all misplaced", "ABCD", "BCDA", []LetterState{P, P, P, P}},
		{"repeated target letter", "SPEED", "ABIDE", []LetterState{A, A, P, A, P}},
		{"hard length", "PYTHON", "PYTHON", []LetterState{C, C, C, C, C, C}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tc.guess, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluate_Preconditions(t *testing.T) {
	_, err := Evaluate("ABC", "ABCD")
	require.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Evaluate("", "")
	require.ErrorIs(t, err, ErrEmptyWord)

	_, err = Evaluate("ABCD", "")
	require.ErrorIs(t, err, ErrEmptyWord)
}

func TestEvaluate_LengthAndIdempotence(t *testing.T) {
	pairs := [][2]string{{"CATS", "CART"}, {"HOUSE", "HORSE"}, {"GARDEN", "GRANDE"}, {"ÉTÉS", "ÉTAT"}}
	for _, p := range pairs {
		first, err := Evaluate(p[0], p[1])
		require.NoError(t, err)
		assert.Len(t, first, len([]rune(p[0])))

		second, err := Evaluate(p[0], p[1])
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestEvaluate_NeverReturnsUnknown(t *testing.T) {
	words := []string{"CATS", "DOGS", "BIRD", "FISH", "TREE", "CASE", "SASS"}
	for _, g := range words {
		for _, tg := range words {
			got, err := Evaluate(g, tg)
			require.NoError(t, err)
			for _, s := range got {
				assert.NotEqual(t, StateUnknown, s)
			}
		}
	}
}

func TestEvaluate_Concurrent(t *testing.T) {
	want, _ := Evaluate("LLAMA", "ALARM")
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Evaluate("LLAMA", "ALARM")
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestDifficultyTable(t *testing.T) {
	assert.Equal(t, Config{WordLength: 4, MaxAttempts: 6}, Easy.Config())
	assert.Equal(t, Config{WordLength: 5, MaxAttempts: 5}, Medium.Config())
	assert.Equal(t, Config{WordLength: 6, MaxAttempts: 4}, Hard.Config())
	assert.Equal(t, []Difficulty{Easy, Medium, Hard}, Difficulties())

	d, err := ParseDifficulty(" Hard ")
	require.NoError(t, err)
	assert.Equal(t, Hard, d)

	_, err = ParseDifficulty("insane")
	assert.Error(t, err)
	assert.Equal(t, Config{}, Difficulty("insane").Config())
}

func TestNewRound_TargetLength(t *testing.T) {
	_, err := NewRound("g1", Easy, "HOUSE")
	require.ErrorIs(t, err, ErrWrongLength)

	r, err := NewRound("g1", Easy, "cats")
	require.NoError(t, err)
	assert.Equal(t, "CATS", r.Target)
	assert.Equal(t, 'C', r.FirstLetter())
	assert.Equal(t, StatusPlaying, r.Status())
	assert.Equal(t, 6, r.Remaining())
}

func TestNewRound_TargetLettersOnly(t *testing.T) {
	_, err := NewRound("g1", Easy, "C4TS")
	require.ErrorIs(t, err, ErrNotLetters)

	_, err = NewRound("g1", Medium, "PL-NE")
	require.ErrorIs(t, err, ErrNotLetters)
}

func TestRound_Validation(t *testing.T) {
	r, err := NewRound("g1", Medium, "HOUSE")
	require.NoError(t, err)

	_, _, err = r.Submit("HOUS")
	assert.ErrorIs(t, err, ErrWrongLength)
	_, _, err = r.Submit("MOUSE")
	assert.ErrorIs(t, err, ErrWrongPrefix)
	_, _, err = r.Submit("H0USE")
	assert.ErrorIs(t, err, ErrNotLetters)

	assert.Empty(t, r.Attempts, "rejected guesses must not consume attempts")
}

func TestRound_WinOnExactMatch(t *testing.T) {
	r, err := NewRound("g1", Medium, "HOUSE")
	require.NoError(t, err)

	a, st, err := r.Submit("horse")
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, st)
	assert.Equal(t, "HORSE", a.Word)
	assert.Equal(t, []LetterState{C, C, A, C, C}, a.States)

	a, st, err = r.Submit("HOUSE")
	require.NoError(t, err)
	assert.Equal(t, StatusWon, st)
	assert.Equal(t, []LetterState{C, C, C, C, C}, a.States)
	assert.True(t, r.Over())

	_, _, err = r.Submit("HOUSE")
	assert.ErrorIs(t, err, ErrRoundOver)
	assert.Len(t, r.Attempts, 2)
}

func TestRound_LossAfterMaxAttempts(t *testing.T) {
	r, err := NewRound("g1", Hard, "GARDEN")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, st, err := r.Submit("GALLON")
		require.NoError(t, err)
		assert.Equal(t, StatusPlaying, st)
	}
	_, st, err := r.Submit("GOLDEN")
	require.NoError(t, err)
	assert.Equal(t, StatusLost, st)
	assert.Equal(t, 0, r.Remaining())
}

func TestRound_WinOnLastAttempt(t *testing.T) {
	r, err := NewRound("g1", Hard, "GARDEN")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, _, err := r.Submit("GALLON")
		require.NoError(t, err)
	}
	_, st, err := r.Submit("GARDEN")
	require.NoError(t, err)
	assert.Equal(t, StatusWon, st)
}

func TestRound_Board(t *testing.T) {
	r, err := NewRound("g1", Easy, "CATS")
	require.NoError(t, err)
	_, _, err = r.Submit("CAST")
	require.NoError(t, err)

	b := r.Board()
	require.Len(t, b, 6)
	for _, row := range b {
		require.Len(t, row, 4)
	}
	assert.Equal(t, Cell{Letter: 'C', State: C}, b[0][0])
	assert.Equal(t, Cell{Letter: 'S', State: P}, b[0][2])
	assert.Equal(t, Cell{State: StateUnknown}, b[1][0])
}
