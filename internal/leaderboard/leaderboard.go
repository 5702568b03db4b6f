// internal/leaderboard/leaderboard.go
//
// Client-side views over the leaderboard the statistics service returns.
// The service owns every number here (scores, streaks, rates); this package
// only orders and formats them per category.

package leaderboard

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Entry is one player's row as served by GET /api/leaderboard.
type Entry struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	TotalGames      int     `json:"totalGames"`
	Wins            int     `json:"wins"`
	WinRate         float64 `json:"winRate"`
	AverageAttempts float64 `json:"averageAttempts"`
	BestStreak      int     `json:"bestStreak"`
	CurrentStreak   int     `json:"currentStreak"`
	TotalScore      int     `json:"totalScore"`
	EasyWins        int     `json:"easyWins"`
	MediumWins      int     `json:"mediumWins"`
	HardWins        int     `json:"hardWins"`
}

// Category selects the ranking criterion.
type Category string

const (
	Overall Category = "overall"
	Easy    Category = "easy"
	Medium  Category = "medium"
	Hard    Category = "hard"
)

// Categories lists the tabs in display order.
func Categories() []Category { return []Category{Overall, Easy, Medium, Hard} }

// ParseCategory accepts the four category names in any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown leaderboard category %q", s)
}

// Title is the heading shown above a ranking.
func (c Category) Title() string {
	if c == Overall {
		return "Overall Rankings"
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:] + " Mode Rankings"
}

// Next cycles to the following tab.
func (c Category) Next() Category {
	all := Categories()
	for i, k := range all {
		if k == c {
			return all[(i+1)%len(all)]
		}
	}
	return Overall
}

// Prev cycles to the preceding tab.
func (c Category) Prev() Category {
	all := Categories()
	for i, k := range all {
		if k == c {
			return all[(i+len(all)-1)%len(all)]
		}
	}
	return Overall
}

// Key returns the value an entry is ranked by in c.
func (c Category) Key(e Entry) int {
	switch c {
	case Easy:
		return e.EasyWins
	case Medium:
		return e.MediumWins
	case Hard:
		return e.HardWins
	default:
		return e.TotalScore
	}
}

// Ranked is an entry with its 1-based position.
type Ranked struct {
	Rank int
	Entry
}

// Rank orders entries for c, highest first. Ties keep the service order.
// The input slice is not modified.
func Rank(entries []Entry, c Category) []Ranked {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return c.Key(sorted[i]) > c.Key(sorted[j])
	})
	out := make([]Ranked, len(sorted))
	for i, e := range sorted {
		out[i] = Ranked{Rank: i + 1, Entry: e}
	}
	return out
}

// Find returns the entry for username, if present.
func Find(entries []Entry, username string) (Entry, bool) {
	for _, e := range entries {
		if e.Username == username {
			return e, true
		}
	}
	return Entry{}, false
}

var printer = message.NewPrinter(language.English)

// DisplayValue is the right-hand figure of a ranking row.
func DisplayValue(e Entry, c Category) string {
	if c == Overall {
		return printer.Sprintf("%d pts", e.TotalScore)
	}
	return printer.Sprintf("%d wins", c.Key(e))
}

// Medal decorates the podium.
func Medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "  "
	}
}
