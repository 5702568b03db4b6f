// internal/stats/stats.go
//
// Persistence of finished rounds and per-player statistics.
// Responsibilities:
//   - Recording a round start (games row in "playing" state).
//   - Closing a round: game row, games played, wins, streaks and score, all in one tx.
//   - Closing abandoned rounds as losses.
//   - Aggregating the leaderboard (per-difficulty wins, win rate, average attempts).

package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/leaderboard"
)

// ErrNotPlaying is returned when a round is unknown, owned by someone else,
// or already closed.
var ErrNotPlaying = errors.New("stats: round is not in progress")

// basePoints per difficulty for a won round.
var basePoints = map[game.Difficulty]int{
	game.Easy:   10,
	game.Medium: 20,
	game.Hard:   30,
}

// maxBonusSteps caps the streak bonus at +100%.
const maxBonusSteps = 10

// Points returns the score of a won round finished with the given streak
// (the streak including this win). Each consecutive win before it adds 10%.
func Points(d game.Difficulty, streak int) int {
	base := basePoints[d]
	steps := streak - 1
	if steps < 0 {
		steps = 0
	}
	if steps > maxBonusSteps {
		steps = maxBonusSteps
	}
	return base + base*steps/10
}

// Result is the outcome of closing one round.
type Result struct {
	Points        int `json:"points"`
	CurrentStreak int `json:"currentStreak"`
	TotalScore    int `json:"totalScore"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Start records a new round for userID.
func (s *Store) Start(ctx context.Context, gameID, userID string, d game.Difficulty, word string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, user_id, difficulty, word, status, started_at) VALUES (?,?,?,?,'playing',?)`,
		gameID, userID, string(d), word, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Finish closes round gameID for userID and updates the player's counters.
func (s *Store) Finish(ctx context.Context, gameID, userID string, attempts int, won bool) (Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var diff string
	err = tx.QueryRowContext(ctx,
		`SELECT difficulty FROM games WHERE id=? AND user_id=? AND status='playing'`, gameID, userID).Scan(&diff)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, ErrNotPlaying
	}
	if err != nil {
		return Result{}, err
	}

	res, err := closeGame(ctx, tx, gameID, userID, game.Difficulty(diff), attempts, won)
	if err != nil {
		return Result{}, err
	}
	return res, tx.Commit()
}

// Abandon closes every round userID still has in progress as a loss with no
// attempts, breaking the streak. It returns how many rounds were closed.
func (s *Store) Abandon(ctx context.Context, userID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, difficulty FROM games WHERE user_id=? AND status='playing' ORDER BY started_at`, userID)
	if err != nil {
		return 0, err
	}
	type open struct{ id, diff string }
	var games []open
	for rows.Next() {
		var g open
		if err := rows.Scan(&g.id, &g.diff); err != nil {
			rows.Close()
			return 0, err
		}
		games = append(games, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, g := range games {
		if _, err := closeGame(ctx, tx, g.id, userID, game.Difficulty(g.diff), 0, false); err != nil {
			return 0, err
		}
	}
	return len(games), tx.Commit()
}

// closeGame settles one playing round within tx.
func closeGame(ctx context.Context, tx *sql.Tx, gameID, userID string, d game.Difficulty, attempts int, won bool) (Result, error) {
	res, err := bumpStats(ctx, tx, userID, d, won)
	if err != nil {
		return Result{}, fmt.Errorf("bump stats: %w", err)
	}

	status := string(game.StatusLost)
	if won {
		status = string(game.StatusWon)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET status=?, attempts=?, points=?, finished_at=? WHERE id=?`,
		status, attempts, res.Points, time.Now().UTC().Format(time.RFC3339), gameID); err != nil {
		return Result{}, fmt.Errorf("close game: %w", err)
	}
	return res, nil
}

// bumpStats increments games played; updates wins, streaks and score (within tx).
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, d game.Difficulty, won bool) (Result, error) {
	var gp, wins, streak, best, score int
	row := tx.QueryRowContext(ctx,
		`SELECT games_played, wins, current_streak, best_streak, total_score FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak, &best, &score); err != nil {
		return Result{}, err
	}
	gp++
	var pts int
	if won {
		wins++
		streak++
		pts = Points(d, streak)
		score += pts
	} else {
		streak = 0
	}
	if streak > best {
		best = streak
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET games_played=?, wins=?, current_streak=?, best_streak=?, total_score=? WHERE id=?`,
		gp, wins, streak, best, score, userID)
	return Result{Points: pts, CurrentStreak: streak, TotalScore: score}, err
}

// Leaderboard lists every player with at least one finished round, best
// score first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.pseudo, u.games_played, u.wins, u.best_streak, u.current_streak, u.total_score,
		       COALESCE(SUM(g.status='won' AND g.difficulty='easy'), 0),
		       COALESCE(SUM(g.status='won' AND g.difficulty='medium'), 0),
		       COALESCE(SUM(g.status='won' AND g.difficulty='hard'), 0),
		       COALESCE(AVG(CASE WHEN g.status='won' THEN g.attempts END), 0.0)
		FROM users u
		LEFT JOIN games g ON g.user_id = u.id
		WHERE u.games_played > 0
		GROUP BY u.id
		ORDER BY u.total_score DESC, u.wins DESC, u.created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []leaderboard.Entry{}
	for rows.Next() {
		var e leaderboard.Entry
		var avg float64
		if err := rows.Scan(&e.ID, &e.Username, &e.TotalGames, &e.Wins, &e.BestStreak, &e.CurrentStreak,
			&e.TotalScore, &e.EasyWins, &e.MediumWins, &e.HardWins, &avg); err != nil {
			return nil, err
		}
		if e.TotalGames > 0 {
			e.WinRate = round1(float64(e.Wins) * 100 / float64(e.TotalGames))
		}
		e.AverageAttempts = round1(avg)
		out = append(out, e)
	}
	return out, rows.Err()
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
