// internal/httpserver/routes_game.go
//
// Round lifecycle and leaderboard routes.
//   - POST /api/game/new-word: pick a target for a difficulty, remember who got it.
//     Any round the player left unfinished is closed as a loss first.
//   - POST /api/game/finish:   replay the reported guesses, close the round once
//     and update the player's stats.
//   - GET  /api/leaderboard:   aggregated per-player stats, best score first.
//
// Rounds nobody reports within RoundTTL are swept and closed as losses.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/stats"
	"github.com/robalobadob/motus/internal/store"
)

// leaderboardLimit bounds GET /api/leaderboard.
const leaderboardLimit = 100

type newWordReq struct {
	Difficulty string `json:"difficulty"`
}

type newWordRes struct {
	GameID string `json:"gameId"`
	Word   string `json:"word"`
}

type finishReq struct {
	GameID   string   `json:"gameId"`
	Attempts int      `json:"attempts"`
	Won      bool     `json:"won"`
	Guesses  []string `json:"guesses"`
}

func (s *Server) mountGameRoutes() {
	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/api/game/new-word", s.handleNewWord)
		r.Post("/api/game/finish", s.handleFinish)
	})
	s.r.Get("/api/leaderboard", s.handleLeaderboard)
}

// handleNewWord issues a target of the difficulty's length.
func (s *Server) handleNewWord(w http.ResponseWriter, r *http.Request) {
	var req newWordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	d, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	word, err := s.words.Random(d)
	if err != nil {
		log.Error().Err(err).Str("difficulty", string(d)).Msg("pick word")
		writeError(w, http.StatusServiceUnavailable, "no_words")
		return
	}

	me := currentUser(r)
	abandoned, err := s.stats.Abandon(r.Context(), me.ID)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("close abandoned rounds")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if abandoned > 0 {
		log.Info().Str("user", me.ID).Int("rounds", abandoned).Msg("abandoned rounds closed as lost")
	}

	rd := &store.Round{ID: uuid.NewString(), UserID: me.ID, Difficulty: d, Word: word, StartedAt: s.now()}
	if err := s.stats.Start(r.Context(), rd.ID, me.ID, d, word); err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("insert game row")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if _, err := s.rounds.Save(r.Context(), rd); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Debug().Str("user", me.ID).Str("game", rd.ID).Str("difficulty", string(d)).Msg("round issued")
	writeJSON(w, http.StatusOK, newWordRes{GameID: rd.ID, Word: word})
}

// handleFinish accepts one report per issued round. The guesses are replayed
// against the target; the round must be over and match the reported outcome.
func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	var req finishReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	me := currentUser(r)
	rd, err := s.rounds.Get(r.Context(), req.GameID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rd.UserID != me.ID) {
		writeError(w, http.StatusNotFound, "unknown_game")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load_failed")
		return
	}

	replay, err := game.NewRound(rd.ID, rd.Difficulty, rd.Word)
	if err != nil {
		log.Error().Err(err).Str("game", rd.ID).Msg("rebuild round")
		writeError(w, http.StatusInternalServerError, "load_failed")
		return
	}
	for _, g := range req.Guesses {
		if _, _, err := replay.Submit(g); err != nil {
			writeError(w, http.StatusBadRequest, "invalid guess: "+err.Error())
			return
		}
	}
	won := replay.Status() == game.StatusWon
	if !replay.Over() || len(replay.Attempts) != req.Attempts || won != req.Won {
		writeError(w, http.StatusBadRequest, "report does not match the guesses")
		return
	}

	res, err := s.stats.Finish(r.Context(), rd.ID, me.ID, req.Attempts, req.Won)
	if errors.Is(err, stats.ErrNotPlaying) {
		_, _ = s.rounds.Take(r.Context(), rd.ID)
		writeError(w, http.StatusConflict, "game already finished")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("game", rd.ID).Msg("finish game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	_, _ = s.rounds.Take(r.Context(), rd.ID)

	log.Info().Str("user", me.ID).Str("game", rd.ID).Bool("won", req.Won).
		Int("attempts", req.Attempts).Int("points", res.Points).Msg("round finished")
	writeJSON(w, http.StatusOK, res)
}

// sweepRounds closes rounds left unreported for longer than RoundTTL as
// losses and returns how many were closed.
func (s *Server) sweepRounds(ctx context.Context) int {
	expired, err := s.rounds.Expired(ctx, s.now().Add(-s.cfg.RoundTTL))
	if err != nil {
		log.Error().Err(err).Msg("list expired rounds")
		return 0
	}
	closed := 0
	for _, rd := range expired {
		_, err := s.stats.Finish(ctx, rd.ID, rd.UserID, 0, false)
		switch {
		case err == nil:
			closed++
		case errors.Is(err, stats.ErrNotPlaying):
			// already closed by a newer round
		default:
			log.Warn().Err(err).Str("game", rd.ID).Msg("close expired round")
		}
	}
	if closed > 0 {
		log.Info().Int("rounds", closed).Msg("expired rounds closed as lost")
	}
	return closed
}

// sweepLoop runs sweepRounds every interval until ctx ends.
func (s *Server) sweepLoop(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.sweepRounds(ctx)
		}
	}
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.stats.Leaderboard(r.Context(), leaderboardLimit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
