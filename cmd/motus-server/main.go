// Command motus-server runs the reference Motus API.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/config"
	"github.com/robalobadob/motus/internal/db"
	"github.com/robalobadob/motus/internal/httpserver"
	"github.com/robalobadob/motus/internal/words"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	var out io.Writer = os.Stderr
	if cfg.Env == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	if _, err := config.SetupLogging(cfg.LogLevel, "", out); err != nil {
		log.Fatal().Err(err).Msg("setup logging")
	}

	wl, err := words.Load(cfg.WordsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("open database")
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpserver.New(cfg, conn, wl).Run(ctx); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
