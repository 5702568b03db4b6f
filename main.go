// Command motus is the terminal client for the Motus word game.
//
//	motus                      play (interactive, needs a terminal)
//	motus leaderboard [-c cat] print the rankings
//	motus whoami               show the signed-in player
//	motus logout               forget the stored token
//	motus check GUESS TARGET   print the feedback a guess would get
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/robalobadob/motus/internal/account"
	"github.com/robalobadob/motus/internal/api"
	"github.com/robalobadob/motus/internal/config"
	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/leaderboard"
	"github.com/robalobadob/motus/internal/tui"
)

var (
	colorTitle = color.New(color.FgGreen, color.Bold)
	colorAlert = color.New(color.FgRed)
	colorInfo  = color.New(color.FgHiBlue)
	colorSelf  = color.New(color.FgYellow, color.Bold)

	cellColors = map[game.LetterState]*color.Color{
		game.StateCorrect: color.New(color.BgGreen, color.FgBlack, color.Bold),
		game.StatePresent: color.New(color.BgYellow, color.FgBlack, color.Bold),
		game.StateAbsent:  color.New(color.BgHiBlack, color.FgWhite),
	}
)

var errUsage = errors.New("usage")

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		colorAlert.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	closer, err := config.SetupLogging(cfg.LogLevel, cfg.LogFile, io.Discard)
	if err != nil {
		colorAlert.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			colorAlert.Fprintf(os.Stderr, "motus: %v\n", err)
		}
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg config.Client, args []string, out io.Writer) error {
	svc := account.NewService(api.New(cfg.APIURL, api.WithTimeout(cfg.HTTPTimeout)), account.NewFileStore(cfg.StatePath))
	ctx := context.Background()

	cmd := "play"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	log.Debug().Str("cmd", cmd).Str("api", cfg.APIURL).Msg("motus")

	switch cmd {
	case "play":
		return play(cfg, svc)
	case "leaderboard", "lb":
		return printLeaderboard(ctx, svc, args, out)
	case "whoami":
		return whoami(ctx, svc, out)
	case "logout":
		if err := svc.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out.")
		return nil
	case "check":
		return check(args, out)
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return errUsage
	}
}

func usage(w io.Writer) {
	colorTitle.Fprintln(w, "motus: find the word, one letter is given")
	fmt.Fprintln(w, `
  motus                          play (interactive)
  motus leaderboard [-c category] [-n N]
                                 categories: overall, easy, medium, hard
  motus whoami                   show the signed-in player
  motus logout                   forget the stored token
  motus check GUESS TARGET       show the feedback GUESS gets against TARGET`)
}

func play(cfg config.Client, svc *account.Service) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the game needs an interactive terminal; see 'motus help' for other commands")
	}
	_, err := tea.NewProgram(tui.New(svc, cfg.HTTPTimeout), tea.WithAltScreen()).Run()
	return err
}

func printLeaderboard(ctx context.Context, svc *account.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	fs.SetOutput(out)
	cat := fs.String("c", string(leaderboard.Overall), "category: overall, easy, medium, hard")
	n := fs.Int("n", 10, "number of rows")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	c, err := leaderboard.ParseCategory(*cat)
	if err != nil {
		return err
	}

	// Signed-in players get their own row highlighted.
	me, _, err := svc.Restore(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("restore session")
	}
	entries, err := svc.Client().Leaderboard(ctx)
	if err != nil {
		return fmt.Errorf("fetch leaderboard: %w", err)
	}

	colorTitle.Fprintln(out, c.Title())
	if len(entries) == 0 {
		fmt.Fprintln(out, "No games played yet.")
		return nil
	}
	for i, r := range leaderboard.Rank(entries, c) {
		if i >= *n {
			break
		}
		line := fmt.Sprintf("%s %3d. %-20s %12s", leaderboard.Medal(r.Rank), r.Rank, r.Username, leaderboard.DisplayValue(r.Entry, c))
		if me.Username != "" && r.Username == me.Username {
			colorSelf.Fprintln(out, line)
			continue
		}
		fmt.Fprintln(out, line)
	}
	if e, ok := leaderboard.Find(entries, me.Username); ok && me.Username != "" {
		colorInfo.Fprintf(out, "\nYou: %s, %d games, %.1f%% wins, %.1f attempts per win, best streak %d\n",
			leaderboard.DisplayValue(e, c), e.TotalGames, e.WinRate, e.AverageAttempts, e.BestStreak)
	}
	return nil
}

func whoami(ctx context.Context, svc *account.Service, out io.Writer) error {
	u, ok, err := svc.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(out, "%s <%s>\n", u.Username, u.Email)
	return nil
}

func check(args []string, out io.Writer) error {
	if len(args) != 2 {
		fmt.Fprintln(out, "usage: motus check GUESS TARGET")
		return errUsage
	}
	guess, target := strings.ToUpper(args[0]), strings.ToUpper(args[1])
	states, err := game.Evaluate(guess, target)
	if err != nil {
		return err
	}
	names := make([]string, len(states))
	for i, c := range []rune(guess) {
		cellColors[states[i]].Fprintf(out, " %c ", c)
		names[i] = string(states[i])
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Join(names, " "))
	if game.IsWin(guess, target) {
		colorTitle.Fprintln(out, "Found!")
	}
	return nil
}
