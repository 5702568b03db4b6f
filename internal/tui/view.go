package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/motus/internal/account"
	"github.com/robalobadob/motus/internal/api"
	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/leaderboard"
	"github.com/robalobadob/motus/internal/session"
)

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	clrBorder = lipgloss.Color("#30363d")
	clrSubtle = lipgloss.Color("#8b949e")
	clrGreen  = lipgloss.Color("#3fb950")
	clrYellow = lipgloss.Color("#d29922")
	clrGray   = lipgloss.Color("#484f58")
	clrRed    = lipgloss.Color("#f85149")
	clrTitle  = lipgloss.Color("#58a6ff")
	clrWhite  = lipgloss.Color("#e6edf3")

	titleStyle  = lipgloss.NewStyle().Foreground(clrTitle).Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(clrSubtle)
	errorStyle  = lipgloss.NewStyle().Foreground(clrRed)
	selStyle    = lipgloss.NewStyle().Foreground(clrWhite).Bold(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(clrBorder).Padding(1, 2)

	cellBase = lipgloss.NewStyle().Width(3).Align(lipgloss.Center).Bold(true)
)

// cellStyle is the one legend used everywhere: green correct, yellow present,
// gray absent.
func cellStyle(s game.LetterState) lipgloss.Style {
	switch s {
	case game.StateCorrect:
		return cellBase.Background(clrGreen).Foreground(clrWhite)
	case game.StatePresent:
		return cellBase.Background(clrYellow).Foreground(clrWhite)
	case game.StateAbsent:
		return cellBase.Background(clrGray).Foreground(clrWhite)
	default:
		return cellBase.Foreground(clrSubtle)
	}
}

func (m Model) View() string {
	var body string
	switch {
	case m.restoring:
		body = m.spinner.View() + " Checking session…"
	case m.login.open:
		body = m.viewLogin()
	case m.st.Screen == session.ScreenDashboard:
		body = m.viewDashboard()
	case m.st.Screen == session.ScreenPlaying:
		body = m.viewBoard()
	case m.st.Screen == session.ScreenLeaderboard:
		body = m.viewLeaderboard()
	default:
		body = m.viewHome()
	}
	return panelStyle.Render(body) + "\n"
}

func (m Model) header() string {
	who := "not signed in"
	if m.st.User != nil {
		who = "signed in as " + m.st.User.Username
	}
	return titleStyle.Render("MOTUS") + "  " + subtleStyle.Render(who)
}

func (m Model) viewHome() string {
	var b strings.Builder
	b.WriteString(m.header() + "\n\n")
	b.WriteString("Guess the word. The first letter is given.\n\n")
	for _, it := range m.homeItems() {
		label := map[homeItem]string{
			itemPlay:        "Play now",
			itemLeaderboard: "Leaderboard",
			itemAccount:     "Log in / register",
			itemQuit:        "Quit",
		}[it]
		if it == itemAccount && m.st.SignedIn() {
			label = "Log out"
		}
		b.WriteString(menuLine(label, it == m.homeSel) + "\n")
	}
	b.WriteString("\n" + subtleStyle.Render("↑/↓ move · enter select · q quit"))
	return b.String()
}

func menuLine(label string, selected bool) string {
	if selected {
		return selStyle.Render("› " + label)
	}
	return "  " + label
}

func (m Model) viewLogin() string {
	var b strings.Builder
	title := "Log in"
	if m.login.register {
		title = "Create an account"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")
	if m.login.register {
		b.WriteString(m.login.inputs[fieldPseudo].View() + "\n")
	}
	b.WriteString(m.login.inputs[fieldEmail].View() + "\n")
	b.WriteString(m.login.inputs[fieldPassword].View() + "\n\n")
	switch {
	case m.login.busy:
		b.WriteString(m.spinner.View() + " Please wait…\n")
	case m.login.err != "":
		b.WriteString(errorStyle.Render(m.login.err) + "\n")
	}
	toggle := "ctrl+r: create an account"
	if m.login.register {
		toggle = "ctrl+r: I already have an account"
	}
	b.WriteString("\n" + subtleStyle.Render("tab next field · enter submit · esc cancel · "+toggle))
	return b.String()
}

var difficultyBlurb = map[game.Difficulty]string{
	game.Easy:   "Short words, more tries.",
	game.Medium: "The classic experience.",
	game.Hard:   "Long words, few tries.",
}

func (m Model) viewDashboard() string {
	var cards []string
	for i, d := range game.Difficulties() {
		cfg := d.Config()
		text := fmt.Sprintf("%s\n\n%d letters\n%d attempts\n\n%s",
			titleStyle.Render(strings.ToUpper(string(d))), cfg.WordLength, cfg.MaxAttempts,
			subtleStyle.Render(difficultyBlurb[d]))
		style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(22)
		if i == m.dashSel {
			style = style.BorderForeground(clrTitle)
		} else {
			style = style.BorderForeground(clrBorder)
		}
		cards = append(cards, style.Render(text))
	}
	return m.header() + "\n\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n\n" +
		subtleStyle.Render("←/→ choose · enter play · b leaderboard · esc home")
}

func (m Model) viewBoard() string {
	var b strings.Builder
	d := m.st.Difficulty
	cfg := d.Config()
	b.WriteString(m.header() + "  " + subtleStyle.Render(strings.ToUpper(string(d))) + "\n\n")

	r := m.st.Round
	switch {
	case r == nil && m.st.RoundErr != nil:
		b.WriteString(errorStyle.Render("Could not start a round: "+m.st.RoundErr.Error()) + "\n\n")
		b.WriteString(subtleStyle.Render("enter retry · esc back"))
		return b.String()
	case r == nil:
		b.WriteString(m.spinner.View() + " Picking a word…")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Find the %d-letter word starting with %q\n", cfg.WordLength, string(r.FirstLetter())))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("%d/%d attempts", len(r.Attempts), cfg.MaxAttempts)) + "\n\n")

	for i, row := range r.Board() {
		if i == len(r.Attempts) && !r.Over() && m.buf != nil {
			b.WriteString(renderBuffer(m.buf.String(), cfg.WordLength) + "\n")
			continue
		}
		var cells []string
		for _, c := range row {
			letter := "·"
			if c.Letter != 0 {
				letter = string(c.Letter)
			}
			cells = append(cells, cellStyle(c.State).Render(letter))
		}
		b.WriteString(strings.Join(cells, " ") + "\n")
	}
	b.WriteString("\n")

	switch r.Status() {
	case game.StatusWon:
		b.WriteString(lipgloss.NewStyle().Foreground(clrGreen).Bold(true).
			Render(fmt.Sprintf("Found in %d attempt(s)!", len(r.Attempts))) + "\n")
	case game.StatusLost:
		b.WriteString(errorStyle.Render("Out of attempts. The word was "+r.Target) + "\n")
	}
	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice) + "\n")
	}
	if r.Over() {
		b.WriteString("\n" + subtleStyle.Render("enter play again · esc back to dashboard"))
	} else {
		b.WriteString("\n" + subtleStyle.Render("type letters · backspace erase · enter submit · esc leave"))
	}
	return b.String()
}

// renderBuffer draws the row being typed, padded with blanks.
func renderBuffer(s string, n int) string {
	rs := []rune(s)
	cells := make([]string, n)
	for i := range cells {
		letter := "_"
		if i < len(rs) {
			letter = string(rs[i])
		}
		cells[i] = cellBase.Foreground(clrWhite).Render(letter)
	}
	return strings.Join(cells, " ")
}

func (m Model) viewLeaderboard() string {
	var b strings.Builder
	b.WriteString(m.header() + "\n\n")

	var tabs []string
	for _, c := range leaderboard.Categories() {
		if c == m.lbCat {
			tabs = append(tabs, selStyle.Render("["+c.Title()+"]"))
		} else {
			tabs = append(tabs, subtleStyle.Render(" "+c.Title()+" "))
		}
	}
	b.WriteString(strings.Join(tabs, " ") + "\n\n")

	switch {
	case m.lbLoading:
		b.WriteString(m.spinner.View() + " Loading…\n")
	case m.lbErr != nil:
		b.WriteString(errorStyle.Render("Could not load the leaderboard: "+m.lbErr.Error()) + "\n")
	case len(m.lbEntries) == 0:
		b.WriteString("No games played yet.\n")
	default:
		if m.st.User != nil {
			if me, ok := leaderboard.Find(m.lbEntries, m.st.User.Username); ok {
				b.WriteString(fmt.Sprintf("You: %s · %d games · %.1f%% wins · best streak %d\n\n",
					leaderboard.DisplayValue(me, m.lbCat), me.TotalGames, me.WinRate, me.BestStreak))
			}
		}
		for _, r := range leaderboard.Rank(m.lbEntries, m.lbCat) {
			line := fmt.Sprintf("%s %3d. %-20s %12s", leaderboard.Medal(r.Rank), r.Rank, r.Username,
				leaderboard.DisplayValue(r.Entry, m.lbCat))
			if m.st.User != nil && r.Username == m.st.User.Username {
				line = selStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\n" + subtleStyle.Render("←/→ category · r refresh · esc back"))
	return b.String()
}

// ─── Error wording ────────────────────────────────────────────────────────────

func describeGuessError(err error) string {
	switch {
	case errors.Is(err, game.ErrWrongLength), errors.Is(err, game.ErrWrongPrefix):
		// Wrapped with the expected length or letter.
		msg := err.Error()
		if i := strings.LastIndex(msg, ": "); i >= 0 {
			msg = msg[i+2:]
		}
		return strings.ToUpper(msg[:1]) + msg[1:]
	case errors.Is(err, game.ErrNotLetters):
		return "Letters only"
	case errors.Is(err, game.ErrRoundOver):
		return "The round is over"
	default:
		return err.Error()
	}
}

func describeAuthError(err error) string {
	var apiErr *api.Error
	switch {
	case errors.Is(err, account.ErrMissingFields):
		return "Please fill in every field"
	case errors.Is(err, api.ErrUnauthorized):
		return "Invalid email or password"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return err.Error()
	}
}
