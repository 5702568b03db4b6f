// internal/tui/model.go
//
// Interactive terminal client.
// Responsibilities:
//   - Hold the session state and route key presses per screen.
//   - Run network work (restore, login, round start, finish report, leaderboard)
//     as bubbletea commands; results come back as messages.
//   - Round starts carry the session tag they were issued with, so a reply that
//     arrives after the player moved on is dropped.

package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/account"
	"github.com/robalobadob/motus/internal/api"
	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/leaderboard"
	"github.com/robalobadob/motus/internal/session"
)

// ---------------------------------------------------------------- messages

type restoredMsg struct {
	user session.User
	ok   bool
	err  error
}

type authDoneMsg struct {
	user session.User
	err  error
}

type roundStartedMsg struct {
	tag uint64
	rs  session.RoundStart
	err error
}

type finishReportedMsg struct {
	gameID string
	err    error
}

type leaderboardMsg struct {
	entries []leaderboard.Entry
	err     error
}

// ------------------------------------------------------------------- model

// homeItem is one entry of the home menu.
type homeItem int

const (
	itemPlay homeItem = iota
	itemLeaderboard
	itemAccount // login or logout depending on the session
	itemQuit
)

// loginForm is the login/register panel.
type loginForm struct {
	open     bool
	register bool
	inputs   []textinput.Model // pseudo (register only), email, password
	focus    int
	busy     bool
	err      string
}

const (
	fieldPseudo = iota
	fieldEmail
	fieldPassword
)

// Model is the bubbletea model of the client.
type Model struct {
	st      session.State
	acct    *account.Service
	timeout time.Duration

	restoring bool
	homeSel   homeItem
	dashSel   int
	login     loginForm
	spinner   spinner.Model

	buf      *game.GuessBuffer
	notice   string // feedback line under the board
	reported bool

	lbCat     leaderboard.Category
	lbEntries []leaderboard.Entry
	lbErr     error
	lbLoading bool

	width, height int
}

// New builds the model. timeout bounds every API call.
func New(acct *account.Service, timeout time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtleStyle

	return Model{
		st:        session.New(),
		acct:      acct,
		timeout:   timeout,
		restoring: true,
		spinner:   sp,
		lbCat:     leaderboard.Overall,
		login:     newLoginForm(),
	}
}

func newLoginForm() loginForm {
	mk := func(placeholder string) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 100
		in.Width = 32
		return in
	}
	pw := mk("password")
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	return loginForm{inputs: []textinput.Model{mk("pseudo"), mk("email"), pw}, focus: fieldEmail}
}

// Session exposes the current state (read-only use).
func (m Model) Session() session.State { return m.st }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.restore(), m.spinner.Tick)
}

// ---------------------------------------------------------------- commands

func (m Model) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m Model) restore() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		u, ok, err := m.acct.Restore(ctx)
		return restoredMsg{user: u, ok: ok, err: err}
	}
}

func (m Model) submitLogin(register bool, pseudo, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		var u session.User
		var err error
		if register {
			u, err = m.acct.Register(ctx, pseudo, email, password)
		} else {
			u, err = m.acct.Login(ctx, email, password)
		}
		return authDoneMsg{user: u, err: err}
	}
}

func (m Model) fetchRound(tag uint64, d game.Difficulty) tea.Cmd {
	client := m.acct.Client()
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		rs, err := client.NewWord(ctx, d)
		return roundStartedMsg{tag: tag, rs: session.RoundStart{GameID: rs.GameID, Word: rs.Word}, err: err}
	}
}

func (m Model) reportFinish(r *game.Round) tea.Cmd {
	client := m.acct.Client()
	id, won := r.ID, r.Status() == game.StatusWon
	guesses := make([]string, len(r.Attempts))
	for i, a := range r.Attempts {
		guesses[i] = a.Word
	}
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		return finishReportedMsg{gameID: id, err: client.FinishGame(ctx, id, guesses, won)}
	}
}

func (m Model) fetchLeaderboard() tea.Cmd {
	client := m.acct.Client()
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		entries, err := client.Leaderboard(ctx)
		return leaderboardMsg{entries: entries, err: err}
	}
}

// ------------------------------------------------------------------ update

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case restoredMsg:
		m.restoring = false
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("restore session")
		}
		if msg.ok {
			m.st.Login(msg.user)
			m.closeLogin()
		}
		return m, nil

	case authDoneMsg:
		m.login.busy = false
		if msg.err != nil {
			m.login.err = describeAuthError(msg.err)
			return m, nil
		}
		m.st.Login(msg.user)
		m.closeLogin()
		return m, nil

	case roundStartedMsg:
		return m.applyRound(msg)

	case finishReportedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Str("game", msg.gameID).Msg("report finish")
			if m.st.Round != nil && m.st.Round.ID == msg.gameID {
				m.notice = "Result not saved: " + msg.err.Error()
			}
		}
		return m, nil

	case leaderboardMsg:
		m.lbLoading = false
		m.lbEntries, m.lbErr = msg.entries, msg.err
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.logout()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		// Only the spinner is on screen until the stored session is checked.
		if m.restoring {
			return m, nil
		}
		if m.login.open {
			return m.updateLogin(msg)
		}
		switch m.st.Screen {
		case session.ScreenHome:
			return m.updateHome(msg)
		case session.ScreenDashboard:
			return m.updateDashboard(msg)
		case session.ScreenPlaying:
			return m.updatePlaying(msg)
		case session.ScreenLeaderboard:
			return m.updateLeaderboard(msg)
		}
	}
	return m, nil
}

func (m Model) homeItems() []homeItem {
	return []homeItem{itemPlay, itemLeaderboard, itemAccount, itemQuit}
}

func (m Model) updateHome(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.homeItems()
	switch k.String() {
	case "up", "k":
		if m.homeSel > 0 {
			m.homeSel--
		}
	case "down", "j":
		if int(m.homeSel) < len(items)-1 {
			m.homeSel++
		}
	case "q", "esc":
		return m, tea.Quit
	case "enter", " ":
		switch items[m.homeSel] {
		case itemPlay:
			m.st.PlayNow()
			if m.st.LoginRequested {
				return m, m.openLogin(false)
			}
		case itemLeaderboard:
			return m.showLeaderboard()
		case itemAccount:
			if m.st.SignedIn() {
				return m.logout()
			}
			return m, m.openLogin(false)
		case itemQuit:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) updateDashboard(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	ds := game.Difficulties()
	switch k.String() {
	case "left", "h", "up", "k":
		if m.dashSel > 0 {
			m.dashSel--
		}
	case "right", "l", "down", "j":
		if m.dashSel < len(ds)-1 {
			m.dashSel++
		}
	case "1", "2", "3":
		m.dashSel = int(k.Runes[0] - '1')
		return m.startGame(ds[m.dashSel])
	case "enter", " ":
		return m.startGame(ds[m.dashSel])
	case "b":
		return m.showLeaderboard()
	case "esc", "q":
		m.st.NavigateHome()
	}
	return m, nil
}

func (m Model) updatePlaying(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.Type {
	case tea.KeyEsc:
		m.st.BackToDashboard()
		m.buf = nil
		return m, nil
	case tea.KeyEnter:
		if m.st.Round == nil {
			if m.st.RoundErr != nil {
				return m.startGame(m.st.Difficulty)
			}
			return m, nil
		}
		if m.st.Round.Over() {
			return m.startGame(m.st.Difficulty)
		}
		return m.submitGuess()
	case tea.KeyBackspace:
		if m.buf != nil {
			m.buf.Backspace()
			m.notice = ""
		}
		return m, nil
	case tea.KeyRunes:
		if m.buf != nil && !m.st.Round.Over() {
			for _, r := range k.Runes {
				m.buf.Type(r)
			}
			m.notice = ""
		}
	}
	return m, nil
}

func (m Model) updateLeaderboard(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "right", "l", "tab":
		m.lbCat = m.lbCat.Next()
	case "left", "h", "shift+tab":
		m.lbCat = m.lbCat.Prev()
	case "r":
		m.lbLoading = true
		return m, tea.Batch(m.fetchLeaderboard(), m.spinner.Tick)
	case "esc", "q":
		m.st.BackToDashboard()
	}
	return m, nil
}

func (m Model) updateLogin(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}
	switch k.Type {
	case tea.KeyEsc:
		m.st.CloseLoginPanel()
		m.closeLogin()
		return m, nil
	case tea.KeyCtrlR:
		return m, m.openLogin(!m.login.register)
	case tea.KeyTab, tea.KeyDown:
		return m, m.focusField(m.nextField(1))
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.focusField(m.nextField(-1))
	case tea.KeyEnter:
		if m.login.focus != fieldPassword {
			return m, m.focusField(m.nextField(1))
		}
		in := m.login.inputs
		m.login.busy = true
		m.login.err = ""
		return m, m.submitLogin(m.login.register, in[fieldPseudo].Value(), in[fieldEmail].Value(), in[fieldPassword].Value())
	}
	var cmd tea.Cmd
	m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(k)
	return m, cmd
}

// ----------------------------------------------------------------- actions

func (m *Model) openLogin(register bool) tea.Cmd {
	m.login.open = true
	m.login.register = register
	m.login.err = ""
	first := fieldEmail
	if register {
		first = fieldPseudo
	}
	return m.focusField(first)
}

func (m *Model) closeLogin() { m.login = newLoginForm() }

// nextField cycles through the fields shown in the current mode.
func (m *Model) nextField(step int) int {
	fields := []int{fieldEmail, fieldPassword}
	if m.login.register {
		fields = []int{fieldPseudo, fieldEmail, fieldPassword}
	}
	i := 0
	for j, f := range fields {
		if f == m.login.focus {
			i = j
		}
	}
	i = (i + step + len(fields)) % len(fields)
	return fields[i]
}

func (m *Model) focusField(f int) tea.Cmd {
	for i := range m.login.inputs {
		m.login.inputs[i].Blur()
	}
	m.login.focus = f
	return m.login.inputs[f].Focus()
}

func (m Model) startGame(d game.Difficulty) (tea.Model, tea.Cmd) {
	if !m.st.StartGame(d) {
		return m, nil
	}
	tag := m.st.RequestRound()
	m.buf = nil
	m.notice = ""
	m.reported = false
	log.Debug().Uint64("tag", tag).Str("difficulty", string(d)).Msg("round requested")
	return m, tea.Batch(m.fetchRound(tag, d), m.spinner.Tick)
}

func (m Model) applyRound(msg roundStartedMsg) (tea.Model, tea.Cmd) {
	var err error
	if msg.err != nil {
		err = m.st.FailRound(msg.tag, msg.err)
	} else {
		err = m.st.ApplyRound(msg.tag, msg.rs)
	}
	switch {
	case errors.Is(err, session.ErrStaleResponse):
		log.Debug().Uint64("tag", msg.tag).Msg("stale round start dropped")
		return m, nil
	case errors.Is(msg.err, api.ErrUnauthorized):
		return m.logout()
	case m.st.Round != nil:
		m.buf = game.NewGuessBuffer(m.st.Round)
	}
	return m, nil
}

func (m Model) submitGuess() (tea.Model, tea.Cmd) {
	if m.buf == nil {
		return m, nil
	}
	_, finished, err := m.st.Submit(m.buf.String())
	if err != nil {
		m.notice = describeGuessError(err)
		return m, nil
	}
	m.buf.Reset()
	m.notice = ""
	if finished && !m.reported {
		m.reported = true
		return m, m.reportFinish(m.st.Round)
	}
	return m, nil
}

func (m Model) showLeaderboard() (tea.Model, tea.Cmd) {
	if !m.st.ShowLeaderboard() {
		m.st.LoginRequested = true
		return m, m.openLogin(false)
	}
	m.lbLoading = true
	m.lbErr = nil
	return m, tea.Batch(m.fetchLeaderboard(), m.spinner.Tick)
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := m.acct.Logout(); err != nil {
		log.Warn().Err(err).Msg("logout")
	}
	m.st.Logout()
	m.buf = nil
	m.homeSel = itemPlay
	return m, nil
}
