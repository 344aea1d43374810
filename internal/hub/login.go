package hub

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dopamind/internal/model"
)

const (
	loginName = iota
	loginEmail
)

func newFormInput(prompt, placeholder string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = placeholder
	input.CharLimit = 120
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) initLoginForm() {
	m.loginForm = []textinput.Model{
		newFormInput("Name: ", "Your display name"),
		newFormInput("Email: ", "you@example.com"),
	}
}

func (m *Model) startLogin() tea.Cmd {
	m.loginMode = true
	m.loginError = ""
	m.loginForm[loginName].SetValue(m.profile.DisplayName)
	m.loginForm[loginEmail].SetValue(m.profile.Email)
	return m.setLoginIndex(loginName)
}

func (m *Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.loginMode = false
		m.loginError = ""
		return m, nil
	case tea.KeyEnter:
		if m.loginIndex == loginName {
			return m, m.setLoginIndex(loginEmail)
		}
		return m, m.submitLogin()
	case tea.KeyTab, tea.KeyDown:
		return m, m.setLoginIndex(m.loginIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setLoginIndex(m.loginIndex - 1)
	}
	var cmd tea.Cmd
	m.loginForm[m.loginIndex], cmd = m.loginForm[m.loginIndex].Update(msg)
	return m, cmd
}

func (m *Model) setLoginIndex(idx int) tea.Cmd {
	count := len(m.loginForm)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.loginIndex = idx
	var cmd tea.Cmd
	for i := range m.loginForm {
		if i == m.loginIndex {
			cmd = m.loginForm[i].Focus()
		} else {
			m.loginForm[i].Blur()
		}
	}
	return cmd
}

func (m *Model) submitLogin() tea.Cmd {
	name := m.loginForm[loginName].Value()
	email := m.loginForm[loginEmail].Value()
	if err := ValidateLogin(name, email); err != nil {
		m.loginError = err.Error()
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	p, err := Login(ctx, m.deps.Store, name, email)
	if err != nil {
		m.deps.Log.Error().Err(err).Msg("login failed")
		m.loginError = "Could not save your profile"
		return nil
	}
	m.deps.Log.Info().Str("profile", p.ID).Msg("logged in")
	m.loginMode = false
	m.loginError = ""
	m.switchProfile(p)
	m.setStatus("Welcome, "+p.DisplayName, false)
	return tea.Batch(m.load(), m.loadChallenge(false))
}

func (m *Model) logout() tea.Cmd {
	if m.profile.ID == "" {
		m.setStatus("Not logged in", true)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := Logout(ctx, m.deps.Store); err != nil {
		m.deps.Log.Error().Err(err).Msg("logout failed")
		m.setStatus("Could not log out", true)
		return nil
	}
	m.deps.Log.Info().Str("profile", m.profile.ID).Msg("logged out")
	m.switchProfile(model.Profile{})
	m.setStatus("Playing as guest", false)
	return m.loadChallenge(false)
}

// switchProfile resets per-profile state and routes future results to p.
func (m *Model) switchProfile(p model.Profile) {
	m.profile = p
	m.plays = nil
	m.gameStats = map[string]model.GameStats{}
	m.favorites = map[string]bool{}
	m.useSink(p.ID)
	m.rebuildGames()
	m.renderTabContents()
}

func (m *Model) renderLoginModal() string {
	body := []string{m.styles.cardValue.Render("Log in")}
	for _, input := range m.loginForm {
		body = append(body, input.View())
	}
	body = append(body,
		m.styles.muted.Render("Your email keeps your score across devices."),
		m.styles.muted.Render("tab: next field  enter: log in  esc: cancel"),
	)
	if m.loginError != "" {
		body = append(body, m.styles.err.Render(m.loginError))
	}
	box := m.styles.modal.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func modalWidth(width int) int {
	return max(40, min(width-4, 70))
}
