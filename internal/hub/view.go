package hub

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dopamind/internal/model"
	"github.com/verte-zerg/dopamind/internal/stats"
)

const chartHeight = 6

// View implements tea.Model.
func (m *Model) View() string {
	if m.screen != nil {
		return m.screen.View()
	}
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.loginMode {
		return fitLines(m.renderLoginModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(m.styles.activeNav.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.status != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.history.Width = m.width
	m.history.Height = bodyHeight
	m.profileVP.Width = m.width
	m.profileVP.Height = bodyHeight
	m.gamesTable.SetWidth(m.width)
	m.gamesTable.SetHeight(bodyHeight)
	for i := range m.loginForm {
		promptWidth := lipgloss.Width(m.loginForm[i].Prompt)
		m.loginForm[i].Width = max(10, modalWidth(m.width)-promptWidth-6)
	}
	m.rebuildGames()
	m.renderTabContents()
}

func (m *Model) rebuildGames() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	titleWidth := 18
	bestWidth := 6
	descWidth := max(width-titleWidth-bestWidth-2-8, 10)
	columns := []table.Column{
		{Title: "★", Width: 2},
		{Title: "Game", Width: titleWidth},
		{Title: "Description", Width: descWidth},
		{Title: "Best", Width: bestWidth},
	}
	rows := make([]table.Row, 0, len(m.list))
	for _, g := range m.list {
		star := ""
		if m.favorites[g.ID] {
			star = "★"
		}
		best := "-"
		if gs, ok := m.gameStats[g.ID]; ok && g.Scored() {
			best = fmt.Sprintf("%d", gs.Best)
		}
		rows = append(rows, table.Row{star, g.Title, truncateLine(g.Description, descWidth), best})
	}
	cursor := m.gamesTable.Cursor()
	m.gamesTable.SetRows(nil)
	m.gamesTable.SetColumns(columns)
	m.gamesTable.SetRows(rows)
	if cursor >= 0 && cursor < len(rows) {
		m.gamesTable.SetCursor(cursor)
	}
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.history.SetContent(m.renderHistory(width))
	m.profileVP.SetContent(m.renderProfile(width))
}

func (m *Model) renderHistory(width int) string {
	if m.profile.ID == "" {
		return "Log in on the Profile tab to keep a play history."
	}
	if len(m.plays) == 0 {
		return "No plays yet. Pick a game and have fun."
	}
	var buf bytes.Buffer
	if err := stats.RenderHistory(&buf, m.plays, m.titles, historyLimit); err != nil {
		return fmt.Sprintf("Failed to render history: %v", err)
	}
	values := stats.Scores(m.plays)
	if len(values) > 1 {
		chartWidth := stats.ChartWidthFor(width, 6)
		if err := stats.RenderScoreChart(&buf, "Scores", values, chartWidth, chartHeight, true); err != nil {
			return fmt.Sprintf("Failed to render chart: %v", err)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m *Model) renderProfile(width int) string {
	if m.profile.ID == "" {
		return strings.Join([]string{
			"Playing as guest. Scores are not saved.",
			"",
			"Press enter to log in with your name and email.",
		}, "\n")
	}
	cards := []string{
		metricCard(m.styles, "Score", fmt.Sprintf("%d", m.profile.Score)),
		metricCard(m.styles, "XP", fmt.Sprintf("%d", m.profile.XP)),
		metricCard(m.styles, "Streak", fmt.Sprintf("%d", stats.CurrentStreak(m.profile, time.Now()))),
		metricCard(m.styles, "Plays", fmt.Sprintf("%d", len(m.plays))),
	}
	var cardView string
	if width < 60 {
		cardView = strings.Join(cards, "\n")
	} else {
		cardView = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, m.profile, m.plays, time.Now()); err != nil {
		return fmt.Sprintf("Failed to render profile: %v", err)
	}
	gameStats := make([]model.GameStats, 0, len(m.gameStats))
	for _, gs := range m.gameStats {
		gameStats = append(gameStats, gs)
	}
	if err := stats.RenderGameTable(&buf, gameStats, m.titles); err != nil {
		return fmt.Sprintf("Failed to render games: %v", err)
	}
	lines := []string{
		cardView,
		"",
		m.styles.muted.Render(m.profile.Email),
		"",
		strings.TrimRight(buf.String(), "\n"),
		"",
		m.styles.muted.Render("Press enter to edit your profile, o to log out."),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader() string {
	tabs := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			tabs = append(tabs, m.styles.activeNav.Render(tab))
		} else {
			tabs = append(tabs, m.styles.inactiveNav.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" + m.renderSummaryLine()
}

func (m *Model) renderSummaryLine() string {
	name := "Guest"
	if m.profile.ID != "" {
		name = m.profile.DisplayName
	}
	ambient := "off"
	if st := m.deps.Audio.Ambient(); st.On {
		ambient = st.Track
	}
	line := fmt.Sprintf("%s  Score: %d  XP: %d  Streak: %d  Ambient: %s  Theme: %s",
		name, m.profile.Score, m.profile.XP, stats.CurrentStreak(m.profile, time.Now()), ambient, m.theme.Name)
	return m.styles.header.Render(truncateLine(line, m.width))
}

func (m *Model) renderBody() string {
	switch m.activeTab {
	case tabGames:
		return m.gamesTable.View()
	case tabChallenge:
		return m.renderChallenge()
	case tabHistory:
		return m.history.View()
	case tabProfile:
		return m.profileVP.View()
	}
	return ""
}

func (m *Model) renderChallenge() string {
	if m.challengeLoading {
		return m.spinner.View() + " Thinking up today's challenge..."
	}
	if m.challenge.Text == "" {
		return m.styles.muted.Render("No challenge yet.")
	}
	boxWidth := max(min(m.width-4, 70), 20)
	lines := []string{
		m.styles.title.Render("Today's challenge"),
		m.styles.challenge.Width(boxWidth).Render(m.challenge.Text),
	}
	if m.challenge.SuggestedGame != "" {
		lines = append(lines, "Suggested: "+m.challenge.SuggestedGame)
	}
	lines = append(lines, m.styles.muted.Render(challengeSourceLabel(m.challenge.Source)))
	return strings.Join(lines, "\n")
}

func challengeSourceLabel(source string) string {
	switch source {
	case model.ChallengeSourceAI:
		return "Written by AI for you"
	case model.ChallengeSourceLocal:
		return "Picked from the local deck"
	default:
		return "Classic challenge"
	}
}

func (m *Model) renderHelp() string {
	var help string
	switch m.activeTab {
	case tabGames:
		help = "Play: enter  Favourite: f"
	case tabChallenge:
		help = "Play suggested: enter  New challenge: r"
	case tabHistory:
		help = "Scroll: up/down/pgup/pgdn"
	case tabProfile:
		help = "Log in: enter  Log out: o"
	}
	help += "  Nav: tab/1-4  Theme: t  Ambient: a  Track: n  Quit: q"
	return m.styles.header.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	if m.status == "" {
		return m.renderHelp()
	}
	style := m.styles.muted
	if m.statusIsErr {
		style = m.styles.err
	}
	return m.renderHelp() + "\n" + style.Render(truncateLine(m.status, m.width))
}
