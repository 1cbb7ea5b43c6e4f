// Package preview содержит экран предпросмотра карусели для TUI
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/studio-relay/internal/carousel"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5865F2")).
			MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00aaff")).
			Underline(true)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#5865F2"))

	disabledButtonStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(lipgloss.Color("#666666")).
				Background(lipgloss.Color("#2b2d31"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5865F2")).
			Padding(1, 2)
)

type keyMap struct {
	Back key.Binding
	Next key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Next, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newKeyMap() keyMap {
	return keyMap{
		Back: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back")),
		Next: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model экран одной карусели: те же переходы и те же правила кнопок, что в Discord
type Model struct {
	header      string
	state       carousel.State
	keys        keyMap
	help        help.Model
	progressBar progress.Model
	width       int
}

// NewModel создает модель. header выводится над карточкой, может быть пустым.
func NewModel(header string, state carousel.State) *Model {
	prog := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	prog.Width = 40

	m := &Model{
		header:      header,
		state:       state,
		keys:        newKeyMap(),
		help:        help.New(),
		progressBar: prog,
	}
	m.syncKeys()
	return m
}

// State текущее состояние карусели
func (m *Model) State() carousel.State {
	return m.state
}

// Init ничего не запускает
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update обрабатывает нажатия клавиш
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progressBar.Width = min(60, max(10, msg.Width-10))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.state = m.state.Retreat()
		case key.Matches(msg, m.keys.Next):
			m.state = m.state.Advance()
		}
		m.syncKeys()
	}
	return m, nil
}

// syncKeys включает клавиши по тем же правилам, что и кнопки
func (m *Model) syncKeys() {
	m.keys.Back.SetEnabled(m.state.CanRetreat())
	m.keys.Next.SetEnabled(m.state.CanAdvance())
}

// View отображает модель
func (m *Model) View() string {
	d := m.state.Render()

	var b strings.Builder
	if m.header != "" {
		b.WriteString(headerStyle.Render(m.header))
		b.WriteString("\n")
	}

	var card strings.Builder
	card.WriteString(titleStyle.Render(d.Title))
	if d.Description != "" {
		card.WriteString("\n" + infoStyle.Render(d.Description))
	}
	if !d.Empty {
		card.WriteString("\n\n" + linkStyle.Render(d.LinkURL))
		if d.MediaURL != "" {
			card.WriteString("\n" + infoStyle.Render("🖼  "+d.MediaURL))
		}
		card.WriteString("\n\n" + m.progressBar.ViewAs(percent(d)))
	}
	card.WriteString("\n" + infoStyle.Render(d.Footer))
	card.WriteString("\n\n" + renderButton("◀ Back", d.CanRetreat) + " " + renderButton("Next ▶", d.CanAdvance))

	b.WriteString(cardStyle.Render(card.String()))
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func renderButton(label string, enabled bool) string {
	if enabled {
		return buttonStyle.Render(label)
	}
	return disabledButtonStyle.Render(label)
}

// percent доля пройденной карусели, для одного трека полная
func percent(d carousel.Display) float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Position) / float64(d.Total)
}

// Summary строка для вывода без TUI
func Summary(d carousel.Display) string {
	if d.Empty {
		return d.Title
	}
	return fmt.Sprintf("%s | %s", d.Title, d.Footer)
}
