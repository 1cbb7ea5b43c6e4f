// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/studio-relay/internal/carousel"
	"github.com/hazadus/studio-relay/internal/tui/preview"
)

// App предпросмотр карусели в терминале
type App struct {
	header string
	state  carousel.State
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(header string, state carousel.State) *App {
	return &App{header: header, state: state}
}

// Model возвращает модель Bubble Tea
func (a *App) Model() *preview.Model {
	return preview.NewModel(a.header, a.state)
}

// Run запускает TUI и возвращает состояние на момент выхода
func (a *App) Run() (carousel.State, error) {
	model := a.Model()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return a.state, err
	}
	return model.State(), nil
}
