// Package carousel содержит машину состояний карусели треков:
// позицию, отрисовку текущего элемента и переходы вперёд/назад
package carousel

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hazadus/studio-relay/internal/utils"
)

const untitledTrack = "Untitled track"

// Item один элемент карусели (трек)
type Item struct {
	Title    string        `yaml:"title"`
	URL      string        `yaml:"url"`
	Artist   string        `yaml:"artist,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
}

// Direction направление перехода по карусели
type Direction int

const (
	// Retreat переход к предыдущему элементу
	Retreat Direction = iota
	// Advance переход к следующему элементу
	Advance
)

func (d Direction) String() string {
	if d == Advance {
		return "advance"
	}
	return "retreat"
}

// State состояние карусели. Значение неизменяемо: переходы возвращают новое состояние.
// Инвариант: 0 <= Index < len(Items), если Items не пуст; иначе Index == 0.
type State struct {
	Items []Item `yaml:"items"`
	Index int    `yaml:"index"`
}

// New создает карусель из кандидатов, отбрасывая элементы без пригодного URL
func New(candidates []Item) State {
	items := make([]Item, 0, len(candidates))
	for _, c := range candidates {
		c.URL = strings.TrimSpace(c.URL)
		if !resolvableURL(c.URL) {
			continue
		}
		c.Title = strings.TrimSpace(c.Title)
		items = append(items, c)
	}
	return State{Items: items}
}

// resolvableURL проверяет, что ссылка абсолютная http(s) с хостом
func resolvableURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Len возвращает количество элементов
func (s State) Len() int {
	return len(s.Items)
}

// Empty сообщает, что в карусели нет ни одного элемента
func (s State) Empty() bool {
	return len(s.Items) == 0
}

// CanRetreat доступна ли кнопка «назад»
func (s State) CanRetreat() bool {
	return !s.Empty() && s.Index > 0
}

// CanAdvance доступна ли кнопка «вперёд»
func (s State) CanAdvance() bool {
	return !s.Empty() && s.Index < len(s.Items)-1
}

// Advance сдвигает позицию вперёд; на последнем элементе ничего не меняет
func (s State) Advance() State {
	if !s.CanAdvance() {
		return s
	}
	s.Index++
	return s
}

// Retreat сдвигает позицию назад; на первом элементе ничего не меняет
func (s State) Retreat() State {
	if !s.CanRetreat() {
		return s
	}
	s.Index--
	return s
}

// Move применяет переход в указанном направлении
func (s State) Move(d Direction) State {
	if d == Advance {
		return s.Advance()
	}
	return s.Retreat()
}

// Current возвращает текущий элемент
func (s State) Current() (Item, bool) {
	if s.Empty() || s.Index < 0 || s.Index >= len(s.Items) {
		return Item{}, false
	}
	return s.Items[s.Index], true
}

// Display отображаемое представление одной позиции карусели
type Display struct {
	Empty       bool
	Title       string
	ItemTitle   string
	Description string
	MediaURL    string
	LinkURL     string
	Footer      string
	Position    int
	Total       int
	CanRetreat  bool
	CanAdvance  bool
}

// Render строит отображение текущей позиции. Чистая функция от состояния.
func (s State) Render() Display {
	item, ok := s.Current()
	if !ok {
		return Display{
			Empty:       true,
			Title:       "🎵 No playable tracks",
			Description: "This request has no reference tracks with a valid link.",
			Footer:      "0 tracks",
		}
	}

	title := item.Title
	if title == "" {
		title = untitledTrack
	}

	position := s.Index + 1
	total := len(s.Items)

	footer := fmt.Sprintf("Track %d of %d", position, total)
	if item.Duration > 0 {
		footer += " • " + utils.FormatDuration(item.Duration)
	}
	if total > 1 {
		footer += " • Use the buttons to navigate"
	}

	d := Display{
		Title:      utils.TruncateString(fmt.Sprintf("🎧 %d/%d: %s", position, total, title), 256),
		ItemTitle:  title,
		LinkURL:    item.URL,
		Footer:     footer,
		Position:   position,
		Total:      total,
		CanRetreat: s.CanRetreat(),
		CanAdvance: s.CanAdvance(),
	}
	if item.Artist != "" {
		d.Description = "by " + item.Artist
	}
	if thumb, ok := Thumbnail(item.URL); ok {
		d.MediaURL = thumb
	}
	return d
}
