// Package record описывает данные входящего вебхука: заявку на проект и её треки
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hazadus/studio-relay/internal/carousel"
)

// ErrMalformedPayload тело вебхука не разобрано или в нем нет записи
var ErrMalformedPayload = errors.New("некорректное тело вебхука")

// Track трек, приложенный к заявке
type Track struct {
	Title    string        `json:"title"`
	URL      string        `json:"url"`
	Artist   string        `json:"artist,omitempty"`
	Duration time.Duration `json:"-"` // Заполняется обогащением, в вебхуке не приходит
}

// Record заявка на проект (строка таблицы, вызвавшая вебхук)
type Record struct {
	ID         string   `json:"id,omitempty"`
	Title      string   `json:"title"`
	Genre      string   `json:"genre"`
	TotalPrice float64  `json:"total_price"`
	TargetBPM  *float64 `json:"target_bpm"`
	Deadline   *string  `json:"deadline"`
	UserID     *string  `json:"user_id"`
	Tracks     []Track  `json:"tracks"`
	CreatedAt  string   `json:"created_at,omitempty"`
}

// Payload конверт вебхука базы данных
type Payload struct {
	Type      string  `json:"type"`
	Table     string  `json:"table"`
	Schema    string  `json:"schema"`
	Record    *Record `json:"record"`
	OldRecord *Record `json:"old_record"`
}

// ParsePayload разбирает тело вебхука
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.Record == nil {
		return nil, fmt.Errorf("%w: отсутствует поле record", ErrMalformedPayload)
	}
	return &p, nil
}

// DisplayTitle название заявки для отображения
func (r *Record) DisplayTitle() string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	return "Untitled"
}

// ClientID идентификатор пользователя или пустая строка
func (r *Record) ClientID() string {
	if r.UserID == nil {
		return ""
	}
	return strings.TrimSpace(*r.UserID)
}

// BPMText темп для отображения
func (r *Record) BPMText() string {
	if r.TargetBPM == nil || *r.TargetBPM <= 0 {
		return "Any"
	}
	return strconv.FormatFloat(*r.TargetBPM, 'f', -1, 64)
}

// BudgetText бюджет для отображения
func (r *Record) BudgetText() string {
	return "$" + strconv.FormatFloat(r.TotalPrice, 'f', 2, 64)
}

// Форматы даты, которые присылает база
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DeadlineText срок для отображения. Нераспознанная дата выводится как есть.
func (r *Record) DeadlineText() string {
	if r.Deadline == nil || strings.TrimSpace(*r.Deadline) == "" {
		return "Flexible"
	}
	raw := strings.TrimSpace(*r.Deadline)
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return raw
}

// GenreText жанр для отображения
func (r *Record) GenreText() string {
	if g := strings.TrimSpace(r.Genre); g != "" {
		return g
	}
	return "Unspecified"
}

// CarouselItems треки заявки в виде элементов карусели
func (r *Record) CarouselItems() []carousel.Item {
	items := make([]carousel.Item, 0, len(r.Tracks))
	for _, t := range r.Tracks {
		items = append(items, carousel.Item{
			Title:    t.Title,
			URL:      t.URL,
			Artist:   t.Artist,
			Duration: t.Duration,
		})
	}
	return items
}
