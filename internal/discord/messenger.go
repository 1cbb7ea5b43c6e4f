// Package discord доставляет сводки и карусели в канал Discord и обрабатывает нажатия кнопок
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hazadus/studio-relay/internal/carousel"
	"github.com/hazadus/studio-relay/internal/record"
)

// Discord ждет ответа на interaction не дольше трех секунд
const interactionTimeout = 3 * time.Second

// Session часть *discordgo.Session, которую использует Messenger
type Session interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Messenger отправляет сообщения в фиксированный канал
type Messenger struct {
	session      Session
	channelID    string
	dashboardURL string
	controller   *carousel.Controller
	logger       *slog.Logger
	now          func() time.Time
}

// NewMessenger создает Messenger
func NewMessenger(session Session, channelID, dashboardURL string, controller *carousel.Controller, logger *slog.Logger) *Messenger {
	return &Messenger{
		session:      session,
		channelID:    channelID,
		dashboardURL: dashboardURL,
		controller:   controller,
		logger:       logger,
		now:          time.Now,
	}
}

// ResolveChannel проверяет, что канал назначения доступен боту
func (m *Messenger) ResolveChannel(ctx context.Context) error {
	ch, err := m.session.Channel(m.channelID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("канал %s недоступен: %w", m.channelID, err)
	}
	if ch == nil {
		return fmt.Errorf("канал %s не найден", m.channelID)
	}
	return nil
}

// SendBriefing отправляет сводку по заявке
func (m *Messenger) SendBriefing(ctx context.Context, rec *record.Record, clientName string) error {
	msg := &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{BriefingEmbed(rec, clientName, len(rec.Tracks), m.now())},
		Components: BriefingComponents(m.dashboardURL),
	}
	if _, err := m.session.ChannelMessageSendComplex(m.channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("ошибка отправки сводки: %w", err)
	}
	return nil
}

// SendCarousel отправляет первую позицию карусели и возвращает ID сообщения
func (m *Messenger) SendCarousel(ctx context.Context, state carousel.State) (string, error) {
	d := state.Render()
	msg := &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{CarouselEmbed(d)},
		Components: CarouselComponents(d),
	}
	sent, err := m.session.ChannelMessageSendComplex(m.channelID, msg, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("ошибка отправки карусели: %w", err)
	}
	return sent.ID, nil
}

// HandleInteraction обрабатывает нажатие кнопки карусели.
// Подключается через session.AddHandler.
func (m *Messenger) HandleInteraction(i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return
	}

	var direction carousel.Direction
	switch i.MessageComponentData().CustomID {
	case BackButtonID:
		direction = carousel.Retreat
	case NextButtonID:
		direction = carousel.Advance
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	messageID := i.Message.ID
	responded := false
	err := m.controller.Navigate(ctx, messageID, direction, func(s carousel.State) error {
		responded = true
		d := s.Render()
		return m.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{CarouselEmbed(d)},
				Components: CarouselComponents(d),
			},
		}, discordgo.WithContext(ctx))
	})

	switch {
	case err == nil:
		m.logger.Debug("карусель переключена", "message_id", messageID, "direction", direction.String())
	case errors.Is(err, carousel.ErrNotFound):
		m.logger.Warn("нажатие на неизвестную карусель", "message_id", messageID)
		m.respondEphemeral(ctx, i.Interaction, expiredMessage)
	default:
		m.logger.Error("ошибка обработки нажатия", "message_id", messageID, "error", err)
		// Ответ уже отправлялся: повторный Discord не примет
		if !responded {
			m.respondEphemeral(ctx, i.Interaction, failedMessage)
		}
	}
}

// Тексты ответов, которые видит только нажавший
const (
	expiredMessage = "This carousel is no longer active. New requests will arrive with a fresh one."
	failedMessage  = "Could not switch the track right now. Please try again."
)

// respondEphemeral отвечает только нажавшему
func (m *Messenger) respondEphemeral(ctx context.Context, interaction *discordgo.Interaction, content string) {
	err := m.session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		m.logger.Error("ошибка ответа на нажатие", "error", err)
	}
}
