package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/hazadus/studio-relay/internal/config"
	"github.com/hazadus/studio-relay/internal/record"
	"github.com/hazadus/studio-relay/internal/webhook"
)

// createSendCommand создает команду send с привязкой к экземпляру приложения
func (app *Application) createSendCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "send [payload.json | -]",
		Short: "Deliver a saved webhook payload to the channel",
		Long: `Deliver a webhook payload from a file (or stdin with "-") exactly as the listener would.
Carousel buttons keep working only when a running "serve" shares the sqlite state store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := app.Config.Validate(); err != nil {
				return fmt.Errorf("некорректная конфигурация: %w", err)
			}

			payload, err := app.readPayload(args[0])
			if err != nil {
				return err
			}

			session, err := discordgo.New("Bot " + app.Config.DiscordToken)
			if err != nil {
				return fmt.Errorf("ошибка создания сессии Discord: %w", err)
			}

			svc, err := app.buildServices(session)
			if err != nil {
				return err
			}
			defer svc.Close()

			sendCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			return app.send(sendCtx, svc.notifier, payload)
		},
	}
}

// send доставляет заявку и печатает итог
func (app *Application) send(ctx context.Context, n webhook.Notifier, payload *record.Payload) error {
	if app.Config.StateStore == config.StateStoreMemory && len(payload.Record.Tracks) > 0 {
		fmt.Fprintln(app.Out, "⚠️  Хранилище каруселей в памяти: кнопки отправленной карусели работать не будут")
	}

	result, err := n.Notify(ctx, payload.Record)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✅ Сводка отправлена: %s (клиент: %s)\n", payload.Record.DisplayTitle(), result.ClientName)
	switch {
	case result.Partial():
		fmt.Fprintf(app.Out, "❌ Карусель не отправлена: %v\n", result.CarouselErr)
	case result.CarouselSent:
		fmt.Fprintf(app.Out, "🎧 Карусель из %d треков: сообщение %s\n", result.Tracks, result.CarouselMessageID)
	default:
		fmt.Fprintln(app.Out, "🎵 Треков для карусели нет")
	}
	return nil
}

// readPayload читает тело вебхука из файла или stdin
func (app *Application) readPayload(source string) (*record.Payload, error) {
	var body []byte
	var err error
	if source == "-" {
		body, err = io.ReadAll(app.In)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", source, err)
	}
	return record.ParsePayload(body)
}
