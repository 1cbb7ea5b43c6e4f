package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/hazadus/studio-relay/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

// createServeCommand создает команду serve с привязкой к экземпляру приложения
func (app *Application) createServeCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and listen for webhooks",
		Long: `Connect the bot to the Discord gateway, start the webhook listener and handle
carousel button presses until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := app.Config.Validate(); err != nil {
				return fmt.Errorf("некорректная конфигурация: %w", err)
			}
			return app.serve(ctx)
		},
	}
}

func (app *Application) serve(ctx context.Context) error {
	cfg := app.Config
	logger := app.Logger

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("ошибка создания сессии Discord: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	svc, err := app.buildServices(session)
	if err != nil {
		return err
	}
	defer svc.Close()

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.Info("бот подключен к Discord", "user", r.User.String(), "guilds", len(r.Guilds))
	})
	session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		svc.messenger.HandleInteraction(i)
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("ошибка подключения к Discord: %w", err)
	}
	defer session.Close()

	// Недоступный канал не мешает старту: права могут выдать позже
	if err := svc.messenger.ResolveChannel(ctx); err != nil {
		logger.Warn("канал назначения пока недоступен", "channel_id", cfg.ChannelID, "error", err)
	}

	var archiver webhook.Archiver
	if svc.archive != nil {
		archiver = svc.archive
	}

	server := webhook.NewServer(webhook.Options{
		Path:            cfg.WebhookPath,
		Secret:          cfg.WebhookSecret,
		SignatureMode:   cfg.SignatureMode,
		SignatureHeader: cfg.SignatureHeader,
	}, svc.notifier, archiver, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		logger.Info("прием вебхуков запущен",
			"addr", httpServer.Addr,
			"path", cfg.WebhookPath,
			"signature_mode", cfg.SignatureMode,
			"state_store", cfg.StateStore,
			"archive", archiver != nil,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP сервера: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки HTTP сервера: %w", err)
	}
	logger.Info("сервер остановлен")
	return nil
}
