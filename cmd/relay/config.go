package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/studio-relay/internal/config"
)

// createConfigCommand создает группу команд для работы с конфигурацией
func (app *Application) createConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the relay configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Write a sample config file",
		Long:        `Write a sample config file to the --config path. Existing files are never overwritten.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			path := config.ExpandHome(app.ConfigPath)
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "📝 Создан файл конфигурации: %s\n", path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.checkConfig()
		},
	})

	return configCmd
}

// checkConfig проверяет конфигурацию и печатает итог без секретов
func (app *Application) checkConfig() error {
	cfg := app.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}

	fmt.Fprintln(app.Out, "✅ Конфигурация корректна")
	fmt.Fprintf(app.Out, "   Канал: %s\n", cfg.ChannelID)
	fmt.Fprintf(app.Out, "   Адрес: %s%s\n", cfg.Addr(), cfg.WebhookPath)
	fmt.Fprintf(app.Out, "   Подпись: %s (%s)\n", cfg.SignatureMode, cfg.SignatureHeader)
	fmt.Fprintf(app.Out, "   Хранилище каруселей: %s\n", cfg.StateStore)
	fmt.Fprintf(app.Out, "   Профили клиентов: %s\n", enabledText(cfg.ProfileEnabled()))
	fmt.Fprintf(app.Out, "   Архив вебхуков: %s\n", enabledText(cfg.ArchiveEnabled()))
	fmt.Fprintf(app.Out, "   Обогащение треков: %s\n", enabledText(cfg.EnrichTracks))
	return nil
}

func enabledText(enabled bool) string {
	if enabled {
		return "включено"
	}
	return "выключено"
}
