package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay project requests from database webhooks to a Discord channel",
		Long: `Relay receives database webhooks about new project requests, posts a briefing
to a Discord channel and follows it with a navigable carousel of reference tracks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// config init должен работать без существующей конфигурации
			if cmd.Annotations["skipConfig"] == "true" {
				return nil
			}
			return app.loadConfig()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", app.ConfigPath, "path to the config file")

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createServeCommand(ctx))
	rootCmd.AddCommand(app.createSendCommand(ctx))
	rootCmd.AddCommand(app.createPreviewCommand(ctx))
	rootCmd.AddCommand(app.createConfigCommand())

	return rootCmd
}
