package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/studio-relay/internal/carousel"
	"github.com/hazadus/studio-relay/internal/enrich"
	"github.com/hazadus/studio-relay/internal/tui"
	"github.com/hazadus/studio-relay/internal/tui/preview"
)

// createPreviewCommand создает команду preview с привязкой к экземпляру приложения
func (app *Application) createPreviewCommand(ctx context.Context) *cobra.Command {
	var plain, withEnrich bool

	cmd := &cobra.Command{
		Use:   "preview [payload.json | -]",
		Short: "Preview the track carousel of a payload in the terminal",
		Long: `Build the carousel for a webhook payload and browse it in an interactive
terminal view with the same navigation rules as the Discord buttons.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			payload, err := app.readPayload(args[0])
			if err != nil {
				return err
			}

			rec := payload.Record
			if withEnrich {
				enrichCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
				rec.Tracks = enrich.New(app.Logger).Enrich(enrichCtx, rec.Tracks)
				cancel()
			}

			state := carousel.New(rec.CarouselItems())
			header := "🎵 New Project: " + rec.DisplayTitle()

			if plain {
				app.printCarousel(header, state)
				return nil
			}

			final, err := tui.NewApp(header, state).Run()
			if err != nil {
				return fmt.Errorf("ошибка TUI: %w", err)
			}
			app.Logger.Debug("предпросмотр завершен", "position", final.Index+1, "total", final.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print every carousel position instead of starting the TUI")
	cmd.Flags().BoolVar(&withEnrich, "enrich", false, "fill missing titles and durations before rendering")
	return cmd
}

// printCarousel выводит все позиции карусели, проходя её кнопкой Next
func (app *Application) printCarousel(header string, state carousel.State) {
	fmt.Fprintln(app.Out, header)
	if state.Empty() {
		fmt.Fprintln(app.Out, preview.Summary(state.Render()))
		return
	}

	for {
		d := state.Render()
		fmt.Fprintln(app.Out, preview.Summary(d))
		fmt.Fprintf(app.Out, "   %s\n", d.LinkURL)
		if d.MediaURL != "" {
			fmt.Fprintf(app.Out, "   🖼  %s\n", d.MediaURL)
		}
		if !state.CanAdvance() {
			return
		}
		state = state.Advance()
	}
}
