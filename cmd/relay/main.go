package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hazadus/studio-relay/internal/config"
)

const (
	defaultConfigPath = "~/.relay/config.yaml"
)

// Application общие зависимости команд
type Application struct {
	Config     *config.Config
	Logger     *slog.Logger
	ConfigPath string
	In         io.Reader
	Out        io.Writer
}

func main() {
	// .env необязателен: в проде переменные задаются окружением
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Ошибка чтения .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &Application{
		ConfigPath: defaultConfigPath,
		In:         os.Stdin,
		Out:        os.Stdout,
	}

	if err := app.createRootCommand(ctx).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig загружает конфигурацию и создает логгер
func (app *Application) loadConfig() error {
	cfg, err := config.LoadConfig(app.ConfigPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	app.Config = cfg
	app.Logger = newLogger(os.Stderr, cfg.LogLevel)
	return nil
}

// newLogger создает текстовый slog логгер с указанным уровнем
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
