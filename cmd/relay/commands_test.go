package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazadus/studio-relay/internal/carousel"
	"github.com/hazadus/studio-relay/internal/config"
	"github.com/hazadus/studio-relay/internal/notifier"
	"github.com/hazadus/studio-relay/internal/profile"
	"github.com/hazadus/studio-relay/internal/record"
	"github.com/hazadus/studio-relay/internal/storage"
)

const testPayload = `{
	"type": "INSERT",
	"record": {
		"title": "Sunset",
		"tracks": [
			{"title": "A", "url": "https://example.com/a.mp3"},
			{"title": "B", "url": "https://youtu.be/dQw4w9WgXcQ"},
			{"title": "broken", "url": "nope"}
		]
	}
}`

// MockMessenger мок доставки в Discord
type MockMessenger struct {
	carouselErr error
	briefings   int
}

func (m *MockMessenger) ResolveChannel(context.Context) error { return nil }

func (m *MockMessenger) SendBriefing(context.Context, *record.Record, string) error {
	m.briefings++
	return nil
}

func (m *MockMessenger) SendCarousel(context.Context, carousel.State) (string, error) {
	if m.carouselErr != nil {
		return "", m.carouselErr
	}
	return "msg-42", nil
}

func createTestApplication(t *testing.T) (*Application, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.DiscordToken = "tok-XYZ"
	cfg.ChannelID = "42"
	cfg.WebhookSecret = "shh-123"
	cfg.SignatureHeader = config.DefaultSecretHeader

	out := &bytes.Buffer{}
	return &Application{
		Config:     cfg,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		In:         strings.NewReader(""),
		Out:        out,
	}, out
}

func writePayload(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Ошибка записи payload: %v", err)
	}
	return path
}

// TestCmdPreviewPlain проверяет вывод всех позиций карусели
func TestCmdPreviewPlain(t *testing.T) {
	app, out := createTestApplication(t)

	cmd := app.createPreviewCommand(context.Background())
	cmd.SetArgs([]string{"--plain", writePayload(t, testPayload)})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Ошибка выполнения команды preview: %v", err)
	}

	expectedStrings := []string{
		"🎵 New Project: Sunset",
		"🎧 1/2: A",
		"🎧 2/2: B",
		"img.youtube.com/vi/dQw4w9WgXcQ",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(out.String(), expected) {
			t.Errorf("Вывод preview не содержит %q: %s", expected, out.String())
		}
	}
	if strings.Contains(out.String(), "broken") {
		t.Error("Трек без корректной ссылки не должен попадать в карусель")
	}
}

// TestCmdPreviewStdinEmpty проверяет чтение из stdin и пустую карусель
func TestCmdPreviewStdinEmpty(t *testing.T) {
	app, out := createTestApplication(t)
	app.In = strings.NewReader(`{"record": {"title": "No refs", "tracks": []}}`)

	cmd := app.createPreviewCommand(context.Background())
	cmd.SetArgs([]string{"--plain", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Ошибка выполнения команды preview: %v", err)
	}
	if !strings.Contains(out.String(), "No playable tracks") {
		t.Errorf("Ожидалось сообщение о пустой карусели: %s", out.String())
	}
}

// TestCmdPreviewMalformed проверяет ошибку разбора
func TestCmdPreviewMalformed(t *testing.T) {
	app, _ := createTestApplication(t)

	cmd := app.createPreviewCommand(context.Background())
	cmd.SetArgs([]string{"--plain", writePayload(t, `{"type": "INSERT"}`)})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	if !errors.Is(err, record.ErrMalformedPayload) {
		t.Errorf("Ожидалась ErrMalformedPayload, получено: %v", err)
	}
}

// TestSend проверяет вывод итогов доставки
func TestSend(t *testing.T) {
	tests := []struct {
		name      string
		messenger *MockMessenger
		expected  []string
	}{
		{"carousel sent", &MockMessenger{}, []string{"✅ Сводка отправлена: Sunset", "msg-42", "⚠️"}},
		{"carousel failed", &MockMessenger{carouselErr: errors.New("rate limited")}, []string{"❌ Карусель не отправлена: rate limited"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			app, out := createTestApplication(t)
			payload, err := record.ParsePayload([]byte(testPayload))
			if err != nil {
				t.Fatal(err)
			}

			n := notifier.New(test.messenger, profile.NewResolver(nil), carousel.NewController(carousel.NewMemoryStore()), app.Logger)
			if err := app.send(context.Background(), n, payload); err != nil {
				t.Fatalf("Ошибка send: %v", err)
			}
			for _, expected := range test.expected {
				if !strings.Contains(out.String(), expected) {
					t.Errorf("Вывод не содержит %q: %s", expected, out.String())
				}
			}
			if test.messenger.briefings != 1 {
				t.Errorf("Ожидалась одна сводка, отправлено %d", test.messenger.briefings)
			}
		})
	}
}

// TestCmdConfigInit проверяет создание примера конфигурации
func TestCmdConfigInit(t *testing.T) {
	app, out := createTestApplication(t)
	app.Config = nil

	root := app.createRootCommand(context.Background())
	root.SetArgs([]string{"config", "init", "--config", app.ConfigPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("Ошибка выполнения config init: %v", err)
	}
	if _, err := os.Stat(app.ConfigPath); err != nil {
		t.Fatalf("Файл конфигурации не создан: %v", err)
	}
	if !strings.Contains(out.String(), app.ConfigPath) {
		t.Errorf("Вывод не содержит путь: %s", out.String())
	}

	// Повторный запуск не перезаписывает файл
	root = app.createRootCommand(context.Background())
	root.SetArgs([]string{"config", "init", "--config", app.ConfigPath})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Error("Ожидалась ошибка при существующем файле")
	}
}

// TestCheckConfig проверяет вывод итогов без секретов
func TestCheckConfig(t *testing.T) {
	app, out := createTestApplication(t)

	if err := app.checkConfig(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if !strings.Contains(out.String(), ":8080/webhook") {
		t.Errorf("Вывод не содержит адрес: %s", out.String())
	}
	if strings.Contains(out.String(), "tok-XYZ") || strings.Contains(out.String(), "shh-123") {
		t.Errorf("Вывод не должен содержать секреты: %s", out.String())
	}

	app.Config.DiscordToken = ""
	if err := app.checkConfig(); err == nil {
		t.Error("Ожидалась ошибка без токена")
	}
}

// TestNewStore проверяет выбор хранилища каруселей
func TestNewStore(t *testing.T) {
	app, _ := createTestApplication(t)

	store, closeStore, err := newStore(app.Config)
	if err != nil {
		t.Fatalf("Ошибка: %v", err)
	}
	if _, ok := store.(*carousel.MemoryStore); !ok {
		t.Errorf("По умолчанию ожидалось хранилище в памяти, получено %T", store)
	}
	closeStore()

	app.Config.StateStore = config.StateStoreSQLite
	app.Config.StatePath = filepath.Join(t.TempDir(), "state", "carousels.db")
	store, closeStore, err = newStore(app.Config)
	if err != nil {
		t.Fatalf("Ошибка открытия SQLite: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*storage.SQLiteStore); !ok {
		t.Errorf("Ожидалось SQLite хранилище, получено %T", store)
	}
}

// TestBuildServices проверяет сборку компонентов из конфигурации
func TestBuildServices(t *testing.T) {
	app, _ := createTestApplication(t)
	app.Config.AwsBucketName = "archive"
	app.Config.EnrichTracks = true

	svc, err := app.buildServices(nil)
	if err != nil {
		t.Fatalf("Ошибка сборки: %v", err)
	}
	defer svc.Close()

	if svc.notifier == nil || svc.messenger == nil || svc.controller == nil {
		t.Error("Компоненты не собраны")
	}
	if svc.archive == nil {
		t.Error("Архив должен быть включен при заданном бакете")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("visible")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Errorf("Неверная фильтрация по уровню: %s", buf.String())
	}

	buf.Reset()
	newLogger(&buf, "nonsense").Info("default info")
	if !strings.Contains(buf.String(), "default info") {
		t.Error("При неизвестном уровне ожидался info")
	}
}
