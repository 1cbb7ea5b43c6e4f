package main

import (
	"fmt"
	"time"

	"github.com/hazadus/studio-relay/internal/archive"
	"github.com/hazadus/studio-relay/internal/carousel"
	"github.com/hazadus/studio-relay/internal/config"
	"github.com/hazadus/studio-relay/internal/discord"
	"github.com/hazadus/studio-relay/internal/enrich"
	"github.com/hazadus/studio-relay/internal/notifier"
	"github.com/hazadus/studio-relay/internal/profile"
	"github.com/hazadus/studio-relay/internal/s3"
	"github.com/hazadus/studio-relay/internal/storage"
)

const (
	profileTimeout = 5 * time.Second
	// Обогащение занимает лишь часть общего таймаута доставки вебхука
	enrichTimeout = 10 * time.Second
)

// services компоненты, собранные из конфигурации
type services struct {
	controller *carousel.Controller
	messenger  *discord.Messenger
	notifier   *notifier.Service
	archive    *archive.Service
	closers    []func() error
}

// Close освобождает ресурсы в обратном порядке
func (s *services) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// newStore выбирает хранилище состояний каруселей
func newStore(cfg *config.Config) (carousel.Store, func() error, error) {
	switch cfg.StateStore {
	case config.StateStoreSQLite:
		store, err := storage.OpenSQLite(cfg.StatePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return carousel.NewMemoryStore(), func() error { return nil }, nil
	}
}

// newResolver создает поиск имен клиентов; без настроек только заглушки
func newResolver(cfg *config.Config) *profile.Resolver {
	if !cfg.ProfileEnabled() {
		return profile.NewResolver(nil)
	}
	return profile.NewResolver(profile.NewClient(profile.Config{
		BaseURL: cfg.ProfileBaseURL,
		APIKey:  cfg.ProfileAPIKey,
		Table:   cfg.ProfileTable,
		Timeout: profileTimeout,
	}))
}

// newArchive создает архив тел вебхуков, если задан бакет
func newArchive(cfg *config.Config) (*archive.Service, error) {
	if !cfg.ArchiveEnabled() {
		return nil, nil
	}
	uploader, err := s3.NewUploader(&s3.Config{
		Region:     cfg.AwsRegion,
		AccessKey:  cfg.AwsAccessKey,
		SecretKey:  cfg.AwsSecretKey,
		Endpoint:   cfg.AwsEndpoint,
		BucketName: cfg.AwsBucketName,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания S3 uploader: %w", err)
	}
	return archive.NewService(uploader, cfg.ArchivePrefix), nil
}

// buildServices собирает notifier и его зависимости поверх сессии Discord
func (app *Application) buildServices(session discord.Session) (*services, error) {
	cfg := app.Config

	store, closeStore, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	svc := &services{closers: []func() error{closeStore}}

	svc.controller = carousel.NewController(store)
	svc.messenger = discord.NewMessenger(session, cfg.ChannelID, cfg.DashboardURL, svc.controller, app.Logger)

	opts := []notifier.Option{notifier.WithProfileTimeout(profileTimeout)}
	if cfg.EnrichTracks {
		opts = append(opts, notifier.WithEnricher(enrich.New(app.Logger)), notifier.WithEnrichTimeout(enrichTimeout))
	}
	svc.notifier = notifier.New(svc.messenger, newResolver(cfg), svc.controller, app.Logger, opts...)

	if svc.archive, err = newArchive(cfg); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}
