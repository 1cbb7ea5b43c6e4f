// Package notifier превращает одну заявку в сообщения канала: сводку и карусель треков
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazadus/studio-relay/internal/carousel"
	"github.com/hazadus/studio-relay/internal/record"
)

var (
	// ErrChannelUnavailable канал назначения не найден или недоступен
	ErrChannelUnavailable = errors.New("канал назначения недоступен")
	// ErrDelivery сводка не доставлена
	ErrDelivery = errors.New("ошибка доставки сводки")
)

const (
	defaultProfileTimeout = 5 * time.Second
	defaultEnrichTimeout  = 10 * time.Second
)

// Messenger доставляет сообщения в канал
type Messenger interface {
	ResolveChannel(ctx context.Context) error
	SendBriefing(ctx context.Context, rec *record.Record, clientName string) error
	SendCarousel(ctx context.Context, state carousel.State) (string, error)
}

// NameResolver возвращает отображаемое имя клиента; при ошибке имя все равно заполнено
type NameResolver interface {
	Resolve(ctx context.Context, userID string) (string, error)
}

// TrackEnricher дополняет треки метаданными
type TrackEnricher interface {
	Enrich(ctx context.Context, tracks []record.Track) []record.Track
}

// Result итог обработки заявки
type Result struct {
	ClientName        string
	CarouselSent      bool
	CarouselMessageID string
	Tracks            int
	CarouselErr       error
}

// Partial сводка доставлена, а карусель нет
func (r *Result) Partial() bool {
	return r.CarouselErr != nil
}

// Service обрабатывает заявки
type Service struct {
	messenger      Messenger
	names          NameResolver
	enricher       TrackEnricher
	controller     *carousel.Controller
	profileTimeout time.Duration
	enrichTimeout  time.Duration
	logger         *slog.Logger
}

// Option настройка Service
type Option func(*Service)

// WithEnricher включает обогащение треков
func WithEnricher(e TrackEnricher) Option {
	return func(s *Service) { s.enricher = e }
}

// WithEnrichTimeout задает общий таймаут обогащения треков
func WithEnrichTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.enrichTimeout = d
		}
	}
}

// WithProfileTimeout задает таймаут запроса профиля
func WithProfileTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.profileTimeout = d
		}
	}
}

// New создает Service
func New(messenger Messenger, names NameResolver, controller *carousel.Controller, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		messenger:      messenger,
		names:          names,
		controller:     controller,
		profileTimeout: defaultProfileTimeout,
		enrichTimeout:  defaultEnrichTimeout,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify публикует сводку и, если есть пригодные треки, карусель.
// Ошибка канала или сводки прерывает обработку. Ошибка карусели попадает в Result.
func (s *Service) Notify(ctx context.Context, rec *record.Record) (*Result, error) {
	if err := s.messenger.ResolveChannel(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	result := &Result{ClientName: s.resolveName(ctx, rec.ClientID())}

	// Сводка использует только исходные поля заявки и уходит до обогащения
	if err := s.messenger.SendBriefing(ctx, rec, result.ClientName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	if s.enricher != nil && len(rec.Tracks) > 0 {
		rec = s.enrich(ctx, rec)
	}

	state := carousel.New(rec.CarouselItems())
	result.Tracks = state.Len()
	if state.Empty() {
		s.logger.Debug("нет треков для карусели", "record_id", rec.ID, "candidates", len(rec.Tracks))
		return result, nil
	}

	messageID, err := s.messenger.SendCarousel(ctx, state)
	if err != nil {
		result.CarouselErr = err
		return result, nil
	}
	result.CarouselMessageID = messageID

	// Сообщение уже в канале: без привязки кнопки будут отвечать, что карусель неактивна
	if err := s.controller.Attach(ctx, messageID, state); err != nil {
		result.CarouselErr = err
		return result, nil
	}
	result.CarouselSent = true
	return result, nil
}

// enrich дополняет копию заявки. Если enrichTimeout истек, карусель строится из исходных треков.
func (s *Service) enrich(ctx context.Context, rec *record.Record) *record.Record {
	ctx, cancel := context.WithTimeout(ctx, s.enrichTimeout)
	defer cancel()

	done := make(chan []record.Track, 1)
	go func() {
		done <- s.enricher.Enrich(ctx, rec.Tracks)
	}()

	select {
	case tracks := <-done:
		enriched := *rec
		enriched.Tracks = tracks
		return &enriched
	case <-ctx.Done():
		s.logger.Warn("обогащение треков прервано", "record_id", rec.ID, "error", ctx.Err())
		return rec
	}
}

func (s *Service) resolveName(ctx context.Context, userID string) string {
	ctx, cancel := context.WithTimeout(ctx, s.profileTimeout)
	defer cancel()

	name, err := s.names.Resolve(ctx, userID)
	if err != nil {
		s.logger.Warn("профиль клиента не получен", "user_id", userID, "error", err)
	}
	return name
}
