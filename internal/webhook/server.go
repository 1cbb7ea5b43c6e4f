// Package webhook принимает вебхуки базы данных и передает заявки в notifier
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hazadus/studio-relay/internal/archive"
	"github.com/hazadus/studio-relay/internal/notifier"
	"github.com/hazadus/studio-relay/internal/record"
)

const (
	defaultMaxBodyBytes  = 1 << 20
	defaultNotifyTimeout = 30 * time.Second
	requestIDHeader      = "X-Request-ID"
	requestIDKey         = "request_id"
)

// Notifier обрабатывает заявку
type Notifier interface {
	Notify(ctx context.Context, rec *record.Record) (*notifier.Result, error)
}

// Archiver сохраняет исходное тело запроса
type Archiver interface {
	Store(ctx context.Context, requestID uuid.UUID, body []byte) (*archive.Result, error)
}

// Options параметры приема вебхуков
type Options struct {
	Path            string
	Secret          string
	SignatureMode   string
	SignatureHeader string
	MaxBodyBytes    int64
	NotifyTimeout   time.Duration
}

// Server HTTP прием вебхуков
type Server struct {
	options  Options
	auth     *Authenticator
	notifier Notifier
	archiver Archiver
	logger   *slog.Logger
	router   *gin.Engine
}

// NewServer создает сервер. archiver может быть nil.
func NewServer(options Options, n Notifier, archiver Archiver, logger *slog.Logger) *Server {
	if options.Path == "" {
		options.Path = "/webhook"
	}
	if options.MaxBodyBytes <= 0 {
		options.MaxBodyBytes = defaultMaxBodyBytes
	}
	if options.NotifyTimeout <= 0 {
		options.NotifyTimeout = defaultNotifyTimeout
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		options:  options,
		auth:     NewAuthenticator(options.SignatureMode, options.SignatureHeader, options.Secret),
		notifier: n,
		archiver: archiver,
		logger:   logger,
		router:   router,
	}

	router.Use(s.requestLogger(), gin.CustomRecovery(s.recovered))
	router.GET("/healthz", s.handleHealth)
	router.POST(options.Path, s.handleWebhook)

	return s
}

// Handler возвращает http.Handler для http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleWebhook(c *gin.Context) {
	requestID := uuid.New()
	c.Set(requestIDKey, requestID.String())
	c.Header(requestIDHeader, requestID.String())
	logger := s.logger.With("request_id", requestID.String())

	// В режиме secret заголовок проверяется до чтения тела,
	// поэтому без секрета нельзя узнать даже предел размера
	if !s.auth.SignsBody() && !s.authorized(c, logger, nil) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.options.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		s.fail(c, http.StatusBadRequest, "cannot read body")
		return
	}

	// Подпись hmac проверяется до разбора тела
	if s.auth.SignsBody() && !s.authorized(c, logger, body) {
		return
	}

	s.archive(c.Request.Context(), logger, requestID, body)

	payload, err := record.ParsePayload(body)
	if err != nil {
		logger.Warn("некорректное тело вебхука", "error", err)
		s.fail(c, http.StatusBadRequest, "malformed payload")
		return
	}

	// Доставка не прерывается, если отправитель закрыл соединение
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), s.options.NotifyTimeout)
	defer cancel()

	result, err := s.notifier.Notify(ctx, payload.Record)
	if err != nil {
		status := statusFor(err)
		logger.Error("ошибка обработки заявки", "record_id", payload.Record.ID, "status", status, "error", err)
		s.fail(c, status, http.StatusText(status))
		return
	}

	response := gin.H{
		"status":     "ok",
		"request_id": requestID.String(),
		"client":     result.ClientName,
		"tracks":     result.Tracks,
		"carousel":   result.CarouselSent,
	}
	if result.Partial() {
		logger.Warn("сводка доставлена, карусель нет", "record_id", payload.Record.ID, "error", result.CarouselErr)
		response["status"] = "partial"
		response["carousel_error"] = result.CarouselErr.Error()
	} else {
		logger.Info("заявка доставлена", "record_id", payload.Record.ID, "tracks", result.Tracks, "carousel", result.CarouselSent)
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) authorized(c *gin.Context, logger *slog.Logger, body []byte) bool {
	if err := s.auth.Verify(c.GetHeader(s.auth.Header()), body); err != nil {
		logger.Warn("запрос отклонен", "error", err, "remote", c.ClientIP())
		s.fail(c, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}

// archive сохраняет тело запроса; ошибка архива не влияет на ответ
func (s *Server) archive(ctx context.Context, logger *slog.Logger, requestID uuid.UUID, body []byte) {
	if s.archiver == nil {
		return
	}
	res, err := s.archiver.Store(ctx, requestID, body)
	if err != nil {
		logger.Warn("тело вебхука не сохранено в архив", "error", err)
		return
	}
	logger.Debug("тело вебхука сохранено", "key", res.Key, "url", res.URL)
}

// statusFor HTTP статус для ошибки обработки
func statusFor(err error) int {
	switch {
	case errors.Is(err, notifier.ErrChannelUnavailable), errors.Is(err, notifier.ErrDelivery):
		return http.StatusBadGateway
	case errors.Is(err, record.ErrMalformedPayload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, status int, message string) {
	resp := gin.H{"error": message}
	if id := c.GetString(requestIDKey); id != "" {
		resp["request_id"] = id
	}
	c.AbortWithStatusJSON(status, resp)
}

func (s *Server) recovered(c *gin.Context, rec any) {
	s.logger.Error("паника при обработке запроса", "path", c.Request.URL.Path, "panic", rec)
	s.fail(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// requestLogger пишет одну строку лога на запрос
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if c.Writer.Status() >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		s.logger.Log(c.Request.Context(), level, "http запрос",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}
