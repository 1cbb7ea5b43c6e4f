// Package archive сохраняет тела принятых вебхуков в объектное хранилище
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ObjectUploader загружает объект и возвращает его URL. Реализуется s3.Uploader.
type ObjectUploader interface {
	UploadFile(ctx context.Context, reader io.Reader, key, contentType string) (string, error)
}

// Service управляет архивом вебхуков
type Service struct {
	uploader ObjectUploader
	prefix   string
	now      func() time.Time
}

// NewService создает сервис архива
func NewService(uploader ObjectUploader, prefix string) *Service {
	return &Service{
		uploader: uploader,
		prefix:   prefix,
		now:      time.Now,
	}
}

// Result содержит результат архивирования
type Result struct {
	Key string
	URL string
}

// Key формирует ключ объекта: <prefix>/YYYY/MM/DD/<request id>.json
func (s *Service) Key(requestID uuid.UUID) string {
	day := s.now().UTC().Format("2006/01/02")
	return path.Join(s.prefix, day, requestID.String()+".json")
}

// Store сохраняет сырое тело вебхука
func (s *Service) Store(ctx context.Context, requestID uuid.UUID, body []byte) (*Result, error) {
	key := s.Key(requestID)
	url, err := s.uploader.UploadFile(ctx, bytes.NewReader(body), key, "application/json")
	if err != nil {
		return nil, fmt.Errorf("ошибка архивирования вебхука %s: %w", requestID, err)
	}
	return &Result{Key: key, URL: url}, nil
}
