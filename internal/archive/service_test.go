package archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// MockUploader мок для загрузчика объектов
type MockUploader struct {
	uploadFunc func(ctx context.Context, reader io.Reader, key, contentType string) (string, error)
}

func (m *MockUploader) UploadFile(ctx context.Context, reader io.Reader, key, contentType string) (string, error) {
	return m.uploadFunc(ctx, reader, key, contentType)
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 18, 23, 30, 0, 0, time.FixedZone("MSK", 3*60*60))
}

func TestStore(t *testing.T) {
	requestID := uuid.MustParse("0b9d8f7e-1c2a-4b3d-9e8f-7a6b5c4d3e2f")
	body := []byte(`{"record": {"title": "x"}}`)

	var gotKey, gotBody, gotType string
	uploader := &MockUploader{uploadFunc: func(_ context.Context, reader io.Reader, key, contentType string) (string, error) {
		data, _ := io.ReadAll(reader)
		gotKey, gotBody, gotType = key, string(data), contentType
		return "s3://bucket/" + key, nil
	}}

	service := NewService(uploader, "webhooks")
	service.now = fixedNow

	result, err := service.Store(context.Background(), requestID, body)
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}

	expectedKey := "webhooks/2026/10/18/0b9d8f7e-1c2a-4b3d-9e8f-7a6b5c4d3e2f.json"
	if gotKey != expectedKey || result.Key != expectedKey {
		t.Errorf("Ожидался ключ %s, получено %s / %s", expectedKey, gotKey, result.Key)
	}
	if gotBody != string(body) {
		t.Errorf("Тело изменено при архивировании: %s", gotBody)
	}
	if gotType != "application/json" {
		t.Errorf("Неверный Content-Type: %s", gotType)
	}
	if result.URL != "s3://bucket/"+expectedKey {
		t.Errorf("Неверный URL: %s", result.URL)
	}
}

func TestStoreError(t *testing.T) {
	uploadErr := errors.New("access denied")
	uploader := &MockUploader{uploadFunc: func(context.Context, io.Reader, string, string) (string, error) {
		return "", uploadErr
	}}

	_, err := NewService(uploader, "").Store(context.Background(), uuid.New(), []byte("{}"))
	if !errors.Is(err, uploadErr) {
		t.Errorf("Ожидалась ошибка загрузки, получено %v", err)
	}
}

func TestKeyWithoutPrefix(t *testing.T) {
	service := NewService(nil, "")
	service.now = fixedNow
	id := uuid.New()

	key := service.Key(id)
	if !strings.HasPrefix(key, "2026/10/18/") || !strings.HasSuffix(key, id.String()+".json") {
		t.Errorf("Неверный ключ без префикса: %s", key)
	}
}
