// Package enrich дополняет треки заявки метаданными: название, исполнитель, длительность
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/mp3"
	"github.com/kkdai/youtube/v2"

	"github.com/hazadus/studio-relay/internal/carousel"
	"github.com/hazadus/studio-relay/internal/record"
)

// Предельный размер скачиваемого аудио файла
const defaultMaxBytes = 25 << 20

// Расширения прямых ссылок на аудио, для которых читаются теги
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// VideoFetcher получает информацию о видео YouTube. Реализуется *youtube.Client.
type VideoFetcher interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
}

// TrackMetadata метаданные, извлеченные из источника
type TrackMetadata struct {
	Artist   string
	Title    string
	Duration time.Duration
}

// Enricher дополняет треки, у которых нет названия
type Enricher struct {
	videos     VideoFetcher
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

// New создает Enricher с клиентом YouTube и HTTP клиентом с таймаутами
func New(logger *slog.Logger) *Enricher {
	return &Enricher{
		videos: &youtube.Client{},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				MaxIdleConnsPerHost:   2,
			},
		},
		maxBytes: defaultMaxBytes,
		logger:   logger,
	}
}

// Enrich возвращает копию треков с дополненными полями.
// Ошибки не прерывают обработку: трек остается как был.
func (e *Enricher) Enrich(ctx context.Context, tracks []record.Track) []record.Track {
	out := make([]record.Track, len(tracks))
	copy(out, tracks)

	for i := range out {
		t := &out[i]
		if strings.TrimSpace(t.Title) != "" && t.Duration > 0 {
			continue
		}

		meta, err := e.Lookup(ctx, t.URL)
		if err != nil {
			e.logger.Debug("метаданные трека не получены", "url", t.URL, "error", err)
			continue
		}

		if strings.TrimSpace(t.Title) == "" {
			t.Title = meta.Title
		}
		if t.Artist == "" {
			t.Artist = meta.Artist
		}
		if t.Duration == 0 {
			t.Duration = meta.Duration
		}
	}
	return out
}

// Lookup определяет тип ссылки и извлекает метаданные
func (e *Enricher) Lookup(ctx context.Context, rawURL string) (*TrackMetadata, error) {
	if id, ok := carousel.YouTubeID(rawURL); ok {
		return e.fromYouTube(ctx, id)
	}
	if isAudioURL(rawURL) {
		return e.fromAudioFile(ctx, rawURL)
	}
	return nil, fmt.Errorf("неподдерживаемый источник: %s", rawURL)
}

func (e *Enricher) fromYouTube(ctx context.Context, videoID string) (*TrackMetadata, error) {
	video, err := e.videos.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о видео: %w", err)
	}
	return &TrackMetadata{
		Artist:   video.Author,
		Title:    video.Title,
		Duration: video.Duration,
	}, nil
}

func (e *Enricher) fromAudioFile(ctx context.Context, rawURL string) (*TrackMetadata, error) {
	data, err := e.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	meta := e.getDefaultMetadata(rawURL)

	if tags, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		if tags.Title() != "" {
			meta.Title = tags.Title()
		}
		if tags.Artist() != "" {
			meta.Artist = tags.Artist()
		}
	}

	if strings.EqualFold(path.Ext(urlPath(rawURL)), ".mp3") {
		if d, err := mp3Duration(data); err == nil {
			meta.Duration = d
		}
	}
	return meta, nil
}

// download скачивает файл целиком, не больше maxBytes
func (e *Enricher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", "studio-relay/1.0")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}
	if resp.ContentLength > e.maxBytes {
		return nil, fmt.Errorf("файл слишком большой: %d байт", resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("файл слишком большой: больше %d байт", e.maxBytes)
	}
	return data, nil
}

// mp3Duration декодирует MP3 и возвращает длительность
func mp3Duration(data []byte) (time.Duration, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования MP3: %w", err)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// getDefaultMetadata строит метаданные по имени файла в ссылке
func (e *Enricher) getDefaultMetadata(rawURL string) *TrackMetadata {
	fileName := path.Base(urlPath(rawURL))
	nameWithoutExt := strings.TrimSuffix(fileName, path.Ext(fileName))
	if decoded, err := url.PathUnescape(nameWithoutExt); err == nil {
		nameWithoutExt = decoded
	}

	// Пытаемся разобрать имя файла в формате "Artist - Title"
	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return &TrackMetadata{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}
	return &TrackMetadata{Title: nameWithoutExt}
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

func isAudioURL(rawURL string) bool {
	return audioExtensions[strings.ToLower(path.Ext(urlPath(rawURL)))]
}
