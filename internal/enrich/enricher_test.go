package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/hazadus/studio-relay/internal/record"
)

// MockVideoFetcher мок для клиента YouTube
type MockVideoFetcher struct {
	getVideoFunc func(ctx context.Context, url string) (*youtube.Video, error)
	calls        []string
}

func (m *MockVideoFetcher) GetVideoContext(ctx context.Context, url string) (*youtube.Video, error) {
	m.calls = append(m.calls, url)
	return m.getVideoFunc(ctx, url)
}

func newTestEnricher(videos VideoFetcher) *Enricher {
	e := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.videos = videos
	return e
}

func TestEnrichYouTube(t *testing.T) {
	videos := &MockVideoFetcher{getVideoFunc: func(_ context.Context, id string) (*youtube.Video, error) {
		return &youtube.Video{ID: id, Title: "Never Gonna Give You Up", Author: "Rick Astley", Duration: 212 * time.Second}, nil
	}}
	e := newTestEnricher(videos)

	tracks := []record.Track{
		{URL: "https://youtu.be/dQw4w9WgXcQ"},
		{Title: "Keep me", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
	}
	out := e.Enrich(context.Background(), tracks)

	if out[0].Title != "Never Gonna Give You Up" || out[0].Artist != "Rick Astley" {
		t.Errorf("трек не дополнен: %+v", out[0])
	}
	if out[0].Duration != 212*time.Second {
		t.Errorf("неверная длительность: %v", out[0].Duration)
	}
	if out[1].Title != "Keep me" {
		t.Errorf("существующее название не должно перезаписываться: %q", out[1].Title)
	}
	if out[1].Duration != 212*time.Second {
		t.Errorf("длительность второго трека не дополнена: %v", out[1].Duration)
	}
	if tracks[0].Title != "" {
		t.Error("Enrich не должен изменять входной срез")
	}
	if len(videos.calls) != 2 || videos.calls[0] != "dQw4w9WgXcQ" {
		t.Errorf("неожиданные вызовы YouTube: %v", videos.calls)
	}
}

func TestEnrichYouTubeError(t *testing.T) {
	videos := &MockVideoFetcher{getVideoFunc: func(context.Context, string) (*youtube.Video, error) {
		return nil, errors.New("video unavailable")
	}}
	e := newTestEnricher(videos)

	out := e.Enrich(context.Background(), []record.Track{{URL: "https://youtu.be/dQw4w9WgXcQ"}})
	if out[0].Title != "" || out[0].Duration != 0 {
		t.Errorf("при ошибке трек должен остаться без изменений: %+v", out[0])
	}
}

func TestEnrichAudioFileFallsBackToFileName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("definitely not an mp3 stream"))
	}))
	defer server.Close()

	e := newTestEnricher(&MockVideoFetcher{})
	out := e.Enrich(context.Background(), []record.Track{
		{URL: server.URL + "/files/Daft%20Punk%20-%20Around%20the%20World.mp3"},
	})

	if out[0].Artist != "Daft Punk" || out[0].Title != "Around the World" {
		t.Errorf("ожидались данные из имени файла, получено %+v", out[0])
	}
	if out[0].Duration != 0 {
		t.Errorf("для некорректного MP3 длительность неизвестна, получено %v", out[0].Duration)
	}
}

func TestLookupErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "big.mp3") {
			w.Write([]byte(strings.Repeat("x", 2048)))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	e := newTestEnricher(&MockVideoFetcher{})
	e.maxBytes = 1024

	tests := []struct {
		name string
		url  string
	}{
		{"not found", server.URL + "/missing.mp3"},
		{"too big", server.URL + "/big.mp3"},
		{"unsupported", "https://soundcloud.com/artist/track"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := e.Lookup(context.Background(), test.url); err == nil {
				t.Errorf("ожидалась ошибка для %s", test.url)
			}
		})
	}
}

func TestGetDefaultMetadata(t *testing.T) {
	e := newTestEnricher(nil)

	tests := []struct {
		url    string
		artist string
		title  string
	}{
		{"https://cdn.example.com/a/Artist - Title.mp3", "Artist", "Title"},
		{"https://cdn.example.com/a/A - B - C.flac?sig=1", "A", "B - C"},
		{"https://cdn.example.com/a/demo_v2.m4a", "", "demo_v2"},
	}

	for _, test := range tests {
		meta := e.getDefaultMetadata(test.url)
		if meta.Artist != test.artist || meta.Title != test.title {
			t.Errorf("getDefaultMetadata(%s) = %+v; ожидалось %s / %s", test.url, meta, test.artist, test.title)
		}
	}
}
