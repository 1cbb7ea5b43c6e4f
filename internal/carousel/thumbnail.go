package carousel

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// Хосты, ссылки которых разбираются как YouTube
var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
	"www.youtu.be":      true,
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Префиксы путей youtube.com, в которых после префикса стоит ID видео
var youtubePathPrefixes = []string{"/shorts/", "/embed/", "/v/", "/live/"}

// YouTubeID извлекает ID видео из ссылки YouTube.
// Для ссылок других сервисов и нераспознанных форм возвращает false.
func YouTubeID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Host)
	if !youtubeHosts[host] || !videoShape(host, u) {
		return "", false
	}

	id, err := youtube.ExtractVideoID(u.String())
	if err != nil || !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// videoShape отсекает ссылки на каналы, плейлисты и главную страницу
func videoShape(host string, u *url.URL) bool {
	if strings.HasSuffix(host, "youtu.be") {
		return len(strings.Trim(u.Path, "/")) > 0
	}
	if u.Path == "/watch" {
		return u.Query().Get("v") != ""
	}
	for _, prefix := range youtubePathPrefixes {
		if strings.HasPrefix(u.Path, prefix) {
			return true
		}
	}
	return false
}

// Thumbnail возвращает ссылку на превью для известных форм ссылок
func Thumbnail(rawURL string) (string, bool) {
	id, ok := YouTubeID(rawURL)
	if !ok {
		return "", false
	}
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg", true
}
