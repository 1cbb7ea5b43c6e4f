// Package profile предоставляет поиск профиля клиента в хранилище профилей (Supabase REST)
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Заглушки имени клиента
const (
	NameNewClient     = "New Client"
	NameUnknownClient = "Unknown Client"
)

// ErrNotFound профиль с таким идентификатором отсутствует
var ErrNotFound = errors.New("профиль не найден")

// Config содержит настройки доступа к хранилищу профилей
type Config struct {
	BaseURL string
	APIKey  string
	Table   string
	Timeout time.Duration
}

// Client читает профили через PostgREST
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient создает клиент профилей
func NewClient(config Config) *Client {
	if config.Table == "" {
		config.Table = "profiles"
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   config.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: config.Timeout,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type profileRow struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (r profileRow) displayName() string {
	for _, v := range []string{r.FullName, r.Username, r.Email} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// DisplayName возвращает отображаемое имя пользователя
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	query := url.Values{}
	query.Set("id", "eq."+userID)
	query.Set("select", "full_name,username,email")
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.config.BaseURL, url.PathEscape(c.config.Table), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("apikey", c.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}

	var rows []profileRow
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rows); err != nil {
		return "", fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, userID)
	}

	name := rows[0].displayName()
	if name == "" {
		return "", fmt.Errorf("%w: у профиля %s нет имени", ErrNotFound, userID)
	}
	return name, nil
}

// Lookup интерфейс поиска имени, реализуется Client
type Lookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Resolver возвращает имя клиента или заглушку; ошибки не прерывают уведомление
type Resolver struct {
	lookup Lookup
}

// NewResolver создает резолвер; lookup может быть nil, тогда всегда используется заглушка
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve возвращает имя клиента. Вторым значением возвращается ошибка поиска для логов.
func (r *Resolver) Resolve(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return NameNewClient, nil
	}
	if r == nil || r.lookup == nil {
		return NameUnknownClient, nil
	}

	name, err := r.lookup.DisplayName(ctx, userID)
	if err != nil {
		return NameUnknownClient, err
	}
	return name, nil
}
