package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/hazadus/studio-relay/internal/config"
)

var (
	errMissingCredential = errors.New("отсутствует заголовок авторизации")
	errBadCredential     = errors.New("неверная подпись или секрет")
)

// Authenticator проверяет подлинность запроса до разбора тела
type Authenticator struct {
	mode   string
	header string
	secret []byte
}

// NewAuthenticator создает проверку для режима secret или hmac
func NewAuthenticator(mode, header, secret string) *Authenticator {
	if header == "" {
		header = config.DefaultSignatureHeader(mode)
	}
	return &Authenticator{mode: mode, header: header, secret: []byte(secret)}
}

// Header имя проверяемого заголовка
func (a *Authenticator) Header() string {
	return a.header
}

// SignsBody true, если для проверки нужно тело запроса (режим hmac)
func (a *Authenticator) SignsBody() bool {
	return a.mode == config.SignatureModeHMAC
}

// Verify сравнивает значение заголовка с ожидаемым за постоянное время
func (a *Authenticator) Verify(headerValue string, body []byte) error {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" {
		return errMissingCredential
	}
	if len(a.secret) == 0 {
		return errBadCredential
	}

	var expected []byte
	if a.SignsBody() {
		expected = []byte(Sign(a.secret, body))
		headerValue = strings.ToLower(strings.TrimPrefix(headerValue, "sha256="))
	} else {
		expected = a.secret
	}

	if subtle.ConstantTimeCompare([]byte(headerValue), expected) != 1 {
		return errBadCredential
	}
	return nil
}

// Sign hex HMAC-SHA256 тела запроса
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
