package transport

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/wb-go/wbf/ginext"
)

const APIKeyHeader = "X-API-Key"

// RequireAPIKey пропускает запрос только с верным ключом: "Authorization: Bearer <key>" или X-API-Key.
// Ключ сравнивается за постоянное время и никогда не логируется.
func RequireAPIKey(apiKey string) ginext.HandlerFunc {
	want := []byte(apiKey)

	return func(c *ginext.Context) {
		got := presentedKey(c.Request)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.Header("WWW-Authenticate", "Bearer")
			writeError(c, model.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func presentedKey(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.Header.Get(APIKeyHeader))
}
