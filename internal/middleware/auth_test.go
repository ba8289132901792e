package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"podplay/internal/models"
)

const testBotToken = "dummy-token"

// signInitData builds Mini App init data signed the way Telegram signs it.
func signInitData(t *testing.T, token string, values url.Values) string {
	t.Helper()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	signed := url.Values{}
	for k := range values {
		signed.Set(k, values.Get(k))
	}
	signed.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return signed.Encode()
}

func TestAuth(t *testing.T) {
	values := url.Values{}
	values.Set("query_id", "AAHdF614AAAAAN0Xrhom_pA")
	values.Set("user", `{"id":123,"first_name":"Test","last_name":"User","username":"testuser","language_code":"en"}`)
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))

	t.Run("valid auth data", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "tma "+signInitData(t, testBotToken, values))
		rr := httptest.NewRecorder()

		mockHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(models.UserContextKey).(*models.User)
			assert.True(t, ok)
			assert.Equal(t, int64(123), user.ID)
			assert.Equal(t, "testuser", user.Username)
			w.WriteHeader(http.StatusOK)
		})

		Auth(testBotToken)(mockHandler).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("signed with another token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "tma "+signInitData(t, "other-token", values))
		rr := httptest.NewRecorder()
		Auth(testBotToken)(nil).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("no authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		Auth(testBotToken)(nil).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid authorization header format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer sometoken")
		rr := httptest.NewRecorder()
		Auth(testBotToken)(nil).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
