package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"podplay/internal/models"
)

// initDataMaxAge bounds how old a Mini App launch may be.
const initDataMaxAge = 24 * time.Hour

// Auth validates the Telegram Mini App initData of each request and stores
// the Telegram user in the request context.
func Auth(botToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "tma" {
				http.Error(w, "Authorization header format must be 'tma <initData>'", http.StatusUnauthorized)
				return
			}
			raw := parts[1]

			if err := initdata.Validate(raw, botToken, initDataMaxAge); err != nil {
				log.WithError(err).Warn("invalid init data")
				http.Error(w, "Invalid init data", http.StatusUnauthorized)
				return
			}

			data, err := initdata.Parse(raw)
			if err != nil {
				log.WithError(err).Warn("error parsing init data")
				http.Error(w, "Error parsing init data", http.StatusBadRequest)
				return
			}

			user := &models.User{ID: data.User.ID, Username: data.User.Username}
			ctx := context.WithValue(r.Context(), models.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
