package models

type contextKey string

// UserContextKey is the key for the authenticated user in a request context.
const UserContextKey = contextKey("user")

// User is the Telegram user behind an authenticated API request.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
