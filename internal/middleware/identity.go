package middleware

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/hkdf"
)

const (
	SessionName = "crushboard_session"
	// CheckUserKey holds the anonymous user id in the gin context.
	CheckUserKey = "user_id"
	// freshUserKey marks an id minted on this request, not one the client sent back.
	freshUserKey = "user_id_fresh"
)

// SessionStore builds the cookie store with an authentication and an encryption key derived
// from secret.
func SessionStore(secret string) (sessions.Store, error) {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("crushboard session keys"))
	authKey := make([]byte, 32)
	encKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, authKey); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	store := cookie.NewStore(authKey, encKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 365,
		HttpOnly: true,
	})
	return store, nil
}

// Identity gives every session a stable anonymous user id on first contact.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(CheckUserKey).(string)
		if _, err := uuid.Parse(userID); err != nil {
			userID = uuid.NewString()
			session.Set(CheckUserKey, userID)
			if err := session.Save(); err != nil {
				log.Error().Err(err).Msg("failed to save session identity")
				userID = ""
			}
			c.Set(freshUserKey, true)
		}
		if userID != "" {
			c.Set(CheckUserKey, userID)
		}
		c.Next()
	}
}

// returningUser reports whether the id came from a valid session cookie.
func returningUser(c *gin.Context) bool {
	return UserID(c) != "" && !c.GetBool(freshUserKey)
}

// UserID is the anonymous id set by Identity, or "" when none could be established.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(CheckUserKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
