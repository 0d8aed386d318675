package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"blog-api/internal/domain"
)

// signInMessage is the error returned whenever an endpoint needs an
// authenticated caller and none is present.
const signInMessage = "You need to sign in or sign up before continuing."

const ctxUserIDKey = "authUserID"

type accessClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (h *Handler) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := accessClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

func (h *Handler) parseToken(tokenString string) (*accessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(h.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*accessClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenMalformed
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// authRequired rejects the request with 401 unless a valid bearer token is
// present, and records the authenticated user id on the context.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			respondErrors(c, http.StatusUnauthorized, signInMessage)
			c.Abort()
			return
		}

		claims, err := h.parseToken(token)
		if err != nil {
			respondErrors(c, http.StatusUnauthorized, signInMessage)
			c.Abort()
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Next()
	}
}

// authOptional records the caller's identity when a valid token is present
// and otherwise leaves the request anonymous. Read endpoints use it so that
// owners see their own drafts.
func (h *Handler) authOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := h.parseToken(token); err == nil {
				c.Set(ctxUserIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

// currentUserID returns the authenticated user id, or nil for anonymous
// requests.
func currentUserID(c *gin.Context) *int64 {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(int64)
	if !ok {
		return nil
	}
	return &id
}
