package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/usecase"
)

const sessionKey = "session"

// permissionDeniedDelay is the number of seconds a client should wait before
// following the redirect after a permission refusal.
const permissionDeniedDelay = 3

// RequireAuth resolves the session behind the Authorization bearer token.
// Requests with no live session receive 401 plus a redirect hint carrying
// the URL they were trying to reach.
func RequireAuth(sessions *usecase.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "authentication required")
			return
		}

		session, err := sessions.CurrentFromToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrSessionNotFound):
				unauthorized(c, "session expired")
			case errors.Is(err, usecase.ErrInvalidSessionToken):
				unauthorized(c, "invalid session token")
			default:
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error":    "try again",
					"trace_id": GetTraceID(c),
				})
			}
			return
		}

		c.Set(AccountIDKey, session.AccountID)
		c.Set(sessionKey, session)
		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.AccountID = session.AccountID
		}

		c.Next()
	}
}

// RequirePermission gates the route on the authenticated account holding the
// permission. Refusals carry an unauthorized notice and a redirect hint with
// a delay for the client to honour.
func RequirePermission(resolver *usecase.PermissionResolver, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := GetAuthenticatedAccountID(c)
		if !ok {
			unauthorized(c, "authentication required")
			return
		}

		account, err := resolver.RequirePermission(c.Request.Context(), accountID, permission)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrPermissionDenied), errors.Is(err, usecase.ErrAccountNotFound):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":    "unauthorized",
					"notice":   "You are not authorized to view this page.",
					"redirect": "/",
					"delay":    permissionDeniedDelay,
					"trace_id": GetTraceID(c),
				})
			default:
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error":    "try again",
					"trace_id": GetTraceID(c),
				})
			}
			return
		}

		c.Set("account", account)
		c.Next()
	}
}

// SessionFromContext retrieves the session resolved by RequireAuth.
func SessionFromContext(c *gin.Context) (*domain.Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*domain.Session)
	return session, ok
}

// AccountFromContext retrieves the account resolved by RequirePermission.
func AccountFromContext(c *gin.Context) (*domain.Account, bool) {
	value, exists := c.Get("account")
	if !exists {
		return nil, false
	}
	account, ok := value.(*domain.Account)
	return account, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    message,
		"redirect": "/login?next=" + c.Request.URL.RequestURI(),
		"trace_id": GetTraceID(c),
	})
}
