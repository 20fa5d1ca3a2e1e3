package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ladiom/kajopo-connect/internal/infra/security"
	"github.com/ladiom/kajopo-connect/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or
// falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// RespondWithLoginError handles the login error taxonomy. Lockouts carry a
// retry hint; bad credentials carry the remaining attempt budget so clients
// can warn before the account locks.
func RespondWithLoginError(c *gin.Context, err error) {
	var locked *usecase.AccountLockedError
	if errors.As(err, &locked) {
		retryAfter := int(math.Ceil(locked.Remaining.Seconds()))
		if retryAfter < 0 {
			retryAfter = 0
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "account temporarily locked",
			"retry_after": retryAfter,
			"locked_for":  locked.Remaining.Round(time.Second).String(),
			"trace_id":    traceID(c),
		})
		return
	}

	var invalid *usecase.InvalidCredentialsError
	if errors.As(err, &invalid) {
		body := gin.H{
			"error":    "invalid credentials",
			"trace_id": traceID(c),
		}
		if invalid.NowLocked {
			body["locked"] = true
		} else {
			body["attempts_remaining"] = invalid.AttemptsRemaining
		}
		c.JSON(http.StatusUnauthorized, body)
		return
	}

	switch {
	case errors.Is(err, usecase.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "account disabled"))
	case errors.Is(err, usecase.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "try again"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login failed"))
	}
}

// RespondWithValidationError surfaces password policy failures with their
// rule code so clients can highlight the failing field.
func RespondWithValidationError(c *gin.Context, err error) bool {
	var verr *security.PasswordValidationError
	if !errors.As(err, &verr) {
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":    verr.Message,
		"code":     verr.Code,
		"trace_id": traceID(c),
	})
	return true
}

func traceID(c *gin.Context) string {
	value, _ := c.Get("trace_id")
	id, _ := value.(string)
	return id
}
