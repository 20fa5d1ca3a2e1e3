package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/transport/http/middleware"
	"github.com/ladiom/kajopo-connect/internal/usecase"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	auth          *usecase.AuthService
	sessions      *usecase.SessionService
	loginLimit    gin.HandlerFunc
	registerLimit gin.HandlerFunc
}

// AuthHandlerOption configures optional AuthHandler dependencies.
type AuthHandlerOption func(*AuthHandler)

// WithLoginLimit applies a rate limit ahead of the login handler.
func WithLoginLimit(limit gin.HandlerFunc) AuthHandlerOption {
	return func(h *AuthHandler) { h.loginLimit = limit }
}

// WithRegisterLimit applies a rate limit ahead of the registration handler.
func WithRegisterLimit(limit gin.HandlerFunc) AuthHandlerOption {
	return func(h *AuthHandler) { h.registerLimit = limit }
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, sessions *usecase.SessionService, opts ...AuthHandlerOption) *AuthHandler {
	handler := &AuthHandler{auth: auth, sessions: sessions}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler
}

// RegisterRoutes binds authentication routes, applying the configured rate
// limits ahead of the unauthenticated handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", chain(h.registerLimit, h.register)...)
	r.POST("/login", chain(h.loginLimit, h.login)...)

	authed := r.Group("", middleware.RequireAuth(h.sessions))
	authed.POST("/logout", h.logout)
	authed.GET("/session", h.currentSession)
	authed.POST("/session/extend", h.extendSession)
}

// chain prepends an optional middleware to the handler.
func chain(limit gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if limit == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{limit, handler}
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Type:      domain.AccountType(req.Type),
	})
	if err != nil {
		if RespondWithValidationError(c, err) {
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusBadRequest, Message: "invalid registration payload"},
			{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "try again"},
		}, http.StatusBadRequest, "registration failed")
		return
	}

	resp := RegisterResponse{
		Token:   result.Token,
		Account: NewAccountSummary(*result.Account, nil),
	}
	if result.Session != nil {
		session := NewSessionSummary(*result.Session)
		resp.Session = &session
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		RespondWithLoginError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:   result.Token,
		Account: NewAccountSummary(*result.Account, nil),
		Session: NewSessionSummary(*result.Session),
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.sessions.Clear(c.Request.Context(), session.ID, "logout"); err != nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "try again"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) currentSession(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, NewSessionSummary(*session))
}

func (h *AuthHandler) extendSession(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ExtendSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid extension payload"))
		return
	}

	extended, err := h.sessions.Extend(c.Request.Context(), session.ID, time.Duration(req.Minutes)*time.Minute)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSessionNotFound, Status: http.StatusUnauthorized, Message: "session expired"},
		}, http.StatusServiceUnavailable, "try again")
		return
	}

	c.JSON(http.StatusOK, NewSessionSummary(*extended))
}
