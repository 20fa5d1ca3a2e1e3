package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request's trace ID.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports liveness details.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// AccountSummary is the minimal account view returned by the API.
type AccountSummary struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Type        string     `json:"type"`
	Verified    bool       `json:"verified"`
	IsActive    bool       `json:"is_active"`
	Permissions []string   `json:"permissions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// NewAccountSummary maps a domain account onto the API view.
func NewAccountSummary(account domain.Account, permissions []string) AccountSummary {
	return AccountSummary{
		ID:          account.ID,
		Email:       account.Email,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Type:        string(account.Type),
		Verified:    account.Verified,
		IsActive:    account.IsActive,
		Permissions: permissions,
		CreatedAt:   account.CreatedAt,
		LastLogin:   account.LastLogin,
	}
}

// RegisterRequest defines the payload for self-service registration.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Type      string `json:"type" binding:"required"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// SessionSummary is the compact session view returned on login and lookup.
type SessionSummary struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Type       string    `json:"type"`
	RememberMe bool      `json:"remember_me"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewSessionSummary maps a domain session onto the API view.
func NewSessionSummary(session domain.Session) SessionSummary {
	return SessionSummary{
		ID:         session.ID,
		AccountID:  session.AccountID,
		Type:       string(session.AccountType),
		RememberMe: session.RememberMe,
		IssuedAt:   session.IssuedAt,
		ExpiresAt:  session.ExpiresAt,
	}
}

// LoginResponse describes a successful login.
type LoginResponse struct {
	Token   string         `json:"token"`
	Account AccountSummary `json:"account"`
	Session SessionSummary `json:"session"`
}

// RegisterResponse is returned on successful registration. Token and session
// are omitted in the rare case the sign-in after account creation failed.
type RegisterResponse struct {
	Token   string          `json:"token,omitempty"`
	Account AccountSummary  `json:"account"`
	Session *SessionSummary `json:"session,omitempty"`
}

// ExtendSessionRequest asks for extra session lifetime in minutes.
type ExtendSessionRequest struct {
	Minutes int `json:"minutes" binding:"required,min=1"`
}

// OpportunityRequest defines the payload to create an opportunity.
type OpportunityRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Location    string `json:"location"`
	Remote      bool   `json:"remote"`
	Draft       bool   `json:"draft"`
}

// OpportunityUpdateRequest defines the partial-update payload for a listing.
type OpportunityUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
	Remote      *bool   `json:"remote"`
	Status      *string `json:"status"`
}

// OpportunityView is the listing representation returned by the API.
type OpportunityView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ProviderID  string    `json:"provider_id"`
	Location    string    `json:"location,omitempty"`
	Remote      bool      `json:"remote"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewOpportunityView maps a domain opportunity onto the API view.
func NewOpportunityView(opp domain.Opportunity) OpportunityView {
	return OpportunityView{
		ID:          opp.ID,
		Title:       opp.Title,
		Description: opp.Description,
		Category:    opp.Category,
		ProviderID:  opp.ProviderID,
		Location:    opp.Location,
		Remote:      opp.Remote,
		Status:      string(opp.Status),
		CreatedAt:   opp.CreatedAt,
		UpdatedAt:   opp.UpdatedAt,
	}
}

// OpportunityListResponse wraps a page of listings.
type OpportunityListResponse struct {
	Opportunities []OpportunityView `json:"opportunities"`
	Total         int               `json:"total"`
	Limit         int               `json:"limit"`
	Offset        int               `json:"offset"`
}

// ApplyRequest defines the payload to apply to an opportunity.
type ApplyRequest struct {
	Message string `json:"message"`
}

// DecideRequest defines the payload for a provider's application decision.
type DecideRequest struct {
	Status string `json:"status" binding:"required"`
}

// ApplicationView is the application representation returned by the API.
type ApplicationView struct {
	ID            string    `json:"id"`
	OpportunityID string    `json:"opportunity_id"`
	ApplicantID   string    `json:"applicant_id"`
	Message       string    `json:"message,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewApplicationView maps a domain application onto the API view.
func NewApplicationView(app domain.Application) ApplicationView {
	return ApplicationView{
		ID:            app.ID,
		OpportunityID: app.OpportunityID,
		ApplicantID:   app.ApplicantID,
		Message:       app.Message,
		Status:        string(app.Status),
		CreatedAt:     app.CreatedAt,
		UpdatedAt:     app.UpdatedAt,
	}
}

// StartConversationRequest defines the payload to open a conversation.
type StartConversationRequest struct {
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=1"`
}

// SendMessageRequest defines the payload to send a message.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// ConversationView is the conversation representation returned by the API.
type ConversationView struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewConversationView maps a domain conversation onto the API view.
func NewConversationView(conv domain.Conversation) ConversationView {
	return ConversationView{
		ID:           conv.ID,
		Participants: conv.Participants,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

// MessageView is the chat message representation returned by the API.
type MessageView struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMessageView maps a domain message onto the API view.
func NewMessageView(msg domain.Message) MessageView {
	return MessageView{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		Read:           msg.Read,
		CreatedAt:      msg.CreatedAt,
	}
}

// AccountListResponse wraps a page of accounts for the admin console.
type AccountListResponse struct {
	Accounts []AccountSummary `json:"accounts"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// AccountPatchRequest toggles activation or replaces the permission override.
type AccountPatchRequest struct {
	IsActive           *bool     `json:"is_active"`
	PermissionOverride *[]string `json:"permission_override"`
}

// CreateAdminRequest defines the payload to provision an admin-tier account.
type CreateAdminRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Type      string `json:"type" binding:"required"`
}

// ActivityEntryView is an audit trail entry returned by the API.
type ActivityEntryView struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
}
