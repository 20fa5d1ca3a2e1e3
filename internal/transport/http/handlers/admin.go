package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/transport/http/middleware"
	"github.com/ladiom/kajopo-connect/internal/usecase"
)

// AdminHandler exposes the admin console endpoints: account management,
// moderation and the audit trail.
type AdminHandler struct {
	accounts      *usecase.AccountService
	opportunities *usecase.OpportunityService
	sessions      *usecase.SessionService
	resolver      *usecase.PermissionResolver
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(accounts *usecase.AccountService, opportunities *usecase.OpportunityService, sessions *usecase.SessionService, resolver *usecase.PermissionResolver) *AdminHandler {
	return &AdminHandler{
		accounts:      accounts,
		opportunities: opportunities,
		sessions:      sessions,
		resolver:      resolver,
	}
}

// RegisterRoutes binds the admin routes. Every route requires a live session;
// per-route permissions are enforced on top.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin", middleware.RequireAuth(h.sessions))

	users := admin.Group("", middleware.RequirePermission(h.resolver, domain.PermissionUsers))
	users.GET("/accounts", h.listAccounts)
	users.GET("/accounts/:id", h.getAccount)
	users.PATCH("/accounts/:id", h.patchAccount)
	users.DELETE("/accounts/:id", h.deleteAccount)

	admin.POST("/accounts",
		middleware.RequirePermission(h.resolver, domain.PermissionAdminManagement), h.createAdmin)

	admin.PATCH("/opportunities/:id",
		middleware.RequirePermission(h.resolver, domain.PermissionOpportunities), h.moderateOpportunity)

	admin.GET("/activity",
		middleware.RequirePermission(h.resolver, domain.PermissionAnalytics), h.recentActivity)
}

func (h *AdminHandler) listAccounts(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)

	filter := port.AccountFilter{
		Type:   domain.AccountType(c.Query("type")),
		Limit:  queryInt(c, "limit", defaultPageSize),
		Offset: queryInt(c, "offset", 0),
	}
	if active := c.Query("is_active"); active != "" {
		value := active == "true"
		filter.IsActive = &value
	}

	result, err := h.accounts.List(c.Request.Context(), accountID, filter)
	if err != nil {
		h.respondAdminError(c, err)
		return
	}

	summaries := make([]AccountSummary, 0, len(result.Accounts))
	for _, account := range result.Accounts {
		summaries = append(summaries, NewAccountSummary(account, h.resolver.Permissions(account)))
	}

	c.JSON(http.StatusOK, AccountListResponse{
		Accounts: summaries,
		Total:    result.Total,
		Limit:    result.Limit,
		Offset:   result.Offset,
	})
}

func (h *AdminHandler) getAccount(c *gin.Context) {
	actorID, _ := middleware.GetAuthenticatedAccountID(c)

	account, err := h.accounts.Get(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		h.respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAccountSummary(*account, h.resolver.Permissions(*account)))
}

func (h *AdminHandler) patchAccount(c *gin.Context) {
	actorID, _ := middleware.GetAuthenticatedAccountID(c)

	var req AccountPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid account payload"))
		return
	}
	if req.IsActive == nil && req.PermissionOverride == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "nothing to update"))
		return
	}

	ctx := c.Request.Context()
	targetID := c.Param("id")

	var (
		account *domain.Account
		err     error
	)

	if req.IsActive != nil {
		account, err = h.accounts.SetActive(ctx, actorID, targetID, *req.IsActive)
		if err != nil {
			h.respondAdminError(c, err)
			return
		}
	}

	if req.PermissionOverride != nil {
		account, err = h.accounts.SetPermissionOverride(ctx, actorID, targetID, *req.PermissionOverride)
		if err != nil {
			h.respondAdminError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, NewAccountSummary(*account, h.resolver.Permissions(*account)))
}

func (h *AdminHandler) deleteAccount(c *gin.Context) {
	actorID, _ := middleware.GetAuthenticatedAccountID(c)

	if err := h.accounts.Delete(c.Request.Context(), actorID, c.Param("id")); err != nil {
		h.respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account deleted"})
}

func (h *AdminHandler) createAdmin(c *gin.Context) {
	actorID, _ := middleware.GetAuthenticatedAccountID(c)

	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid account payload"))
		return
	}

	account, err := h.accounts.CreateAdmin(c.Request.Context(), actorID, usecase.CreateAdminInput{
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
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "unauthorized"},
			{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "try again"},
		}, http.StatusBadRequest, "account creation failed")
		return
	}

	c.JSON(http.StatusCreated, NewAccountSummary(*account, h.resolver.Permissions(*account)))
}

func (h *AdminHandler) moderateOpportunity(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid moderation payload"))
		return
	}

	opp, err := h.opportunities.Moderate(c.Request.Context(), c.Param("id"), domain.OpportunityStatus(req.Status))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrOpportunityNotFound, Status: http.StatusNotFound, Message: "opportunity not found"},
		}, http.StatusBadRequest, "moderation failed")
		return
	}

	c.JSON(http.StatusOK, NewOpportunityView(*opp))
}

func (h *AdminHandler) recentActivity(c *gin.Context) {
	actorID, _ := middleware.GetAuthenticatedAccountID(c)

	entries, err := h.accounts.RecentActivity(c.Request.Context(), actorID, queryInt(c, "limit", domain.ActivityLogCap))
	if err != nil {
		h.respondAdminError(c, err)
		return
	}

	views := make([]ActivityEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, ActivityEntryView{
			Timestamp: entry.Timestamp,
			Action:    entry.Action,
			Details:   entry.Details,
		})
	}
	c.JSON(http.StatusOK, gin.H{"activity": views})
}

func (h *AdminHandler) respondAdminError(c *gin.Context, err error) {
	RespondWithMappedError(c, err, []ErrorCase{
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "unauthorized"},
		{Err: usecase.ErrSelfDeactivation, Status: http.StatusConflict, Message: "cannot modify own account"},
	}, http.StatusServiceUnavailable, "try again")
}
