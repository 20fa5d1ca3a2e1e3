package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/transport/http/middleware"
	"github.com/ladiom/kajopo-connect/internal/usecase"
)

const defaultPageSize = 20

// OpportunityHandler exposes listing and application endpoints.
type OpportunityHandler struct {
	opportunities *usecase.OpportunityService
	sessions      *usecase.SessionService
	resolver      *usecase.PermissionResolver
}

// NewOpportunityHandler constructs OpportunityHandler.
func NewOpportunityHandler(opportunities *usecase.OpportunityService, sessions *usecase.SessionService, resolver *usecase.PermissionResolver) *OpportunityHandler {
	return &OpportunityHandler{
		opportunities: opportunities,
		sessions:      sessions,
		resolver:      resolver,
	}
}

// RegisterRoutes binds opportunity and application routes.
func (h *OpportunityHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/opportunities", h.list)
	r.GET("/opportunities/:id", h.get)

	authed := r.Group("", middleware.RequireAuth(h.sessions))
	authed.POST("/opportunities", h.create)
	authed.PUT("/opportunities/:id", h.update)
	authed.DELETE("/opportunities/:id", h.remove)
	authed.POST("/opportunities/:id/apply", h.apply)
	authed.GET("/applications", h.applications)
	authed.PATCH("/applications/:id", h.decide)
}

func (h *OpportunityHandler) list(c *gin.Context) {
	filter := port.OpportunityFilter{
		Category:   c.Query("category"),
		ProviderID: c.Query("provider_id"),
		Search:     c.Query("q"),
		Status:     domain.OpportunityStatusActive,
		Limit:      queryInt(c, "limit", defaultPageSize),
		Offset:     queryInt(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		filter.Status = domain.OpportunityStatus(status)
	}
	if remote := c.Query("remote"); remote != "" {
		value := remote == "true"
		filter.Remote = &value
	}

	result, err := h.opportunities.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "try again"))
		return
	}

	views := make([]OpportunityView, 0, len(result.Opportunities))
	for _, opp := range result.Opportunities {
		views = append(views, NewOpportunityView(opp))
	}

	c.JSON(http.StatusOK, OpportunityListResponse{
		Opportunities: views,
		Total:         result.Total,
		Limit:         result.Limit,
		Offset:        result.Offset,
	})
}

func (h *OpportunityHandler) get(c *gin.Context) {
	opp, err := h.opportunities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrOpportunityNotFound, Status: http.StatusNotFound, Message: "opportunity not found"},
		}, http.StatusServiceUnavailable, "try again")
		return
	}

	c.JSON(http.StatusOK, NewOpportunityView(*opp))
}

func (h *OpportunityHandler) create(c *gin.Context) {
	account, ok := h.requireProviderOrPermission(c, domain.PermissionOpportunities)
	if !ok {
		return
	}

	var req OpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid opportunity payload"))
		return
	}

	opp, err := h.opportunities.Create(c.Request.Context(), account.ID, usecase.CreateOpportunityInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Remote:      req.Remote,
		Draft:       req.Draft,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "try again"))
		return
	}

	c.JSON(http.StatusCreated, NewOpportunityView(*opp))
}

func (h *OpportunityHandler) update(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)

	var req OpportunityUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid opportunity payload"))
		return
	}

	var status *domain.OpportunityStatus
	if req.Status != nil {
		value := domain.OpportunityStatus(*req.Status)
		status = &value
	}

	opp, err := h.opportunities.Update(c.Request.Context(), accountID, c.Param("id"), usecase.UpdateOpportunityInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Remote:      req.Remote,
		Status:      status,
	})
	if err != nil {
		// Permission holders may adjust listing status without owning it.
		if errors.Is(err, usecase.ErrNotOwner) && status != nil && h.hasPermission(c, domain.PermissionOpportunities) {
			opp, err = h.opportunities.Moderate(c.Request.Context(), c.Param("id"), *status)
		}
		if err != nil {
			RespondWithMappedError(c, err, []ErrorCase{
				{Err: usecase.ErrOpportunityNotFound, Status: http.StatusNotFound, Message: "opportunity not found"},
				{Err: usecase.ErrNotOwner, Status: http.StatusForbidden, Message: "not the opportunity owner"},
			}, http.StatusBadRequest, "update failed")
			return
		}
	}

	c.JSON(http.StatusOK, NewOpportunityView(*opp))
}

func (h *OpportunityHandler) remove(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)

	err := h.opportunities.Delete(c.Request.Context(), accountID, c.Param("id"))
	if errors.Is(err, usecase.ErrNotOwner) && h.hasPermission(c, domain.PermissionOpportunities) {
		err = h.opportunities.Takedown(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrOpportunityNotFound, Status: http.StatusNotFound, Message: "opportunity not found"},
			{Err: usecase.ErrNotOwner, Status: http.StatusForbidden, Message: "not the opportunity owner"},
		}, http.StatusServiceUnavailable, "try again")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "opportunity deleted"})
}

func (h *OpportunityHandler) apply(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid application payload"))
		return
	}

	app, err := h.opportunities.Apply(c.Request.Context(), accountID, c.Param("id"), req.Message)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrOpportunityNotFound, Status: http.StatusNotFound, Message: "opportunity not found"},
			{Err: usecase.ErrOpportunityClosed, Status: http.StatusConflict, Message: "opportunity is not accepting applications"},
			{Err: usecase.ErrAlreadyApplied, Status: http.StatusConflict, Message: "already applied to this opportunity"},
		}, http.StatusServiceUnavailable, "try again")
		return
	}

	c.JSON(http.StatusCreated, NewApplicationView(*app))
}

func (h *OpportunityHandler) applications(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	ctx := c.Request.Context()

	var (
		apps []domain.Application
		err  error
	)

	if opportunityID := c.Query("opportunity_id"); opportunityID != "" {
		apps, err = h.opportunities.ApplicationsFor(ctx, accountID, opportunityID)
		if errors.Is(err, usecase.ErrNotOwner) && h.hasPermission(c, domain.PermissionApplications) {
			apps, err = h.opportunities.ApplicationsForOpportunity(ctx, opportunityID)
		}
	} else {
		apps, err = h.opportunities.MyApplications(ctx, accountID)
	}

	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrOpportunityNotFound, Status: http.StatusNotFound, Message: "opportunity not found"},
			{Err: usecase.ErrNotOwner, Status: http.StatusForbidden, Message: "not the opportunity owner"},
		}, http.StatusServiceUnavailable, "try again")
		return
	}

	views := make([]ApplicationView, 0, len(apps))
	for _, app := range apps {
		views = append(views, NewApplicationView(app))
	}
	c.JSON(http.StatusOK, gin.H{"applications": views})
}

func (h *OpportunityHandler) decide(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid decision payload"))
		return
	}

	app, err := h.opportunities.Decide(c.Request.Context(), accountID, c.Param("id"), domain.ApplicationStatus(req.Status))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrApplicationNotFound, Status: http.StatusNotFound, Message: "application not found"},
			{Err: usecase.ErrOpportunityNotFound, Status: http.StatusNotFound, Message: "opportunity not found"},
			{Err: usecase.ErrNotOwner, Status: http.StatusForbidden, Message: "not the opportunity owner"},
		}, http.StatusBadRequest, "invalid decision")
		return
	}

	c.JSON(http.StatusOK, NewApplicationView(*app))
}

func (h *OpportunityHandler) requireProviderOrPermission(c *gin.Context, permission string) (*domain.Account, bool) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return nil, false
	}

	account, _, err := h.resolver.ResolveAccount(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return nil, false
	}

	if account.Type != domain.AccountTypeProvider && !h.resolver.HasPermission(*account, permission) {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "providers only"))
		return nil, false
	}

	return account, true
}

func (h *OpportunityHandler) hasPermission(c *gin.Context, permission string) bool {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		return false
	}
	account, _, err := h.resolver.ResolveAccount(c.Request.Context(), accountID)
	if err != nil {
		return false
	}
	return account.IsActive && h.resolver.HasPermission(*account, permission)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
