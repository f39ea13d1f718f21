package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler groups the admin-only dashboard, settings and audit endpoints
type AdminHandler struct {
	statsService    service.StatsService
	settingsService service.SettingsService
	auditRepo       repository.AuditRepository
}

func NewAdminHandler(statsService service.StatsService, settingsService service.SettingsService, auditRepo repository.AuditRepository) *AdminHandler {
	return &AdminHandler{statsService: statsService, settingsService: settingsService, auditRepo: auditRepo}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	admin := router.Group("/admin", auth.RequireRole(model.RoleAdmin))
	{
		admin.GET("/dashboard", h.GetDashboard)
		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)
		admin.GET("/audit-logs", h.ListAuditLogs)
	}
}

// GetDashboard handles GET /admin/dashboard
// @Summary      Admin dashboard statistics
// @Description  Headline counts, paid revenue and the latest orders and products
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardStats}
// @Failure      500  {object}  response.Response
// @Router       /admin/dashboard [get]
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.statsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetSettings handles GET /admin/settings
// @Summary      Get system settings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.SettingsResponse}
// @Failure      500  {object}  response.Response
// @Router       /admin/settings [get]
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// UpdateSettings handles PUT /admin/settings
// @Summary      Update system settings
// @Description  Changes apply to bookings created afterwards; existing deadlines are untouched
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateSettingsRequest  true  "Settings payload"
// @Success      200      {object}  response.Response{data=service.SettingsResponse}
// @Failure      400      {object}  response.Response
// @Router       /admin/settings [put]
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	settings, err := h.settingsService.UpdateSettings(c.Request.Context(), actorID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// ListAuditLogs handles GET /admin/audit-logs
// @Summary      List audit log entries
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Page size"
// @Param        action     query     string  false  "Filter by action"
// @Param        entity_id  query     string  false  "Filter by entity id"
// @Success      200    {object}  response.Response{data=[]model.AuditLog}
// @Failure      500    {object}  response.Response
// @Router       /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.AuditFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
	}

	logs, total, err := h.auditRepo.List(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, total, params.Page, params.Limit))
}
