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

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *BookingHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	bookings := router.Group("/bookings")
	{
		// Guests may book once they opt in explicitly, so auth is optional here
		bookings.POST("", auth.OptionalAuth(), h.CreateBooking)

		bookings.GET("", auth.RequireRole(model.RoleAdmin), h.ListBookings)
		bookings.PATCH("/:id/approval", auth.RequireRole(model.RoleAdmin), h.UpdateApproval)
		bookings.PATCH("/:id/extend", auth.RequireRole(model.RoleAdmin), h.ExtendExpiration)
		bookings.POST("/expire", auth.RequireRole(model.RoleAdmin), h.ExpireDue)
	}
}

// CreateBooking handles POST /bookings
// @Summary      Book a product
// @Description  Reserves one unit of a product for the payment window. Logged-in identity wins over the body user_id.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBookingRequest  true  "Booking payload"
// @Success      201      {object}  response.Response{data=service.BookingResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if userID := c.GetString(middleware.CtxUserID); userID != "" {
		req.UserID = userID
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), req)
	if err != nil {
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, booking))
}

// ListBookings handles GET /bookings
// @Summary      List bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        page             query     int     false  "Page number"
// @Param        limit            query     int     false  "Page size"
// @Param        status           query     string  false  "Booking status filter"
// @Param        approval_status  query     string  false  "Approval status filter"
// @Success      200              {object}  response.Response{data=[]service.BookingResponse}
// @Failure      500              {object}  response.Response
// @Router       /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.BookingFilter{
		Status:         c.Query("status"),
		ApprovalStatus: c.Query("approval_status"),
		Page:           params.Page,
		Limit:          params.Limit,
	}

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, bookings, total, params.Page, params.Limit))
}

// UpdateApproval handles PATCH /bookings/:id/approval
// @Summary      Approve or reject a booking
// @Description  Rejection cancels the booking and returns the unit to inventory
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Booking ID"
// @Param        payload  body      service.BookingDecisionRequest  true  "Decision payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /bookings/{id}/approval [patch]
func (h *BookingHandler) UpdateApproval(c *gin.Context) {
	var req service.BookingDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	err := h.bookingService.UpdateApproval(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"), req)
	if err != nil {
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"decision": req.Decision}))
}

// ExtendExpiration handles PATCH /bookings/:id/extend
// @Summary      Extend a booking's payment window
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Booking ID"
// @Param        payload  body      service.ExtendBookingRequest  true  "Extension payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /bookings/{id}/extend [patch]
func (h *BookingHandler) ExtendExpiration(c *gin.Context) {
	var req service.ExtendBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	expiresAt, err := h.bookingService.ExtendExpiration(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"), req.AdditionalHours)
	if err != nil {
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"expires_at": expiresAt}))
}

// ExpireDue handles POST /bookings/expire
// @Summary      Expire overdue bookings now
// @Description  Runs the same sweep the background worker performs on its schedule
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /bookings/expire [post]
func (h *BookingHandler) ExpireDue(c *gin.Context) {
	expired, err := h.bookingService.ExpireDueBookings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"expired": expired}))
}
