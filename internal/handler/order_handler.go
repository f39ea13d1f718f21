package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	paymentService service.PaymentService
	invoiceService service.InvoiceService
}

func NewOrderHandler(paymentService service.PaymentService, invoiceService service.InvoiceService) *OrderHandler {
	return &OrderHandler{paymentService: paymentService, invoiceService: invoiceService}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	router.POST("/payments", auth.OptionalAuth(), h.CompletePayment)

	orders := router.Group("/orders")
	{
		orders.GET("/mine", auth.RequireAuth(), h.ListMyOrders)
		orders.GET("", auth.RequireRole(model.RoleAdmin), h.ListOrders)
		orders.GET("/:id", auth.RequireAuth(), h.GetOrder)
		orders.PATCH("/:id/payment", auth.RequireRole(model.RoleAdmin), h.UpdatePaymentApproval)
		orders.PATCH("/:id/status", auth.RequireRole(model.RoleAdmin), h.UpdateOrderStatus)
		orders.GET("/:id/invoice", auth.RequireAuth(), h.GetInvoice)
		orders.POST("/:id/invoice", auth.RequireAuth(), h.CreateInvoice)
	}

	router.GET("/invoices/mine", auth.RequireAuth(), h.ListMyInvoices)
}

// CompletePayment handles POST /payments
// @Summary      Complete payment for a booked product
// @Description  Online payment settles immediately; bank transfer creates a pending order awaiting slip review
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CompletePaymentRequest  true  "Payment payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /payments [post]
func (h *OrderHandler) CompletePayment(c *gin.Context) {
	var req service.CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.paymentService.CompletePayment(c.Request.Context(), req)
	if err != nil {
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders handles GET /orders
// @Summary      List all orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.OrderResponse}
// @Failure      500    {object}  response.Response
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)

	orders, total, err := h.paymentService.ListOrders(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, orders, total, params.Page, params.Limit))
}

// ListMyOrders handles GET /orders/mine
// @Summary      List the caller's orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.OrderResponse}
// @Failure      500    {object}  response.Response
// @Router       /orders/mine [get]
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	params := pagination.Parse(c)

	orders, total, err := h.paymentService.ListUserOrders(c.Request.Context(), c.GetString(middleware.CtxUserID), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, orders, total, params.Page, params.Limit))
}

// GetOrder handles GET /orders/:id
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.paymentService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	// Non-admins may only see their own orders
	if c.GetString(middleware.CtxUserRole) != model.RoleAdmin && order.UserID != c.GetString(middleware.CtxUserID) {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdatePaymentApproval handles PATCH /orders/:id/payment
// @Summary      Approve or reject a bank-transfer payment
// @Description  Approval settles the order and its booking; rejection cancels both and returns the unit to inventory
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Order ID"
// @Param        payload  body      service.PaymentDecisionRequest  true  "Decision payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /orders/{id}/payment [patch]
func (h *OrderHandler) UpdatePaymentApproval(c *gin.Context) {
	var req service.PaymentDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	err := h.paymentService.UpdatePaymentApproval(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"), req)
	if err != nil {
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"decision": req.Decision}))
}

// UpdateOrderStatus handles PATCH /orders/:id/status
// @Summary      Update order fulfilment status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "Status payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req service.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	err := h.paymentService.UpdateOrderStatus(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"), req)
	if err != nil {
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": req.Status}))
}

// CreateInvoice handles POST /orders/:id/invoice
// @Summary      Generate an invoice for an order
// @Description  Idempotent: returns the existing invoice when one was already generated
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      201  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id}/invoice [post]
func (h *OrderHandler) CreateInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.CreateForOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// GetInvoice handles GET /orders/:id/invoice
// @Summary      Get the invoice of an order
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id}/invoice [get]
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetByOrderID(c.Request.Context(), c.Param("id"))
	if err != nil {
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// ListMyInvoices handles GET /invoices/mine
// @Summary      List the caller's invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.InvoiceResponse}
// @Failure      500  {object}  response.Response
// @Router       /invoices/mine [get]
func (h *OrderHandler) ListMyInvoices(c *gin.Context) {
	invoices, err := h.invoiceService.ListUserInvoices(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoices))
}
