package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/cart"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/payment"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/service"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/util"
)

// SessionHeader carries the browsing session id that scopes a cart.
const SessionHeader = "X-Cart-Session"

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.CatalogService
	carts    *cart.Service
	orders   *service.OrderService
	payments *service.PaymentService
	statuses *service.StatusService
	quotes   *service.QuoteService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	carts *cart.Service,
	orders *service.OrderService,
	payments *service.PaymentService,
	statuses *service.StatusService,
	quotes *service.QuoteService,
) *Handler {
	return &Handler{
		catalog:  catalog,
		carts:    carts,
		orders:   orders,
		payments: payments,
		statuses: statuses,
		quotes:   quotes,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/categories", h.listCategories)
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:slug", h.getProduct)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:productID", h.setCartItemQuantity)
		v1.DELETE("/cart/items/:productID", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)

		v1.POST("/checkout", h.checkout)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/pay", h.beginPayment)
		v1.POST("/webhooks/payment", h.paymentWebhook)

		v1.POST("/quotes", h.createQuote)
	}

	admin := v1.Group("/admin")
	{
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)

		admin.POST("/categories", h.createCategory)
		admin.PUT("/categories/:id", h.updateCategory)
		admin.DELETE("/categories/:id", h.deleteCategory)

		admin.GET("/orders", h.listOrders)
		admin.PATCH("/orders/:id/status", h.transitionOrder)

		admin.GET("/quotes", h.listQuotes)
		admin.PATCH("/quotes/:id/status", h.transitionQuote)
	}
}

// respondError maps domain error kinds to HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch models.KindOf(err) {
	case models.KindValidation:
		status = http.StatusBadRequest
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindConflict, models.KindTransition:
		status = http.StatusConflict
	case models.KindAuthentication:
		status = http.StatusUnauthorized
	case models.KindPayment:
		status = http.StatusBadGateway
	case models.KindPersistence:
		// Logged upstream; keep the wire message generic.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// --- catalog ---

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createCategory(c *gin.Context) {
	var in service.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in service.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	category, err := h.catalog.UpdateCategory(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- cart ---

// session returns the cart manager for the request's session, minting a new
// session id when the client has none yet. The id is echoed on the response
// so the client can carry it forward.
func (h *Handler) session(c *gin.Context) *cart.Manager {
	sessionID := c.GetHeader(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	c.Header(SessionHeader, sessionID)
	return h.carts.Session(c.Request.Context(), sessionID)
}

func cartResponse(m *cart.Manager) gin.H {
	return gin.H{
		"items": m.Items(),
		"total": m.Total(),
	}
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartResponse(h.session(c)))
}

type addCartItemRequest struct {
	ProductSlug string `json:"product_slug" binding:"required"`
	Quantity    int    `json:"quantity"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductSlug)
	if err != nil {
		respondError(c, err)
		return
	}
	if !product.InStock {
		respondError(c, models.Validationf("product %q is out of stock", product.Title))
		return
	}

	m := h.session(c)
	m.Add(c.Request.Context(), product, req.Quantity)
	c.JSON(http.StatusOK, cartResponse(m))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) setCartItemQuantity(c *gin.Context) {
	productID, ok := pathID(c, "productID")
	if !ok {
		return
	}

	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	m := h.session(c)
	m.SetQuantity(c.Request.Context(), productID, req.Quantity)
	c.JSON(http.StatusOK, cartResponse(m))
}

func (h *Handler) removeCartItem(c *gin.Context) {
	productID, ok := pathID(c, "productID")
	if !ok {
		return
	}

	m := h.session(c)
	m.Remove(c.Request.Context(), productID)
	c.JSON(http.StatusOK, cartResponse(m))
}

func (h *Handler) clearCart(c *gin.Context) {
	m := h.session(c)
	m.Clear(c.Request.Context())
	c.JSON(http.StatusOK, cartResponse(m))
}

// --- checkout & orders ---

func (h *Handler) checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	// A session cart, when present, is the default source of line items.
	sessionID := c.GetHeader(SessionHeader)
	var m *cart.Manager
	if sessionID != "" {
		m = h.carts.Session(c.Request.Context(), sessionID)
		if len(req.Items) == 0 {
			for _, line := range m.Items() {
				req.Items = append(req.Items, service.CheckoutItem{
					ProductID: line.ProductID,
					Quantity:  line.Quantity,
					Discount:  decimal.Zero,
				})
			}
		}
	}

	result, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if m != nil && !result.Duplicate {
		m.Clear(c.Request.Context())
		h.carts.Release(sessionID)
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, items, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// --- payment ---

type beginPaymentRequest struct {
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (h *Handler) beginPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req beginPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	redirectURL, err := h.payments.BeginPayment(c.Request.Context(), id, req.SuccessURL, req.CancelURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect_url": redirectURL})
}

func (h *Handler) paymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	signature := c.GetHeader(payment.SignatureHeader)
	if err := h.payments.HandleConfirmation(c.Request.Context(), body, signature); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// --- status workflow ---

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) transitionOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	order, err := h.statuses.TransitionOrder(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) transitionQuote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	quote, err := h.statuses.TransitionQuote(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// --- quotes ---

func (h *Handler) createQuote(c *gin.Context) {
	var in service.QuoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	quote, err := h.quotes.CreateQuote(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

func (h *Handler) listQuotes(c *gin.Context) {
	quotes, err := h.quotes.ListQuotes(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// pathID parses a numeric path parameter, answering 400 itself on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
