// internal/interfaces/http/handlers/order.go
package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/jewelry-storefront/internal/config"
	"github.com/your-org/jewelry-storefront/internal/domain/cart"
	"github.com/your-org/jewelry-storefront/internal/domain/notification"
	"github.com/your-org/jewelry-storefront/internal/domain/order"
	"github.com/your-org/jewelry-storefront/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// OrderHandler handles checkout and admin order endpoints
type OrderHandler struct {
	orderService *order.Service
	registry     *cart.Registry
	publisher    *notification.Publisher
	stream       *notification.Stream
	config       *config.Config
	log          *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, redisClient *redis.Client, registry *cart.Registry, cfg *config.Config, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: order.NewService(db, cfg),
		registry:     registry,
		publisher:    notification.NewPublisher(redisClient, cfg.Poller.EventChannel, log),
		stream:       notification.NewStream(redisClient, cfg.Poller.EventChannel, log),
		config:       cfg,
		log:          log,
	}
}

// Checkout handles POST /checkout - places an order from the session cart
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}
	email, _ := middleware.GetUserEmailFromContext(c)

	sess := resolveSession(c, h.registry)
	sess.Engine.Refresh(c.Request.Context())

	ord, err := h.orderService.PlaceFromCart(c.Request.Context(), userID, email, sess.Engine.Lines())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := sess.Engine.Clear(c.Request.Context()); err != nil {
		h.log.WithError(err).Warn("failed to clear cart after checkout")
	}

	// Best-effort push alongside the poller; consumers treat the
	// resulting refresh as idempotent.
	h.publisher.Notify(c.Request.Context(), order.KindNew, ord.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    ord,
	})
}

// AdminListOrders handles GET /admin/orders
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.orderService.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// AdminGetOrder handles GET /admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	ord, err := h.orderService.Get(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    ord,
	})
}

// AdminUpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	var req struct {
		Status order.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ord, err := h.orderService.UpdateStatus(c.Request.Context(), uint(id), req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    ord,
	})
}

// StreamEvents handles GET /admin/orders/events - SSE feed of order
// changes. The subscription lives exactly as long as the request: the
// client navigating away cancels the request context, which tears the
// Redis subscription down.
func (h *OrderHandler) StreamEvents(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	events, cancel := h.stream.Subscribe(c.Request.Context())
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("order", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
