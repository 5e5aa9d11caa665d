// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/jewelry-storefront/internal/config"
	"github.com/your-org/jewelry-storefront/internal/domain/cart"
	"gorm.io/gorm"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	registry *cart.Registry
	catalog  cart.Catalog
	config   *config.Config
	log      *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, registry *cart.Registry, cfg *config.Config, log *logrus.Logger) *CartHandler {
	return &CartHandler{
		registry: registry,
		catalog:  cart.NewGormCatalog(db),
		config:   cfg,
		log:      log,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint           `json:"product_id" binding:"required"`
	Variant   string         `json:"variant"`
	Quantity  int            `json:"quantity" binding:"required,min=1"`
	Snapshot  *cart.Snapshot `json:"snapshot"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// CartItemResponse is one cart line with display data resolved
type CartItemResponse struct {
	cart.Line
	Display *cart.Snapshot `json:"display,omitempty"`
}

// CartResponse represents the cart with its lines and summary
type CartResponse struct {
	Mode      cart.Mode          `json:"mode"`
	Items     []CartItemResponse `json:"items"`
	Count     int                `json:"count"`
	IsLoading bool               `json:"is_loading"`
	IsSyncing bool               `json:"is_syncing"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sess := resolveSession(c, h.registry)
	sess.Engine.Refresh(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    h.cartResponse(c, sess),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	sess := resolveSession(c, h.registry)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := sess.Engine.AddItem(c.Request.Context(), req.ProductID, req.Variant, req.Quantity, req.Snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    h.cartResponse(c, sess),
	})
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	sess := resolveSession(c, h.registry)
	lineID := c.Param("id")

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := sess.Engine.UpdateQuantity(c.Request.Context(), lineID, req.Quantity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    h.cartResponse(c, sess),
	})
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	sess := resolveSession(c, h.registry)
	lineID := c.Param("id")

	if err := sess.Engine.RemoveItem(c.Request.Context(), lineID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    h.cartResponse(c, sess),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sess := resolveSession(c, h.registry)

	if err := sess.Engine.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	sess := resolveSession(c, h.registry)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": sess.Engine.Count(),
		},
	})
}

// cartResponse assembles the API view of the cart. Anonymous lines
// already carry their snapshot; authenticated lines are resolved
// against the product store here.
func (h *CartHandler) cartResponse(c *gin.Context, sess *cart.Session) *CartResponse {
	lines := sess.Engine.Lines()

	items := make([]CartItemResponse, len(lines))
	for i, line := range lines {
		item := CartItemResponse{Line: line, Display: line.Snapshot}
		if item.Display == nil {
			if snap, err := h.catalog.DisplayData(c.Request.Context(), line.ProductID); err == nil {
				item.Display = snap
			} else {
				h.log.WithError(err).WithField("product_id", line.ProductID).
					Debug("no display data for cart line")
			}
		}
		items[i] = item
	}

	return &CartResponse{
		Mode:      sess.Engine.Mode(),
		Items:     items,
		Count:     sess.Engine.Count(),
		IsLoading: sess.Engine.IsLoading(),
		IsSyncing: sess.Engine.IsSyncing(),
	}
}
