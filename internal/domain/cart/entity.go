// internal/domain/cart/entity.go
package cart

import "time"

// Mode says which authority currently owns the cart.
type Mode string

const (
	// ModeAnonymous keeps the cart in the session-scoped durable
	// store; no identity is present.
	ModeAnonymous Mode = "anonymous"
	// ModeAuthenticated mirrors the server-side cart of the signed-in
	// shopper; every mutation is written through.
	ModeAuthenticated Mode = "authenticated"
)

// Snapshot carries denormalized product display data for a line that
// was added while anonymous, so the cart can render without the
// product store.
type Snapshot struct {
	Name  string `json:"name"`
	Price int64  `json:"price"` // In cents
	Image string `json:"image"`
}

// Line is one distinct (product, variant) entry of a cart.
//
// ID distinguishes where the line was born: anonymous lines get a
// locally generated prefixed uuid, authenticated lines carry their
// database row id in decimal form. A line either holds a Snapshot
// (anonymous) or is resolved against the product store by ProductID
// (authenticated), never both.
type Line struct {
	ID        string    `json:"id"`
	ProductID uint      `json:"product_id"`
	Variant   string    `json:"variant,omitempty"` // e.g. ring size
	Quantity  int       `json:"quantity"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// SameItem reports whether the line is for the given (product,
// variant) pair. At most one line per pair may exist in a cart.
func (l Line) SameItem(productID uint, variant string) bool {
	return l.ProductID == productID && l.Variant == variant
}

// CartItem is the database row backing one authenticated cart line.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Variant   string    `gorm:"size:50;default:''" json:"variant"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}
