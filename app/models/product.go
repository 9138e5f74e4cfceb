package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultLowStockThreshold applies when a product is created without one.
	DefaultLowStockThreshold = 5
	DefaultProductImage      = "images/default_product.jpg"
)

// Product is a stocked item. LowStockThreshold carries no default tag so an
// explicit 0 survives insert; services apply DefaultLowStockThreshold.
type Product struct {
	ID                uint            `gorm:"primaryKey"                  json:"id"`
	Name              string          `gorm:"size:512;not null;index"     json:"name"`
	Description       string          `gorm:"type:text"                   json:"description"`
	Quantity          int             `gorm:"not null;default:0"          json:"quantity"`
	LowStockThreshold int             `gorm:"not null"                    json:"low_stock_threshold"`
	Price             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ExpiryDate        *time.Time      `gorm:"type:date;index"             json:"expiry_date,omitempty"`
	Image             string          `gorm:"size:255"                    json:"image"`
	CategoryID        *uint           `gorm:"index"                       json:"category_id"`
	Category          *Category       `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Suppliers         []Supplier      `gorm:"many2many:product_suppliers" json:"suppliers,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	LastLowStockNotified *time.Time `json:"last_low_stock_notified,omitempty"`
	LastExpiryNotified   *time.Time `json:"last_expiry_notified,omitempty"`
}

// IsLowStock reports quantity <= threshold.
func (p Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

// DaysUntilExpiry returns whole calendar days from today to the expiry date,
// negative once expired, or nil when the product does not expire.
func (p Product) DaysUntilExpiry(today time.Time) *int {
	if p.ExpiryDate == nil {
		return nil
	}
	days := int(DateOf(*p.ExpiryDate).Sub(DateOf(today)).Hours() / 24)
	return &days
}

// CategoryName is "" for products without a category.
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// SupplierNames lists supplier names in association order.
func (p Product) SupplierNames() []string {
	names := make([]string, 0, len(p.Suppliers))
	for _, s := range p.Suppliers {
		names = append(names, s.Name)
	}
	return names
}

// DateOf truncates t to its calendar date (in t's own location) and returns
// it as midnight UTC, which is how expiry dates are stored and compared.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
