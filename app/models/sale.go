package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an append-only record of units sold.
type Sale struct {
	ID          uint            `gorm:"primaryKey"                  json:"id"`
	ProductID   uint            `gorm:"not null;index"              json:"product_id"`
	Product     *Product        `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity    int             `gorm:"not null"                    json:"quantity"`
	PriceAtSale decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_sale"`
	Date        time.Time       `gorm:"autoCreateTime"              json:"date"`
	UserID      *uint           `gorm:"index"                       json:"user_id,omitempty"`
	User        *User           `json:"-"`
}

// TotalPrice is price_at_sale × quantity; it is never stored.
func (s Sale) TotalPrice() decimal.Decimal {
	return s.PriceAtSale.Mul(decimal.NewFromInt(int64(s.Quantity)))
}
