package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysUntilExpiry(t *testing.T) {
	today := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	at := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}

	assert.Nil(t, Product{}.DaysUntilExpiry(today))

	cases := map[string]struct {
		expiry *time.Time
		want   int
	}{
		"today":     {at(2026, 3, 10), 0},
		"tomorrow":  {at(2026, 3, 11), 1},
		"expired":   {at(2026, 3, 8), -2},
		"next year": {at(2027, 3, 10), 365},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := Product{ExpiryDate: tc.expiry}.DaysUntilExpiry(today)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestIsLowStock(t *testing.T) {
	assert.True(t, Product{Quantity: 5, LowStockThreshold: 5}.IsLowStock())
	assert.False(t, Product{Quantity: 6, LowStockThreshold: 5}.IsLowStock())
	assert.True(t, Product{Quantity: 0, LowStockThreshold: 0}.IsLowStock())
}

func TestSaleTotalPrice(t *testing.T) {
	s := Sale{Quantity: 3, PriceAtSale: decimal.RequireFromString("19.99")}
	assert.Equal(t, "59.97", s.TotalPrice().StringFixed(2))
}

func TestCategoryAndSupplierNames(t *testing.T) {
	p := Product{Suppliers: []Supplier{{Name: "Acme"}, {Name: "Globex"}}}
	assert.Equal(t, "", p.CategoryName())
	assert.Equal(t, []string{"Acme", "Globex"}, p.SupplierNames())
	p.Category = &Category{Name: "Tools"}
	assert.Equal(t, "Tools", p.CategoryName())
}
