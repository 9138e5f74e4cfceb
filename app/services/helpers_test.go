package services

import (
	"testing"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	staff = Actor{UserID: 1, Username: "staff", Authenticated: true, Staff: true}
	clerk = Actor{UserID: 2, Username: "clerk", Authenticated: true}
)

func intPtr(n int) *int { return &n }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedProduct(t *testing.T, db *gorm.DB, p models.Product) models.Product {
	t.Helper()
	if p.Price.IsZero() {
		p.Price = decimal.RequireFromString("1.50")
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func reload(t *testing.T, db *gorm.DB, id uint) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p
}
