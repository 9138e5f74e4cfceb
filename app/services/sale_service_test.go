package services

import (
	"context"
	"testing"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSale(t *testing.T) {
	db := testkit.DB(t)
	svc := NewSaleService(db, nil)
	ctx := context.Background()
	p := seedProduct(t, db, models.Product{Name: "Widget", Quantity: 5, LowStockThreshold: 1, Price: decimal.RequireFromString("3.25")})

	sale, err := svc.Record(ctx, clerk, p.ID, SaleInput{Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "3.25", sale.PriceAtSale.StringFixed(2))
	assert.Equal(t, "6.50", sale.TotalPrice().StringFixed(2))
	require.NotNil(t, sale.UserID)
	assert.Equal(t, clerk.UserID, *sale.UserID)
	assert.Equal(t, 3, reload(t, db, p.ID).Quantity)

	// a later price change does not touch recorded sales
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", "9.99").Error)
	sales, err := svc.ForProduct(ctx, clerk, p.ID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "3.25", sales[0].PriceAtSale.StringFixed(2))
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	db := testkit.DB(t)
	svc := NewSaleService(db, nil)
	p := seedProduct(t, db, models.Product{Name: "Widget", Quantity: 2, LowStockThreshold: 1})

	_, err := svc.Record(context.Background(), clerk, p.ID, SaleInput{Quantity: 3})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Only 2 left in stock.", verr.Fields["quantity"])
	assert.Equal(t, 2, reload(t, db, p.ID).Quantity)

	_, err = svc.Record(context.Background(), clerk, p.ID, SaleInput{Quantity: 0})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Record(context.Background(), clerk, 999, SaleInput{Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Record(context.Background(), Anonymous, p.ID, SaleInput{Quantity: 1})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSellEntireStock(t *testing.T) {
	db := testkit.DB(t)
	p := seedProduct(t, db, models.Product{Name: "Widget", Quantity: 2, LowStockThreshold: 1})
	_, err := NewSaleService(db, nil).Record(context.Background(), clerk, p.ID, SaleInput{Quantity: 2})
	require.NoError(t, err)
	assert.Zero(t, reload(t, db, p.ID).Quantity)
}
