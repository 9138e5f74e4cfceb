package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCatalog(t *testing.T) (*CatalogService, *gorm.DB, *storage.Local) {
	t.Helper()
	db := testkit.DB(t)
	disk, err := storage.NewLocal(t.TempDir(), "http://localhost/storage")
	require.NoError(t, err)
	return NewCatalogService(db, disk, cache.NewMemory()), db, disk
}

func TestCreateProductDefaultsAndRefs(t *testing.T) {
	svc, db, _ := newCatalog(t)
	ctx := context.Background()

	fruit, err := svc.CreateCategory(ctx, staff, CategoryInput{Name: "Fruit"})
	require.NoError(t, err)
	acme, err := svc.CreateSupplier(ctx, staff, SupplierInput{Name: "Acme", Email: "sales@acme.test"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSupplierLogo, acme.Logo)

	price := decimal.RequireFromString("2.499")
	p, err := svc.CreateProduct(ctx, staff, ProductInput{
		Name:        "  Apples ",
		Quantity:    intPtr(10),
		Price:       &price,
		ExpiryDate:  "2026-04-01",
		CategoryID:  &fruit.ID,
		SupplierIDs: []uint{acme.ID, acme.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Apples", p.Name)
	assert.Equal(t, models.DefaultLowStockThreshold, p.LowStockThreshold)
	assert.Equal(t, models.DefaultProductImage, p.Image)
	assert.Equal(t, "2.5", p.Price.String())
	assert.Equal(t, "Fruit", p.CategoryName())
	assert.Equal(t, []string{"Acme"}, p.SupplierNames())
	require.NotNil(t, p.ExpiryDate)
	assert.Equal(t, "2026-04-01", p.ExpiryDate.Format("2006-01-02"))

	zero, err := svc.CreateProduct(ctx, staff, ProductInput{Name: "Salt", LowStockThreshold: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, reload(t, db, zero.ID).LowStockThreshold)

	missing := uint(999)
	_, err = svc.CreateProduct(ctx, staff, ProductInput{Name: "Ghost", CategoryID: &missing})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateProduct(ctx, staff, ProductInput{Name: "Ghost", SupplierIDs: []uint{acme.ID, missing}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, staff, ProductInput{Name: ""})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	_, err = svc.CreateProduct(ctx, staff, ProductInput{Name: "Neg", Quantity: intPtr(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, staff, ProductInput{Name: "Date", ExpiryDate: "01/04/2026"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalogPermissions(t *testing.T) {
	svc, db, _ := newCatalog(t)
	ctx := context.Background()
	p := seedProduct(t, db, models.Product{Name: "Widget", Quantity: 1, LowStockThreshold: 1})

	_, err := svc.CreateProduct(ctx, clerk, ProductInput{Name: "x"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, clerk, p.ID), ErrPermissionDenied)
	_, err = svc.CreateCategory(ctx, clerk, CategoryInput{Name: "x"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.ListProducts(ctx, Anonymous, 1, 0)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	got, err := svc.GetProduct(ctx, clerk, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
}

func TestUpdateProductReplacesSuppliers(t *testing.T) {
	svc, db, _ := newCatalog(t)
	ctx := context.Background()
	a := models.Supplier{Name: "A"}
	b := models.Supplier{Name: "B"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)
	p := seedProduct(t, db, models.Product{Name: "Widget", Quantity: 1, LowStockThreshold: 2, Suppliers: []models.Supplier{a}})

	out, err := svc.UpdateProduct(ctx, staff, p.ID, ProductInput{Name: "Widget", Quantity: intPtr(3), SupplierIDs: []uint{b.ID}})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Quantity)
	assert.Equal(t, 2, out.LowStockThreshold)
	assert.Equal(t, []string{"B"}, out.SupplierNames())

	_, err = svc.UpdateProduct(ctx, staff, 999, ProductInput{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProductWithoutQuantityKeepsStock(t *testing.T) {
	svc, db, _ := newCatalog(t)
	p := seedProduct(t, db, models.Product{Name: "Widget", Quantity: 3, LowStockThreshold: 5})

	out, err := svc.UpdateProduct(context.Background(), staff, p.ID, ProductInput{Name: "Widget 2"})
	require.NoError(t, err)
	assert.Equal(t, "Widget 2", out.Name)
	assert.Equal(t, 3, out.Quantity)
	assert.Equal(t, 3, reload(t, db, p.ID).Quantity)
}

func TestUpdateProductLeavesStockAndStampsToTheirOwnPaths(t *testing.T) {
	svc, db, _ := newCatalog(t)
	sentAt := clock.Truncate(time.Millisecond)
	p := seedProduct(t, db, models.Product{
		Name: "Widget", Quantity: 3, LowStockThreshold: 5,
		LastLowStockNotified: &sentAt, LastExpiryNotified: &sentAt,
	})

	var statements []string
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture", func(tx *gorm.DB) {
		if tx.Statement.Table == "products" {
			statements = append(statements, tx.Statement.SQL.String())
		}
	}))

	_, err := svc.UpdateProduct(context.Background(), staff, p.ID, ProductInput{Name: "Widget 2", Description: "blue"})
	require.NoError(t, err)

	require.NotEmpty(t, statements)
	for _, sql := range statements {
		assert.NotContains(t, sql, "quantity")
		assert.NotContains(t, sql, "notified")
	}
	got := reload(t, db, p.ID)
	assert.Equal(t, "blue", got.Description)
	require.NotNil(t, got.LastLowStockNotified)
	assert.True(t, got.LastLowStockNotified.Equal(sentAt))
}

func TestListProductsPagesNewestFirst(t *testing.T) {
	svc, db, _ := newCatalog(t)
	for i := 1; i <= 6; i++ {
		seedProduct(t, db, models.Product{Name: fmt.Sprintf("P%d", i), LowStockThreshold: 1})
	}

	page, err := svc.ListProducts(context.Background(), clerk, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(6), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.LastPage)
	require.Len(t, page.Products, 4)
	assert.Equal(t, "P6", page.Products[0].Name)

	page, err = svc.ListProducts(context.Background(), clerk, 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "P1", page.Products[1].Name)
}

func TestSearchProducts(t *testing.T) {
	svc, db, _ := newCatalog(t)
	ctx := context.Background()
	dairy := models.Category{Name: "Dairy"}
	require.NoError(t, db.Create(&dairy).Error)
	seedProduct(t, db, models.Product{Name: "Whole Milk", LowStockThreshold: 1})
	seedProduct(t, db, models.Product{Name: "Cheddar", CategoryID: &dairy.ID, LowStockThreshold: 1})
	seedProduct(t, db, models.Product{Name: "Bread", Description: "made with milk", LowStockThreshold: 1})
	seedProduct(t, db, models.Product{Name: "Nails", LowStockThreshold: 1})

	page, err := svc.SearchProducts(ctx, clerk, "MILK", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)

	page, err = svc.SearchProducts(ctx, clerk, "dairy", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Cheddar", page.Products[0].Name)

	page, err = svc.SearchProducts(ctx, clerk, "mi", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Zero(t, page.Pagination.Total)
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	svc, db, _ := newCatalog(t)
	ctx := context.Background()
	seedProduct(t, db, models.Product{Name: "Cheddar", LowStockThreshold: 1})
	seedProduct(t, db, models.Product{Name: "100% Juice", LowStockThreshold: 1})

	page, err := svc.SearchProducts(ctx, clerk, "%%%", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Products)

	page, err = svc.SearchProducts(ctx, clerk, "c_e", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Products)

	page, err = svc.SearchProducts(ctx, clerk, "0% j", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "100% Juice", page.Products[0].Name)
}

func TestDeleteCategoryKeepsProducts(t *testing.T) {
	svc, db, _ := newCatalog(t)
	ctx := context.Background()
	c, err := svc.CreateCategory(ctx, staff, CategoryInput{Name: "Tools"})
	require.NoError(t, err)
	p := seedProduct(t, db, models.Product{Name: "Hammer", CategoryID: &c.ID, LowStockThreshold: 1})

	_, err = svc.CreateCategory(ctx, staff, CategoryInput{Name: "Tools"})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.DeleteCategory(ctx, staff, c.ID))
	assert.Nil(t, reload(t, db, p.ID).CategoryID)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, staff, c.ID), ErrNotFound)
}

func TestDeleteProductRemovesSales(t *testing.T) {
	svc, db, _ := newCatalog(t)
	ctx := context.Background()
	p := seedProduct(t, db, models.Product{Name: "Widget", Quantity: 5, LowStockThreshold: 1})
	_, err := NewSaleService(db, nil).Record(ctx, clerk, p.ID, SaleInput{Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, staff, p.ID))
	var sales int64
	db.Model(&models.Sale{}).Count(&sales)
	assert.Zero(t, sales)
	_, err = svc.GetProduct(ctx, clerk, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetProductImage(t *testing.T) {
	svc, db, disk := newCatalog(t)
	ctx := context.Background()
	p := seedProduct(t, db, models.Product{Name: "Widget", LowStockThreshold: 1, Image: models.DefaultProductImage})

	out, err := svc.SetProductImage(ctx, staff, p.ID, Upload{Filename: "photo.PNG", Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Image, "products/"))
	assert.True(t, strings.HasSuffix(out.Image, ".png"))
	assert.True(t, disk.Exists(ctx, out.Image))
	first := out.Image

	out, err = svc.SetProductImage(ctx, staff, p.ID, Upload{Filename: "again.jpg", Body: strings.NewReader("jpg")})
	require.NoError(t, err)
	assert.False(t, disk.Exists(ctx, first))
	assert.Equal(t, out.Image, reload(t, db, p.ID).Image)

	_, err = svc.SetProductImage(ctx, staff, p.ID, Upload{Filename: "notes.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSupplierValidation(t *testing.T) {
	svc, _, _ := newCatalog(t)
	_, err := svc.CreateSupplier(context.Background(), staff, SupplierInput{Name: "Acme", Email: "nope", Website: "not a url"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "website")
}
