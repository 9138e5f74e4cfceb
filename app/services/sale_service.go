package services

import (
	"context"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
	"gorm.io/gorm"
)

// SaleInput is the payload for recording a sale.
type SaleInput struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// SaleService records sales against stock.
type SaleService struct {
	db       *gorm.DB
	products *repositories.ProductRepository
	sales    *repositories.SaleRepository
	cache    cache.Store
}

func NewSaleService(db *gorm.DB, store cache.Store) *SaleService {
	return &SaleService{
		db:       db,
		products: repositories.NewProductRepository(db),
		sales:    repositories.NewSaleRepository(db),
		cache:    store,
	}
}

// Record takes in.Quantity out of stock and stores the sale at the product's
// current price. Selling more than is on hand fails with ErrValidation.
func (s *SaleService) Record(ctx context.Context, actor Actor, productID uint, in SaleInput) (*models.Sale, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	if err := fieldErrors(validate.Struct(in)); err != nil {
		return nil, err
	}

	var sale models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		p, err := findProduct(products, productID)
		if err != nil {
			return err
		}
		n, err := products.Decrement(productID, in.Quantity)
		if err != nil {
			return err
		}
		if n == 0 {
			return invalid("quantity", "Only %d left in stock.", p.Quantity)
		}

		sale = models.Sale{
			ProductID:   productID,
			Quantity:    in.Quantity,
			PriceAtSale: p.Price,
		}
		if actor.UserID != 0 {
			uid := actor.UserID
			sale.UserID = &uid
		}
		return s.sales.WithTx(tx).Create(&sale)
	})
	if err != nil {
		return nil, err
	}

	forgetSupplierReport(ctx, s.cache)
	logger.WithCtx(ctx).Info("sales: recorded",
		"product_id", productID, "quantity", in.Quantity, "total", sale.TotalPrice().StringFixed(2), "user", actor.Username)
	return &sale, nil
}

// ForProduct lists a product's sales, newest first.
func (s *SaleService) ForProduct(ctx context.Context, actor Actor, productID uint) ([]models.Sale, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	if _, err := findProduct(s.products.WithTx(s.db.WithContext(ctx)), productID); err != nil {
		return nil, err
	}
	out, err := s.sales.WithTx(s.db.WithContext(ctx)).ForProduct(productID)
	if out == nil {
		out = []models.Sale{}
	}
	return out, err
}
