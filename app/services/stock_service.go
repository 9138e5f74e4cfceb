package services

import (
	"context"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
	"gorm.io/gorm"
)

// Stock update modes.
const (
	ModeSet   = "set"
	ModeDelta = "delta"
)

// StockUpdate is a validated quantity change.
type StockUpdate struct {
	Mode              string `json:"mode"                validate:"required,in=set,delta"`
	Value             *int   `json:"value"               validate:"required"`
	LowStockThreshold *int   `json:"low_stock_threshold" validate:"nullable,gte=0"`
}

// StockStatus is one row of the stock status report.
type StockStatus struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	Quantity          int    `json:"quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	LowStock          bool   `json:"low_stock"`
	DaysUntilExpiry   *int   `json:"days_until_expiry"`
}

// StockService mutates and reports on stock levels.
type StockService struct {
	db       *gorm.DB
	products *repositories.ProductRepository
	cache    cache.Store
	now      func() time.Time
}

func NewStockService(db *gorm.DB, store cache.Store) *StockService {
	return &StockService{
		db:       db,
		products: repositories.NewProductRepository(db),
		cache:    store,
		now:      time.Now,
	}
}

// UpdateQuantity applies u to the product and returns its new state. Delta
// updates saturate at zero and are applied in one UPDATE so concurrent
// changes are never lost.
func (s *StockService) UpdateQuantity(ctx context.Context, actor Actor, productID uint, u StockUpdate) (*models.Product, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	if err := fieldErrors(validate.Struct(u)); err != nil {
		return nil, err
	}
	if u.Mode == ModeSet && *u.Value < 0 {
		return nil, invalid("value", "The quantity must be greater than or equal to 0.")
	}

	var out models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.products.WithTx(tx)
		if _, err := findProduct(repo, productID); err != nil {
			return err
		}

		var err error
		if u.Mode == ModeSet {
			_, err = repo.SetQuantity(productID, *u.Value)
		} else {
			_, err = repo.ApplyDelta(productID, *u.Value)
		}
		if err != nil {
			return err
		}
		if u.LowStockThreshold != nil {
			if err := repo.SetThreshold(productID, *u.LowStockThreshold); err != nil {
				return err
			}
		}

		out, err = repo.FindByID(productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	forgetSupplierReport(ctx, s.cache)
	logger.WithCtx(ctx).Info("stock: quantity updated",
		"product_id", productID, "mode", u.Mode, "value", *u.Value,
		"quantity", out.Quantity, "user", actor.Username)
	return &out, nil
}

// Status reports every product's stock position, ordered by name.
func (s *StockService) Status(ctx context.Context, actor Actor) ([]StockStatus, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	all, err := repositories.NewProductRepository(s.db.WithContext(ctx)).All()
	if err != nil {
		return nil, err
	}
	return s.statusRows(all), nil
}

// LowStock lists products at or under their threshold, lowest first.
func (s *StockService) LowStock(ctx context.Context, actor Actor) ([]StockStatus, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	ps, err := repositories.NewProductRepository(s.db.WithContext(ctx)).LowStock()
	if err != nil {
		return nil, err
	}
	return s.statusRows(ps), nil
}

// OutOfStock lists products with a quantity of zero.
func (s *StockService) OutOfStock(ctx context.Context, actor Actor) ([]StockStatus, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	ps, err := repositories.NewProductRepository(s.db.WithContext(ctx)).OutOfStock()
	if err != nil {
		return nil, err
	}
	return s.statusRows(ps), nil
}

func (s *StockService) statusRows(ps []models.Product) []StockStatus {
	today := s.now()
	out := make([]StockStatus, 0, len(ps))
	for _, p := range ps {
		out = append(out, StockStatus{
			ID:                p.ID,
			Name:              p.Name,
			Category:          p.CategoryName(),
			Quantity:          p.Quantity,
			LowStockThreshold: p.LowStockThreshold,
			LowStock:          p.IsLowStock(),
			DaysUntilExpiry:   p.DaysUntilExpiry(today),
		})
	}
	return out
}

// findProduct maps gorm's not-found to ErrNotFound.
func findProduct(repo *repositories.ProductRepository, id uint) (models.Product, error) {
	p, err := repo.FindByID(id)
	if orm.IsNotFound(err) {
		return p, notFound("product", id)
	}
	return p, err
}
