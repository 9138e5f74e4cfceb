package repositories

import (
	"github.com/shashiranjanraj/stockroom/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleRepository handles database operations for Sale.
type SaleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

func (r *SaleRepository) WithTx(tx *gorm.DB) *SaleRepository {
	return &SaleRepository{db: tx}
}

func (r *SaleRepository) Create(s *models.Sale) error {
	return r.db.Omit(clause.Associations).Create(s).Error
}

// ForProduct lists a product's sales, newest first.
func (r *SaleRepository) ForProduct(productID uint) ([]models.Sale, error) {
	var out []models.Sale
	err := r.db.Where("product_id = ?", productID).Order("date desc, id desc").Find(&out).Error
	return out, err
}
