package repositories

import (
	"github.com/shashiranjanraj/stockroom/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SupplierStat is one row of the supplier report.
type SupplierStat struct {
	ID            uint   `json:"id"`
	Name          string `json:"supplier"`
	ProductCount  int64  `json:"product_count"`
	TotalQuantity int64  `json:"total_quantity"`
}

// SupplierRepository handles database operations for Supplier.
type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) WithTx(tx *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: tx}
}

func (r *SupplierRepository) All() ([]models.Supplier, error) {
	var out []models.Supplier
	err := r.db.Order("name, id").Find(&out).Error
	return out, err
}

// FindByID loads a supplier and the products it provides.
func (r *SupplierRepository) FindByID(id uint) (models.Supplier, error) {
	var s models.Supplier
	err := r.db.Preload("Products", orderByName).First(&s, id).Error
	return s, err
}

// CountByIDs returns how many of ids exist.
func (r *SupplierRepository) CountByIDs(ids []uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Supplier{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

// FirstOrCreate returns the supplier named name, creating it when absent.
func (r *SupplierRepository) FirstOrCreate(name string) (models.Supplier, error) {
	var s models.Supplier
	err := r.db.Where("name = ?", name).Order("id").
		Attrs(models.Supplier{Name: name, Logo: models.DefaultSupplierLogo}).
		FirstOrCreate(&s).Error
	return s, err
}

func (r *SupplierRepository) Create(s *models.Supplier) error {
	return r.db.Omit(clause.Associations).Create(s).Error
}

func (r *SupplierRepository) Save(s *models.Supplier) error {
	return r.db.Omit(clause.Associations).Save(s).Error
}

func (r *SupplierRepository) SetLogo(id uint, path string) error {
	return r.db.Model(&models.Supplier{}).Where("id = ?", id).Update("logo", path).Error
}

// Delete removes the supplier and its product links; products stay.
func (r *SupplierRepository) Delete(s *models.Supplier) error {
	if err := r.db.Model(s).Association("Products").Clear(); err != nil {
		return err
	}
	return r.db.Delete(s).Error
}

// Stats aggregates product count and total quantity per supplier, by name.
// Suppliers without products report zeros. An empty ids slice means all.
func (r *SupplierRepository) Stats(ids []uint) ([]SupplierStat, error) {
	q := r.db.Table("suppliers").
		Select("suppliers.id AS id, suppliers.name AS name, " +
			"COUNT(DISTINCT products.id) AS product_count, " +
			"COALESCE(SUM(products.quantity), 0) AS total_quantity").
		Joins("LEFT JOIN product_suppliers ON product_suppliers.supplier_id = suppliers.id").
		Joins("LEFT JOIN products ON products.id = product_suppliers.product_id").
		Group("suppliers.id, suppliers.name").
		Order("suppliers.name, suppliers.id")
	if len(ids) > 0 {
		q = q.Where("suppliers.id IN ?", ids)
	}

	var out []SupplierStat
	err := q.Scan(&out).Error
	return out, err
}
