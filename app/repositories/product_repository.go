package repositories

import (
	"strings"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// FindByID loads a product with its category and suppliers.
func (r *ProductRepository) FindByID(id uint) (models.Product, error) {
	var p models.Product
	err := r.db.Preload("Category").Preload("Suppliers", orderByName).First(&p, id).Error
	return p, err
}

// FindByName looks up a product by exact name.
func (r *ProductRepository) FindByName(name string) (models.Product, error) {
	var p models.Product
	err := r.db.Where("name = ?", name).Order("id").First(&p).Error
	return p, err
}

// Page lists products newest first.
func (r *ProductRepository) Page(page, perPage int) ([]models.Product, orm.Pagination, error) {
	var out []models.Product
	p, err := orm.Paginate(r.db.Model(&models.Product{}), page, perPage, &out,
		orm.OrderBy("products.created_at desc, products.id desc"), orm.Preload("Category"))
	return out, p, err
}

// Search matches q case-insensitively against name, description and
// category name.
func (r *ProductRepository) Search(q string, page, perPage int) ([]models.Product, orm.Pagination, error) {
	like := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
	query := r.db.Model(&models.Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where(`LOWER(products.name) LIKE ? ESCAPE '!' OR LOWER(products.description) LIKE ? ESCAPE '!' OR LOWER(categories.name) LIKE ? ESCAPE '!'`,
			like, like, like)

	var out []models.Product
	p, err := orm.Paginate(query, page, perPage, &out,
		orm.OrderBy("products.created_at desc, products.id desc"), orm.Preload("Category"))
	return out, p, err
}

// All loads every product with category and suppliers, ordered by name.
func (r *ProductRepository) All() ([]models.Product, error) {
	var out []models.Product
	err := r.db.Preload("Category").Preload("Suppliers", orderByName).
		Order("name, id").Find(&out).Error
	return out, err
}

// LowStock returns products at or under their threshold, lowest quantity first.
func (r *ProductRepository) LowStock() ([]models.Product, error) {
	var out []models.Product
	err := r.db.Preload("Category").
		Where("quantity <= low_stock_threshold").
		Order("quantity asc, id asc").Find(&out).Error
	return out, err
}

// OutOfStock returns products with nothing left.
func (r *ProductRepository) OutOfStock() ([]models.Product, error) {
	var out []models.Product
	err := r.db.Preload("Category").Where("quantity = 0").Order("name, id").Find(&out).Error
	return out, err
}

// ExpiringBy returns products whose expiry date is on or before cutoff,
// soonest first. Already-expired products are included.
func (r *ProductRepository) ExpiringBy(cutoff time.Time) ([]models.Product, error) {
	var out []models.Product
	err := r.db.Where("expiry_date IS NOT NULL AND expiry_date <= ?", cutoff).
		Order("expiry_date asc, id asc").Find(&out).Error
	return out, err
}

func (r *ProductRepository) Create(p *models.Product) error {
	return r.db.Omit(clause.Associations).Create(p).Error
}

// editableColumns are the columns a catalog edit may rewrite. Quantity moves
// through SetQuantity, ApplyDelta and Decrement; the notification stamps only
// through StampNotified.
var editableColumns = []string{
	"name", "description", "low_stock_threshold", "price",
	"expiry_date", "category_id", "image", "updated_at",
}

// Save persists the editable columns of an existing product.
func (r *ProductRepository) Save(p *models.Product) error {
	return r.db.Model(p).Select(editableColumns).Updates(p).Error
}

// SetImage updates only the image column.
func (r *ProductRepository) SetImage(id uint, path string) error {
	return r.db.Model(&models.Product{}).Where("id = ?", id).Update("image", path).Error
}

// ReplaceSuppliers sets the product's supplier links to exactly ids.
func (r *ProductRepository) ReplaceSuppliers(p *models.Product, ids []uint) error {
	suppliers := make([]models.Supplier, 0, len(ids))
	for _, id := range ids {
		suppliers = append(suppliers, models.Supplier{ID: id})
	}
	return r.db.Model(p).Association("Suppliers").Replace(suppliers)
}

// AppendSupplier links s to p; an existing link is left as is.
func (r *ProductRepository) AppendSupplier(p *models.Product, s *models.Supplier) error {
	return r.db.Model(p).Association("Suppliers").Append(s)
}

// Delete removes the product together with its sales and supplier links.
func (r *ProductRepository) Delete(p *models.Product) error {
	if err := r.db.Where("product_id = ?", p.ID).Delete(&models.Sale{}).Error; err != nil {
		return err
	}
	if err := r.db.Model(p).Association("Suppliers").Clear(); err != nil {
		return err
	}
	return r.db.Delete(p).Error
}

// ApplyDelta adds delta to quantity in one statement, saturating at zero.
func (r *ProductRepository) ApplyDelta(id uint, delta int) (int64, error) {
	res := r.db.Model(&models.Product{}).Where("id = ?", id).
		Update("quantity", gorm.Expr("CASE WHEN quantity + ? < 0 THEN 0 ELSE quantity + ? END", delta, delta))
	return res.RowsAffected, res.Error
}

// SetQuantity overwrites quantity.
func (r *ProductRepository) SetQuantity(id uint, qty int) (int64, error) {
	res := r.db.Model(&models.Product{}).Where("id = ?", id).Update("quantity", qty)
	return res.RowsAffected, res.Error
}

// SetThreshold overwrites low_stock_threshold.
func (r *ProductRepository) SetThreshold(id uint, threshold int) error {
	return r.db.Model(&models.Product{}).Where("id = ?", id).Update("low_stock_threshold", threshold).Error
}

// Decrement takes qty out of stock only if enough remains. Zero rows
// affected means insufficient stock (or no such product).
func (r *ProductRepository) Decrement(id uint, qty int) (int64, error) {
	res := r.db.Model(&models.Product{}).Where("id = ? AND quantity >= ?", id, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	return res.RowsAffected, res.Error
}

// StampNotified moves column from prev to now. It only succeeds while the
// stored value still equals prev, so two racing senders cannot both stamp.
func (r *ProductRepository) StampNotified(id uint, column string, prev *time.Time, now time.Time) (bool, error) {
	q := r.db.Model(&models.Product{}).Where("id = ?", id)
	if prev == nil {
		q = q.Where(column + " IS NULL")
	} else {
		q = q.Where(column+" = ?", *prev)
	}
	res := q.UpdateColumn(column, now)
	return res.RowsAffected == 1, res.Error
}

// likeEscaper makes % and _ in a search term literal. '!' is the escape
// character because MySQL reads a lone backslash in a literal as an escape.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func orderByName(db *gorm.DB) *gorm.DB { return db.Order("name, id") }
