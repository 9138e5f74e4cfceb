package repositories

import (
	"github.com/shashiranjanraj/stockroom/app/models"
	"gorm.io/gorm"
)

// CategoryRepository handles database operations for Category.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

func (r *CategoryRepository) All() ([]models.Category, error) {
	var out []models.Category
	err := r.db.Order("name").Find(&out).Error
	return out, err
}

func (r *CategoryRepository) FindByID(id uint) (models.Category, error) {
	var c models.Category
	err := r.db.First(&c, id).Error
	return c, err
}

// FirstOrCreate returns the category named name, creating it when absent.
func (r *CategoryRepository) FirstOrCreate(name string) (models.Category, error) {
	c := models.Category{Name: name}
	err := r.db.Where(models.Category{Name: name}).FirstOrCreate(&c).Error
	return c, err
}

// NameTaken reports whether another category already uses name.
func (r *CategoryRepository) NameTaken(name string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.Category{}).Where("name = ? AND id <> ?", name, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *CategoryRepository) Create(c *models.Category) error { return r.db.Create(c).Error }
func (r *CategoryRepository) Save(c *models.Category) error   { return r.db.Save(c).Error }

// Delete detaches the category's products, then removes it.
func (r *CategoryRepository) Delete(c *models.Category) error {
	if err := r.db.Model(&models.Product{}).Where("category_id = ?", c.ID).
		Update("category_id", nil).Error; err != nil {
		return err
	}
	return r.db.Delete(c).Error
}
