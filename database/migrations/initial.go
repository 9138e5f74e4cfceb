package migrations

import (
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260101000000_create_users_table", &createUsersTable{})
	migration.Register("20260101000001_create_categories_table", &createCategoriesTable{})
	migration.Register("20260101000002_create_suppliers_table", &createSuppliersTable{})
	migration.Register("20260101000003_create_products_table", &createProductsTable{})
	migration.Register("20260101000004_create_sales_table", &createSalesTable{})
	migration.Register("20260101000005_create_failed_jobs_table", &createFailedJobsTable{})
}

type createUsersTable struct{}

func (createUsersTable) Up(db *gorm.DB) error   { return db.AutoMigrate(&models.User{}) }
func (createUsersTable) Down(db *gorm.DB) error { return db.Migrator().DropTable("users") }

type createCategoriesTable struct{}

func (createCategoriesTable) Up(db *gorm.DB) error   { return db.AutoMigrate(&models.Category{}) }
func (createCategoriesTable) Down(db *gorm.DB) error { return db.Migrator().DropTable("categories") }

type createSuppliersTable struct{}

func (createSuppliersTable) Up(db *gorm.DB) error   { return db.AutoMigrate(&models.Supplier{}) }
func (createSuppliersTable) Down(db *gorm.DB) error { return db.Migrator().DropTable("suppliers") }

// products also owns the product_suppliers join table.
type createProductsTable struct{}

func (createProductsTable) Up(db *gorm.DB) error { return db.AutoMigrate(&models.Product{}) }
func (createProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("product_suppliers", "products")
}

type createSalesTable struct{}

func (createSalesTable) Up(db *gorm.DB) error   { return db.AutoMigrate(&models.Sale{}) }
func (createSalesTable) Down(db *gorm.DB) error { return db.Migrator().DropTable("sales") }

type createFailedJobsTable struct{}

func (createFailedJobsTable) Up(db *gorm.DB) error   { return db.AutoMigrate(&queue.FailedJob{}) }
func (createFailedJobsTable) Down(db *gorm.DB) error { return db.Migrator().DropTable("failed_jobs") }
