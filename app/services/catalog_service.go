package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MinSearchLength is the shortest query Search will run.
const MinSearchLength = 3

// ProductInput is the payload for creating or updating a product. A nil
// Quantity creates the product empty and leaves stock alone on update.
type ProductInput struct {
	Name              string           `json:"name"                validate:"required,max=512"`
	Description       string           `json:"description"`
	Quantity          *int             `json:"quantity"            validate:"nullable,gte=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" validate:"nullable,gte=0"`
	Price             *decimal.Decimal `json:"price"               validate:"nullable,gte=0,lte=99999999.99"`
	ExpiryDate        string           `json:"expiry_date"         validate:"nullable,date"`
	CategoryID        *uint            `json:"category_id"`
	SupplierIDs       []uint           `json:"supplier_ids"`
}

// CategoryInput is the payload for creating or renaming a category.
type CategoryInput struct {
	Name string `json:"name" validate:"required,max=128"`
}

// SupplierInput is the payload for creating or updating a supplier.
type SupplierInput struct {
	Name    string `json:"name"    validate:"required,max=256"`
	Email   string `json:"email"   validate:"required,email"`
	Phone   string `json:"phone"   validate:"nullable,max=20"`
	Website string `json:"website" validate:"nullable,url"`
}

// Upload is an incoming image file.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []models.Product `json:"data"`
	Pagination orm.Pagination   `json:"meta"`
}

// CatalogService manages products, categories and suppliers.
type CatalogService struct {
	db         *gorm.DB
	products   *repositories.ProductRepository
	categories *repositories.CategoryRepository
	suppliers  *repositories.SupplierRepository
	disk       storage.Disk
	cache      cache.Store
}

func NewCatalogService(db *gorm.DB, disk storage.Disk, store cache.Store) *CatalogService {
	return &CatalogService{
		db:         db,
		products:   repositories.NewProductRepository(db),
		categories: repositories.NewCategoryRepository(db),
		suppliers:  repositories.NewSupplierRepository(db),
		disk:       disk,
		cache:      store,
	}
}

// ------------------- Products -------------------

// ListProducts pages through products, newest first.
func (s *CatalogService) ListProducts(ctx context.Context, actor Actor, page, perPage int) (ProductPage, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return ProductPage{}, err
	}
	ps, p, err := s.products.WithTx(s.db.WithContext(ctx)).Page(page, perPage)
	return ProductPage{Products: nonNil(ps), Pagination: p}, err
}

// SearchProducts matches q against name, description and category name.
// Queries shorter than MinSearchLength return an empty page.
func (s *CatalogService) SearchProducts(ctx context.Context, actor Actor, q string, page, perPage int) (ProductPage, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return ProductPage{}, err
	}
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinSearchLength {
		return ProductPage{
			Products:   []models.Product{},
			Pagination: orm.Pagination{Page: 1, PerPage: perPageOrDefault(perPage), LastPage: 1},
		}, nil
	}
	ps, p, err := s.products.WithTx(s.db.WithContext(ctx)).Search(q, page, perPage)
	return ProductPage{Products: nonNil(ps), Pagination: p}, err
}

// GetProduct loads a product with its category and suppliers.
func (s *CatalogService) GetProduct(ctx context.Context, actor Actor, id uint) (*models.Product, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	p, err := findProduct(s.products.WithTx(s.db.WithContext(ctx)), id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct validates in and stores a new product.
func (s *CatalogService) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*models.Product, error) {
	if err := actor.requireManage(); err != nil {
		return nil, err
	}
	p := models.Product{
		LowStockThreshold: models.DefaultLowStockThreshold,
		Image:             models.DefaultProductImage,
	}
	if err := s.applyProductInput(&p, in); err != nil {
		return nil, err
	}

	var out models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkRefs(tx, in); err != nil {
			return err
		}
		repo := s.products.WithTx(tx)
		if err := repo.Create(&p); err != nil {
			return err
		}
		if len(in.SupplierIDs) > 0 {
			if err := repo.ReplaceSuppliers(&p, uniqueIDs(in.SupplierIDs)); err != nil {
				return err
			}
		}
		var err error
		out, err = repo.FindByID(p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	forgetSupplierReport(ctx, s.cache)
	logger.WithCtx(ctx).Info("catalog: product created", "product_id", out.ID, "name", out.Name, "user", actor.Username)
	return &out, nil
}

// UpdateProduct overwrites a product's editable fields and supplier links.
// Quantity is written only when in carries one; notification stamps are
// never touched.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, id uint, in ProductInput) (*models.Product, error) {
	if err := actor.requireManage(); err != nil {
		return nil, err
	}

	var out models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.products.WithTx(tx)
		p, err := findProduct(repo, id)
		if err != nil {
			return err
		}
		if err := s.applyProductInput(&p, in); err != nil {
			return err
		}
		if err := s.checkRefs(tx, in); err != nil {
			return err
		}
		p.Category = nil
		if err := repo.Save(&p); err != nil {
			return err
		}
		if in.Quantity != nil {
			if _, err := repo.SetQuantity(id, *in.Quantity); err != nil {
				return err
			}
		}
		if err := repo.ReplaceSuppliers(&p, uniqueIDs(in.SupplierIDs)); err != nil {
			return err
		}
		out, err = repo.FindByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}

	forgetSupplierReport(ctx, s.cache)
	logger.WithCtx(ctx).Info("catalog: product updated", "product_id", id, "user", actor.Username)
	return &out, nil
}

// DeleteProduct removes the product, its sales and its supplier links.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor Actor, id uint) error {
	if err := actor.requireManage(); err != nil {
		return err
	}
	var image string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.products.WithTx(tx)
		p, err := findProduct(repo, id)
		if err != nil {
			return err
		}
		image = p.Image
		return repo.Delete(&p)
	})
	if err != nil {
		return err
	}

	s.removeUpload(ctx, image, models.DefaultProductImage)
	forgetSupplierReport(ctx, s.cache)
	logger.WithCtx(ctx).Info("catalog: product deleted", "product_id", id, "user", actor.Username)
	return nil
}

// SetProductImage stores up under products/ and points the product at it.
func (s *CatalogService) SetProductImage(ctx context.Context, actor Actor, id uint, up Upload) (*models.Product, error) {
	if err := actor.requireManage(); err != nil {
		return nil, err
	}
	repo := s.products.WithTx(s.db.WithContext(ctx))
	p, err := findProduct(repo, id)
	if err != nil {
		return nil, err
	}

	key, err := s.store(ctx, "products", up)
	if err != nil {
		return nil, err
	}
	if err := repo.SetImage(id, key); err != nil {
		return nil, err
	}
	s.removeUpload(ctx, p.Image, models.DefaultProductImage)
	p.Image = key
	return &p, nil
}

func (s *CatalogService) applyProductInput(p *models.Product, in ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := fieldErrors(validate.Struct(in)); err != nil {
		return err
	}
	p.Name = in.Name
	p.Description = in.Description
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	p.ExpiryDate = nil
	if in.ExpiryDate != "" {
		d, _ := validate.ParseDate(in.ExpiryDate)
		d = models.DateOf(d)
		p.ExpiryDate = &d
	}
	p.CategoryID = in.CategoryID
	return nil
}

// checkRefs verifies the category and suppliers named by in exist.
func (s *CatalogService) checkRefs(tx *gorm.DB, in ProductInput) error {
	if in.CategoryID != nil {
		if _, err := repositories.NewCategoryRepository(tx).FindByID(*in.CategoryID); err != nil {
			if orm.IsNotFound(err) {
				return invalid("category_id", "The selected category is invalid.")
			}
			return err
		}
	}
	if len(in.SupplierIDs) > 0 {
		ids := uniqueIDs(in.SupplierIDs)
		n, err := s.suppliers.WithTx(tx).CountByIDs(ids)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return invalid("supplier_ids", "One or more selected suppliers are invalid.")
		}
	}
	return nil
}

// ------------------- Categories -------------------

func (s *CatalogService) ListCategories(ctx context.Context, actor Actor) ([]models.Category, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	cs, err := s.categories.WithTx(s.db.WithContext(ctx)).All()
	if cs == nil {
		cs = []models.Category{}
	}
	return cs, err
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*models.Category, error) {
	if err := actor.requireManage(); err != nil {
		return nil, err
	}
	c := models.Category{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.categories.WithTx(tx)
		name, err := s.checkCategoryName(repo, in, 0)
		if err != nil {
			return err
		}
		c.Name = name
		return repo.Create(&c)
	})
	if err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("catalog: category created", "category_id", c.ID, "name", c.Name)
	return &c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, actor Actor, id uint, in CategoryInput) (*models.Category, error) {
	if err := actor.requireManage(); err != nil {
		return nil, err
	}
	var c models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.categories.WithTx(tx)
		var err error
		if c, err = findCategory(repo, id); err != nil {
			return err
		}
		if c.Name, err = s.checkCategoryName(repo, in, id); err != nil {
			return err
		}
		return repo.Save(&c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes the category; its products become uncategorised.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor Actor, id uint) error {
	if err := actor.requireManage(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.categories.WithTx(tx)
		c, err := findCategory(repo, id)
		if err != nil {
			return err
		}
		return repo.Delete(&c)
	})
	if err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("catalog: category deleted", "category_id", id)
	return nil
}

func (s *CatalogService) checkCategoryName(repo *repositories.CategoryRepository, in CategoryInput, exceptID uint) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := fieldErrors(validate.Struct(in)); err != nil {
		return "", err
	}
	taken, err := repo.NameTaken(in.Name, exceptID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", invalid("name", "Category with this name already exists.")
	}
	return in.Name, nil
}

func findCategory(repo *repositories.CategoryRepository, id uint) (models.Category, error) {
	c, err := repo.FindByID(id)
	if orm.IsNotFound(err) {
		return c, notFound("category", id)
	}
	return c, err
}

// ------------------- Suppliers -------------------

func (s *CatalogService) ListSuppliers(ctx context.Context, actor Actor) ([]models.Supplier, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	ss, err := s.suppliers.WithTx(s.db.WithContext(ctx)).All()
	if ss == nil {
		ss = []models.Supplier{}
	}
	return ss, err
}

// GetSupplier loads a supplier with the products it provides.
func (s *CatalogService) GetSupplier(ctx context.Context, actor Actor, id uint) (*models.Supplier, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	sup, err := findSupplier(s.suppliers.WithTx(s.db.WithContext(ctx)), id)
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *CatalogService) CreateSupplier(ctx context.Context, actor Actor, in SupplierInput) (*models.Supplier, error) {
	if err := actor.requireManage(); err != nil {
		return nil, err
	}
	if err := fieldErrors(validate.Struct(in)); err != nil {
		return nil, err
	}
	sup := models.Supplier{Logo: models.DefaultSupplierLogo}
	applySupplierInput(&sup, in)
	if err := s.suppliers.WithTx(s.db.WithContext(ctx)).Create(&sup); err != nil {
		return nil, err
	}
	forgetSupplierReport(ctx, s.cache)
	logger.WithCtx(ctx).Info("catalog: supplier created", "supplier_id", sup.ID, "name", sup.Name)
	return &sup, nil
}

func (s *CatalogService) UpdateSupplier(ctx context.Context, actor Actor, id uint, in SupplierInput) (*models.Supplier, error) {
	if err := actor.requireManage(); err != nil {
		return nil, err
	}
	if err := fieldErrors(validate.Struct(in)); err != nil {
		return nil, err
	}
	repo := s.suppliers.WithTx(s.db.WithContext(ctx))
	sup, err := findSupplier(repo, id)
	if err != nil {
		return nil, err
	}
	applySupplierInput(&sup, in)
	if err := repo.Save(&sup); err != nil {
		return nil, err
	}
	forgetSupplierReport(ctx, s.cache)
	return &sup, nil
}

// DeleteSupplier removes the supplier; its products stay in the catalog.
func (s *CatalogService) DeleteSupplier(ctx context.Context, actor Actor, id uint) error {
	if err := actor.requireManage(); err != nil {
		return err
	}
	var logo string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.suppliers.WithTx(tx)
		sup, err := findSupplier(repo, id)
		if err != nil {
			return err
		}
		logo = sup.Logo
		return repo.Delete(&sup)
	})
	if err != nil {
		return err
	}
	s.removeUpload(ctx, logo, models.DefaultSupplierLogo)
	forgetSupplierReport(ctx, s.cache)
	logger.WithCtx(ctx).Info("catalog: supplier deleted", "supplier_id", id)
	return nil
}

// SetSupplierLogo stores up under suppliers/ and points the supplier at it.
func (s *CatalogService) SetSupplierLogo(ctx context.Context, actor Actor, id uint, up Upload) (*models.Supplier, error) {
	if err := actor.requireManage(); err != nil {
		return nil, err
	}
	repo := s.suppliers.WithTx(s.db.WithContext(ctx))
	sup, err := findSupplier(repo, id)
	if err != nil {
		return nil, err
	}
	key, err := s.store(ctx, "suppliers", up)
	if err != nil {
		return nil, err
	}
	if err := repo.SetLogo(id, key); err != nil {
		return nil, err
	}
	s.removeUpload(ctx, sup.Logo, models.DefaultSupplierLogo)
	sup.Logo = key
	return &sup, nil
}

func applySupplierInput(sup *models.Supplier, in SupplierInput) {
	sup.Name = strings.TrimSpace(in.Name)
	sup.Email = in.Email
	sup.Phone = in.Phone
	sup.Website = in.Website
}

func findSupplier(repo *repositories.SupplierRepository, id uint) (models.Supplier, error) {
	sup, err := repo.FindByID(id)
	if orm.IsNotFound(err) {
		return sup, notFound("supplier", id)
	}
	return sup, err
}

// ------------------- Uploads -------------------

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// store writes up to dir/<uuid><ext> and returns the storage key.
func (s *CatalogService) store(ctx context.Context, dir string, up Upload) (string, error) {
	if s.disk == nil {
		return "", fmt.Errorf("catalog: no storage disk configured")
	}
	ext := strings.ToLower(path.Ext(up.Filename))
	ctype, ok := imageTypes[ext]
	if !ok {
		return "", invalid("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if up.ContentType != "" && up.ContentType != "application/octet-stream" {
		ctype = up.ContentType
	}

	key := path.Join(dir, time.Now().UTC().Format("2006/01"), uuid.NewString()+ext)
	if err := s.disk.Put(ctx, key, up.Body, ctype); err != nil {
		return "", err
	}
	return key, nil
}

// removeUpload deletes a previously stored file unless it is the default.
func (s *CatalogService) removeUpload(ctx context.Context, key, def string) {
	if s.disk == nil || key == "" || key == def {
		return
	}
	if err := s.disk.Delete(ctx, key); err != nil {
		logger.WithCtx(ctx).Warn("catalog: remove upload", "key", key, "error", err)
	}
}

func nonNil(ps []models.Product) []models.Product {
	if ps == nil {
		return []models.Product{}
	}
	return ps
}

func perPageOrDefault(n int) int {
	if n <= 0 {
		return orm.DefaultPerPage
	}
	return n
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
