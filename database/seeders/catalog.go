package seeders

import (
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	Register("catalog", seedCatalog)
}

type sampleProduct struct {
	name, description, category string
	quantity, threshold         int
	price                       string
	expiresIn                   int // days; 0 means no expiry
	suppliers                   []string
}

var sampleSuppliers = []models.Supplier{
	{Name: "Acme Wholesale", Email: "orders@acme.example", Phone: "555-0100", Website: "https://acme.example"},
	{Name: "Globex Foods", Email: "sales@globex.example", Phone: "555-0199"},
}

var sampleProducts = []sampleProduct{
	{"Whole Milk 1L", "Fresh whole milk", "Dairy", 24, 10, "1.29", 7, []string{"Globex Foods"}},
	{"Cheddar 200g", "Mature cheddar", "Dairy", 4, 5, "3.49", 45, []string{"Globex Foods"}},
	{"Sourdough Loaf", "Baked daily", "Bakery", 12, 5, "2.99", 3, []string{"Acme Wholesale"}},
	{"Paper Towels", "Two-ply, six rolls", "Household", 0, 5, "4.50", 0, []string{"Acme Wholesale", "Globex Foods"}},
}

// seedCatalog inserts a small demo catalog. Rows are matched by name so the
// seeder can run repeatedly.
func seedCatalog(db *gorm.DB) error {
	suppliers := map[string]*models.Supplier{}
	for i := range sampleSuppliers {
		s := sampleSuppliers[i]
		s.Logo = models.DefaultSupplierLogo
		if err := db.Where(models.Supplier{Name: s.Name}).FirstOrCreate(&s).Error; err != nil {
			return err
		}
		suppliers[s.Name] = &s
	}

	categories := map[string]uint{}
	today := models.DateOf(time.Now())
	for _, sp := range sampleProducts {
		if _, ok := categories[sp.category]; !ok {
			c := models.Category{Name: sp.category}
			if err := db.Where(models.Category{Name: c.Name}).FirstOrCreate(&c).Error; err != nil {
				return err
			}
			categories[sp.category] = c.ID
		}

		var count int64
		if err := db.Model(&models.Product{}).Where("name = ?", sp.name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		catID := categories[sp.category]
		p := models.Product{
			Name:              sp.name,
			Description:       sp.description,
			Quantity:          sp.quantity,
			LowStockThreshold: sp.threshold,
			Price:             decimal.RequireFromString(sp.price),
			Image:             models.DefaultProductImage,
			CategoryID:        &catID,
		}
		if sp.expiresIn > 0 {
			exp := today.AddDate(0, 0, sp.expiresIn)
			p.ExpiryDate = &exp
		}
		for _, name := range sp.suppliers {
			p.Suppliers = append(p.Suppliers, *suppliers[name])
		}
		if err := db.Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
