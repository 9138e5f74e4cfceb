package models

// DefaultSupplierLogo is stored when a supplier is created without a logo.
const DefaultSupplierLogo = "images/default_supplier.jpg"

// Supplier provides products; the relation is many-to-many.
type Supplier struct {
	ID      uint   `gorm:"primaryKey"          json:"id"`
	Name    string `gorm:"size:256;not null;index" json:"name"`
	Logo    string `gorm:"size:255"            json:"logo"`
	Email   string `gorm:"size:254"            json:"email"`
	Phone   string `gorm:"size:20"             json:"phone"`
	Website string `gorm:"size:200"            json:"website,omitempty"`

	Products []Product `gorm:"many2many:product_suppliers" json:"products,omitempty"`
}
