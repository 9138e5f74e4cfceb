// Package models holds the GORM entities of the inventory.
package models

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Category{}, &Supplier{}, &Product{}, &Sale{}}
}
