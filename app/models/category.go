package models

// Category groups products. Deleting a category detaches its products rather
// than deleting them.
type Category struct {
	ID   uint   `gorm:"primaryKey"                       json:"id"`
	Name string `gorm:"size:128;not null;uniqueIndex"    json:"name"`
}
