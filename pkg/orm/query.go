// Package orm holds small helpers shared by the gorm repositories.
package orm

import (
	"errors"

	"gorm.io/gorm"
)

// DefaultPerPage is used when a caller asks for a non-positive page size.
const DefaultPerPage = 4

// Pagination describes one page of a listing.
type Pagination struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

// Paginate counts q, then loads the requested page into dest. fetch scopes
// (ordering, preloads) apply to the page query only, never to the count.
// Pages are 1-based; out-of-range pages return an empty dest.
func Paginate(q *gorm.DB, page, perPage int, dest interface{}, fetch ...func(*gorm.DB) *gorm.DB) (Pagination, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	p := Pagination{Page: page, PerPage: perPage, Total: total}
	p.LastPage = int((total + int64(perPage) - 1) / int64(perPage))
	if p.LastPage == 0 {
		p.LastPage = 1
	}

	err := q.Session(&gorm.Session{}).Scopes(fetch...).
		Offset((page - 1) * perPage).Limit(perPage).Find(dest).Error
	return p, err
}

// OrderBy is a fetch scope for Paginate.
func OrderBy(order string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Order(order) }
}

// Preload is a fetch scope for Paginate.
func Preload(assoc string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Preload(assoc) }
}

// IsNotFound reports whether err is gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
