package database

import (
	"gorm.io/gorm"
)

// Paginate applies pagination to a GORM query. A non-positive page or limit
// leaves the query unpaged.
func Paginate(page, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 || limit <= 0 {
			return db
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
