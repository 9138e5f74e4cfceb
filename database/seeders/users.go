package seeders

import (
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"gorm.io/gorm"
)

func init() {
	Register("admin", seedAdmin)
}

// seedAdmin creates the superuser named by ADMIN_USERNAME when
// ADMIN_PASSWORD is set. An existing account is left alone.
func seedAdmin(db *gorm.DB) error {
	password := config.Get("ADMIN_PASSWORD", "")
	if password == "" {
		logger.Warn("seed: ADMIN_PASSWORD is empty, skipping admin account")
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:    config.Get("ADMIN_USERNAME", "admin"),
		Email:       config.Get("ADMIN_EMAIL", config.ManagerEmail()),
		Password:    hash,
		IsStaff:     true,
		IsSuperuser: true,
	}
	return db.Where(models.User{Username: admin.Username}).FirstOrCreate(&admin).Error
}
