package database

import (
	"time"

	config "github.com/anjiri1684/classroom/configs"
	"github.com/anjiri1684/classroom/models"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if !cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting sql.DB")
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("✅ Database connected successfully")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.Grade{},
		&models.Course{},
		&models.Enrollment{},
		&models.Classroom{},
		&models.Exam{},
		&models.Question{},
		&models.Answer{},
		&models.StudentExam{},
		&models.StudentAnswer{},
		&models.Certificate{},
	)
	if err != nil {
		return errors.Wrap(err, "migrating database")
	}
	log.Info("✅ Database migration successful")
	return nil
}

// SeedAdmin creates the configured admin account once. It is a no-op when no
// admin email is configured or the account already exists.
func SeedAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminEmail == "" {
		log.Warn("ADMIN_EMAIL not set, skipping admin seed")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", cfg.AdminEmail).Count(&count).Error; err != nil {
		return errors.Wrap(err, "checking for admin user")
	}
	if count > 0 {
		log.Info("Admin user already exists.")
		return nil
	}
	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD is required to seed the admin user")
	}

	admin := models.User{
		FullName: cfg.AdminFullName,
		Email:    cfg.AdminEmail,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		return errors.Wrap(err, "hashing admin password")
	}
	if err := db.Create(&admin).Error; err != nil {
		return errors.Wrap(err, "seeding admin user")
	}

	log.Info("✅ Admin user seeded successfully")
	return nil
}
