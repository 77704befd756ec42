package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/containerhub/containerhub/internal/entities"
)

// DefaultOrganization is created on first start so single-tenant
// deployments work without any setup.
var DefaultOrganization = entities.Organization{
	Name: "Default Organization",
	Slug: "default",
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Organization{},
		&entities.User{},
		&entities.Item{},
		&entities.Tag{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedDefaultOrganization(); err != nil {
		return nil, fmt.Errorf("failed to seed default organization: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedDefaultOrganization() error {
	var existing entities.Organization
	result := d.DB.Where("slug = ?", DefaultOrganization.Slug).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		org := DefaultOrganization
		if err := d.DB.Create(&org).Error; err != nil {
			return fmt.Errorf("failed to create organization %s: %w", org.Slug, err)
		}
		log.Printf("Created organization: %s", org.Name)
	}
	return nil
}

// DefaultOrganizationID returns the ID of the seeded default organization.
func (d *Database) DefaultOrganizationID() (uint, error) {
	var org entities.Organization
	if err := d.DB.Where("slug = ?", DefaultOrganization.Slug).First(&org).Error; err != nil {
		return 0, err
	}
	return org.ID, nil
}
