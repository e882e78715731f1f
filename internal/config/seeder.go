package config

import (
	"log"

	"shelfmate/internal/adapters/persistence/models"
	"shelfmate/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedCatalog(); err != nil {
		log.Printf("⚠️ Catalog seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", "ADMIN").Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: "admin",
		Email:    "admin@shelfmate.app",
		Password: hashedPassword,
		Role:     "ADMIN",
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}

// seedCatalog seeds a handful of books so a fresh dev database has
// something to browse.
func (s *Seeder) seedCatalog() error {
	var count int64
	s.db.Model(&models.Book{}).Count(&count)
	if count > 0 {
		return nil // Catalog already has books
	}

	books := []models.Book{
		{Title: "The Little Prince", Author: "Antoine de Saint-Exupéry", Category: "Children", Shelf: "A1"},
		{Title: "Charlotte's Web", Author: "E. B. White", Category: "Children", Shelf: "A1"},
		{Title: "A Wrinkle in Time", Author: "Madeleine L'Engle", Category: "Fiction", Shelf: "B2"},
		{Title: "The Giver", Author: "Lois Lowry", Category: "Fiction", Shelf: "B2"},
		{Title: "A Short History of Nearly Everything", Author: "Bill Bryson", Category: "Science", Shelf: "C3"},
	}

	for i := range books {
		books[i].ID = uuid.NewString()
		if err := s.db.Create(&books[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d catalog books", len(books))
	return nil
}
