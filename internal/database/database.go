package database

import (
	"log"
	"strings"

	"rentara/internal/domain"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite" // registers the cgo-free "sqlite" driver
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// Migrate creates the schema and, on PostgreSQL, the exclusion constraint
// that rejects overlapping active bookings at write time. The application
// still runs an availability pre-check for friendly errors, but the
// constraint is what makes two concurrent check-then-insert calls safe.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Property{},
		&domain.BlockedDate{},
		&domain.Booking{},
		&domain.Payment{},
		&domain.Review{},
		&domain.Notification{},
		&domain.Conversation{},
		&domain.Message{},
	); err != nil {
		return err
	}
	return applyBookingConstraint(db)
}

// Tables lists the schema in migration order, for status reporting.
func Tables() []string {
	return []string{
		"users",
		"properties",
		"blocked_dates",
		"bookings",
		"payments",
		"reviews",
		"notifications",
		"conversations",
		"messages",
	}
}

const bookingConstraintName = "idx_no_double_booking"

func applyBookingConstraint(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return err
	}

	var cnt int64
	if err := db.Raw(
		"SELECT COUNT(1) FROM pg_constraint WHERE conname = ?", bookingConstraintName,
	).Scan(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}

	return db.Exec(`
ALTER TABLE bookings ADD CONSTRAINT ` + bookingConstraintName + `
EXCLUDE USING gist (
  property_id WITH =,
  tstzrange(check_in_date, check_out_date, '[)') WITH &&
) WHERE (status NOT IN ('cancelled', 'completed'))
`).Error
}
