package main

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/joho/godotenv"

	"rentara/internal/config"
	"rentara/internal/database"
	"rentara/internal/domain"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	// Cleanup old data (child tables first to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM messages")
	db.Exec("DELETE FROM conversations")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM reviews")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM blocked_dates")
	db.Exec("DELETE FROM properties")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        "admin@rentara.rw",
		PasswordHash: string(adminHash),
		Role:         domain.RoleAdmin,
		Name:         "Platform Admin",
	}
	db.Create(&admin)
	log.Println("Admin created: admin@rentara.rw / admin123")

	tenants := []domain.User{}
	tenantEmails := []string{"alice@example.com", "jean@example.com", "keza@example.com"}
	for i, email := range tenantEmails {
		hash, _ := bcrypt.GenerateFromPassword([]byte("tenant123"), bcrypt.DefaultCost)
		t := domain.User{
			Email:        email,
			PasswordHash: string(hash),
			Role:         domain.RoleTenant,
			Name:         fmt.Sprintf("Tenant %d", i+1),
			Phone:        fmt.Sprintf("2507881234%02d", i+10),
		}
		db.Create(&t)
		tenants = append(tenants, t)
	}

	landlords := []domain.User{}
	landlordEmails := []string{"eric@rentara.rw", "diane@rentara.rw"}
	for i, email := range landlordEmails {
		hash, _ := bcrypt.GenerateFromPassword([]byte("landlord123"), bcrypt.DefaultCost)
		l := domain.User{
			Email:        email,
			PasswordHash: string(hash),
			Role:         domain.RoleLandlord,
			Name:         fmt.Sprintf("Landlord %d", i+1),
			Phone:        fmt.Sprintf("2507899876%02d", i+10),
		}
		db.Create(&l)
		landlords = append(landlords, l)
	}

	log.Println("Creating properties...")

	properties := []domain.Property{
		{
			LandlordID:   landlords[0].ID,
			Title:        "Sunny two-bedroom in Kiyovu",
			Description:  "Quiet street, close to the city centre.",
			PropertyType: domain.PropertyApartment,
			Address:      "KN 31 St",
			City:         "Kigali",
			Price:        45000,
			Currency:     cfg.Currency,
			Bedrooms:     2,
			Bathrooms:    1,
			MaxGuests:    4,
			IsAvailable:  true,
			IsVerified:   true,
		},
		{
			LandlordID:   landlords[0].ID,
			Title:        "Garden house in Kimihurura",
			Description:  "Family house with a large garden.",
			PropertyType: domain.PropertyHouse,
			Address:      "KG 9 Ave",
			City:         "Kigali",
			Price:        80000,
			Currency:     cfg.Currency,
			Bedrooms:     4,
			Bathrooms:    2,
			MaxGuests:    8,
			IsAvailable:  true,
			IsVerified:   true,
		},
		{
			LandlordID:   landlords[1].ID,
			Title:        "Lakeside studio in Rubavu",
			Description:  "Steps from the lake shore.",
			PropertyType: domain.PropertyStudio,
			City:         "Rubavu",
			Price:        30000,
			Currency:     cfg.Currency,
			Bedrooms:     1,
			Bathrooms:    1,
			MaxGuests:    2,
			IsAvailable:  true,
			IsVerified:   false,
		},
	}
	for i := range properties {
		db.Create(&properties[i])
	}

	log.Println("Creating bookings...")

	today := time.Now().UTC().Truncate(24 * time.Hour)
	booking := domain.Booking{
		PropertyID:    properties[0].ID,
		UserID:        tenants[0].ID,
		CheckInDate:   today.AddDate(0, 0, 7),
		CheckOutDate:  today.AddDate(0, 0, 10),
		Amount:        3 * properties[0].Price,
		Guests:        domain.GuestCount{Adults: 2},
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.BookingPaymentPending,
	}
	db.Create(&booking)
	db.Model(&domain.Property{}).Where("id = ?", properties[0].ID).
		Update("total_bookings", 1)

	block := domain.BlockedDate{
		PropertyID: properties[1].ID,
		StartDate:  today.AddDate(0, 0, 14),
		EndDate:    today.AddDate(0, 0, 20),
		Reason:     "maintenance",
		BlockedBy:  landlords[0].ID,
	}
	db.Create(&block)

	log.Println("Seed complete.")
	log.Println("Tenants: alice@example.com / tenant123 (and friends)")
	log.Println("Landlords: eric@rentara.rw / landlord123, diane@rentara.rw / landlord123")
}
