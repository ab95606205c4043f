package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"rentara/internal/config"
	"rentara/internal/database"
	"rentara/internal/domain"
	"rentara/internal/gateway"
	"rentara/internal/middleware"
	"rentara/internal/modules/admin"
	"rentara/internal/modules/auth"
	"rentara/internal/modules/blockdate"
	"rentara/internal/modules/booking"
	"rentara/internal/modules/message"
	"rentara/internal/modules/notification"
	"rentara/internal/modules/payment"
	"rentara/internal/modules/property"
	"rentara/internal/modules/review"
	jwtsvc "rentara/internal/pkg/jwt"
	"rentara/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	blockedRepo := repository.NewBlockedDateRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	validateToken := func(token string) (int64, string, error) {
		claims, err := j.ValidateToken(token)
		if err != nil {
			return 0, "", err
		}
		return claims.UserID, claims.Role, nil
	}

	notifService := notification.NewService(notificationRepo, userRepo, notification.NewLogMailer())

	authService := auth.NewService(userRepo, j)
	propertyService := property.NewService(propertyRepo, cfg.Currency)
	bookingService := booking.NewService(bookingRepo, blockedRepo, propertyRepo, notifService)
	blockService := blockdate.NewService(blockedRepo, bookingRepo, propertyRepo)
	reviewService := review.NewService(reviewRepo, bookingRepo, propertyRepo)
	adminService := admin.NewService(userRepo, propertyRepo, bookingRepo, paymentRepo)

	gateways := buildGateways(cfg)
	paymentService := payment.NewService(paymentRepo, bookingRepo, propertyRepo, notifService, gateways, cfg.Currency)

	hub := message.NewHub()
	defer hub.Close()
	messageService := message.NewService(messageRepo, propertyRepo, hub)

	authHandler := auth.NewHandler(authService)
	propertyHandler := property.NewHandler(propertyService)
	bookingHandler := booking.NewHandler(bookingService)
	blockHandler := blockdate.NewHandler(blockService)
	paymentHandler := payment.NewHandler(paymentService)
	reviewHandler := review.NewHandler(reviewService)
	notifHandler := notification.NewHandler(notifService)
	messageHandler := message.NewHandler(messageService, hub, validateToken)
	adminHandler := admin.NewHandler(adminService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublic(v1)
		propertyHandler.RegisterPublic(v1)
		reviewHandler.RegisterPublic(v1)
		paymentHandler.RegisterWebhook(v1)
		messageHandler.RegisterWS(v1)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(validateToken))
		{
			authHandler.RegisterRoutes(protected)
			propertyHandler.RegisterRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			blockHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
			reviewHandler.RegisterRoutes(protected)
			notifHandler.RegisterRoutes(protected)
			messageHandler.RegisterRoutes(protected)

			adminOnly := protected.Group("/")
			adminOnly.Use(middleware.AdminOnly())
			{
				adminHandler.RegisterRoutes(adminOnly)
			}
		}
	}

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}

// buildGateways picks the payment rails. Mobile money goes through the MTN
// client when credentials are configured, otherwise everything runs on the
// in-process mock, which is all the card and bank rails have.
func buildGateways(cfg *config.RuntimeConfig) map[domain.PaymentMethod]gateway.Gateway {
	mock := gateway.NewMock()
	gateways := map[domain.PaymentMethod]gateway.Gateway{
		domain.MethodMobileMoney:  mock,
		domain.MethodCreditCard:   mock,
		domain.MethodBankTransfer: mock,
	}

	if cfg.MomoSubscriptionKey != "" && cfg.MomoUserID != "" && cfg.MomoAPIKey != "" {
		gateways[domain.MethodMobileMoney] = gateway.NewMomoClient(gateway.MomoConfig{
			BaseURL:         cfg.MomoBaseURL,
			TargetEnv:       cfg.MomoEnv,
			SubscriptionKey: cfg.MomoSubscriptionKey,
			UserID:          cfg.MomoUserID,
			APIKey:          cfg.MomoAPIKey,
			Timeout:         cfg.GatewayTimeout,
		})
	}
	return gateways
}
