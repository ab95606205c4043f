package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rentara/internal/database"
	"rentara/internal/domain"
	"rentara/internal/gateway"
	"rentara/internal/middleware"
	"rentara/internal/modules/admin"
	"rentara/internal/modules/auth"
	"rentara/internal/modules/blockdate"
	"rentara/internal/modules/booking"
	"rentara/internal/modules/notification"
	"rentara/internal/modules/payment"
	"rentara/internal/modules/property"
	"rentara/internal/modules/review"
	jwtsvc "rentara/internal/pkg/jwt"
	"rentara/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type E2ETestSuite struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *jwtsvc.Service
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Count   int                    `json:"count,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db), "Failed to migrate test database")

	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	blockedRepo := repository.NewBlockedDateRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	validateToken := func(token string) (int64, string, error) {
		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			return 0, "", err
		}
		return claims.UserID, claims.Role, nil
	}

	notifService := notification.NewService(notificationRepo, userRepo, notification.NewLogMailer())

	authService := auth.NewService(userRepo, jwtService)
	propertyService := property.NewService(propertyRepo, "RWF")
	bookingService := booking.NewService(bookingRepo, blockedRepo, propertyRepo, notifService)
	blockService := blockdate.NewService(blockedRepo, bookingRepo, propertyRepo)
	reviewService := review.NewService(reviewRepo, bookingRepo, propertyRepo)
	adminService := admin.NewService(userRepo, propertyRepo, bookingRepo, paymentRepo)

	mock := gateway.NewMock()
	gateways := map[domain.PaymentMethod]gateway.Gateway{
		domain.MethodMobileMoney:  mock,
		domain.MethodCreditCard:   mock,
		domain.MethodBankTransfer: mock,
	}
	paymentService := payment.NewService(paymentRepo, bookingRepo, propertyRepo, notifService, gateways, "RWF")

	authHandler := auth.NewHandler(authService)
	propertyHandler := property.NewHandler(propertyService)
	bookingHandler := booking.NewHandler(bookingService)
	blockHandler := blockdate.NewHandler(blockService)
	paymentHandler := payment.NewHandler(paymentService)
	reviewHandler := review.NewHandler(reviewService)
	notifHandler := notification.NewHandler(notifService)
	adminHandler := admin.NewHandler(adminService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublic(v1)
		propertyHandler.RegisterPublic(v1)
		reviewHandler.RegisterPublic(v1)
		paymentHandler.RegisterWebhook(v1)

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

			adminOnly := protected.Group("/")
			adminOnly.Use(middleware.AdminOnly())
			{
				adminHandler.RegisterRoutes(adminOnly)
			}
		}
	}

	return &E2ETestSuite{router: r, db: db, jwt: jwtService}
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	t.Helper()
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return &resp
}

// registerAndLogin creates a user through the API and returns their token.
func (s *E2ETestSuite) registerAndLogin(t *testing.T, name, email, role string) string {
	t.Helper()

	w := s.makeRequest(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"name":     name,
		"email":    email,
		"password": "password123",
		"role":     role,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, "register failed: %s", w.Body.String())

	w = s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	resp := parseResponse(t, w)
	token, ok := resp.Data["access_token"].(string)
	require.True(t, ok, "no access_token in response")
	return token
}

// adminToken provisions an admin directly; registration never grants admin.
func (s *E2ETestSuite) adminToken(t *testing.T) string {
	t.Helper()

	u := &domain.User{
		Name:         "Admin",
		Email:        fmt.Sprintf("admin-%d@test.local", time.Now().UnixNano()),
		PasswordHash: "$2a$10$dummy",
		Role:         domain.RoleAdmin,
	}
	require.NoError(t, s.db.Create(u).Error)

	token, err := s.jwt.GenerateToken(u.ID, string(domain.RoleAdmin))
	require.NoError(t, err)
	return token
}

func (s *E2ETestSuite) createVerifiedProperty(t *testing.T, landlordToken, adminToken string, price float64) int64 {
	t.Helper()

	w := s.makeRequest(t, http.MethodPost, "/api/v1/properties", gin.H{
		"title":         "Test apartment",
		"property_type": "apartment",
		"city":          "Kigali",
		"price":         price,
		"max_guests":    4,
	}, landlordToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	prop := resp.Data["property"].(map[string]interface{})
	id := int64(prop["id"].(float64))

	w = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/properties/%d/verify", id), gin.H{}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return id
}

func futureDay(offset int) string {
	return time.Now().UTC().AddDate(0, 0, offset).Format("2006-01-02") + "T00:00:00Z"
}

func TestBookingLifecycleFlow(t *testing.T) {
	s := setupTestSuite(t)

	landlord := s.registerAndLogin(t, "Eric", "eric@test.local", "landlord")
	tenant := s.registerAndLogin(t, "Alice", "alice@test.local", "tenant")
	adminTok := s.adminToken(t)

	propID := s.createVerifiedProperty(t, landlord, adminTok, 50)

	// tenant books three nights
	w := s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(7),
		"check_out_date": futureDay(10),
		"guests":         gin.H{"adults": 2},
	}, tenant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	b := resp.Data["booking"].(map[string]interface{})
	bookingID := int64(b["id"].(float64))
	assert.Equal(t, "pending", b["status"])
	assert.Equal(t, 150.0, b["amount"])

	// a second tenant cannot take an overlapping range
	other := s.registerAndLogin(t, "Jean", "jean@test.local", "tenant")
	w = s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(9),
		"check_out_date": futureDay(12),
		"guests":         gin.H{"adults": 1},
	}, other)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "BOOKING_CONFLICT", parseResponse(t, w).Error.Code)

	// back-to-back is fine: check-in on the existing check-out day
	w = s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(10),
		"check_out_date": futureDay(12),
		"guests":         gin.H{"adults": 1},
	}, other)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// landlord confirms, then completes
	w = s.makeRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/confirm", bookingID), nil, landlord)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.makeRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/complete", bookingID), nil, landlord)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// completing again is rejected as an invalid transition
	w = s.makeRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/complete", bookingID), nil, landlord)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_STATE", parseResponse(t, w).Error.Code)

	// the completed booking released its dates
	w = s.makeRequest(t, http.MethodGet,
		fmt.Sprintf("/api/v1/properties/%d/availability?check_in=%s&check_out=%s",
			propID, futureDay(7)[:10], futureDay(10)[:10]), nil, tenant)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, parseResponse(t, w).Data["available"])

	// tenant can now review the property
	w = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/properties/%d/reviews", propID), gin.H{
		"rating":  5,
		"comment": "Great stay",
	}, tenant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// but only once
	w = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/properties/%d/reviews", propID), gin.H{
		"rating": 4,
	}, tenant)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancellationFlow(t *testing.T) {
	s := setupTestSuite(t)

	landlord := s.registerAndLogin(t, "Eric", "eric2@test.local", "landlord")
	tenant := s.registerAndLogin(t, "Alice", "alice2@test.local", "tenant")
	adminTok := s.adminToken(t)
	propID := s.createVerifiedProperty(t, landlord, adminTok, 40)

	w := s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(5),
		"check_out_date": futureDay(8),
		"guests":         gin.H{"adults": 1},
	}, tenant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookingID := int64(parseResponse(t, w).Data["booking"].(map[string]interface{})["id"].(float64))

	// stranger cannot cancel
	stranger := s.registerAndLogin(t, "Mallory", "mallory@test.local", "tenant")
	w = s.makeRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), gin.H{
		"reason": "not mine",
	}, stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// tenant cancels with a reason
	w = s.makeRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), gin.H{
		"reason": "change of plans",
	}, tenant)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	b := parseResponse(t, w).Data["booking"].(map[string]interface{})
	assert.Equal(t, "cancelled", b["status"])
	assert.Equal(t, "change of plans", b["cancellation_reason"])

	// cancelling twice is rejected
	w = s.makeRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), gin.H{}, tenant)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// the dates are free again
	w = s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(5),
		"check_out_date": futureDay(8),
		"guests":         gin.H{"adults": 1},
	}, stranger)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestPaymentFlow(t *testing.T) {
	s := setupTestSuite(t)

	landlord := s.registerAndLogin(t, "Eric", "eric3@test.local", "landlord")
	tenant := s.registerAndLogin(t, "Alice", "alice3@test.local", "tenant")
	adminTok := s.adminToken(t)
	propID := s.createVerifiedProperty(t, landlord, adminTok, 100)

	w := s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(7),
		"check_out_date": futureDay(10),
		"guests":         gin.H{"adults": 2},
	}, tenant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookingID := int64(parseResponse(t, w).Data["booking"].(map[string]interface{})["id"].(float64))

	// card payment settles synchronously
	w = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/payments", bookingID), gin.H{
		"payment_method": "credit_card",
		"payment_details": gin.H{
			"card_number": "4111111111111111",
			"expiry":      "12/27",
			"cvv":         "123",
		},
	}, tenant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := parseResponse(t, w).Data["payment"].(map[string]interface{})
	assert.Equal(t, "completed", p["status"])
	assert.Equal(t, 300.0, p["amount"])

	// the booking projection flips to paid
	w = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil, tenant)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	b := parseResponse(t, w).Data["booking"].(map[string]interface{})
	assert.Equal(t, "paid", b["payment_status"])

	// a second payment against a settled booking is rejected
	w = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/payments", bookingID), gin.H{
		"payment_method": "credit_card",
		"payment_details": gin.H{
			"card_number": "4111111111111111",
			"expiry":      "12/27",
			"cvv":         "123",
		},
	}, tenant)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// admin refunds half
	paymentID := int64(p["id"].(float64))
	w = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/refund", paymentID), gin.H{
		"amount": 150.0,
		"reason": "goodwill",
	}, adminTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p = parseResponse(t, w).Data["payment"].(map[string]interface{})
	assert.Equal(t, "partially_refunded", p["status"])

	// tenants cannot refund
	w = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/refund", paymentID), gin.H{}, tenant)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMobileMoneyWebhookFlow(t *testing.T) {
	s := setupTestSuite(t)

	landlord := s.registerAndLogin(t, "Eric", "eric4@test.local", "landlord")
	tenant := s.registerAndLogin(t, "Alice", "alice4@test.local", "tenant")
	adminTok := s.adminToken(t)
	propID := s.createVerifiedProperty(t, landlord, adminTok, 60)

	w := s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(7),
		"check_out_date": futureDay(9),
		"guests":         gin.H{"adults": 1},
	}, tenant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookingID := int64(parseResponse(t, w).Data["booking"].(map[string]interface{})["id"].(float64))

	// mobile money starts pending
	w = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/payments", bookingID), gin.H{
		"payment_method": "mobile_money",
		"payment_details": gin.H{
			"phone": "250788123456",
		},
	}, tenant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := parseResponse(t, w).Data["payment"].(map[string]interface{})
	assert.Equal(t, "pending", p["status"])
	txnID := p["transaction_id"].(string)

	// gateway callback confirms it; no auth header on webhooks
	w = s.makeRequest(t, http.MethodPost, "/api/v1/payments/webhook", gin.H{
		"transaction_id": txnID,
		"status":         "SUCCESSFUL",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// duplicate delivery is harmless
	w = s.makeRequest(t, http.MethodPost, "/api/v1/payments/webhook", gin.H{
		"transaction_id": txnID,
		"status":         "SUCCESSFUL",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// a late failure callback cannot regress the payment
	w = s.makeRequest(t, http.MethodPost, "/api/v1/payments/webhook", gin.H{
		"transaction_id": txnID,
		"status":         "FAILED",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.makeRequest(t, http.MethodGet, "/api/v1/payments/verify/"+txnID, nil, tenant)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p = parseResponse(t, w).Data["payment"].(map[string]interface{})
	assert.Equal(t, "completed", p["status"])

	w = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil, tenant)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	b := parseResponse(t, w).Data["booking"].(map[string]interface{})
	assert.Equal(t, "paid", b["payment_status"])
}

func TestBlockedDatesFlow(t *testing.T) {
	s := setupTestSuite(t)

	landlord := s.registerAndLogin(t, "Eric", "eric5@test.local", "landlord")
	tenant := s.registerAndLogin(t, "Alice", "alice5@test.local", "tenant")
	adminTok := s.adminToken(t)
	propID := s.createVerifiedProperty(t, landlord, adminTok, 50)

	// landlord blocks a maintenance window
	w := s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/properties/%d/blocked-dates", propID), gin.H{
		"start_date": futureDay(14),
		"end_date":   futureDay(16),
		"reason":     "maintenance",
	}, landlord)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// tenants cannot block
	w = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/properties/%d/blocked-dates", propID), gin.H{
		"start_date": futureDay(20),
		"end_date":   futureDay(22),
	}, tenant)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// a booking that merely touches the blocked window is refused
	w = s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(10),
		"check_out_date": futureDay(14),
		"guests":         gin.H{"adults": 1},
	}, tenant)
	assert.Equal(t, http.StatusConflict, w.Code)

	// fully clear of the window works
	w = s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(10),
		"check_out_date": futureDay(13),
		"guests":         gin.H{"adults": 1},
	}, tenant)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestAdminEndpoints(t *testing.T) {
	s := setupTestSuite(t)

	tenant := s.registerAndLogin(t, "Alice", "alice6@test.local", "tenant")
	adminTok := s.adminToken(t)

	// admin endpoints are closed to non-admins
	w := s.makeRequest(t, http.MethodGet, "/api/v1/admin/dashboard", nil, tenant)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.makeRequest(t, http.MethodGet, "/api/v1/admin/dashboard", nil, adminTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := parseResponse(t, w)
	assert.GreaterOrEqual(t, resp.Data["total_users"].(float64), 1.0)

	// promote the tenant to landlord
	var user domain.User
	require.NoError(t, s.db.Where("email = ?", "alice6@test.local").First(&user).Error)

	w = s.makeRequest(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%d/role", user.ID), gin.H{
		"role": "landlord",
	}, adminTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	u := parseResponse(t, w).Data["user"].(map[string]interface{})
	assert.Equal(t, "landlord", u["role"])
}

func TestUnverifiedPropertyHiddenAndUnbookable(t *testing.T) {
	s := setupTestSuite(t)

	landlord := s.registerAndLogin(t, "Eric", "eric7@test.local", "landlord")
	tenant := s.registerAndLogin(t, "Alice", "alice7@test.local", "tenant")

	w := s.makeRequest(t, http.MethodPost, "/api/v1/properties", gin.H{
		"title":         "Unverified listing",
		"property_type": "studio",
		"city":          "Kigali",
		"price":         30,
	}, landlord)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	propID := int64(parseResponse(t, w).Data["property"].(map[string]interface{})["id"].(float64))

	// hidden from the public catalogue
	w = s.makeRequest(t, http.MethodGet, "/api/v1/properties", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, parseResponse(t, w).Count)

	// and not bookable
	w = s.makeRequest(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id":    propID,
		"check_in_date":  futureDay(7),
		"check_out_date": futureDay(9),
		"guests":         gin.H{"adults": 1},
	}, tenant)
	assert.Equal(t, http.StatusConflict, w.Code)
}
