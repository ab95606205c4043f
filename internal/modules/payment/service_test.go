package payment

import (
	"context"
	"testing"
	"time"

	"rentara/internal/domain"
	"rentara/internal/gateway"
	"rentara/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// Mock repositories

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	if p != nil && args.Error(0) == nil {
		p.ID = 777
	}
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListRefunds(ctx context.Context) ([]domain.Payment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ApplyStatus(ctx context.Context, transactionID string, status domain.PaymentStatus, rawResponse string) (*domain.Payment, bool, error) {
	args := m.Called(ctx, transactionID, status, rawResponse)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Payment), args.Bool(1), args.Error(2)
}

func (m *MockPaymentRepository) MarkRefunded(ctx context.Context, id int64, status domain.PaymentStatus, amount float64, reason string, at time.Time) error {
	args := m.Called(ctx, id, status, amount, reason, at)
	return args.Error(0)
}

func (m *MockPaymentRepository) StatsByStatus(ctx context.Context, landlordID int64) ([]repository.PaymentStatusStat, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.PaymentStatusStat), args.Error(1)
}

func (m *MockPaymentRepository) StatsByMethod(ctx context.Context, landlordID int64) ([]repository.PaymentMethodStat, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.PaymentMethodStat), args.Error(1)
}

type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingStore) UpdatePaymentStatus(ctx context.Context, id int64, status domain.BookingPaymentStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockPropertyReader struct {
	mock.Mock
}

func (m *MockPropertyReader) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) NotifyPaymentCompleted(ctx context.Context, p *domain.Payment, b *domain.Booking) error {
	args := m.Called(ctx, p, b)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyPaymentFailed(ctx context.Context, p *domain.Payment, b *domain.Booking) error {
	args := m.Called(ctx, p, b)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyPaymentRefunded(ctx context.Context, p *domain.Payment, amount float64) error {
	args := m.Called(ctx, p, amount)
	return args.Error(0)
}

// failingGateway simulates a transport-level outage.
type failingGateway struct{}

func (failingGateway) RequestPayment(context.Context, gateway.Request) (*gateway.Result, error) {
	return nil, gateway.ErrUnavailable
}

func (failingGateway) QueryStatus(context.Context, string) (*gateway.Result, error) {
	return nil, gateway.ErrUnavailable
}

func testBooking() *domain.Booking {
	return &domain.Booking{
		ID:            5,
		PropertyID:    10,
		UserID:        1,
		Amount:        300,
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.BookingPaymentPending,
	}
}

func newTestService(gw gateway.Gateway) (*Service, *MockPaymentRepository, *MockBookingStore, *MockPropertyReader, *MockNotificationSender) {
	payments := new(MockPaymentRepository)
	bookings := new(MockBookingStore)
	properties := new(MockPropertyReader)
	notifs := new(MockNotificationSender)
	gateways := map[domain.PaymentMethod]gateway.Gateway{
		domain.MethodMobileMoney:  gw,
		domain.MethodCreditCard:   gw,
		domain.MethodBankTransfer: gw,
	}
	svc := NewService(payments, bookings, properties, notifs, gateways, "RWF")
	return svc, payments, bookings, properties, notifs
}

func TestProcessPayment_CardCompleted(t *testing.T) {
	svc, payments, bookings, _, notifs := newTestService(gateway.NewMock())

	b := testBooking()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{}, nil).Once()
	payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)

	// after create the projection sees one completed payment covering it all
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{
		{BookingID: 5, Amount: 300, Status: domain.PaymentCompleted},
	}, nil).Once()
	bookings.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.BookingPaymentPaid).Return(b, nil)
	notifs.On("NotifyPaymentCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	p, err := svc.Process(context.Background(), ProcessPaymentRequest{
		BookingID: 5,
		UserID:    1,
		Method:    domain.MethodCreditCard,
		Details:   gateway.PayerDetails{CardNumber: "4111111111111111", Expiry: "12/27", CVV: "123"},
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, p.Status)
	assert.Equal(t, 300.0, p.Amount)
	assert.NotEmpty(t, p.TransactionID)
	notifs.AssertExpectations(t)
}

func TestProcessPayment_MobileMoneyPending(t *testing.T) {
	svc, payments, bookings, _, _ := newTestService(gateway.NewMock())

	b := testBooking()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{}, nil).Once()
	payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{
		{BookingID: 5, Amount: 300, Status: domain.PaymentPending},
	}, nil).Once()

	p, err := svc.Process(context.Background(), ProcessPaymentRequest{
		BookingID: 5,
		UserID:    1,
		Method:    domain.MethodMobileMoney,
		Details:   gateway.PayerDetails{Phone: "250788123456"},
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, p.Status)
	// projection unchanged, no UpdatePaymentStatus call expected
	bookings.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPayment_DetailValidation(t *testing.T) {
	svc, _, _, _, _ := newTestService(gateway.NewMock())

	cases := []ProcessPaymentRequest{
		{BookingID: 5, UserID: 1, Method: domain.MethodMobileMoney},
		{BookingID: 5, UserID: 1, Method: domain.MethodCreditCard, Details: gateway.PayerDetails{CardNumber: "4111111111111111"}},
		{BookingID: 5, UserID: 1, Method: domain.MethodBankTransfer},
		{BookingID: 5, UserID: 1, Method: "cash"},
	}
	for _, req := range cases {
		_, err := svc.Process(context.Background(), req)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestProcessPayment_CancelledBooking(t *testing.T) {
	svc, _, bookings, _, _ := newTestService(gateway.NewMock())

	b := testBooking()
	b.Status = domain.BookingCancelled
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)

	_, err := svc.Process(context.Background(), ProcessPaymentRequest{
		BookingID: 5,
		UserID:    1,
		Method:    domain.MethodCreditCard,
		Details:   gateway.PayerDetails{CardNumber: "4111111111111111", Expiry: "12/27", CVV: "123"},
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestProcessPayment_NotPayer(t *testing.T) {
	svc, _, bookings, _, _ := newTestService(gateway.NewMock())

	bookings.On("GetByID", mock.Anything, int64(5)).Return(testBooking(), nil)

	_, err := svc.Process(context.Background(), ProcessPaymentRequest{
		BookingID: 5,
		UserID:    99,
		Method:    domain.MethodCreditCard,
		Details:   gateway.PayerDetails{CardNumber: "4111111111111111", Expiry: "12/27", CVV: "123"},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestProcessPayment_AdminPaysOnBehalf(t *testing.T) {
	svc, payments, bookings, _, notifs := newTestService(gateway.NewMock())

	b := testBooking()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{}, nil).Once()
	payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{
		{BookingID: 5, Amount: 300, Status: domain.PaymentCompleted},
	}, nil).Once()
	bookings.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.BookingPaymentPaid).Return(b, nil)
	notifs.On("NotifyPaymentCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// caller 99 is not the tenant on the booking but carries the admin role
	p, err := svc.Process(context.Background(), ProcessPaymentRequest{
		BookingID:  5,
		UserID:     99,
		CallerRole: domain.RoleAdmin,
		Method:     domain.MethodCreditCard,
		Details:    gateway.PayerDetails{CardNumber: "4111111111111111", Expiry: "12/27", CVV: "123"},
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, p.Status)
	assert.Equal(t, int64(99), p.UserID)
}

func TestProcessPayment_GatewayDownRecordsFailure(t *testing.T) {
	svc, payments, bookings, _, _ := newTestService(failingGateway{})

	b := testBooking()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{}, nil).Once()

	var recorded *domain.Payment
	payments.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		recorded = args.Get(1).(*domain.Payment)
	}).Return(nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{
		{BookingID: 5, Amount: 300, Status: domain.PaymentFailed},
	}, nil).Once()
	bookings.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.BookingPaymentFailed).Return(b, nil)

	_, err := svc.Process(context.Background(), ProcessPaymentRequest{
		BookingID: 5,
		UserID:    1,
		Method:    domain.MethodCreditCard,
		Details:   gateway.PayerDetails{CardNumber: "4111111111111111", Expiry: "12/27", CVV: "123"},
	})

	assert.ErrorIs(t, err, ErrGateway)
	// the attempt is still on record
	assert.NotNil(t, recorded)
	assert.Equal(t, domain.PaymentFailed, recorded.Status)
	assert.NotEmpty(t, recorded.FailureReason)
}

func TestProcessPayment_DeclinedCard(t *testing.T) {
	svc, payments, bookings, _, notifs := newTestService(gateway.NewMock())

	b := testBooking()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{}, nil).Once()
	payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{
		{BookingID: 5, Amount: 300, Status: domain.PaymentFailed},
	}, nil).Once()
	bookings.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.BookingPaymentFailed).Return(b, nil)
	notifs.On("NotifyPaymentFailed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	p, err := svc.Process(context.Background(), ProcessPaymentRequest{
		BookingID: 5,
		UserID:    1,
		Method:    domain.MethodCreditCard,
		Details:   gateway.PayerDetails{CardNumber: gateway.MockDeclinedCard, Expiry: "12/27", CVV: "123"},
	})

	// a decline is a processed payment, not a gateway error
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, p.Status)
	notifs.AssertExpectations(t)
}

func TestProcessPayment_FullyPaidBooking(t *testing.T) {
	svc, payments, bookings, _, _ := newTestService(gateway.NewMock())

	b := testBooking()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{
		{BookingID: 5, Amount: 300, Status: domain.PaymentCompleted},
	}, nil)

	_, err := svc.Process(context.Background(), ProcessPaymentRequest{
		BookingID: 5,
		UserID:    1,
		Method:    domain.MethodCreditCard,
		Details:   gateway.PayerDetails{CardNumber: "4111111111111111", Expiry: "12/27", CVV: "123"},
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestWebhook_CompletesPendingPayment(t *testing.T) {
	svc, payments, bookings, _, notifs := newTestService(gateway.NewMock())

	p := &domain.Payment{ID: 7, BookingID: 5, UserID: 1, Amount: 300, Method: domain.MethodMobileMoney, TransactionID: "txn_1", Status: domain.PaymentCompleted}
	payments.On("ApplyStatus", mock.Anything, "txn_1", domain.PaymentCompleted, "ok").Return(p, true, nil)

	b := testBooking()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{*p}, nil)
	bookings.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.BookingPaymentPaid).Return(b, nil)
	notifs.On("NotifyPaymentCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := svc.HandleWebhook(context.Background(), WebhookPayload{TransactionID: "txn_1", Status: "SUCCESSFUL", Message: "ok"})
	assert.NoError(t, err)
	notifs.AssertExpectations(t)
}

func TestWebhook_DuplicateDeliveryIsNoop(t *testing.T) {
	svc, payments, bookings, _, notifs := newTestService(gateway.NewMock())

	p := &domain.Payment{ID: 7, BookingID: 5, TransactionID: "txn_1", Status: domain.PaymentCompleted}
	payments.On("ApplyStatus", mock.Anything, "txn_1", domain.PaymentCompleted, "").Return(p, false, nil)

	err := svc.HandleWebhook(context.Background(), WebhookPayload{TransactionID: "txn_1", Status: "completed"})
	assert.NoError(t, err)
	bookings.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
	notifs.AssertNotCalled(t, "NotifyPaymentCompleted", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_LateFailureCannotRegress(t *testing.T) {
	svc, payments, bookings, _, _ := newTestService(gateway.NewMock())

	// the repository refuses the downgrade; the already-completed row comes back unchanged
	p := &domain.Payment{ID: 7, BookingID: 5, TransactionID: "txn_1", Status: domain.PaymentCompleted}
	payments.On("ApplyStatus", mock.Anything, "txn_1", domain.PaymentFailed, "").Return(p, false, nil)

	err := svc.HandleWebhook(context.Background(), WebhookPayload{TransactionID: "txn_1", Status: "FAILED"})
	assert.NoError(t, err)
	bookings.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_UnknownTransaction(t *testing.T) {
	svc, payments, _, _, _ := newTestService(gateway.NewMock())

	payments.On("ApplyStatus", mock.Anything, "txn_missing", domain.PaymentCompleted, "").Return(nil, false, gorm.ErrRecordNotFound)

	err := svc.HandleWebhook(context.Background(), WebhookPayload{TransactionID: "txn_missing", Status: "completed"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefund_FullAndPartial(t *testing.T) {
	svc, payments, bookings, _, notifs := newTestService(gateway.NewMock())

	b := testBooking()

	// partial refund of 100 out of 300
	p := &domain.Payment{ID: 7, BookingID: 5, UserID: 1, Amount: 300, Status: domain.PaymentCompleted}
	payments.On("GetByID", mock.Anything, int64(7)).Return(p, nil).Once()
	payments.On("MarkRefunded", mock.Anything, int64(7), domain.PaymentPartiallyRefunded, 100.0, "overcharge", mock.Anything).Return(nil)
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{
		{BookingID: 5, Amount: 300, Status: domain.PaymentPartiallyRefunded, RefundAmount: ptr(100.0)},
	}, nil).Once()
	bookings.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.BookingPaymentPartiallyPaid).Return(b, nil)
	notifs.On("NotifyPaymentRefunded", mock.Anything, mock.Anything, 100.0).Return(nil)

	got, err := svc.Refund(context.Background(), 7, 99, domain.RoleAdmin, RefundRequest{Amount: 100, Reason: "overcharge"})
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentPartiallyRefunded, got.Status)
	assert.Equal(t, 100.0, *got.RefundAmount)

	// refunding the remainder flips to fully refunded
	payments.On("GetByID", mock.Anything, int64(7)).Return(got, nil).Once()
	payments.On("MarkRefunded", mock.Anything, int64(7), domain.PaymentRefunded, 300.0, "", mock.Anything).Return(nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{
		{BookingID: 5, Amount: 300, Status: domain.PaymentRefunded, RefundAmount: ptr(300.0)},
	}, nil).Once()
	bookings.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.BookingPaymentRefunded).Return(b, nil)
	notifs.On("NotifyPaymentRefunded", mock.Anything, mock.Anything, 200.0).Return(nil)

	got, err = svc.Refund(context.Background(), 7, 99, domain.RoleAdmin, RefundRequest{})
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, got.Status)
	assert.Equal(t, 300.0, *got.RefundAmount)
}

func TestRefund_OverRefundRejected(t *testing.T) {
	svc, payments, _, _, _ := newTestService(gateway.NewMock())

	p := &domain.Payment{ID: 7, BookingID: 5, Amount: 300, Status: domain.PaymentCompleted}
	payments.On("GetByID", mock.Anything, int64(7)).Return(p, nil)

	_, err := svc.Refund(context.Background(), 7, 99, domain.RoleAdmin, RefundRequest{Amount: 400})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRefund_PendingPaymentRejected(t *testing.T) {
	svc, payments, _, _, _ := newTestService(gateway.NewMock())

	p := &domain.Payment{ID: 7, BookingID: 5, Amount: 300, Status: domain.PaymentPending}
	payments.On("GetByID", mock.Anything, int64(7)).Return(p, nil)

	_, err := svc.Refund(context.Background(), 7, 99, domain.RoleAdmin, RefundRequest{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRefund_LandlordAuthorization(t *testing.T) {
	svc, payments, bookings, properties, notifs := newTestService(gateway.NewMock())

	b := testBooking()
	p := &domain.Payment{ID: 7, BookingID: 5, UserID: 1, Amount: 300, Status: domain.PaymentCompleted}
	payments.On("GetByID", mock.Anything, int64(7)).Return(p, nil)
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	properties.On("GetByID", mock.Anything, int64(10)).Return(&domain.Property{ID: 10, LandlordID: 20}, nil)

	// a landlord who does not own the property is refused
	_, err := svc.Refund(context.Background(), 7, 99, domain.RoleLandlord, RefundRequest{})
	assert.ErrorIs(t, err, ErrForbidden)

	// the owning landlord may refund
	payments.On("MarkRefunded", mock.Anything, int64(7), domain.PaymentRefunded, 300.0, "", mock.Anything).Return(nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{
		{BookingID: 5, Amount: 300, Status: domain.PaymentRefunded, RefundAmount: ptr(300.0)},
	}, nil)
	bookings.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.BookingPaymentRefunded).Return(b, nil)
	notifs.On("NotifyPaymentRefunded", mock.Anything, mock.Anything, 300.0).Return(nil)

	got, err := svc.Refund(context.Background(), 7, 20, domain.RoleLandlord, RefundRequest{})
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, got.Status)
}

func TestProjectPaymentStatus(t *testing.T) {
	// two completed payments covering the amount
	assert.Equal(t, domain.BookingPaymentPaid, projectPaymentStatus(300, []domain.Payment{
		{Amount: 100, Status: domain.PaymentCompleted},
		{Amount: 200, Status: domain.PaymentCompleted},
	}))

	// one partial payment
	assert.Equal(t, domain.BookingPaymentPartiallyPaid, projectPaymentStatus(300, []domain.Payment{
		{Amount: 100, Status: domain.PaymentCompleted},
	}))

	// failures only
	assert.Equal(t, domain.BookingPaymentFailed, projectPaymentStatus(300, []domain.Payment{
		{Amount: 300, Status: domain.PaymentFailed},
	}))

	// a failure followed by a success still counts as paid
	assert.Equal(t, domain.BookingPaymentPaid, projectPaymentStatus(300, []domain.Payment{
		{Amount: 300, Status: domain.PaymentFailed},
		{Amount: 300, Status: domain.PaymentCompleted},
	}))

	// everything refunded
	assert.Equal(t, domain.BookingPaymentRefunded, projectPaymentStatus(300, []domain.Payment{
		{Amount: 300, Status: domain.PaymentRefunded, RefundAmount: ptr(300.0)},
	}))

	// partial refund leaves the booking partially paid
	assert.Equal(t, domain.BookingPaymentPartiallyPaid, projectPaymentStatus(300, []domain.Payment{
		{Amount: 300, Status: domain.PaymentPartiallyRefunded, RefundAmount: ptr(100.0)},
	}))

	// no payments at all
	assert.Equal(t, domain.BookingPaymentPending, projectPaymentStatus(300, nil))
}

func TestVerify_RefreshesPendingMobileMoney(t *testing.T) {
	mockGW := gateway.NewMock()
	svc, payments, bookings, _, notifs := newTestService(mockGW)

	// seed a pending request in the gateway so QueryStatus resolves it
	res, err := mockGW.RequestPayment(context.Background(), gateway.Request{
		Reference: "ref-1",
		Amount:    300,
		Currency:  "RWF",
		Method:    domain.MethodMobileMoney,
		Details:   gateway.PayerDetails{Phone: "250788123456"},
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, res.Status)

	pending := &domain.Payment{ID: 7, BookingID: 5, UserID: 1, Amount: 300, Method: domain.MethodMobileMoney, TransactionID: res.TransactionID, Status: domain.PaymentPending}
	payments.On("GetByTransactionID", mock.Anything, res.TransactionID).Return(pending, nil)

	completed := &domain.Payment{ID: 7, BookingID: 5, UserID: 1, Amount: 300, Method: domain.MethodMobileMoney, TransactionID: res.TransactionID, Status: domain.PaymentCompleted}
	payments.On("ApplyStatus", mock.Anything, res.TransactionID, domain.PaymentCompleted, mock.Anything).Return(completed, true, nil)

	b := testBooking()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(b, nil)
	payments.On("ListByBooking", mock.Anything, int64(5)).Return([]domain.Payment{*completed}, nil)
	bookings.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.BookingPaymentPaid).Return(b, nil)
	notifs.On("NotifyPaymentCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	got, err := svc.Verify(context.Background(), res.TransactionID, 1, domain.RoleTenant)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, got.Status)
}

func ptr(v float64) *float64 { return &v }
