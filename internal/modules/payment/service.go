package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentara/internal/domain"
	"rentara/internal/gateway"
	"rentara/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	payments   PaymentRepository
	bookings   BookingStore
	properties PropertyReader
	notifs     NotificationSender
	gateways   map[domain.PaymentMethod]gateway.Gateway
	currency   string
}

func NewService(
	payments PaymentRepository,
	bookings BookingStore,
	properties PropertyReader,
	notifs NotificationSender,
	gateways map[domain.PaymentMethod]gateway.Gateway,
	currency string,
) *Service {
	return &Service{
		payments:   payments,
		bookings:   bookings,
		properties: properties,
		notifs:     notifs,
		gateways:   gateways,
		currency:   currency,
	}
}

// validateDetails enforces the method-discriminated union: only the fields
// for the chosen method are consulted, and those must be present.
func validateDetails(method domain.PaymentMethod, d gateway.PayerDetails) error {
	switch method {
	case domain.MethodMobileMoney:
		if strings.TrimSpace(d.Phone) == "" {
			return ErrValidation
		}
	case domain.MethodCreditCard:
		if d.CardNumber == "" || d.Expiry == "" || d.CVV == "" {
			return ErrValidation
		}
	case domain.MethodBankTransfer:
		if d.AccountNumber == "" {
			return ErrValidation
		}
	default:
		return ErrValidation
	}
	return nil
}

// Process initiates a payment for the booking's outstanding balance and
// records the outcome. A gateway transport failure still leaves a failed
// payment row behind so the attempt is visible in history.
func (s *Service) Process(ctx context.Context, req ProcessPaymentRequest) (*domain.Payment, error) {
	if !domain.ValidPaymentMethod(req.Method) {
		return nil, ErrValidation
	}
	if err := validateDetails(req.Method, req.Details); err != nil {
		return nil, err
	}

	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.CallerRole != domain.RoleAdmin && b.UserID != req.UserID {
		return nil, ErrForbidden
	}
	if b.Status == domain.BookingCancelled {
		return nil, ErrInvalidState
	}

	remaining, err := s.outstanding(ctx, b)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return nil, ErrInvalidState
	}

	gw, ok := s.gateways[req.Method]
	if !ok {
		return nil, ErrValidation
	}

	reference := uuid.NewString()
	res, err := gw.RequestPayment(ctx, gateway.Request{
		Reference: reference,
		Amount:    remaining,
		Currency:  s.currency,
		Method:    req.Method,
		Details:   req.Details,
	})
	if err != nil {
		p := &domain.Payment{
			BookingID:     b.ID,
			UserID:        req.UserID,
			Amount:        remaining,
			Currency:      s.currency,
			Method:        req.Method,
			TransactionID: reference,
			Status:        domain.PaymentFailed,
			FailureReason: err.Error(),
		}
		if cerr := s.payments.Create(ctx, p); cerr == nil {
			_ = s.reconcileBooking(ctx, b.ID)
		}
		return nil, ErrGateway
	}

	p := &domain.Payment{
		BookingID:       b.ID,
		UserID:          req.UserID,
		Amount:          remaining,
		Currency:        s.currency,
		Method:          req.Method,
		TransactionID:   res.TransactionID,
		Status:          res.Status,
		GatewayResponse: res.Raw,
	}
	if res.Status == domain.PaymentFailed {
		p.FailureReason = res.Message
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.reconcileBooking(ctx, b.ID); err != nil {
		return nil, err
	}

	s.notifyOutcome(ctx, p, b)
	return p, nil
}

// outstanding is the booking amount less everything already paid.
func (s *Service) outstanding(ctx context.Context, b *domain.Booking) (float64, error) {
	existing, err := s.payments.ListByBooking(ctx, b.ID)
	if err != nil {
		return 0, err
	}
	paid := 0.0
	for i := range existing {
		paid += existing[i].PaidAmount()
	}
	return b.Amount - paid, nil
}

// Verify returns the payment for a transaction, refreshing a still-pending
// mobile money payment against the gateway first.
func (s *Service) Verify(ctx context.Context, transactionID string, callerID int64, callerRole domain.UserRole) (*domain.Payment, error) {
	p, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.authorize(ctx, p, callerID, callerRole); err != nil {
		return nil, err
	}

	if p.Status != domain.PaymentPending {
		return p, nil
	}
	gw, ok := s.gateways[p.Method]
	if !ok {
		return p, nil
	}

	res, err := gw.QueryStatus(ctx, p.TransactionID)
	if err != nil {
		return nil, ErrGateway
	}
	if res.Status == p.Status {
		return p, nil
	}

	updated, changed, err := s.payments.ApplyStatus(ctx, p.TransactionID, res.Status, res.Raw)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.reconcileBooking(ctx, updated.BookingID); err != nil {
			return nil, err
		}
		if b, berr := s.bookings.GetByID(ctx, updated.BookingID); berr == nil {
			s.notifyOutcome(ctx, updated, b)
		}
	}
	return updated, nil
}

// HandleWebhook applies a gateway callback. Deliveries are at-least-once
// and unordered, so the apply is idempotent and never regresses status.
func (s *Service) HandleWebhook(ctx context.Context, payload WebhookPayload) error {
	status := mapWebhookStatus(payload.Status)

	p, changed, err := s.payments.ApplyStatus(ctx, payload.TransactionID, status, payload.Message)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !changed {
		return nil
	}

	if err := s.reconcileBooking(ctx, p.BookingID); err != nil {
		return err
	}
	if b, berr := s.bookings.GetByID(ctx, p.BookingID); berr == nil {
		s.notifyOutcome(ctx, p, b)
	}
	return nil
}

// mapWebhookStatus accepts either our own status strings or the MTN-style
// vocabulary the mobile money rail posts.
func mapWebhookStatus(raw string) domain.PaymentStatus {
	switch domain.PaymentStatus(strings.ToLower(raw)) {
	case domain.PaymentCompleted, domain.PaymentFailed, domain.PaymentPending:
		return domain.PaymentStatus(strings.ToLower(raw))
	}
	return gateway.MapMomoStatus(raw)
}

// Refund reverses a completed payment, fully or in part. Only the property's
// landlord or an admin may refund.
func (s *Service) Refund(ctx context.Context, paymentID, callerID int64, callerRole domain.UserRole, req RefundRequest) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if callerRole != domain.RoleAdmin {
		b, err := s.bookings.GetByID(ctx, p.BookingID)
		if err != nil {
			return nil, err
		}
		if !s.isLandlordOf(ctx, b.PropertyID, callerID) {
			return nil, ErrForbidden
		}
	}

	if p.Status != domain.PaymentCompleted && p.Status != domain.PaymentPartiallyRefunded {
		return nil, ErrInvalidState
	}

	alreadyRefunded := 0.0
	if p.RefundAmount != nil {
		alreadyRefunded = *p.RefundAmount
	}
	refundable := p.Amount - alreadyRefunded

	amount := req.Amount
	if amount == 0 {
		amount = refundable
	}
	if amount <= 0 || amount > refundable {
		return nil, ErrValidation
	}

	totalRefunded := alreadyRefunded + amount
	status := domain.PaymentPartiallyRefunded
	if totalRefunded >= p.Amount {
		status = domain.PaymentRefunded
	}

	now := time.Now().UTC()
	if err := s.payments.MarkRefunded(ctx, p.ID, status, totalRefunded, req.Reason, now); err != nil {
		return nil, err
	}
	p.Status = status
	p.RefundAmount = &totalRefunded
	p.RefundReason = req.Reason
	p.RefundedAt = &now

	if err := s.reconcileBooking(ctx, p.BookingID); err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyPaymentRefunded(ctx, p, amount)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id, callerID int64, callerRole domain.UserRole) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.authorize(ctx, p, callerID, callerRole); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListForBooking(ctx context.Context, bookingID, callerID int64, callerRole domain.UserRole) ([]domain.Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if callerRole != domain.RoleAdmin && b.UserID != callerID {
		if !s.isLandlordOf(ctx, b.PropertyID, callerID) {
			return nil, ErrForbidden
		}
	}
	return s.payments.ListByBooking(ctx, bookingID)
}

func (s *Service) ListForUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	return s.payments.ListByUser(ctx, userID)
}

func (s *Service) ListRefunds(ctx context.Context) ([]domain.Payment, error) {
	return s.payments.ListRefunds(ctx)
}

type Stats struct {
	ByStatus []repository.PaymentStatusStat `json:"by_status"`
	ByMethod []repository.PaymentMethodStat `json:"by_method"`
}

func (s *Service) StatsForLandlord(ctx context.Context, landlordID int64) (*Stats, error) {
	byStatus, err := s.payments.StatsByStatus(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.payments.StatsByMethod(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	return &Stats{ByStatus: byStatus, ByMethod: byMethod}, nil
}

// authorize admits the payer, the landlord of the booked property, and
// admins.
func (s *Service) authorize(ctx context.Context, p *domain.Payment, callerID int64, callerRole domain.UserRole) error {
	if callerRole == domain.RoleAdmin || p.UserID == callerID {
		return nil
	}
	b, err := s.bookings.GetByID(ctx, p.BookingID)
	if err == nil && s.isLandlordOf(ctx, b.PropertyID, callerID) {
		return nil
	}
	return ErrForbidden
}

func (s *Service) isLandlordOf(ctx context.Context, propertyID, userID int64) bool {
	prop, err := s.properties.GetByID(ctx, propertyID)
	return err == nil && prop.LandlordID == userID
}

// reconcileBooking recomputes the booking's payment-status projection from
// its payment set. It runs after every payment mutation, as the last step,
// so the projection always derives from stored rows rather than from
// whatever the mutation thought happened.
func (s *Service) reconcileBooking(ctx context.Context, bookingID int64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	payments, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	status := projectPaymentStatus(b.Amount, payments)
	if status == b.PaymentStatus {
		return nil
	}
	_, err = s.bookings.UpdatePaymentStatus(ctx, bookingID, status)
	return err
}

// projectPaymentStatus folds a payment set into the booking-level status.
func projectPaymentStatus(bookingAmount float64, payments []domain.Payment) domain.BookingPaymentStatus {
	paid := 0.0
	anyFailed := false
	anyRefunded := false
	for i := range payments {
		paid += payments[i].PaidAmount()
		switch payments[i].Status {
		case domain.PaymentFailed:
			anyFailed = true
		case domain.PaymentRefunded, domain.PaymentPartiallyRefunded:
			anyRefunded = true
		}
	}

	const eps = 1e-9
	switch {
	case bookingAmount > 0 && paid >= bookingAmount-eps:
		return domain.BookingPaymentPaid
	case paid > eps:
		return domain.BookingPaymentPartiallyPaid
	case anyRefunded:
		return domain.BookingPaymentRefunded
	case anyFailed:
		return domain.BookingPaymentFailed
	default:
		return domain.BookingPaymentPending
	}
}

func (s *Service) notifyOutcome(ctx context.Context, p *domain.Payment, b *domain.Booking) {
	if s.notifs == nil {
		return
	}
	switch p.Status {
	case domain.PaymentCompleted:
		_ = s.notifs.NotifyPaymentCompleted(ctx, p, b)
	case domain.PaymentFailed:
		_ = s.notifs.NotifyPaymentFailed(ctx, p, b)
	}
}
