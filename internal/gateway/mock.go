package gateway

import (
	"context"
	"strings"
	"sync"

	"rentara/internal/domain"

	"github.com/google/uuid"
)

// Decline markers recognised by the mock rail. Any other details succeed.
const (
	MockDeclinedCard    = "4000000000000002"
	MockDeclinedAccount = "0000000000"
	MockDeclinedPhone   = "250780000099"
)

// Mock is an in-process gateway for the card/bank rails and for tests.
// Card and bank requests settle synchronously; mobile money stays pending
// until the first status query, mirroring the asynchronous rail.
type Mock struct {
	mu       sync.Mutex
	requests map[string]Request
}

func NewMock() *Mock {
	return &Mock{requests: make(map[string]Request)}
}

func (m *Mock) RequestPayment(_ context.Context, r Request) (*Result, error) {
	txn := r.Reference
	if txn == "" {
		txn = "txn_" + uuid.NewString()
	}

	m.mu.Lock()
	m.requests[txn] = r
	m.mu.Unlock()

	if r.Method == domain.MethodMobileMoney {
		return &Result{
			TransactionID: txn,
			Status:        domain.PaymentPending,
			Message:       "awaiting payer confirmation",
			Raw:           `{"status":"PENDING"}`,
		}, nil
	}

	if m.declined(r) {
		return &Result{
			TransactionID: txn,
			Status:        domain.PaymentFailed,
			Message:       "payment declined",
			Raw:           `{"status":"FAILED"}`,
		}, nil
	}

	return &Result{
		TransactionID: txn,
		Status:        domain.PaymentCompleted,
		Message:       "payment processed successfully",
		Raw:           `{"status":"SUCCESSFUL"}`,
	}, nil
}

func (m *Mock) QueryStatus(_ context.Context, transactionID string) (*Result, error) {
	m.mu.Lock()
	r, ok := m.requests[transactionID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrUnavailable
	}

	if m.declined(r) {
		return &Result{
			TransactionID: transactionID,
			Status:        domain.PaymentFailed,
			Message:       "payment declined",
			Raw:           `{"status":"FAILED"}`,
		}, nil
	}

	return &Result{
		TransactionID: transactionID,
		Status:        domain.PaymentCompleted,
		Message:       "payment confirmed",
		Raw:           `{"status":"SUCCESSFUL"}`,
	}, nil
}

func (m *Mock) declined(r Request) bool {
	switch r.Method {
	case domain.MethodCreditCard:
		return r.Details.CardNumber == MockDeclinedCard
	case domain.MethodBankTransfer:
		return r.Details.AccountNumber == MockDeclinedAccount
	case domain.MethodMobileMoney:
		return strings.HasSuffix(normalizeMsisdn(r.Details.Phone), "99")
	}
	return false
}
