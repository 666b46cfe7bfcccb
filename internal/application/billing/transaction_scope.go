package billing

import (
	"context"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
)

// TransactionScope provides transactional access to billing repositories.
// All repository operations inside Execute share one database transaction and
// are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the billing repositories within a transaction.
type TransactionalRepositories interface {
	BillRepo() billing.BillRepository
	PaymentRepo() billing.PaymentRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	billRepo    billing.BillRepository
	paymentRepo billing.PaymentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(billRepo billing.BillRepository, paymentRepo billing.PaymentRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{billRepo: billRepo, paymentRepo: paymentRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BillRepo returns the bill repository.
func (s *NoOpTransactionScope) BillRepo() billing.BillRepository {
	return s.billRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() billing.PaymentRepository {
	return s.paymentRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
