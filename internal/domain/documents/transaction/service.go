package transaction

import (
	"context"
	"time"

	"sitekeeper/internal/core/tx"
)

// Filter narrows transaction listings.
type Filter struct {
	ProjectID *int64
	CompanyID *int64
	Type      *Type
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}

// Repository is the storage contract for transactions.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter) ([]*Transaction, error)
}

// Service provides transaction business logic.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates the transaction service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and stores a new ledger entry. The home-currency
// amount was frozen by the constructor and travels with the row.
func (s *Service) Create(ctx context.Context, t *Transaction) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, t)
	})
}

// GetByID retrieves a transaction.
func (s *Service) GetByID(ctx context.Context, id int64) (*Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// Update modifies a transaction. Amount or rate changes re-freeze the
// home amount at the new values; historical rows are never revisited.
func (s *Service) Update(ctx context.Context, t *Transaction) error {
	t.HomeAmount = t.Amount.Mul(t.ExchangeRate)
	if err := t.Validate(ctx); err != nil {
		return err
	}
	t.Touch()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, t)
	})
}

// Delete removes a transaction. Recoverable deletion goes through the
// trash subsystem instead.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}

// List returns transactions matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]*Transaction, error) {
	return s.repo.List(ctx, f)
}
