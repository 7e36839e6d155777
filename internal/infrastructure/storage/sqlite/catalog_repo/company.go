package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"sitekeeper/internal/domain/catalogs/company"
	"sitekeeper/internal/infrastructure/storage/sqlite"
)

// CompanyRepo is the SQLite repository for the Company catalog.
type CompanyRepo struct {
	*BaseCatalogRepo[*company.Company]
}

// NewCompanyRepo creates a company repository.
func NewCompanyRepo(txm *sqlite.TxManager) *CompanyRepo {
	return &CompanyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"companies",
			sqlite.ExtractDBColumns[company.Company](),
			func() *company.Company { return &company.Company{} },
		),
	}
}

// ListByRole returns active companies with the given role.
func (r *CompanyRepo) ListByRole(ctx context.Context, role company.Role) ([]*company.Company, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"role": role, "is_active": true}).
		OrderBy("name")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*company.Company
	if err := sqlscan.Select(ctx, r.Tx().GetQuerier(), &items, query, args...); err != nil {
		return nil, fmt.Errorf("list companies by role: %w", err)
	}
	return items, nil
}
