package catalog_repo

import (
	"sitekeeper/internal/domain/catalogs/category"
	"sitekeeper/internal/infrastructure/storage/sqlite"
)

// CategoryRepo is the SQLite repository for the Category catalog.
type CategoryRepo struct {
	*BaseCatalogRepo[*category.Category]
}

// NewCategoryRepo creates a category repository.
func NewCategoryRepo(txm *sqlite.TxManager) *CategoryRepo {
	return &CategoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"categories",
			sqlite.ExtractDBColumns[category.Category](),
			func() *category.Category { return &category.Category{} },
		),
	}
}
