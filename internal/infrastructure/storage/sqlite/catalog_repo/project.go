package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/domain/catalogs/project"
	"sitekeeper/internal/infrastructure/storage/sqlite"
)

// ProjectRepo is the SQLite repository for the Project catalog and its
// party memberships.
type ProjectRepo struct {
	*BaseCatalogRepo[*project.Project]
}

// NewProjectRepo creates a project repository.
func NewProjectRepo(txm *sqlite.TxManager) *ProjectRepo {
	return &ProjectRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"projects",
			sqlite.ExtractDBColumns[project.Project](),
			func() *project.Project { return &project.Project{} },
		),
	}
}

// ListByStatus returns active projects in the given status.
func (r *ProjectRepo) ListByStatus(ctx context.Context, status project.Status) ([]*project.Project, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"status": status, "is_active": true}).
		OrderBy("code")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*project.Project
	if err := sqlscan.Select(ctx, r.Tx().GetQuerier(), &items, query, args...); err != nil {
		return nil, fmt.Errorf("list projects by status: %w", err)
	}
	return items, nil
}

// --- Party memberships ---

var partyCols = sqlite.ExtractDBColumns[project.Party]()

// AddParty inserts a membership. The (project, company, role) triple is
// unique; a duplicate maps to a Duplicate error.
func (r *ProjectRepo) AddParty(ctx context.Context, p *project.Party) error {
	data := sqlite.StructToMap(p)
	assignID := p.ID == 0
	filtered := make(map[string]any, len(partyCols))
	for _, col := range partyCols {
		if col == "id" && assignID {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.Builder().
		Insert("project_parties").
		SetMap(filtered)

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	res, err := r.Tx().GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.NewDuplicate("project party", "role", string(p.Role)).
				WithDetail("projectId", p.ProjectID).
				WithDetail("companyId", p.CompanyID)
		}
		return fmt.Errorf("insert project party: %w", err)
	}

	if assignID {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		p.ID = id
	}

	r.Tx().NotifyMutation()
	return nil
}

// RemoveParty deletes a membership.
func (r *ProjectRepo) RemoveParty(ctx context.Context, partyID int64) error {
	query, args, err := r.Builder().
		Delete("project_parties").
		Where(squirrel.Eq{"id": partyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.Tx().GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete project party: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("project party", partyID)
	}

	r.Tx().NotifyMutation()
	return nil
}

// ListParties returns all memberships of a project.
func (r *ProjectRepo) ListParties(ctx context.Context, projectID int64) ([]*project.Party, error) {
	query, args, err := r.Builder().
		Select(partyCols...).
		From("project_parties").
		Where(squirrel.Eq{"project_id": projectID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*project.Party
	if err := sqlscan.Select(ctx, r.Tx().GetQuerier(), &items, query, args...); err != nil {
		return nil, fmt.Errorf("list project parties: %w", err)
	}
	return items, nil
}
