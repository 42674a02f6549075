package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/governance-service/internal/domain"
)

// DirectoryRepository persists the reference data the Authority Directory is
// built over. Reference sets are append-only: rows are deactivated, never
// deleted.
type DirectoryRepository interface {
	CreateDesignation(ctx context.Context, d *domain.Designation) error
	GetDesignation(ctx context.Context, id string) (*domain.Designation, error)
	ListDesignations(ctx context.Context) ([]domain.Designation, error)

	CreateCommittee(ctx context.Context, c *domain.Committee) error
	GetCommittee(ctx context.Context, id string) (*domain.Committee, error)
	AddCommitteeMember(ctx context.Context, committeeID, designationID string) error
	ListCommitteeMemberDesignations(ctx context.Context, committeeID string) ([]string, error)

	CreateOffice(ctx context.Context, o *domain.Office) error
	GetOffice(ctx context.Context, id string) (*domain.Office, error)

	CreatePosting(ctx context.Context, p *domain.Posting) error
	GetPosting(ctx context.Context, id string) (*domain.Posting, error)
	ListActivePostingsByDesignation(ctx context.Context, designationID string) ([]domain.Posting, error)

	CreateTenure(ctx context.Context, t *domain.Tenure) error
	ListActiveTenuresByOffice(ctx context.Context, officeID string) ([]domain.Tenure, error)
	ListActiveTenuresByPosting(ctx context.Context, postingID string) ([]domain.Tenure, error)
}

type directoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository instantiates repository.
func NewDirectoryRepository(pool *pgxpool.Pool) DirectoryRepository {
	return &directoryRepository{pool: pool}
}

func (r *directoryRepository) CreateDesignation(ctx context.Context, d *domain.Designation) error {
	const query = `
        INSERT INTO designations (title, rank, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, d.Title, d.Rank, d.IsActive).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *directoryRepository) GetDesignation(ctx context.Context, id string) (*domain.Designation, error) {
	const query = `
        SELECT id, title, rank, is_active, created_at, updated_at
        FROM designations WHERE id=$1`
	var d domain.Designation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Title, &d.Rank, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *directoryRepository) ListDesignations(ctx context.Context) ([]domain.Designation, error) {
	const query = `
        SELECT id, title, rank, is_active, created_at, updated_at
        FROM designations ORDER BY rank ASC, title ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Designation
	for rows.Next() {
		var d domain.Designation
		if err := rows.Scan(&d.ID, &d.Title, &d.Rank, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *directoryRepository) CreateCommittee(ctx context.Context, c *domain.Committee) error {
	const query = `
        INSERT INTO committees (name, quorum_min, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, c.Name, c.QuorumMin, c.IsActive).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *directoryRepository) GetCommittee(ctx context.Context, id string) (*domain.Committee, error) {
	const query = `
        SELECT id, name, quorum_min, is_active, created_at, updated_at
        FROM committees WHERE id=$1`
	var c domain.Committee
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.QuorumMin, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *directoryRepository) AddCommitteeMember(ctx context.Context, committeeID, designationID string) error {
	const query = `
        INSERT INTO committee_members (committee_id, designation_id)
        VALUES ($1,$2) ON CONFLICT DO NOTHING`
	_, err := r.pool.Exec(ctx, query, committeeID, designationID)
	return err
}

func (r *directoryRepository) ListCommitteeMemberDesignations(ctx context.Context, committeeID string) ([]string, error) {
	const query = `SELECT designation_id FROM committee_members WHERE committee_id=$1`
	rows, err := r.pool.Query(ctx, query, committeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

func (r *directoryRepository) CreateOffice(ctx context.Context, o *domain.Office) error {
	const query = `
        INSERT INTO offices (name, unit_id, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, o.Name, o.UnitID, o.IsActive).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *directoryRepository) GetOffice(ctx context.Context, id string) (*domain.Office, error) {
	const query = `
        SELECT id, name, unit_id, is_active, created_at, updated_at
        FROM offices WHERE id=$1`
	var o domain.Office
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Name, &o.UnitID, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *directoryRepository) CreatePosting(ctx context.Context, p *domain.Posting) error {
	const query = `
        INSERT INTO postings (person_name, unit_id, designation_id, region_id, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, p.PersonName, p.UnitID, p.DesignationID, p.RegionID, p.Active).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *directoryRepository) GetPosting(ctx context.Context, id string) (*domain.Posting, error) {
	const query = `
        SELECT id, person_name, unit_id, designation_id, region_id, active, created_at, updated_at
        FROM postings WHERE id=$1`
	var p domain.Posting
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.PersonName, &p.UnitID, &p.DesignationID, &p.RegionID, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *directoryRepository) ListActivePostingsByDesignation(ctx context.Context, designationID string) ([]domain.Posting, error) {
	const query = `
        SELECT id, person_name, unit_id, designation_id, region_id, active, created_at, updated_at
        FROM postings WHERE designation_id=$1 AND active`
	rows, err := r.pool.Query(ctx, query, designationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPostings(rows)
}

func (r *directoryRepository) CreateTenure(ctx context.Context, t *domain.Tenure) error {
	const query = `
        INSERT INTO tenures (posting_id, office_id, active, started_at)
        VALUES ($1,$2,$3,NOW())
        RETURNING id, started_at`
	return r.pool.QueryRow(ctx, query, t.PostingID, t.OfficeID, t.Active).
		Scan(&t.ID, &t.StartedAt)
}

func (r *directoryRepository) ListActiveTenuresByOffice(ctx context.Context, officeID string) ([]domain.Tenure, error) {
	const query = `
        SELECT id, posting_id, office_id, active, started_at, ended_at
        FROM tenures WHERE office_id=$1 AND active`
	return r.listTenures(ctx, query, officeID)
}

func (r *directoryRepository) ListActiveTenuresByPosting(ctx context.Context, postingID string) ([]domain.Tenure, error) {
	const query = `
        SELECT id, posting_id, office_id, active, started_at, ended_at
        FROM tenures WHERE posting_id=$1 AND active`
	return r.listTenures(ctx, query, postingID)
}

func (r *directoryRepository) listTenures(ctx context.Context, query string, arg any) ([]domain.Tenure, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Tenure
	for rows.Next() {
		var t domain.Tenure
		if err := rows.Scan(&t.ID, &t.PostingID, &t.OfficeID, &t.Active, &t.StartedAt, &t.EndedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func scanPostings(rows pgx.Rows) ([]domain.Posting, error) {
	var result []domain.Posting
	for rows.Next() {
		var p domain.Posting
		if err := rows.Scan(
			&p.ID, &p.PersonName, &p.UnitID, &p.DesignationID, &p.RegionID, &p.Active, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
