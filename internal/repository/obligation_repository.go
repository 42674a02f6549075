package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/governance-service/internal/domain"
)

// ObligationFilter captures listing parameters for one office's ledger view.
type ObligationFilter struct {
	OwedByOffice *string
	OwedToOffice *string
	Status       *domain.ObligationStatus
	OverdueAt    *time.Time
	Limit        int
	Offset       int
}

// ObligationRepository persists cross-office obligations.
type ObligationRepository interface {
	Create(ctx context.Context, obligation *domain.Obligation) error
	GetByID(ctx context.Context, id string) (*domain.Obligation, error)
	ListWithFilter(ctx context.Context, filter ObligationFilter) ([]domain.Obligation, error)
	Certify(ctx context.Context, id string) error
}

type obligationRepository struct {
	pool *pgxpool.Pool
}

// NewObligationRepository instantiates repository.
func NewObligationRepository(pool *pgxpool.Pool) ObligationRepository {
	return &obligationRepository{pool: pool}
}

func (r *obligationRepository) Create(ctx context.Context, obligation *domain.Obligation) error {
	const query = `
        INSERT INTO obligations (title, description, origin, from_office_id, to_office_id, deadline, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		obligation.Title,
		obligation.Description,
		obligation.Origin,
		obligation.FromOfficeID,
		obligation.ToOfficeID,
		obligation.Deadline,
		obligation.Status,
	).Scan(&obligation.ID, &obligation.CreatedAt, &obligation.UpdatedAt)
}

func (r *obligationRepository) GetByID(ctx context.Context, id string) (*domain.Obligation, error) {
	const query = `
        SELECT id, title, description, origin, from_office_id, to_office_id, deadline, status, certified_at, created_at, updated_at
        FROM obligations WHERE id=$1`
	var obligation domain.Obligation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&obligation.ID,
		&obligation.Title,
		&obligation.Description,
		&obligation.Origin,
		&obligation.FromOfficeID,
		&obligation.ToOfficeID,
		&obligation.Deadline,
		&obligation.Status,
		&obligation.CertifiedAt,
		&obligation.CreatedAt,
		&obligation.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &obligation, nil
}

func (r *obligationRepository) ListWithFilter(ctx context.Context, filter ObligationFilter) ([]domain.Obligation, error) {
	base := `SELECT id, title, description, origin, from_office_id, to_office_id, deadline, status, certified_at, created_at, updated_at
             FROM obligations`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwedByOffice != nil {
		args = append(args, *filter.OwedByOffice)
		clauses = append(clauses, fmt.Sprintf("from_office_id=$%d", len(args)))
	}
	if filter.OwedToOffice != nil {
		args = append(args, *filter.OwedToOffice)
		clauses = append(clauses, fmt.Sprintf("to_office_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.OverdueAt != nil {
		args = append(args, *filter.OverdueAt)
		clauses = append(clauses, fmt.Sprintf("deadline < $%d AND status='PENDING'", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY deadline ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Obligation
	for rows.Next() {
		var obligation domain.Obligation
		if err := rows.Scan(
			&obligation.ID,
			&obligation.Title,
			&obligation.Description,
			&obligation.Origin,
			&obligation.FromOfficeID,
			&obligation.ToOfficeID,
			&obligation.Deadline,
			&obligation.Status,
			&obligation.CertifiedAt,
			&obligation.CreatedAt,
			&obligation.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, obligation)
	}
	return result, rows.Err()
}

// Certify compare-and-sets PENDING -> CERTIFIED; once certified an obligation
// is never re-opened.
func (r *obligationRepository) Certify(ctx context.Context, id string) error {
	const query = `
        UPDATE obligations SET status='CERTIFIED', certified_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='PENDING'`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
