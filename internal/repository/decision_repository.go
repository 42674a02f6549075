package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/governance-service/internal/domain"
)

// ErrStaleStatus reports a compare-and-set failure: the decision's status was
// no longer the expected pre-state when the transition was attempted.
var ErrStaleStatus = fmt.Errorf("decision status changed concurrently")

// DecisionFilter captures listing parameters.
type DecisionFilter struct {
	InitiatorPostingID *string
	CategoryID         *string
	ScopeID            *string
	Statuses           []domain.DecisionStatus
	CommitteeRouted    *bool
	Limit              int
	Offset             int
}

// DecisionRepository encapsulates decision persistence. Status moves only
// through TransitionTx, which enforces the expected pre-state in SQL.
type DecisionRepository interface {
	Create(ctx context.Context, decision *domain.Decision) error
	GetByID(ctx context.Context, id string) (*domain.Decision, error)
	UpdatePayload(ctx context.Context, decision *domain.Decision) error
	ListWithFilter(ctx context.Context, filter DecisionFilter) ([]domain.Decision, error)
	TransitionTx(ctx context.Context, tx pgx.Tx, id string, from, to domain.DecisionStatus, snapshot *domain.RuleSnapshot) error
}

type decisionRepository struct {
	pool *pgxpool.Pool
}

// NewDecisionRepository instantiates repository.
func NewDecisionRepository(pool *pgxpool.Pool) DecisionRepository {
	return &decisionRepository{pool: pool}
}

func (r *decisionRepository) Create(ctx context.Context, decision *domain.Decision) error {
	const query = `
        INSERT INTO decisions (reference_key, initiator_posting_id, unit_id, region_id, category_id, scope_id, subject, justification, amount_minor, currency, committee_routed, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		decision.ReferenceKey,
		decision.InitiatorPostingID,
		decision.UnitID,
		decision.RegionID,
		decision.CategoryID,
		decision.ScopeID,
		decision.Subject,
		decision.Justification,
		decision.AmountMinor,
		decision.Currency,
		decision.CommitteeRouted,
		decision.Status,
	).Scan(&decision.ID, &decision.CreatedAt, &decision.UpdatedAt)
}

func (r *decisionRepository) GetByID(ctx context.Context, id string) (*domain.Decision, error) {
	const query = `
        SELECT id, reference_key, initiator_posting_id, unit_id, region_id, category_id, scope_id,
               subject, justification, amount_minor, currency, committee_routed, rule_snapshot,
               status, created_at, updated_at, resolved_at
        FROM decisions WHERE id=$1`
	var (
		decision domain.Decision
		raw      []byte
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&decision.ID,
		&decision.ReferenceKey,
		&decision.InitiatorPostingID,
		&decision.UnitID,
		&decision.RegionID,
		&decision.CategoryID,
		&decision.ScopeID,
		&decision.Subject,
		&decision.Justification,
		&decision.AmountMinor,
		&decision.Currency,
		&decision.CommitteeRouted,
		&raw,
		&decision.Status,
		&decision.CreatedAt,
		&decision.UpdatedAt,
		&decision.ResolvedAt,
	); err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var snapshot domain.RuleSnapshot
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return nil, fmt.Errorf("decode rule snapshot: %w", err)
		}
		decision.Rule = &snapshot
	}
	return &decision, nil
}

// UpdatePayload persists the outcome payload; permitted in DRAFT only, which
// the WHERE clause enforces alongside the service-level guard.
func (r *decisionRepository) UpdatePayload(ctx context.Context, decision *domain.Decision) error {
	const query = `
        UPDATE decisions SET subject=$1, justification=$2, amount_minor=$3, currency=$4,
            category_id=$5, scope_id=$6, committee_routed=$7, updated_at=NOW()
        WHERE id=$8 AND status='DRAFT'`
	cmd, err := r.pool.Exec(ctx, query,
		decision.Subject,
		decision.Justification,
		decision.AmountMinor,
		decision.Currency,
		decision.CategoryID,
		decision.ScopeID,
		decision.CommitteeRouted,
		decision.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *decisionRepository) ListWithFilter(ctx context.Context, filter DecisionFilter) ([]domain.Decision, error) {
	base := `SELECT id, reference_key, initiator_posting_id, unit_id, region_id, category_id, scope_id,
                    subject, justification, amount_minor, currency, committee_routed, rule_snapshot,
                    status, created_at, updated_at, resolved_at
             FROM decisions`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.InitiatorPostingID != nil {
		args = append(args, *filter.InitiatorPostingID)
		clauses = append(clauses, fmt.Sprintf("initiator_posting_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.ScopeID != nil {
		args = append(args, *filter.ScopeID)
		clauses = append(clauses, fmt.Sprintf("scope_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CommitteeRouted != nil {
		args = append(args, *filter.CommitteeRouted)
		clauses = append(clauses, fmt.Sprintf("committee_routed=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Decision
	for rows.Next() {
		var (
			decision domain.Decision
			raw      []byte
		)
		if err := rows.Scan(
			&decision.ID,
			&decision.ReferenceKey,
			&decision.InitiatorPostingID,
			&decision.UnitID,
			&decision.RegionID,
			&decision.CategoryID,
			&decision.ScopeID,
			&decision.Subject,
			&decision.Justification,
			&decision.AmountMinor,
			&decision.Currency,
			&decision.CommitteeRouted,
			&raw,
			&decision.Status,
			&decision.CreatedAt,
			&decision.UpdatedAt,
			&decision.ResolvedAt,
		); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			var snapshot domain.RuleSnapshot
			if err := json.Unmarshal(raw, &snapshot); err != nil {
				return nil, fmt.Errorf("decode rule snapshot: %w", err)
			}
			decision.Rule = &snapshot
		}
		result = append(result, decision)
	}
	return result, rows.Err()
}

// TransitionTx applies a status transition with a compare-and-set on the
// expected pre-state. A nil snapshot leaves the frozen rule untouched; terminal
// target states stamp resolved_at.
func (r *decisionRepository) TransitionTx(ctx context.Context, tx pgx.Tx, id string, from, to domain.DecisionStatus, snapshot *domain.RuleSnapshot) error {
	var snapshotJSON []byte
	if snapshot != nil {
		var err error
		snapshotJSON, err = json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("encode rule snapshot: %w", err)
		}
	}

	const query = `
        UPDATE decisions SET status=$1,
            rule_snapshot=COALESCE($2, rule_snapshot),
            resolved_at=CASE WHEN $3 THEN NOW() ELSE resolved_at END,
            updated_at=NOW()
        WHERE id=$4 AND status=$5`
	cmd, err := tx.Exec(ctx, query, to, snapshotJSON, to.Terminal(), id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}
