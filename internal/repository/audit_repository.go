package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/governance-service/internal/domain"
)

// AuditRepository stores decision audit entries. Append-only: no update or
// delete exists by design; corrections to history are new entries.
type AuditRepository interface {
	AppendTx(ctx context.Context, tx pgx.Tx, entry *domain.AuditEntry) error
	ListByDecision(ctx context.Context, decisionID string) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

// AppendTx writes the entry inside the same transaction as the status update,
// so a decision is never observed with a trail that disagrees with its status.
func (r *auditRepository) AppendTx(ctx context.Context, tx pgx.Tx, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO decision_audit (decision_id, actor_type, actor_posting_id, prior_status, new_status, notes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		entry.DecisionID,
		entry.ActorType,
		entry.ActorPostingID,
		entry.PriorStatus,
		entry.NewStatus,
		entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListByDecision returns the trail most-recent-first. The id tiebreak keeps
// the order deterministic for entries sharing a timestamp.
func (r *auditRepository) ListByDecision(ctx context.Context, decisionID string) ([]domain.AuditEntry, error) {
	const query = `
        SELECT id, decision_id, actor_type, actor_posting_id, prior_status, new_status, notes, created_at
        FROM decision_audit WHERE decision_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, decisionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.DecisionID,
			&entry.ActorType,
			&entry.ActorPostingID,
			&entry.PriorStatus,
			&entry.NewStatus,
			&entry.Notes,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
