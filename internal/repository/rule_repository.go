package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/governance-service/internal/domain"
)

// RuleRepository persists Delegation-of-Authority rules and the two
// classification axes they key on.
type RuleRepository interface {
	CreateRule(ctx context.Context, rule *domain.DoARule) error
	UpdateRule(ctx context.Context, rule *domain.DoARule) error
	GetRule(ctx context.Context, id string) (*domain.DoARule, error)
	ListByCategoryScope(ctx context.Context, categoryID, scopeID string) ([]domain.DoARule, error)
	CountByScopeAndAuthority(ctx context.Context, scopeID string, authorityType domain.BodyType, authorityID string) (int, error)

	CreateCategory(ctx context.Context, c *domain.DecisionCategory) error
	GetCategory(ctx context.Context, id string) (*domain.DecisionCategory, error)
	ListCategories(ctx context.Context) ([]domain.DecisionCategory, error)

	CreateScope(ctx context.Context, s *domain.FunctionalScope) error
	GetScope(ctx context.Context, id string) (*domain.FunctionalScope, error)
	ListScopes(ctx context.Context) ([]domain.FunctionalScope, error)
}

type ruleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository instantiates repository.
func NewRuleRepository(pool *pgxpool.Pool) RuleRepository {
	return &ruleRepository{pool: pool}
}

func (r *ruleRepository) CreateRule(ctx context.Context, rule *domain.DoARule) error {
	const query = `
        INSERT INTO doa_rules (authority_type, authority_id, category_id, scope_id, limit_min, limit_max, currency, evidence_required, escalation_mandatory, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		rule.AuthorityType,
		rule.AuthorityID,
		rule.CategoryID,
		rule.ScopeID,
		rule.LimitMin,
		rule.LimitMax,
		rule.Currency,
		rule.EvidenceRequired,
		rule.EscalationMandatory,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *ruleRepository) UpdateRule(ctx context.Context, rule *domain.DoARule) error {
	const query = `
        UPDATE doa_rules SET authority_type=$1, authority_id=$2, limit_min=$3, limit_max=$4,
            currency=$5, evidence_required=$6, escalation_mandatory=$7, is_active=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		rule.AuthorityType,
		rule.AuthorityID,
		rule.LimitMin,
		rule.LimitMax,
		rule.Currency,
		rule.EvidenceRequired,
		rule.EscalationMandatory,
		rule.IsActive,
		rule.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ruleRepository) GetRule(ctx context.Context, id string) (*domain.DoARule, error) {
	const query = `
        SELECT id, authority_type, authority_id, category_id, scope_id, limit_min, limit_max,
               currency, evidence_required, escalation_mandatory, is_active, created_at, updated_at
        FROM doa_rules WHERE id=$1`
	var rule domain.DoARule
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&rule.ID,
		&rule.AuthorityType,
		&rule.AuthorityID,
		&rule.CategoryID,
		&rule.ScopeID,
		&rule.LimitMin,
		&rule.LimitMax,
		&rule.Currency,
		&rule.EvidenceRequired,
		&rule.EscalationMandatory,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) ListByCategoryScope(ctx context.Context, categoryID, scopeID string) ([]domain.DoARule, error) {
	const query = `
        SELECT id, authority_type, authority_id, category_id, scope_id, limit_min, limit_max,
               currency, evidence_required, escalation_mandatory, is_active, created_at, updated_at
        FROM doa_rules WHERE category_id=$1 AND scope_id=$2 AND is_active
        ORDER BY COALESCE(limit_min, 0) ASC`
	rows, err := r.pool.Query(ctx, query, categoryID, scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *ruleRepository) CountByScopeAndAuthority(ctx context.Context, scopeID string, authorityType domain.BodyType, authorityID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM doa_rules
        WHERE scope_id=$1 AND authority_type=$2 AND authority_id=$3 AND is_active`
	var count int
	if err := r.pool.QueryRow(ctx, query, scopeID, authorityType, authorityID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ruleRepository) CreateCategory(ctx context.Context, c *domain.DecisionCategory) error {
	const query = `
        INSERT INTO decision_categories (code, name) VALUES ($1,$2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, c.Code, c.Name).Scan(&c.ID, &c.CreatedAt)
}

func (r *ruleRepository) GetCategory(ctx context.Context, id string) (*domain.DecisionCategory, error) {
	const query = `SELECT id, code, name, created_at FROM decision_categories WHERE id=$1`
	var c domain.DecisionCategory
	if err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ruleRepository) ListCategories(ctx context.Context) ([]domain.DecisionCategory, error) {
	const query = `SELECT id, code, name, created_at FROM decision_categories ORDER BY code ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DecisionCategory
	for rows.Next() {
		var c domain.DecisionCategory
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *ruleRepository) CreateScope(ctx context.Context, s *domain.FunctionalScope) error {
	const query = `
        INSERT INTO functional_scopes (code, name) VALUES ($1,$2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, s.Code, s.Name).Scan(&s.ID, &s.CreatedAt)
}

func (r *ruleRepository) GetScope(ctx context.Context, id string) (*domain.FunctionalScope, error) {
	const query = `SELECT id, code, name, created_at FROM functional_scopes WHERE id=$1`
	var s domain.FunctionalScope
	if err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Code, &s.Name, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ruleRepository) ListScopes(ctx context.Context) ([]domain.FunctionalScope, error) {
	const query = `SELECT id, code, name, created_at FROM functional_scopes ORDER BY code ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FunctionalScope
	for rows.Next() {
		var s domain.FunctionalScope
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanRules(rows pgx.Rows) ([]domain.DoARule, error) {
	var result []domain.DoARule
	for rows.Next() {
		var rule domain.DoARule
		if err := rows.Scan(
			&rule.ID,
			&rule.AuthorityType,
			&rule.AuthorityID,
			&rule.CategoryID,
			&rule.ScopeID,
			&rule.LimitMin,
			&rule.LimitMax,
			&rule.Currency,
			&rule.EvidenceRequired,
			&rule.EscalationMandatory,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}
