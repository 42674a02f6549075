package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/governance-service/internal/domain"
)

// RuleCache caches the active rule set per (category, scope) pair in Redis.
// Rules are read-mostly reference data; entries are invalidated on rule writes.
type RuleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRuleCache builds the cache. A nil client degrades to a no-op.
func NewRuleCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RuleCache {
	return &RuleCache{client: client, ttl: ttl, logger: logger}
}

func ruleKey(categoryID, scopeID string) string {
	return "doa:rules:" + categoryID + ":" + scopeID
}

// Get returns the cached rule set and whether it was present.
func (c *RuleCache) Get(ctx context.Context, categoryID, scopeID string) ([]domain.DoARule, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, ruleKey(categoryID, scopeID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("rule cache get failed", zap.Error(err))
		}
		return nil, false
	}
	var rules []domain.DoARule
	if err := json.Unmarshal(raw, &rules); err != nil {
		c.logger.Warn("rule cache decode failed", zap.Error(err))
		return nil, false
	}
	return rules, true
}

// Set stores the rule set for the pair.
func (c *RuleCache) Set(ctx context.Context, categoryID, scopeID string, rules []domain.DoARule) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		c.logger.Warn("rule cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, ruleKey(categoryID, scopeID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("rule cache set failed", zap.Error(err))
	}
}

// Invalidate drops the cached pair after a rule write.
func (c *RuleCache) Invalidate(ctx context.Context, categoryID, scopeID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, ruleKey(categoryID, scopeID)).Err(); err != nil {
		c.logger.Warn("rule cache invalidate failed", zap.Error(err))
	}
}
