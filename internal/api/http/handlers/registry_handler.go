package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/governance-service/internal/api/dto"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/service"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// RegistryHandler manages rule-registry administration endpoints.
type RegistryHandler struct {
	registry *service.RegistryService
}

// NewRegistryHandler constructs handler.
func NewRegistryHandler(registryService *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{registry: registryService}
}

// CreateCategory POST /registry/categories.
func (h *RegistryHandler) CreateCategory(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.registry.CreateCategory(c.Context(), actor, req.Code, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// ListCategories GET /registry/categories.
func (h *RegistryHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.registry.ListCategories(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateScope POST /registry/scopes.
func (h *RegistryHandler) CreateScope(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateScopeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	scope, err := h.registry.CreateScope(c.Context(), actor, req.Code, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": scopeResponse(scope)})
}

// ListScopes GET /registry/scopes.
func (h *RegistryHandler) ListScopes(c *fiber.Ctx) error {
	scopes, err := h.registry.ListScopes(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ScopeResponse, 0, len(scopes))
	for i := range scopes {
		items = append(items, scopeResponse(&scopes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateRule POST /registry/rules.
func (h *RegistryHandler) CreateRule(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.RuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rule, err := h.registry.CreateRule(c.Context(), actor, ruleInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ruleResponse(rule)})
}

// UpdateRule PUT /registry/rules/:id.
func (h *RegistryHandler) UpdateRule(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.RuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rule, err := h.registry.UpdateRule(c.Context(), actor, c.Params("id"), ruleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ruleResponse(rule)})
}

// DeactivateRule POST /registry/rules/:id/deactivate.
func (h *RegistryHandler) DeactivateRule(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	rule, err := h.registry.DeactivateRule(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ruleResponse(rule)})
}

// GetRule GET /registry/rules/:id.
func (h *RegistryHandler) GetRule(c *fiber.Ctx) error {
	rule, err := h.registry.GetRule(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ruleResponse(rule)})
}

// ListRules GET /registry/rules.
func (h *RegistryHandler) ListRules(c *fiber.Ctx) error {
	categoryID := c.Query("category_id")
	scopeID := c.Query("scope_id")
	if categoryID == "" || scopeID == "" {
		return apperrors.NewValidationError("category_id and scope_id required", nil)
	}
	rules, err := h.registry.ListRules(c.Context(), categoryID, scopeID)
	if err != nil {
		return err
	}
	items := make([]dto.RuleResponse, 0, len(rules))
	for i := range rules {
		items = append(items, ruleResponse(&rules[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func ruleInput(req dto.RuleRequest) service.RuleInput {
	return service.RuleInput{
		AuthorityType:       req.AuthorityType,
		AuthorityID:         req.AuthorityID,
		CategoryID:          req.CategoryID,
		ScopeID:             req.ScopeID,
		LimitMin:            req.LimitMin,
		LimitMax:            req.LimitMax,
		Currency:            req.Currency,
		EvidenceRequired:    req.EvidenceRequired,
		EscalationMandatory: req.EscalationMandatory,
		IsActive:            req.IsActive,
	}
}

func ruleResponse(rule *domain.DoARule) dto.RuleResponse {
	return dto.RuleResponse{
		ID:                  rule.ID,
		AuthorityType:       rule.AuthorityType,
		AuthorityID:         rule.AuthorityID,
		CategoryID:          rule.CategoryID,
		ScopeID:             rule.ScopeID,
		LimitMin:            rule.LimitMin,
		LimitMax:            rule.LimitMax,
		Currency:            rule.Currency,
		EvidenceRequired:    rule.EvidenceRequired,
		EscalationMandatory: rule.EscalationMandatory,
		IsActive:            rule.IsActive,
		CreatedAt:           rule.CreatedAt,
		UpdatedAt:           rule.UpdatedAt,
	}
}

func categoryResponse(category *domain.DecisionCategory) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:        category.ID,
		Code:      category.Code,
		Name:      category.Name,
		CreatedAt: category.CreatedAt,
	}
}

func scopeResponse(scope *domain.FunctionalScope) dto.ScopeResponse {
	return dto.ScopeResponse{
		ID:        scope.ID,
		Code:      scope.Code,
		Name:      scope.Name,
		CreatedAt: scope.CreatedAt,
	}
}
