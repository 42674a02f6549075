package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/governance-service/internal/api/dto"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/repository"
	"github.com/spec-kit/governance-service/internal/service"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// DecisionsHandler manages the proposal workflow endpoints.
type DecisionsHandler struct {
	decisions *service.DecisionService
	resolver  *service.ResolverService
}

// NewDecisionsHandler constructs handler.
func NewDecisionsHandler(decisionService *service.DecisionService, resolverService *service.ResolverService) *DecisionsHandler {
	return &DecisionsHandler{decisions: decisionService, resolver: resolverService}
}

// Create POST /decisions.
func (h *DecisionsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CategoryID == "" || req.ScopeID == "" {
		return apperrors.NewValidationError("category_id and scope_id required", nil)
	}
	decision, err := h.decisions.CreateDraft(c.Context(), actor, service.DraftInput{
		CategoryID:      req.CategoryID,
		ScopeID:         req.ScopeID,
		Subject:         req.Subject,
		Justification:   req.Justification,
		AmountMinor:     req.AmountMinor,
		Currency:        req.Currency,
		RegionID:        req.RegionID,
		CommitteeRouted: req.CommitteeRouted,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": decisionResponse(decision)})
}

// Update PATCH /decisions/:id.
func (h *DecisionsHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	decision, err := h.decisions.UpdateDraft(c.Context(), actor, c.Params("id"), service.DraftInput{
		CategoryID:      req.CategoryID,
		ScopeID:         req.ScopeID,
		Subject:         req.Subject,
		Justification:   req.Justification,
		AmountMinor:     req.AmountMinor,
		Currency:        req.Currency,
		RegionID:        req.RegionID,
		CommitteeRouted: req.CommitteeRouted,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": decisionResponse(decision)})
}

// Submit POST /decisions/:id/submit.
func (h *DecisionsHandler) Submit(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	decision, err := h.decisions.Submit(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": decisionResponse(decision)})
}

// Act POST /decisions/:id/actions.
func (h *DecisionsHandler) Act(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.DecisionActionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	decision, err := h.decisions.ApplyAction(c.Context(), actor, c.Params("id"), req.Action, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": decisionResponse(decision)})
}

// Withdraw POST /decisions/:id/withdraw.
func (h *DecisionsHandler) Withdraw(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	decision, err := h.decisions.Withdraw(c.Context(), actor, c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": decisionResponse(decision)})
}

// Get GET /decisions/:id.
func (h *DecisionsHandler) Get(c *fiber.Ctx) error {
	decision, err := h.decisions.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": decisionResponse(decision)})
}

// List GET /decisions.
func (h *DecisionsHandler) List(c *fiber.Ctx) error {
	filter := parseDecisionQuery(c)
	decisions, err := h.decisions.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.DecisionResponse, 0, len(decisions))
	for i := range decisions {
		items = append(items, decisionResponse(&decisions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Trail GET /decisions/:id/trail.
func (h *DecisionsHandler) Trail(c *fiber.Ctx) error {
	trail, err := h.decisions.ReadTrail(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(trail))
	for _, entry := range trail {
		items = append(items, dto.AuditEntryResponse{
			ID:             entry.ID,
			ActorType:      entry.ActorType,
			ActorPostingID: entry.ActorPostingID,
			PriorStatus:    entry.PriorStatus,
			NewStatus:      entry.NewStatus,
			Notes:          entry.Notes,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Resolve GET /authority/resolve.
func (h *DecisionsHandler) Resolve(c *fiber.Ctx) error {
	categoryID := c.Query("category_id")
	scopeID := c.Query("scope_id")
	amount, err := strconv.ParseInt(c.Query("amount_minor"), 10, 64)
	if categoryID == "" || scopeID == "" || err != nil {
		return apperrors.NewValidationError("category_id, scope_id and amount_minor required", nil)
	}
	resolution, err := h.resolver.ResolveAuthority(c.Context(), categoryID, scopeID, amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ResolutionResponse{
		Rule:          ruleResponse(&resolution.Rule),
		AuthorityType: resolution.Authority.Type,
		AuthorityID:   resolution.Authority.BodyID,
		Ambiguous:     resolution.Ambiguous,
	}})
}

// Validate GET /authority/validate.
func (h *DecisionsHandler) Validate(c *fiber.Ctx) error {
	categoryID := c.Query("category_id")
	scopeID := c.Query("scope_id")
	bodyType := domain.BodyType(c.Query("authority_type"))
	bodyID := c.Query("authority_id")
	amount, err := strconv.ParseInt(c.Query("amount_minor"), 10, 64)
	if categoryID == "" || scopeID == "" || bodyID == "" || err != nil {
		return apperrors.NewValidationError("category_id, scope_id, authority_type, authority_id and amount_minor required", nil)
	}
	validation, err := h.resolver.ValidateAuthority(c.Context(), domain.AuthorityRef{Type: bodyType, BodyID: bodyID}, categoryID, scopeID, amount)
	if err != nil {
		return err
	}
	resp := dto.ValidationResponse{
		Valid:               validation.Valid,
		Reason:              string(validation.Reason),
		EscalationMandatory: validation.EscalationMandatory,
	}
	if validation.Rule != nil {
		rule := ruleResponse(validation.Rule)
		resp.Rule = &rule
	}
	return c.JSON(fiber.Map{"data": resp})
}

func parseDecisionQuery(c *fiber.Ctx) repository.DecisionFilter {
	filter := repository.DecisionFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("initiator_posting_id"); v != "" {
		filter.InitiatorPostingID = &v
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := c.Query("scope_id"); v != "" {
		filter.ScopeID = &v
	}
	if v := c.Query("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			filter.Statuses = append(filter.Statuses, domain.DecisionStatus(strings.TrimSpace(s)))
		}
	}
	return filter
}

func decisionResponse(decision *domain.Decision) dto.DecisionResponse {
	resp := dto.DecisionResponse{
		ID:                 decision.ID,
		ReferenceKey:       decision.ReferenceKey,
		InitiatorPostingID: decision.InitiatorPostingID,
		UnitID:             decision.UnitID,
		RegionID:           decision.RegionID,
		CategoryID:         decision.CategoryID,
		ScopeID:            decision.ScopeID,
		Subject:            decision.Subject,
		Justification:      decision.Justification,
		AmountMinor:        decision.AmountMinor,
		Currency:           decision.Currency,
		CommitteeRouted:    decision.CommitteeRouted,
		Status:             decision.Status,
		CreatedAt:          decision.CreatedAt,
		UpdatedAt:          decision.UpdatedAt,
		ResolvedAt:         decision.ResolvedAt,
	}
	if decision.Rule != nil {
		resp.Rule = &dto.RuleSnapshotResponse{
			RuleID:              decision.Rule.RuleID,
			AuthorityType:       decision.Rule.AuthorityType,
			AuthorityID:         decision.Rule.AuthorityID,
			LimitMin:            decision.Rule.LimitMin,
			LimitMax:            decision.Rule.LimitMax,
			Currency:            decision.Rule.Currency,
			EvidenceRequired:    decision.Rule.EvidenceRequired,
			EscalationMandatory: decision.Rule.EscalationMandatory,
			ResolvedAt:          decision.Rule.ResolvedAt,
		}
	}
	return resp
}
