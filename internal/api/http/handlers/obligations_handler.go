package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/governance-service/internal/api/dto"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/repository"
	"github.com/spec-kit/governance-service/internal/service"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// ObligationsHandler manages cross-office obligation endpoints.
type ObligationsHandler struct {
	obligations *service.ObligationService
}

// NewObligationsHandler constructs handler.
func NewObligationsHandler(obligationService *service.ObligationService) *ObligationsHandler {
	return &ObligationsHandler{obligations: obligationService}
}

// Create POST /obligations.
func (h *ObligationsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateObligationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.FromOfficeID == "" || req.ToOfficeID == "" {
		return apperrors.NewValidationError("from_office_id and to_office_id required", nil)
	}
	obligation, err := h.obligations.Create(c.Context(), actor, service.ObligationInput{
		Title:        req.Title,
		Description:  req.Description,
		Origin:       req.Origin,
		FromOfficeID: req.FromOfficeID,
		ToOfficeID:   req.ToOfficeID,
		Deadline:     req.Deadline,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": obligationResponse(obligation)})
}

// Certify POST /obligations/:id/certify.
func (h *ObligationsHandler) Certify(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CertifyObligationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ActingOfficeID == "" {
		return apperrors.NewValidationError("acting_office_id required", nil)
	}
	obligation, err := h.obligations.Certify(c.Context(), actor, c.Params("id"), req.ActingOfficeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": obligationResponse(obligation)})
}

// Get GET /obligations/:id.
func (h *ObligationsHandler) Get(c *fiber.Ctx) error {
	obligation, err := h.obligations.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": obligationResponse(obligation)})
}

// Ledger GET /offices/:id/obligations.
func (h *ObligationsHandler) Ledger(c *fiber.Ctx) error {
	filter := repository.ObligationFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("status"); v != "" {
		status := domain.ObligationStatus(v)
		filter.Status = &status
	}
	if c.QueryBool("overdue", false) {
		now := time.Now()
		filter.OverdueAt = &now
	}
	owed, receivable, err := h.obligations.ListForOffice(c.Context(), c.Params("id"), filter)
	if err != nil {
		return err
	}
	resp := dto.ObligationLedgerResponse{
		Owed:       make([]dto.ObligationResponse, 0, len(owed)),
		Receivable: make([]dto.ObligationResponse, 0, len(receivable)),
	}
	for i := range owed {
		resp.Owed = append(resp.Owed, obligationResponse(&owed[i]))
	}
	for i := range receivable {
		resp.Receivable = append(resp.Receivable, obligationResponse(&receivable[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListOverdue GET /obligations/overdue.
func (h *ObligationsHandler) ListOverdue(c *fiber.Ctx) error {
	overdue, err := h.obligations.ListOverdue(c.Context(), time.Now(), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.ObligationResponse, 0, len(overdue))
	for i := range overdue {
		items = append(items, obligationResponse(&overdue[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func obligationResponse(obligation *domain.Obligation) dto.ObligationResponse {
	return dto.ObligationResponse{
		ID:           obligation.ID,
		Title:        obligation.Title,
		Description:  obligation.Description,
		Origin:       obligation.Origin,
		FromOfficeID: obligation.FromOfficeID,
		ToOfficeID:   obligation.ToOfficeID,
		Deadline:     obligation.Deadline,
		Status:       obligation.Status,
		CertifiedAt:  obligation.CertifiedAt,
		CreatedAt:    obligation.CreatedAt,
	}
}
