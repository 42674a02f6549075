package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/governance-service/internal/api/dto"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/service"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// DirectoryHandler manages authority-directory administration endpoints.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directoryService *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directoryService}
}

// CreateDesignation POST /directory/designations.
func (h *DirectoryHandler) CreateDesignation(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateDesignationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	designation, err := h.directory.CreateDesignation(c.Context(), actor, req.Title, req.Rank)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": designationResponse(designation)})
}

// ListDesignations GET /directory/designations.
func (h *DirectoryHandler) ListDesignations(c *fiber.Ctx) error {
	designations, err := h.directory.ListDesignations(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.DesignationResponse, 0, len(designations))
	for i := range designations {
		items = append(items, designationResponse(&designations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCommittee POST /directory/committees.
func (h *DirectoryHandler) CreateCommittee(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommitteeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	committee, err := h.directory.CreateCommittee(c.Context(), actor, req.Name, req.QuorumMin)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": committeeResponse(committee, nil)})
}

// AddCommitteeMember POST /directory/committees/:id/members.
func (h *DirectoryHandler) AddCommitteeMember(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AddCommitteeMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DesignationID == "" {
		return apperrors.NewValidationError("designation_id required", nil)
	}
	if err := h.directory.AddCommitteeMember(c.Context(), actor, c.Params("id"), req.DesignationID); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"added": true}})
}

// GetCommittee GET /directory/committees/:id.
func (h *DirectoryHandler) GetCommittee(c *fiber.Ctx) error {
	committee, members, err := h.directory.GetCommittee(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": committeeResponse(committee, members)})
}

// CreateOffice POST /directory/offices.
func (h *DirectoryHandler) CreateOffice(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateOfficeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	office, err := h.directory.CreateOffice(c.Context(), actor, req.Name, req.UnitID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.OfficeResponse{
		ID:       office.ID,
		Name:     office.Name,
		UnitID:   office.UnitID,
		IsActive: office.IsActive,
	}})
}

// CreatePosting POST /directory/postings.
func (h *DirectoryHandler) CreatePosting(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreatePostingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	posting, err := h.directory.CreatePosting(c.Context(), actor, req.PersonName, req.UnitID, req.DesignationID, req.RegionID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": postingResponse(posting)})
}

// GetPosting GET /directory/postings/:id.
func (h *DirectoryHandler) GetPosting(c *fiber.Ctx) error {
	posting, err := h.directory.GetPosting(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": postingResponse(posting)})
}

// CreateTenure POST /directory/tenures.
func (h *DirectoryHandler) CreateTenure(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateTenureRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PostingID == "" || req.OfficeID == "" {
		return apperrors.NewValidationError("posting_id and office_id required", nil)
	}
	tenure, err := h.directory.CreateTenure(c.Context(), actor, req.PostingID, req.OfficeID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TenureResponse{
		ID:        tenure.ID,
		PostingID: tenure.PostingID,
		OfficeID:  tenure.OfficeID,
		Active:    tenure.Active,
		StartedAt: tenure.StartedAt,
		EndedAt:   tenure.EndedAt,
	}})
}

// Occupants GET /directory/occupants.
func (h *DirectoryHandler) Occupants(c *fiber.Ctx) error {
	bodyType := domain.BodyType(c.Query("authority_type"))
	bodyID := c.Query("authority_id")
	if bodyID == "" {
		return apperrors.NewValidationError("authority_type and authority_id required", nil)
	}
	ref := domain.AuthorityRef{Type: bodyType, BodyID: bodyID}
	occupants, err := h.directory.ResolveOccupants(c.Context(), ref)
	if err != nil {
		return err
	}
	resp := dto.OccupantsResponse{
		AuthorityType: ref.Type,
		AuthorityID:   ref.BodyID,
		Occupants:     make([]dto.PostingResponse, 0, len(occupants)),
	}
	for i := range occupants {
		resp.Occupants = append(resp.Occupants, postingResponse(&occupants[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

func designationResponse(designation *domain.Designation) dto.DesignationResponse {
	return dto.DesignationResponse{
		ID:       designation.ID,
		Title:    designation.Title,
		Rank:     designation.Rank,
		IsActive: designation.IsActive,
	}
}

func committeeResponse(committee *domain.Committee, members []string) dto.CommitteeResponse {
	return dto.CommitteeResponse{
		ID:        committee.ID,
		Name:      committee.Name,
		QuorumMin: committee.QuorumMin,
		IsActive:  committee.IsActive,
		Members:   members,
	}
}

func postingResponse(posting *domain.Posting) dto.PostingResponse {
	return dto.PostingResponse{
		ID:            posting.ID,
		PersonName:    posting.PersonName,
		UnitID:        posting.UnitID,
		DesignationID: posting.DesignationID,
		RegionID:      posting.RegionID,
		Active:        posting.Active,
	}
}
