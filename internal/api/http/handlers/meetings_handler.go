package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/governance-service/internal/api/dto"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/service"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// MeetingsHandler manages committee meeting endpoints.
type MeetingsHandler struct {
	meetings *service.MeetingService
}

// NewMeetingsHandler constructs handler.
func NewMeetingsHandler(meetingService *service.MeetingService) *MeetingsHandler {
	return &MeetingsHandler{meetings: meetingService}
}

// Schedule POST /meetings.
func (h *MeetingsHandler) Schedule(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CommitteeID == "" || req.ScheduledFor.IsZero() {
		return apperrors.NewValidationError("committee_id and scheduled_for required", nil)
	}
	meeting, err := h.meetings.ScheduleMeeting(c.Context(), actor, req.CommitteeID, req.ScheduledFor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": meetingResponse(meeting)})
}

// RecordAttendance PUT /meetings/:id/attendance.
func (h *MeetingsHandler) RecordAttendance(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.RecordAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	meeting, err := h.meetings.RecordAttendance(c.Context(), actor, c.Params("id"), req.DesignationIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meetingResponse(meeting)})
}

// AddAgendaItem POST /meetings/:id/agenda.
func (h *MeetingsHandler) AddAgendaItem(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AddAgendaItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DecisionID == "" {
		return apperrors.NewValidationError("decision_id required", nil)
	}
	item, err := h.meetings.AddToAgenda(c.Context(), actor, c.Params("id"), req.DecisionID, req.Position)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": agendaItemResponse(item)})
}

// RecordOutcome POST /meetings/agenda/:itemId/outcome.
func (h *MeetingsHandler) RecordOutcome(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AgendaOutcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.meetings.UpdateAgendaOutcome(c.Context(), actor, c.Params("itemId"), req.Outcome, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agendaItemResponse(item)})
}

// Finalize POST /meetings/:id/finalize.
func (h *MeetingsHandler) Finalize(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.FinalizeMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	meeting, err := h.meetings.FinalizeMeeting(c.Context(), actor, c.Params("id"), req.MinutesRef)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meetingResponse(meeting)})
}

// Cancel POST /meetings/:id/cancel.
func (h *MeetingsHandler) Cancel(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	meeting, err := h.meetings.CancelMeeting(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meetingResponse(meeting)})
}

// Get GET /meetings/:id.
func (h *MeetingsHandler) Get(c *fiber.Ctx) error {
	meeting, agenda, attendance, err := h.meetings.GetMeeting(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	detail := dto.MeetingDetailResponse{
		Meeting:    meetingResponse(meeting),
		Agenda:     make([]dto.AgendaItemResponse, 0, len(agenda)),
		Attendance: make([]dto.AttendanceResponse, 0, len(attendance)),
	}
	for i := range agenda {
		detail.Agenda = append(detail.Agenda, agendaItemResponse(&agenda[i]))
	}
	for _, record := range attendance {
		detail.Attendance = append(detail.Attendance, dto.AttendanceResponse{
			DesignationID: record.DesignationID,
			RecordedAt:    record.RecordedAt,
		})
	}
	return c.JSON(fiber.Map{"data": detail})
}

// List GET /meetings.
func (h *MeetingsHandler) List(c *fiber.Ctx) error {
	committeeID := c.Query("committee_id")
	if committeeID == "" {
		return apperrors.NewValidationError("committee_id required", nil)
	}
	meetings, err := h.meetings.ListMeetings(c.Context(), committeeID, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.MeetingResponse, 0, len(meetings))
	for i := range meetings {
		items = append(items, meetingResponse(&meetings[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func meetingResponse(meeting *domain.Meeting) dto.MeetingResponse {
	return dto.MeetingResponse{
		ID:           meeting.ID,
		CommitteeID:  meeting.CommitteeID,
		ScheduledFor: meeting.ScheduledFor,
		Status:       meeting.Status,
		QuorumMet:    meeting.QuorumMet,
		MinutesRef:   meeting.MinutesRef,
		CreatedAt:    meeting.CreatedAt,
		UpdatedAt:    meeting.UpdatedAt,
	}
}

func agendaItemResponse(item *domain.AgendaItem) dto.AgendaItemResponse {
	return dto.AgendaItemResponse{
		ID:         item.ID,
		MeetingID:  item.MeetingID,
		DecisionID: item.DecisionID,
		Position:   item.Position,
		Outcome:    item.Outcome,
		Notes:      item.Notes,
		CreatedAt:  item.CreatedAt,
	}
}
