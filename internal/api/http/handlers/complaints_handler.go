package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/api/dto"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/service"
	apperrors "github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/pkg/util/errorutil"
)

// ComplaintsHandler exposes the complaint lifecycle over HTTP.
type ComplaintsHandler struct {
	service   *service.ComplaintService
	validator *validator.Validate
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService, validate *validator.Validate) *ComplaintsHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ComplaintsHandler{service: complaintService, validator: validate}
}

// CreateComplaint POST /complaints.
func (h *ComplaintsHandler) CreateComplaint(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateComplaintRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	complaint, err := h.service.CreateComplaint(c.UserContext(), actor, service.CreateComplaintInput{
		Type:        req.Type,
		Description: req.Description,
		Area:        req.Area,
		WardID:      req.WardID,
		Priority:    domain.Priority(req.Priority),
		Deadline:    req.Deadline,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// ListComplaints GET /complaints.
func (h *ComplaintsHandler) ListComplaints(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	query, err := parseComplaintQuery(c)
	if err != nil {
		return err
	}
	filter := repository.ComplaintFilter{
		WardID:   optionalQuery(c, "ward_id"),
		Statuses: query.Statuses,
		Limit:    query.PageSize,
		Offset:   (query.Page - 1) * query.PageSize,
	}
	complaints, err := h.service.ListComplaints(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items, "page": query.Page, "page_size": query.PageSize})
}

// GetComplaint GET /complaints/:id.
func (h *ComplaintsHandler) GetComplaint(c *fiber.Ctx) error {
	complaint, err := h.service.GetComplaint(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// UpdateStatus PATCH /complaints/:id/status.
func (h *ComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateComplaintRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	complaint, err := h.service.ApplyUpdate(c.UserContext(), c.Params("id"), actor, complaintPatch(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// Reopen POST /complaints/:id/reopen.
func (h *ComplaintsHandler) Reopen(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ReopenComplaintRequest
	if len(c.Body()) > 0 {
		if err := bindAndValidate(c, h.validator, &req); err != nil {
			return err
		}
	}
	complaint, err := h.service.Reopen(c.UserContext(), c.Params("id"), actor, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// SLA GET /complaints/:id/sla.
func (h *ComplaintsHandler) SLA(c *fiber.Ctx) error {
	result, err := h.service.ComputeSLA(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// ComplaintStatusOptions GET /complaints/:id/status-options.
func (h *ComplaintsHandler) ComplaintStatusOptions(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	set, err := h.service.StatusOptions(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusOptionsResponse{
		Role:          set.Role,
		CurrentStatus: set.Current,
		Options:       set.Options,
	}})
}

// StatusOptions GET /status-options?status=ASSIGNED answers for the caller's
// role without loading a complaint.
func (h *ComplaintsHandler) StatusOptions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	current, err := domain.ParseComplaintStatus(c.Query("status"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"status": c.Query("status")})
	}
	role := principal.User.Role
	return c.JSON(fiber.Map{"data": dto.StatusOptionsResponse{
		Role:          role,
		CurrentStatus: current,
		Options:       service.GetAvailableStatusOptions(role, current),
	}})
}

func parseComplaintQuery(c *fiber.Ctx) (dto.ComplaintListQuery, error) {
	query := dto.ComplaintListQuery{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status, err := domain.ParseComplaintStatus(part)
			if err != nil {
				return query, apperrors.NewValidationError(err.Error(), map[string]any{"status": part})
			}
			query.Statuses = append(query.Statuses, status)
		}
	}
	return query, nil
}

func complaintPatch(req dto.UpdateComplaintRequest) service.ComplaintPatch {
	patch := service.ComplaintPatch{Remarks: req.Remarks}
	if req.Status != nil {
		status := domain.ComplaintStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		patch.Priority = &priority
	}
	patch.WardOfficerID = assignmentID(req.WardOfficer)
	patch.MaintenanceTeamID = assignmentID(req.MaintenanceTeam)
	patch.AssignedToID = assignmentID(req.AssignedTo)
	return patch
}

func assignmentID(a *domain.Assignment) *string {
	if a == nil {
		return nil
	}
	id := service.ResolveAssignmentID(*a)
	return &id
}

func assignee(a domain.Assignment) dto.AssigneeResponse {
	return dto.AssigneeResponse{
		ID:   service.ResolveAssignmentID(a),
		Name: service.ResolveAssignmentName(a),
	}
}

func complaintSummary(complaint *domain.Complaint) dto.ComplaintSummary {
	return dto.ComplaintSummary{
		ID:                  complaint.ID,
		ComplaintID:         complaint.ComplaintID,
		Type:                complaint.Type,
		Area:                complaint.Area,
		WardID:              complaint.WardID,
		Priority:            complaint.Priority,
		Status:              complaint.Status,
		WardOfficer:         assignee(complaint.WardOfficer),
		MaintenanceTeam:     assignee(complaint.MaintenanceTeam),
		NeedsTeamAssignment: complaint.NeedsTeamAssignment,
		SubmittedOn:         complaint.SubmittedOn,
		UpdatedAt:           complaint.UpdatedAt,
	}
}

func complaintDetail(complaint *domain.Complaint) dto.ComplaintDetailResponse {
	logs := make([]dto.StatusLogResponse, 0, len(complaint.StatusLogs))
	for _, entry := range complaint.StatusLogs {
		logs = append(logs, dto.StatusLogResponse{
			Sequence:   entry.Sequence,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			Comment:    entry.Comment,
			ActorID:    entry.ActorID,
			Timestamp:  entry.Timestamp,
		})
	}
	return dto.ComplaintDetailResponse{
		ComplaintSummary: complaintSummary(complaint),
		Description:      complaint.Description,
		AssignedTo:       assignee(complaint.AssignedTo),
		AssignedOn:       complaint.AssignedOn,
		ResolvedOn:       complaint.ResolvedOn,
		ClosedOn:         complaint.ClosedOn,
		Deadline:         complaint.Deadline,
		Remarks:          complaint.Remarks,
		Version:          complaint.Version,
		StatusLogs:       logs,
	}
}
