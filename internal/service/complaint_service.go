package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/events"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/observability"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/repository"
	apperrors "github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/pkg/util/errorutil"
)

// MsgUnknownAssignee is returned when the store rejects an assignment that
// names no known user.
const MsgUnknownAssignee = "One of the selected users no longer exists. Reload and choose again."

// ComplaintService is the single mutating entry point of the complaint
// lifecycle. Updates to one complaint are serialized through the Locker and
// guarded by the repository's version check.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	users      repository.UserRepository
	types      repository.ComplaintTypeRepository
	locker     Locker
	lockWait   time.Duration
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	// Now is the service clock.
	Now func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo     repository.ComplaintRepository
	UserRepo          repository.UserRepository
	ComplaintTypeRepo repository.ComplaintTypeRepository
	Locker            Locker
	LockWait          time.Duration
	Dispatcher        events.Dispatcher
	Metrics           *observability.Metrics
	Logger            *zap.Logger
}

// CreateComplaintInput describes a newly filed complaint.
type CreateComplaintInput struct {
	Type        string
	Description string
	Area        string
	WardID      *string
	Priority    domain.Priority
	Deadline    *time.Time
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	locker := deps.Locker
	if locker == nil {
		locker = NewKeyedMutex()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		users:      deps.UserRepo,
		types:      deps.ComplaintTypeRepo,
		locker:     locker,
		lockWait:   deps.LockWait,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		Now:        time.Now,
	}
}

// CreateComplaint files a complaint in REGISTERED with its initial log entry.
func (s *ComplaintService) CreateComplaint(ctx context.Context, actor domain.Actor, input CreateComplaintInput) (*domain.Complaint, error) {
	actor, err := s.authenticate(ctx, actor)
	if err != nil {
		return nil, err
	}

	var problems []string
	if strings.TrimSpace(input.Type) == "" {
		problems = append(problems, "Complaint type is required.")
	}
	if strings.TrimSpace(input.Description) == "" {
		problems = append(problems, "Description is required.")
	}
	if strings.TrimSpace(input.Area) == "" {
		problems = append(problems, "Area is required.")
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		problems = append(problems, "Invalid priority '"+string(priority)+"'.")
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationErrors(problems)
	}

	typeName := strings.TrimSpace(input.Type)
	if table, err := s.typeTable(ctx); err == nil {
		if cfg, ok := table.Find(typeName); ok {
			typeName = cfg.Name
		}
	}

	now := s.Now()
	actorID := actor.ID
	complaint := &domain.Complaint{
		ComplaintID:     generateComplaintCode(),
		Type:            typeName,
		Description:     strings.TrimSpace(input.Description),
		Area:            strings.TrimSpace(input.Area),
		WardID:          input.WardID,
		Priority:        priority,
		Status:          domain.StatusRegistered,
		WardOfficer:     domain.Unassigned(),
		MaintenanceTeam: domain.Unassigned(),
		AssignedTo:      domain.Unassigned(),
		SubmittedByID:   &actorID,
		SubmittedOn:     &now,
		Deadline:        input.Deadline,
	}
	complaint.StatusLogs = []domain.StatusLogEntry{
		newStatusLogEntry(1, "", domain.StatusRegistered, "Complaint registered", actor, now),
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		s.logger.Error("create complaint failed", zap.Error(err))
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordTransition("", string(domain.StatusRegistered))
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Actor:       eventActor(actor),
		Payload: events.ComplaintCreatedPayload{
			Code:     complaint.ComplaintID,
			Type:     complaint.Type,
			Priority: complaint.Priority,
			WardID:   complaint.WardID,
		},
	})
	return complaint, nil
}

// GetComplaint returns a complaint with its status log.
func (s *ComplaintService) GetComplaint(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	return s.loadComplaint(ctx, complaintID)
}

// ListComplaints returns the complaints visible to actor.
func (s *ComplaintService) ListComplaints(ctx context.Context, actor domain.Actor, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	actor, err := s.authenticate(ctx, actor)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleCitizen:
		filter.SubmittedByID = &actor.ID
	case domain.RoleMaintenanceTeam:
		filter.MaintenanceTeamID = &actor.ID
	case domain.RoleWardOfficer:
		filter.WardOfficerID = &actor.ID
		if s.users != nil {
			user, err := s.users.GetByID(ctx, actor.ID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			if user.WardID != nil {
				filter.WardOfficerID = nil
				filter.WardID = user.WardID
			}
		}
	}
	complaints, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return complaints, nil
}

// ApplyUpdate validates patch against the actor's role and the complaint's
// current state, then merges it and appends one status log entry. A
// REOPENED request is handed to the reopen cascade. Validation failures
// leave the stored complaint untouched and list every problem at once.
func (s *ComplaintService) ApplyUpdate(ctx context.Context, complaintID string, actor domain.Actor, patch ComplaintPatch) (*domain.Complaint, error) {
	actor, err := s.authenticate(ctx, actor)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	complaint, err := s.loadComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && *patch.Status == domain.StatusReopened {
		return s.reopenLoaded(ctx, complaint, actor, stringValue(patch.Remarks))
	}

	validation := Evaluate(patch, actor.Role, complaint)
	if !validation.Forbidden {
		problems, err := s.checkAssignees(ctx, patch, complaint)
		if err != nil {
			return nil, err
		}
		validation.Errors = append(validation.Errors, problems...)
	}
	if !validation.OK() {
		s.logger.Debug("complaint update rejected",
			zap.String("complaint_id", complaint.ID),
			zap.String("role", string(actor.Role)),
			zap.Strings("errors", validation.Errors))
		if validation.Forbidden {
			s.metrics.RecordRejection(apperrors.CodeForbidden)
			return nil, apperrors.NewForbiddenErrors(validation.Errors)
		}
		s.metrics.RecordRejection(apperrors.CodeValidationFailed)
		return nil, apperrors.NewValidationErrors(validation.Errors)
	}

	now := s.Now()
	previous := complaint.Status
	updated := complaint.Clone()
	if !mergePatch(updated, actor.Role, patch, now) {
		return complaint, nil
	}

	remarks := strings.TrimSpace(stringValue(patch.Remarks))
	updated.StatusLogs = append(updated.StatusLogs,
		newStatusLogEntry(complaint.LastLogSequence()+1, previous, updated.Status, remarks, actor, now))

	if err := s.save(ctx, updated, updated.StatusLogs[len(updated.StatusLogs)-1:]); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(string(previous), string(updated.Status))

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintUpdated,
		ComplaintID: updated.ID,
		Actor:       eventActor(actor),
		Payload: events.ComplaintUpdatedPayload{
			OldStatus:         previous,
			NewStatus:         updated.Status,
			WardOfficerID:     ResolveAssignmentID(updated.WardOfficer),
			MaintenanceTeamID: ResolveAssignmentID(updated.MaintenanceTeam),
			Comment:           remarks,
		},
	})
	return updated, nil
}

// Reopen runs the reopen cascade on a closed complaint.
func (s *ComplaintService) Reopen(ctx context.Context, complaintID string, actor domain.Actor, comment string) (*domain.Complaint, error) {
	actor, err := s.authenticate(ctx, actor)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	complaint, err := s.loadComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	return s.reopenLoaded(ctx, complaint, actor, comment)
}

func (s *ComplaintService) reopenLoaded(ctx context.Context, complaint *domain.Complaint, actor domain.Actor, comment string) (*domain.Complaint, error) {
	updated, entries, err := ReopenComplaint(complaint, actor, comment, s.Now())
	if err != nil {
		s.metrics.RecordRejection(apperrors.ToDomainError(err).Code)
		return nil, err
	}
	if err := s.save(ctx, updated, entries); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		s.metrics.RecordTransition(string(*entry.FromStatus), string(entry.ToStatus))
	}
	s.logger.Info("complaint reopened",
		zap.String("complaint_id", updated.ID),
		zap.String("actor_id", actor.ID))

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintReopened,
		ComplaintID: updated.ID,
		Actor:       eventActor(actor),
		Payload: events.ComplaintReopenedPayload{
			WardOfficerID: ResolveAssignmentID(updated.WardOfficer),
			Comment:       stringValue(entries[0].Comment),
		},
	})
	return updated, nil
}

// ComputeSLA evaluates a stored complaint against the current type table.
func (s *ComplaintService) ComputeSLA(ctx context.Context, complaintID string) (SLAResult, error) {
	complaint, err := s.loadComplaint(ctx, complaintID)
	if err != nil {
		return SLAResult{}, err
	}
	table, err := s.typeTable(ctx)
	if err != nil {
		s.logger.Warn("complaint type table unavailable", zap.Error(err))
		table = nil
	}
	return ComputeSLA(complaint, table, s.Now()), nil
}

// StatusOptionSet is the role-filtered choice list for one complaint.
type StatusOptionSet struct {
	Role    domain.Role
	Current domain.ComplaintStatus
	Options []domain.ComplaintStatus
}

// StatusOptions returns the statuses actor may choose for a complaint.
func (s *ComplaintService) StatusOptions(ctx context.Context, complaintID string, actor domain.Actor) (StatusOptionSet, error) {
	actor, err := s.authenticate(ctx, actor)
	if err != nil {
		return StatusOptionSet{}, err
	}
	complaint, err := s.loadComplaint(ctx, complaintID)
	if err != nil {
		return StatusOptionSet{}, err
	}
	return StatusOptionSet{
		Role:    actor.Role,
		Current: complaint.Status,
		Options: GetAvailableStatusOptions(actor.Role, complaint.Status),
	}, nil
}

// ListAssignableUsers returns candidate ward officers or maintenance team
// members, optionally scoped to a ward.
func (s *ComplaintService) ListAssignableUsers(ctx context.Context, role domain.Role, wardID *string) ([]domain.User, error) {
	if role != domain.RoleWardOfficer && role != domain.RoleMaintenanceTeam {
		return nil, apperrors.NewValidationError("only ward officers and maintenance team members can be assigned", map[string]any{"role": role})
	}
	users, err := s.users.ListByRole(ctx, role, wardID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// authenticate replaces the caller-supplied role with the stored one.
func (s *ComplaintService) authenticate(ctx context.Context, actor domain.Actor) (domain.Actor, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return domain.Actor{}, apperrors.NewUnauthorized("actor required")
	}
	if s.users == nil {
		return actor, nil
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Actor{}, apperrors.NewUnauthorized("unknown actor")
		}
		return domain.Actor{}, apperrors.MapError(err)
	}
	if !user.Active {
		return domain.Actor{}, apperrors.NewForbidden("account inactive")
	}
	if actor.Role != "" && actor.Role != user.Role {
		s.logger.Warn("actor role claim does not match directory",
			zap.String("actor_id", actor.ID),
			zap.String("claimed", string(actor.Role)),
			zap.String("stored", string(user.Role)))
	}
	return domain.ActorFor(user), nil
}

func (s *ComplaintService) lock(ctx context.Context, complaintID string) (func(), error) {
	lockCtx := ctx
	if s.lockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockWait)
		defer cancel()
	}
	unlock, err := s.locker.Lock(lockCtx, complaintID)
	if err != nil {
		s.logger.Warn("complaint busy", zap.String("complaint_id", complaintID), zap.Error(err))
		return nil, apperrors.NewConflict("complaint is being updated by another user, retry shortly",
			map[string]any{"complaint_id": complaintID})
	}
	return unlock, nil
}

func (s *ComplaintService) loadComplaint(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		s.logger.Error("load complaint failed", zap.String("complaint_id", complaintID), zap.Error(err))
		return nil, apperrors.MapError(err)
	}
	return complaint, nil
}

func (s *ComplaintService) save(ctx context.Context, complaint *domain.Complaint, entries []domain.StatusLogEntry) error {
	err := s.complaints.Save(ctx, complaint, entries)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		s.logger.Warn("stale complaint write rejected", zap.String("complaint_id", complaint.ID))
		s.metrics.RecordRejection(apperrors.CodeConflict)
		return apperrors.NewConflict("complaint was modified by someone else, reload and retry",
			map[string]any{"complaint_id": complaint.ID})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaint.ID})
	case errors.Is(err, repository.ErrInvalidReference):
		s.logger.Warn("complaint write references unknown user", zap.String("complaint_id", complaint.ID), zap.Error(err))
		s.metrics.RecordRejection(apperrors.CodeValidationFailed)
		return apperrors.NewValidationErrors([]string{MsgUnknownAssignee})
	default:
		s.logger.Error("save complaint failed", zap.String("complaint_id", complaint.ID), zap.Error(err))
		return apperrors.MapError(err)
	}
}

// assigneeSlot names a relation a patch may set and the role its user needs.
type assigneeSlot struct {
	patchID *string
	current domain.Assignment
	role    domain.Role
	label   string
}

// checkAssignees looks every newly supplied assignee up in the user
// directory. Cleared and unchanged relations are not looked up.
func (s *ComplaintService) checkAssignees(ctx context.Context, patch ComplaintPatch, complaint *domain.Complaint) ([]string, error) {
	slots := []assigneeSlot{
		{patchID: patch.WardOfficerID, current: complaint.WardOfficer, role: domain.RoleWardOfficer, label: "ward officer"},
		{patchID: patch.MaintenanceTeamID, current: complaint.MaintenanceTeam, role: domain.RoleMaintenanceTeam, label: "maintenance team member"},
		{patchID: patch.AssignedToID, current: complaint.AssignedTo, role: domain.RoleMaintenanceTeam, label: "maintenance team member"},
	}
	var problems []string
	for _, slot := range slots {
		if !changesAssignment(slot.patchID, slot.current) {
			continue
		}
		id := effectiveAssignmentID(slot.patchID, slot.current)
		if id == NoAssignment {
			continue
		}
		user, err := s.users.GetByID(ctx, id)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			problems = append(problems, fmt.Sprintf("Selected %s '%s' does not exist.", slot.label, id))
		case err != nil:
			s.logger.Error("assignee lookup failed", zap.String("user_id", id), zap.Error(err))
			return nil, apperrors.MapError(err)
		case user.Role != slot.role || !user.Active:
			problems = append(problems, fmt.Sprintf("User '%s' is not an active %s.", id, slot.label))
		}
	}
	return problems, nil
}

func (s *ComplaintService) typeTable(ctx context.Context) (domain.ComplaintTypeTable, error) {
	if s.types == nil {
		return nil, nil
	}
	return s.types.ListActive(ctx)
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// mergePatch applies the fields role may change and reports whether
// anything changed. Milestone timestamps are only ever set once.
func mergePatch(c *domain.Complaint, role domain.Role, patch ComplaintPatch, now time.Time) bool {
	changed := false

	if patch.Status != nil && *patch.Status != c.Status {
		c.Status = *patch.Status
		changed = true
	}
	stampMilestones(c, now)

	if patch.Priority != nil && role != domain.RoleMaintenanceTeam && *patch.Priority != c.Priority {
		c.Priority = *patch.Priority
		changed = true
	}

	if role == domain.RoleWardOfficer || role == domain.RoleAdministrator {
		if role == domain.RoleAdministrator && patch.WardOfficerID != nil {
			changed = setAssignment(&c.WardOfficer, *patch.WardOfficerID) || changed
		}
		teamChanged := false
		if patch.MaintenanceTeamID != nil {
			teamChanged = setAssignment(&c.MaintenanceTeam, *patch.MaintenanceTeamID)
			changed = teamChanged || changed
		}
		if patch.AssignedToID != nil {
			changed = setAssignment(&c.AssignedTo, *patch.AssignedToID) || changed
		} else if teamChanged {
			c.AssignedTo = c.MaintenanceTeam
		}
		if c.NeedsTeamAssignment && isAssignedID(ResolveAssignmentID(c.MaintenanceTeam)) {
			c.NeedsTeamAssignment = false
			changed = true
		}
	}

	if remarks := strings.TrimSpace(stringValue(patch.Remarks)); remarks != "" {
		c.Remarks = &remarks
		changed = true
	}
	return changed
}

func stampMilestones(c *domain.Complaint, now time.Time) {
	at := now
	switch c.Status {
	case domain.StatusAssigned:
		if c.AssignedOn == nil {
			c.AssignedOn = &at
		}
	case domain.StatusResolved:
		if c.ResolvedOn == nil {
			c.ResolvedOn = &at
		}
	case domain.StatusClosed:
		if c.ClosedOn == nil {
			c.ClosedOn = &at
		}
	}
}

// setAssignment replaces dst when id names a different user.
func setAssignment(dst *domain.Assignment, id string) bool {
	next := assignmentFromInput(id)
	if canonicalID(*dst) == canonicalID(next) {
		return false
	}
	*dst = next
	return true
}

func canonicalID(a domain.Assignment) string {
	id := ResolveAssignmentID(a)
	if !isAssignedID(id) {
		return NoAssignment
	}
	return strings.TrimSpace(id)
}

func generateComplaintCode() string {
	return "CMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{UserID: actor.ID, Role: actor.Role}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
