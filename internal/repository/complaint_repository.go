package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

var (
	// ErrVersionConflict is returned when a save is based on a stale complaint.
	ErrVersionConflict = errors.New("complaint was modified concurrently")
	// ErrInvalidReference is returned when an assignment column names no user.
	ErrInvalidReference = errors.New("complaint references an unknown user")
)

const (
	uniqueViolation           = "23505"
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
)

// ComplaintFilter captures listing parameters.
type ComplaintFilter struct {
	WardID            *string
	WardOfficerID     *string
	MaintenanceTeamID *string
	SubmittedByID     *string
	Statuses          []domain.ComplaintStatus
	Limit             int
	Offset            int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	// Create inserts the complaint together with its initial log entries.
	Create(ctx context.Context, complaint *domain.Complaint) error
	// GetByID returns the complaint with assignments and status logs loaded.
	// id is either the primary key or the human-readable complaint code.
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	// Save writes complaint fields and appends newLogs atomically. It fails
	// with ErrVersionConflict when complaint.Version is stale and bumps the
	// version on success.
	Save(ctx context.Context, complaint *domain.Complaint, newLogs []domain.StatusLogEntry) error
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
	logs *statusLogRepository
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool, logs: &statusLogRepository{pool: pool}}
}

const complaintColumns = `
        c.id, c.complaint_code, c.type, c.description, c.area, c.ward_id, c.priority, c.status,
        c.needs_team_assignment, c.submitted_by_id, c.submitted_on, c.assigned_on, c.resolved_on,
        c.closed_on, c.deadline, c.remarks, c.version, c.updated_at,
        wo.id, wo.full_name, wo.email,
        mt.id, mt.full_name, mt.email,
        at.id, at.full_name, at.email`

const complaintJoins = `
        FROM complaints c
        LEFT JOIN users wo ON wo.id = c.ward_officer_id
        LEFT JOIN users mt ON mt.id = c.maintenance_team_id
        LEFT JOIN users at ON at.id = c.assigned_to_id`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (complaint_code, type, description, area, ward_id, priority, status,
            ward_officer_id, maintenance_team_id, assigned_to_id, needs_team_assignment,
            submitted_by_id, submitted_on, deadline, remarks)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, version, updated_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.QueryRow(ctx, query,
		complaint.ComplaintID,
		complaint.Type,
		complaint.Description,
		complaint.Area,
		complaint.WardID,
		complaint.Priority,
		complaint.Status,
		assignmentColumn(complaint.WardOfficer),
		assignmentColumn(complaint.MaintenanceTeam),
		assignmentColumn(complaint.AssignedTo),
		complaint.NeedsTeamAssignment,
		complaint.SubmittedByID,
		complaint.SubmittedOn,
		complaint.Deadline,
		complaint.Remarks,
	).Scan(&complaint.ID, &complaint.Version, &complaint.UpdatedAt); err != nil {
		return translateWriteError(err)
	}

	for i := range complaint.StatusLogs {
		complaint.StatusLogs[i].ComplaintID = complaint.ID
		if err := insertStatusLog(ctx, tx, &complaint.StatusLogs[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	column, key := complaintLookup(id)
	query := `SELECT ` + complaintColumns + complaintJoins + ` WHERE ` + column + `=$1`
	complaint, err := scanComplaint(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		return nil, translateReadError(err)
	}
	logs, err := r.logs.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, err
	}
	complaint.StatusLogs = logs
	return complaint, nil
}

func (r *complaintRepository) Save(ctx context.Context, complaint *domain.Complaint, newLogs []domain.StatusLogEntry) error {
	const query = `
        UPDATE complaints SET priority=$1, status=$2, ward_officer_id=$3, maintenance_team_id=$4,
            assigned_to_id=$5, needs_team_assignment=$6, assigned_on=$7, resolved_on=$8, closed_on=$9,
            remarks=$10, version=version+1, updated_at=NOW()
        WHERE id=$11 AND version=$12
        RETURNING version, updated_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, query,
		complaint.Priority,
		complaint.Status,
		assignmentColumn(complaint.WardOfficer),
		assignmentColumn(complaint.MaintenanceTeam),
		assignmentColumn(complaint.AssignedTo),
		complaint.NeedsTeamAssignment,
		complaint.AssignedOn,
		complaint.ResolvedOn,
		complaint.ClosedOn,
		complaint.Remarks,
		complaint.ID,
		complaint.Version,
	).Scan(&complaint.Version, &complaint.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id=$1)`, complaint.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrVersionConflict
	}
	if err != nil {
		return translateWriteError(err)
	}

	for i := range newLogs {
		newLogs[i].ComplaintID = complaint.ID
		if err := insertStatusLog(ctx, tx, &newLogs[i]); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrVersionConflict
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.WardID != nil {
		args = append(args, *filter.WardID)
		clauses = append(clauses, fmt.Sprintf("c.ward_id=$%d", len(args)))
	}
	if filter.WardOfficerID != nil {
		args = append(args, *filter.WardOfficerID)
		clauses = append(clauses, fmt.Sprintf("c.ward_officer_id=$%d", len(args)))
	}
	if filter.MaintenanceTeamID != nil {
		args = append(args, *filter.MaintenanceTeamID)
		clauses = append(clauses, fmt.Sprintf("c.maintenance_team_id=$%d", len(args)))
	}
	if filter.SubmittedByID != nil {
		args = append(args, *filter.SubmittedByID)
		clauses = append(clauses, fmt.Sprintf("c.submitted_by_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY c.updated_at DESC LIMIT %d OFFSET %d`,
		complaintColumns, complaintJoins, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var (
		complaint domain.Complaint
		officer   userRef
		team      userRef
		assignee  userRef
	)
	if err := row.Scan(
		&complaint.ID,
		&complaint.ComplaintID,
		&complaint.Type,
		&complaint.Description,
		&complaint.Area,
		&complaint.WardID,
		&complaint.Priority,
		&complaint.Status,
		&complaint.NeedsTeamAssignment,
		&complaint.SubmittedByID,
		&complaint.SubmittedOn,
		&complaint.AssignedOn,
		&complaint.ResolvedOn,
		&complaint.ClosedOn,
		&complaint.Deadline,
		&complaint.Remarks,
		&complaint.Version,
		&complaint.UpdatedAt,
		&officer.id, &officer.fullName, &officer.email,
		&team.id, &team.fullName, &team.email,
		&assignee.id, &assignee.fullName, &assignee.email,
	); err != nil {
		return nil, err
	}
	complaint.WardOfficer = officer.assignment()
	complaint.MaintenanceTeam = team.assignment()
	complaint.AssignedTo = assignee.assignment()
	return &complaint, nil
}

// userRef holds the nullable columns of a joined user.
type userRef struct {
	id       *string
	fullName *string
	email    *string
}

func (u userRef) assignment() domain.Assignment {
	if u.id == nil {
		return domain.Unassigned()
	}
	record := domain.AssignmentRecord{ID: *u.id}
	if u.fullName != nil {
		record.FullName = *u.fullName
	}
	if u.email != nil {
		record.Email = *u.email
	}
	return domain.AssignByRecord(record)
}

// assignmentColumn maps a relation onto a nullable foreign key.
func assignmentColumn(a domain.Assignment) *string {
	var id string
	switch a.Kind {
	case domain.AssignmentByID:
		id = a.ID
	case domain.AssignmentByRecord:
		if a.Record != nil {
			id = a.Record.ID
		}
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, "none") {
		return nil
	}
	return &id
}

// complaintLookup picks the column a client identifier addresses: the
// primary key for UUIDs, the complaint code otherwise.
func complaintLookup(id string) (column, key string) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err == nil {
		return "c.id", id
	}
	return "c.complaint_code", strings.ToUpper(id)
}

// translateReadError reports malformed keys as missing rows.
func translateReadError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return pgx.ErrNoRows
	}
	return err
}

// translateWriteError maps foreign key and malformed identifier failures on
// the assignment columns onto ErrInvalidReference.
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolation, invalidTextRepresentation:
			return fmt.Errorf("%w: %s", ErrInvalidReference, pgErr.Message)
		}
	}
	return err
}
