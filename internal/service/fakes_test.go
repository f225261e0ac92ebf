package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/events"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/repository"
)

type memoryComplaintRepo struct {
	mu         sync.Mutex
	complaints map[string]*domain.Complaint
	saves      int
	// staleOnSave forces the next Save to report a version conflict.
	staleOnSave bool
	// saveErr, when set, is returned by every Save.
	saveErr error
}

func newMemoryComplaintRepo(seed ...*domain.Complaint) *memoryComplaintRepo {
	repo := &memoryComplaintRepo{complaints: map[string]*domain.Complaint{}}
	for _, c := range seed {
		stored := c.Clone()
		if stored.Version == 0 {
			stored.Version = 1
		}
		repo.complaints[stored.ID] = stored
	}
	return repo
}

func (r *memoryComplaintRepo) Create(_ context.Context, c *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.NewString()
	c.Version = 1
	for i := range c.StatusLogs {
		c.StatusLogs[i].ComplaintID = c.ID
	}
	r.complaints[c.ID] = c.Clone()
	return nil
}

func (r *memoryComplaintRepo) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c.Clone(), nil
}

func (r *memoryComplaintRepo) Save(_ context.Context, c *domain.Complaint, newLogs []domain.StatusLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.complaints[c.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.staleOnSave || stored.Version != c.Version {
		r.staleOnSave = false
		return repository.ErrVersionConflict
	}
	next := c.Clone()
	next.StatusLogs = append(append([]domain.StatusLogEntry(nil), stored.StatusLogs...), newLogs...)
	for i := range next.StatusLogs {
		next.StatusLogs[i].ComplaintID = c.ID
	}
	next.Version = stored.Version + 1
	r.complaints[c.ID] = next
	c.Version = next.Version
	r.saves++
	return nil
}

func (r *memoryComplaintRepo) List(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Complaint
	for _, c := range r.complaints {
		if filter.SubmittedByID != nil && (c.SubmittedByID == nil || *c.SubmittedByID != *filter.SubmittedByID) {
			continue
		}
		if filter.MaintenanceTeamID != nil && ResolveAssignmentID(c.MaintenanceTeam) != *filter.MaintenanceTeamID {
			continue
		}
		if filter.WardOfficerID != nil && ResolveAssignmentID(c.WardOfficer) != *filter.WardOfficerID {
			continue
		}
		if filter.WardID != nil && (c.WardID == nil || *c.WardID != *filter.WardID) {
			continue
		}
		out = append(out, *c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryComplaintRepo) stored(id string) *domain.Complaint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complaints[id].Clone()
}

type memoryUserRepo struct {
	users map[string]*domain.User
}

func newMemoryUserRepo(users ...*domain.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: map[string]*domain.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryUserRepo) ListByRole(_ context.Context, role domain.Role, wardID *string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.Role != role || !u.Active {
			continue
		}
		if wardID != nil && (u.WardID == nil || *u.WardID != *wardID) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type staticTypeRepo struct {
	table domain.ComplaintTypeTable
	err   error
}

func (r staticTypeRepo) ListActive(context.Context) (domain.ComplaintTypeTable, error) {
	return r.table, r.err
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

func testUser(id string, role domain.Role, ward string) *domain.User {
	u := &domain.User{
		ID:       id,
		FullName: strings.ToUpper(id[:1]) + id[1:],
		Email:    id + "@city.gov",
		Role:     role,
		Active:   true,
	}
	if ward != "" {
		u.WardID = &ward
	}
	return u
}

var fixedNow = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
