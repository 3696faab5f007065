// Package memory provides an in-process store implementing every persistence
// contract of the core. It backs tests and the no-DSN development mode.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"fusionhub.org/internal/auth"
	"fusionhub.org/internal/feedback"
	"fusionhub.org/internal/ids"
	"fusionhub.org/internal/project"
	"fusionhub.org/internal/sprint"
	"fusionhub.org/internal/task"
)

// Store keeps everything behind one mutex. Copies go in and out so callers
// can never mutate shared state. The store itself satisfies the auth
// contracts; the entity stores are exposed through accessors.
type Store struct {
	mu sync.Mutex

	tenants   map[string]*auth.Tenant // by id
	users     map[string]*auth.User   // by id
	roles     map[string]*auth.Role   // by id
	rolePerms map[string]map[string]struct{}

	projects  map[string]*project.Project
	feedbacks map[string]*feedback.Feedback
	sprints   map[string]*sprint.Sprint
	tasks     map[string]*task.Task
	sprintSet map[string]map[string]struct{} // sprint id -> task ids
}

var (
	_ auth.CredentialStore = (*Store)(nil)
	_ auth.RoleCatalog     = (*Store)(nil)
	_ project.Store        = projectStore{}
	_ feedback.Store       = feedbackStore{}
	_ sprint.Store         = sprintStore{}
	_ task.Store           = taskStore{}
)

// New creates an empty store.
func New() *Store {
	return &Store{
		tenants:   make(map[string]*auth.Tenant),
		users:     make(map[string]*auth.User),
		roles:     make(map[string]*auth.Role),
		rolePerms: make(map[string]map[string]struct{}),
		projects:  make(map[string]*project.Project),
		feedbacks: make(map[string]*feedback.Feedback),
		sprints:   make(map[string]*sprint.Sprint),
		tasks:     make(map[string]*task.Task),
		sprintSet: make(map[string]map[string]struct{}),
	}
}

// Projects returns the project store view.
func (s *Store) Projects() project.Store { return projectStore{s} }

// Feedback returns the feedback store view.
func (s *Store) Feedback() feedback.Store { return feedbackStore{s} }

// Sprints returns the sprint store view.
func (s *Store) Sprints() sprint.Store { return sprintStore{s} }

// Tasks returns the task store view.
func (s *Store) Tasks() task.Store { return taskStore{s} }

// SeedTenant creates a tenant with the builtin role catalog and returns it.
func (s *Store) SeedTenant(code, name string) *auth.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	t := &auth.Tenant{ID: ids.New(), Code: code, Name: name, CreatedAt: now, UpdatedAt: now}
	s.tenants[t.ID] = t
	for roleName, perms := range auth.RoleImpliedPermissions {
		role := &auth.Role{ID: ids.New(), TenantID: t.ID, Name: roleName, CreatedAt: now, UpdatedAt: now}
		s.roles[role.ID] = role
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		s.rolePerms[role.ID] = set
	}
	cp := *t
	return &cp
}

// SetUserActive flips the active flag; test and admin helper.
func (s *Store) SetUserActive(userID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Active = active
	}
}

// --- auth.CredentialStore -------------------------------------------------

func (s *Store) Find(ctx context.Context, tenantCode, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tenantID string
	for _, t := range s.tenants {
		if t.Code == tenantCode {
			tenantID = t.ID
			break
		}
	}
	if tenantID == "" {
		return nil, auth.ErrNotFound
	}
	for _, u := range s.users {
		if u.TenantID == tenantID && u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *Store) FindByID(ctx context.Context, userID string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) Create(ctx context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.TenantID == u.TenantID && existing.Email == u.Email {
			return auth.ErrConflict
		}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	s.users[cp.ID] = &cp
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) FindTenantByCode(ctx context.Context, code string) (*auth.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

// --- auth.RoleCatalog -----------------------------------------------------

func (s *Store) PermissionsFor(ctx context.Context, tenantID, roleID string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[roleID]
	if !ok || role.TenantID != tenantID {
		// A role from another tenant is absent, never matched.
		return nil, auth.ErrNotFound
	}
	out := make(map[string]struct{}, len(s.rolePerms[roleID]))
	for k := range s.rolePerms[roleID] {
		out[k] = struct{}{}
	}
	return out, nil
}

func (s *Store) FindRoleByName(ctx context.Context, tenantID, name string) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range s.roles {
		if r.TenantID == tenantID && r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

// --- project.Store --------------------------------------------------------

type projectStore struct{ s *Store }

func (v projectStore) Create(ctx context.Context, p *project.Project) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.projects[p.ID] = copyProject(p)
	return nil
}

func (v projectStore) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.projects[id]
	if !ok || p.TenantID != tenantID {
		return nil, project.ErrNotFound
	}
	return copyProject(p), nil
}

func (v projectStore) List(ctx context.Context, tenantID string) ([]*project.Project, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*project.Project
	for _, p := range v.s.projects {
		if p.TenantID == tenantID {
			out = append(out, copyProject(p))
		}
	}
	return out, nil
}

func (v projectStore) Update(ctx context.Context, p *project.Project) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	existing, ok := v.s.projects[p.ID]
	if !ok || existing.TenantID != p.TenantID {
		return project.ErrNotFound
	}
	v.s.projects[p.ID] = copyProject(p)
	return nil
}

func copyProject(p *project.Project) *project.Project {
	cp := *p
	if p.StartDate != nil {
		d := *p.StartDate
		cp.StartDate = &d
	}
	if p.EndDate != nil {
		d := *p.EndDate
		cp.EndDate = &d
	}
	return &cp
}

// --- feedback.Store -------------------------------------------------------

type feedbackStore struct{ s *Store }

func (v feedbackStore) Create(ctx context.Context, fb *feedback.Feedback) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.feedbacks[fb.ID] = copyFeedback(fb)
	return nil
}

func (v feedbackStore) Get(ctx context.Context, tenantID, id string) (*feedback.Feedback, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	fb, ok := v.s.feedbacks[id]
	if !ok || fb.TenantID != tenantID {
		return nil, feedback.ErrNotFound
	}
	return copyFeedback(fb), nil
}

func (v feedbackStore) List(ctx context.Context, tenantID string) ([]*feedback.Feedback, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*feedback.Feedback
	for _, fb := range v.s.feedbacks {
		if fb.TenantID == tenantID {
			out = append(out, copyFeedback(fb))
		}
	}
	return out, nil
}

func (v feedbackStore) Update(ctx context.Context, fb *feedback.Feedback) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	existing, ok := v.s.feedbacks[fb.ID]
	if !ok || existing.TenantID != fb.TenantID {
		return feedback.ErrNotFound
	}
	// Converted is owned by Convert; plain updates cannot flip it.
	cp := copyFeedback(fb)
	cp.Converted = existing.Converted
	v.s.feedbacks[cp.ID] = cp
	return nil
}

func (v feedbackStore) Delete(ctx context.Context, tenantID, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	existing, ok := v.s.feedbacks[id]
	if !ok || existing.TenantID != tenantID {
		return feedback.ErrNotFound
	}
	delete(v.s.feedbacks, id)
	return nil
}

func (v feedbackStore) Convert(ctx context.Context, tenantID, feedbackID string, t *task.Task) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	fb, ok := v.s.feedbacks[feedbackID]
	if !ok || fb.TenantID != tenantID {
		return feedback.ErrNotFound
	}
	// Check-and-set under the lock: the losing racer sees the flag.
	if fb.Converted {
		return feedback.ErrAlreadyConverted
	}
	fb.Converted = true
	cp := *t
	v.s.tasks[cp.ID] = &cp
	return nil
}

// --- sprint.Store ---------------------------------------------------------

type sprintStore struct{ s *Store }

func (v sprintStore) Create(ctx context.Context, sp *sprint.Sprint) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *sp
	v.s.sprints[cp.ID] = &cp
	return nil
}

func (v sprintStore) Get(ctx context.Context, tenantID, id string) (*sprint.Sprint, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sp, ok := v.s.sprints[id]
	if !ok || sp.TenantID != tenantID {
		return nil, sprint.ErrNotFound
	}
	cp := *sp
	return &cp, nil
}

func (v sprintStore) ListByProject(ctx context.Context, tenantID, projectID string) ([]*sprint.Sprint, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*sprint.Sprint
	for _, sp := range v.s.sprints {
		if sp.TenantID == tenantID && sp.ProjectID == projectID {
			cp := *sp
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (v sprintStore) Update(ctx context.Context, sp *sprint.Sprint) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	existing, ok := v.s.sprints[sp.ID]
	if !ok || existing.TenantID != sp.TenantID {
		return sprint.ErrNotFound
	}
	cp := *sp
	v.s.sprints[cp.ID] = &cp
	return nil
}

func (v sprintStore) AssignTask(ctx context.Context, tenantID, sprintID, taskID string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sp, ok := v.s.sprints[sprintID]
	if !ok || sp.TenantID != tenantID {
		return sprint.ErrNotFound
	}
	set, ok := v.s.sprintSet[sprintID]
	if !ok {
		set = make(map[string]struct{})
		v.s.sprintSet[sprintID] = set
	}
	set[taskID] = struct{}{}
	return nil
}

func (v sprintStore) TaskIDs(ctx context.Context, tenantID, sprintID string) ([]string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sp, ok := v.s.sprints[sprintID]
	if !ok || sp.TenantID != tenantID {
		return nil, sprint.ErrNotFound
	}
	out := make([]string, 0, len(v.s.sprintSet[sprintID]))
	for id := range v.s.sprintSet[sprintID] {
		out = append(out, id)
	}
	return out, nil
}

// --- task.Store -----------------------------------------------------------

type taskStore struct{ s *Store }

func (v taskStore) Create(ctx context.Context, t *task.Task) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *t
	v.s.tasks[cp.ID] = &cp
	return nil
}

func (v taskStore) Get(ctx context.Context, tenantID, id string) (*task.Task, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	t, ok := v.s.tasks[id]
	if !ok || t.TenantID != tenantID {
		return nil, task.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func copyFeedback(fb *feedback.Feedback) *feedback.Feedback {
	cp := *fb
	cp.AttachmentURLs = append([]string(nil), fb.AttachmentURLs...)
	return &cp
}
