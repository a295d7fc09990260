package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type departmentRepository struct{ s *Store }

func (r *departmentRepository) Create(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(dept.Name, "") {
		return repository.ErrDuplicate
	}
	dept.ID = newID()
	dept.CreatedAt = r.s.stamp()
	dept.UpdatedAt = dept.CreatedAt
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r *departmentRepository) Update(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.departments[dept.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(dept.Name, dept.ID) {
		return repository.ErrDuplicate
	}
	existing.Name = dept.Name
	existing.Description = dept.Description
	existing.UpdatedAt = r.s.stamp()
	dept.UpdatedAt = existing.UpdatedAt
	r.s.departments[dept.ID] = existing
	return nil
}

func (r *departmentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.departments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.departments, id)

	for uid, u := range r.s.users {
		if u.DepartmentID != nil && *u.DepartmentID == id {
			u.DepartmentID = nil
			r.s.users[uid] = u
		}
	}
	for tid, t := range r.s.tickets {
		if t.DepartmentID != nil && *t.DepartmentID == id {
			t.DepartmentID = nil
			r.s.tickets[tid] = t
		}
	}
	return nil
}

func (r *departmentRepository) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *departmentRepository) GetByName(_ context.Context, name string) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.departments {
		if d.Name == name {
			out := d
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *departmentRepository) List(_ context.Context) ([]domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Department, 0, len(r.s.departments))
	for _, d := range r.s.departments {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *departmentRepository) nameTaken(name, exceptID string) bool {
	for id, d := range r.s.departments {
		if id != exceptID && d.Name == name {
			return true
		}
	}
	return false
}
