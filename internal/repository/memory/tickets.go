package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type ticketRepository struct{ s *Store }

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket.ID = newID()
	ticket.CreatedAt = r.s.stamp()
	ticket.UpdatedAt = ticket.CreatedAt
	r.s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneTicket(t)
	return &out, nil
}

func (r *ticketRepository) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.Ticket
	for _, t := range r.s.tickets {
		if matchesTicket(t, filter) {
			result = append(result, cloneTicket(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func matchesTicket(t domain.Ticket, f repository.TicketFilter) bool {
	if f.CreatorID != nil && t.CreatorID != *f.CreatorID {
		return false
	}
	if f.AssigneeID != nil && !sameRef(t.AssigneeID, f.AssigneeID) {
		return false
	}
	if f.DepartmentID != nil && !sameRef(t.DepartmentID, f.DepartmentID) {
		return false
	}
	if f.Assigned != nil && t.IsAssigned() != *f.Assigned {
		return false
	}
	return true
}

func (r *ticketRepository) CountByStatus(_ context.Context) (map[domain.TicketStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, t := range r.s.tickets {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *ticketRepository) AssignIfUnassigned(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.IsAssigned() {
		return repository.ErrStaleWrite
	}
	r.writeAssignment(&existing, ticket)
	return nil
}

func (r *ticketRepository) ForceAssign(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	r.writeAssignment(&existing, ticket)
	return nil
}

func (r *ticketRepository) writeAssignment(existing, ticket *domain.Ticket) {
	existing.AssigneeID = cloneString(ticket.AssigneeID)
	existing.DepartmentID = cloneString(ticket.DepartmentID)
	existing.UpdatedAt = r.s.stamp()
	ticket.UpdatedAt = existing.UpdatedAt
	r.s.tickets[existing.ID] = *existing
}

func (r *ticketRepository) UpdateLifecycle(_ context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != expected {
		return repository.ErrStaleWrite
	}
	existing.Status = ticket.Status
	existing.ResolvedAt = cloneTime(ticket.ResolvedAt)
	existing.Rating = cloneInt(ticket.Rating)
	existing.UpdatedAt = r.s.stamp()
	ticket.UpdatedAt = existing.UpdatedAt
	r.s.tickets[ticket.ID] = existing
	return nil
}

func (r *ticketRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tickets, id)
	for cid, c := range r.s.comments {
		if c.TicketID == id {
			delete(r.s.comments, cid)
		}
	}
	for aid, a := range r.s.attachments {
		if a.TicketID == id {
			delete(r.s.attachments, aid)
		}
	}
	return nil
}
