// Package memory implements the repository interfaces in process memory.
// A single Store backs every repository so cascade and SET NULL rules
// behave as they do in the Postgres schema.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store holds all tables behind one lock.
type Store struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	departments map[string]domain.Department
	tickets     map[string]domain.Ticket
	comments    map[string]domain.Comment
	attachments map[string]domain.Attachment
	seq         int64
	now         func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]domain.User),
		departments: make(map[string]domain.Department),
		tickets:     make(map[string]domain.Ticket),
		comments:    make(map[string]domain.Comment),
		attachments: make(map[string]domain.Attachment),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Repositories returns every repository backed by s.
func (s *Store) Repositories() repository.Set {
	return repository.Set{
		Users:       &userRepository{s},
		Departments: &departmentRepository{s},
		Tickets:     &ticketRepository{s},
		Comments:    &commentRepository{s},
		Attachments: &attachmentRepository{s},
	}
}

// stamp returns a strictly increasing timestamp so ordering by time is stable. Callers hold mu.
func (s *Store) stamp() time.Time {
	s.seq++
	return s.now().Add(time.Duration(s.seq) * time.Nanosecond)
}

func newID() string {
	return uuid.NewString()
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneUser(u domain.User) domain.User {
	u.DepartmentID = cloneString(u.DepartmentID)
	u.CreatedBy = cloneString(u.CreatedBy)
	return u
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.AssigneeID = cloneString(t.AssigneeID)
	t.DepartmentID = cloneString(t.DepartmentID)
	t.ResolvedAt = cloneTime(t.ResolvedAt)
	t.Rating = cloneInt(t.Rating)
	return t
}

func cloneAttachment(a domain.Attachment) domain.Attachment {
	a.CommentID = cloneString(a.CommentID)
	a.UploadedByID = cloneString(a.UploadedByID)
	return a
}
