package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type commentRepository struct{ s *Store }

func (r *commentRepository) CreateWithAttachments(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[comment.TicketID]; !ok {
		return repository.ErrNotFound
	}

	comment.ID = newID()
	comment.CreatedAt = r.s.stamp()
	for i := range comment.Attachments {
		att := &comment.Attachments[i]
		att.ID = newID()
		att.TicketID = comment.TicketID
		att.CommentID = &comment.ID
		att.UploadedAt = r.s.stamp()
		r.s.attachments[att.ID] = cloneAttachment(*att)
	}

	stored := *comment
	stored.Attachments = nil
	r.s.comments[comment.ID] = stored
	return nil
}

func (r *commentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.Comment
	for _, c := range r.s.comments {
		if c.TicketID != ticketID {
			continue
		}
		var atts []domain.Attachment
		for _, a := range r.s.attachments {
			if a.CommentID != nil && *a.CommentID == c.ID {
				atts = append(atts, cloneAttachment(a))
			}
		}
		sortAttachments(atts)
		c.Attachments = atts
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}
