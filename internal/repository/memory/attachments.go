package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type attachmentRepository struct{ s *Store }

func (r *attachmentRepository) CreateBatch(_ context.Context, attachments []*domain.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, att := range attachments {
		if _, ok := r.s.tickets[att.TicketID]; !ok {
			return repository.ErrNotFound
		}
	}
	for _, att := range attachments {
		att.ID = newID()
		att.UploadedAt = r.s.stamp()
		r.s.attachments[att.ID] = cloneAttachment(*att)
	}
	return nil
}

func (r *attachmentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Attachment
	for _, a := range r.s.attachments {
		if a.TicketID == ticketID && a.CommentID == nil {
			result = append(result, cloneAttachment(a))
		}
	}
	sortAttachments(result)
	return result, nil
}

func (r *attachmentRepository) GetByPath(_ context.Context, ticketID, storagePath string) (*domain.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.attachments {
		if a.TicketID == ticketID && a.StoragePath == storagePath {
			out := cloneAttachment(a)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func sortAttachments(list []domain.Attachment) {
	sort.Slice(list, func(i, j int) bool { return list[i].UploadedAt.Before(list[j].UploadedAt) })
}
