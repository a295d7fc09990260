package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	// CreateBatch inserts every attachment or none.
	CreateBatch(ctx context.Context, attachments []*domain.Attachment) error
	// ListByTicket returns the attachments made at ticket level (no comment).
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	GetByPath(ctx context.Context, ticketID, storagePath string) (*domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) CreateBatch(ctx context.Context, attachments []*domain.Attachment) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, att := range attachments {
			if err := insertAttachment(ctx, tx, att); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	return listAttachments(ctx, r.pool, `WHERE ticket_id=$1 AND comment_id IS NULL`, ticketID)
}

func (r *attachmentRepository) GetByPath(ctx context.Context, ticketID, storagePath string) (*domain.Attachment, error) {
	if !validID(ticketID) {
		return nil, ErrNotFound
	}
	found, err := listAttachments(ctx, r.pool, `WHERE ticket_id=$1 AND storage_path=$2`, ticketID, storagePath)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &found[0], nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertAttachment(ctx context.Context, q querier, att *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, comment_id, file_name, storage_path, content_type, size_bytes, uploaded_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, uploaded_at`
	return q.QueryRow(ctx, query,
		att.TicketID,
		att.CommentID,
		att.FileName,
		att.StoragePath,
		att.ContentType,
		att.SizeBytes,
		att.UploadedByID,
	).Scan(&att.ID, &att.UploadedAt)
}

func listAttachments(ctx context.Context, q querier, where string, args ...any) ([]domain.Attachment, error) {
	query := `
        SELECT id, ticket_id, comment_id, file_name, storage_path, content_type, size_bytes, uploaded_by_id, uploaded_at
        FROM attachments ` + where + ` ORDER BY uploaded_at ASC`
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(
			&att.ID,
			&att.TicketID,
			&att.CommentID,
			&att.FileName,
			&att.StoragePath,
			&att.ContentType,
			&att.SizeBytes,
			&att.UploadedByID,
			&att.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}
