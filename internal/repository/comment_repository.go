package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CommentRepository manages ticket chat messages.
type CommentRepository interface {
	// CreateWithAttachments inserts the comment and all of its attachments in one transaction.
	CreateWithAttachments(ctx context.Context, comment *domain.Comment) error
	// ListByTicket returns comments oldest first, each with its attachments.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) CreateWithAttachments(ctx context.Context, comment *domain.Comment) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO comments (ticket_id, author_id, body)
            VALUES ($1,$2,$3)
            RETURNING id, created_at`
		if err := tx.QueryRow(ctx, query,
			comment.TicketID,
			comment.AuthorID,
			comment.Body,
		).Scan(&comment.ID, &comment.CreatedAt); err != nil {
			return err
		}

		for i := range comment.Attachments {
			att := &comment.Attachments[i]
			att.TicketID = comment.TicketID
			att.CommentID = &comment.ID
			if err := insertAttachment(ctx, tx, att); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, body, created_at
        FROM comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	index := map[string]int{}
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		index[comment.ID] = len(result)
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	attachments, err := listAttachments(ctx, r.pool, `WHERE ticket_id=$1 AND comment_id IS NOT NULL`, ticketID)
	if err != nil {
		return nil, err
	}
	for _, att := range attachments {
		if i, ok := index[*att.CommentID]; ok {
			result[i].Attachments = append(result[i].Attachments, att)
		}
	}
	return result, nil
}
