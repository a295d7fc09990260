package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleWrite reports a conditional update whose precondition no longer held.
	ErrStaleWrite = errors.New("record changed concurrently")
	// ErrNotFound aliases pgx.ErrNoRows so memory and postgres implementations agree.
	ErrNotFound = pgx.ErrNoRows
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrDuplicate
		case invalidTextRepresentation:
			return ErrNotFound
		}
	}
	return err
}

// validID reports whether id can address a UUID primary key. Anything else cannot exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Set bundles one implementation of every repository.
type Set struct {
	Users       UserRepository
	Departments DepartmentRepository
	Tickets     TicketRepository
	Comments    CommentRepository
	Attachments AttachmentRepository
}

// NewPostgresSet returns the pgx-backed repositories sharing pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Users:       NewUserRepository(pool),
		Departments: NewDepartmentRepository(pool),
		Tickets:     NewTicketRepository(pool),
		Comments:    NewCommentRepository(pool),
		Attachments: NewAttachmentRepository(pool),
	}
}
