package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslate(t *testing.T) {
	boom := errors.New("boom")
	serialization := &pgconn.PgError{Code: "40001"}
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"invalid uuid text", &pgconn.PgError{Code: "22P02"}, ErrNotFound},
		{"other pg error", serialization, serialization},
		{"plain error", boom, boom},
		{"nil", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := translate(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

// The repositories are built without a pool: a malformed id must be answered before any query runs.
func TestMalformedIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	tickets := NewTicketRepository(nil)
	users := NewUserRepository(nil)
	departments := NewDepartmentRepository(nil)
	attachments := NewAttachmentRepository(nil)

	for _, id := range []string{"abc", "", "42", "not-a-uuid"} {
		checks := map[string]error{}
		_, checks["ticket get"] = tickets.GetByID(ctx, id)
		checks["ticket delete"] = tickets.Delete(ctx, id)
		_, checks["user get"] = users.GetByID(ctx, id)
		checks["user delete"] = users.Delete(ctx, id)
		_, checks["department get"] = departments.GetByID(ctx, id)
		checks["department delete"] = departments.Delete(ctx, id)
		_, checks["attachment get"] = attachments.GetByPath(ctx, id, "ticket_x/1_a.png")
		for name, err := range checks {
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("%s(%q): expected ErrNotFound, got %v", name, id, err)
			}
		}
	}
}

func TestValidID(t *testing.T) {
	if !validID("3f1c8f0e-7a43-4a8e-9f57-2b1f5d0b8e11") {
		t.Fatal("uuid rejected")
	}
	if validID("ticket-1") {
		t.Fatal("non-uuid accepted")
	}
}
