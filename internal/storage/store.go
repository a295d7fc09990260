// Package storage keeps attachment blobs outside the database.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
	"unicode"
)

// ErrNotFound is returned when a blob or its folder does not exist.
var ErrNotFound = errors.New("blob not found")

// Object describes a stored blob.
type Object struct {
	Locator string
	Size    int64
}

// Store persists blobs grouped into folders.
type Store interface {
	Save(ctx context.Context, folder, name string, r io.Reader) (Object, error)
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
	Delete(ctx context.Context, locator string) error
	DeleteFolder(ctx context.Context, folder string) error
}

// TicketFolder names the folder holding a ticket's blobs.
func TicketFolder(ticketID string) string {
	return "ticket_" + ticketID
}

// Locator joins a folder and stored name.
func Locator(folder, storedName string) string {
	return path.Join(folder, storedName)
}

// SanitizeName reduces a client file name to a safe single path segment.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	clean := strings.TrimLeft(b.String(), "._")
	if clean == "" {
		return "file"
	}
	return clean
}

// ContentType guesses a MIME type from the file extension.
func ContentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func validLocator(locator string) bool {
	if locator == "" || strings.HasPrefix(locator, "/") || strings.Contains(locator, "\\") {
		return false
	}
	clean := path.Clean(locator)
	return clean == locator && !strings.HasPrefix(clean, "..") && strings.Count(clean, "/") == 1
}
