package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Comment is a chat message on a ticket, posted by its creator or assignee.
type Comment struct {
	ID          string
	TicketID    string
	AuthorID    string
	Body        string
	Attachments []Attachment
	CreatedAt   time.Time
}

// Attachment stores metadata for an uploaded blob.
// A nil CommentID marks a file attached to the ticket itself.
type Attachment struct {
	ID           string
	TicketID     string
	CommentID    *string
	FileName     string
	StoragePath  string
	ContentType  string
	SizeBytes    int64
	UploadedByID *string
	UploadedAt   time.Time
}

// StoredName is the blob name inside the ticket folder.
func (a *Attachment) StoredName() string {
	return filepath.Base(filepath.FromSlash(a.StoragePath))
}

var allowedExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {},
	"mp4": {}, "mov": {}, "avi": {}, "pdf": {},
}

// AllowedExtensions returns the accepted upload extensions.
func AllowedExtensions() []string {
	return []string{"png", "jpg", "jpeg", "gif", "mp4", "mov", "avi", "pdf"}
}

// IsAllowedAttachment reports whether the file name carries an accepted extension.
func IsAllowedAttachment(fileName string) bool {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 || idx == len(fileName)-1 {
		return false
	}
	_, ok := allowedExtensions[strings.ToLower(fileName[idx+1:])]
	return ok
}
