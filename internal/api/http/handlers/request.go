package handlers

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Multipart field names accepted for uploaded files.
var fileFields = []string{"files", "file"}

func parseJSON(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// multipartFiles returns the uploaded files and the form, or a validation error when the body is not multipart.
func multipartFiles(c *fiber.Ctx) ([]service.UploadFile, *multipart.Form, error) {
	if !isMultipart(c) {
		return nil, nil, apperrors.NewValidationError("multipart form required", nil)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	var files []service.UploadFile
	for _, field := range fileFields {
		for _, fh := range form.File[field] {
			files = append(files, uploadFile(fh))
		}
	}
	return files, form, nil
}

func uploadFile(fh *multipart.FileHeader) service.UploadFile {
	return service.UploadFile{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func formValue(form *multipart.Form, key string) string {
	if form == nil || len(form.Value[key]) == 0 {
		return ""
	}
	return form.Value[key][0]
}
