package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/estudia/study-backend/internal/config"
	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/rag/extract"
)

// Validator validates document uploads
type Validator struct {
	cfg config.FileUploadConfig
}

func NewFileValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) ValidateUploadDocument(req *entity.UploadDocumentRequest) error {
	if req.StudentID == "" {
		return fmt.Errorf("%w: student_id", entity.ErrMissingField)
	}
	if req.File == nil {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}

	return v.ValidateFile(req.File)
}

// ValidateFile checks extension and size limits of one upload.
func (v *Validator) ValidateFile(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !extract.SupportedExtensions[ext] {
		return fmt.Errorf("%w: %s (allowed: pdf, docx, txt)", entity.ErrInvalidExtension, ext)
	}

	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)",
			entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
	}

	return nil
}

// SanitizeFilename strips path components and characters that could
// break storage or headers.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	var sb strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.', r == '-', r == '_', r == ' ':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	return strings.TrimSpace(sb.String())
}
