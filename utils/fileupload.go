package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxFileSize is 10MB in bytes
const MaxFileSize = 10 * 1024 * 1024

// Storage path prefixes handed out by the upload endpoint
const (
	S3AttachmentPrefix    = "attachments/"
	LocalAttachmentPrefix = "local/"
)

// allowedAttachmentTypes maps accepted extensions to their content type
var allowedAttachmentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateAttachment checks size and type of a complaint attachment
func ValidateAttachment(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("Die Datei ist größer als %d MB", MaxFileSize/(1024*1024)),
		}
	}
	if fileHeader.Size == 0 {
		return &FileUploadError{
			Code:    "EMPTY_FILE",
			Message: "Die Datei ist leer",
		}
	}

	if _, ok := AttachmentContentType(fileHeader.Filename); !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Erlaubt sind nur PDF, PNG und JPG",
		}
	}

	return nil
}

// AttachmentContentType returns the content type for an accepted file name
func AttachmentContentType(filename string) (string, bool) {
	ct, ok := allowedAttachmentTypes[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}

// AttachmentFileName builds a collision-free name that keeps the extension
func AttachmentFileName(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

// IssuedStoragePath reports whether path has the shape the upload endpoint
// returns: a known prefix followed by a generated uuid name with an accepted
// lowercase extension.
func IssuedStoragePath(path string) bool {
	name, ok := strings.CutPrefix(path, S3AttachmentPrefix)
	if !ok {
		if name, ok = strings.CutPrefix(path, LocalAttachmentPrefix); !ok {
			return false
		}
	}

	ext := filepath.Ext(name)
	if _, ok := allowedAttachmentTypes[ext]; !ok {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	if len(stem) != 36 {
		return false
	}
	_, err := uuid.Parse(stem)
	return err == nil
}

// SaveUploadedFile saves the uploaded file to the local filesystem
// Returns the generated file name inside uploadDir
func SaveUploadedFile(fileHeader *multipart.FileHeader, uploadDir string) (filename string, err error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename = AttachmentFileName(fileHeader.Filename)
	fullPath := filepath.Join(uploadDir, filename)

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

// SafeFileName rejects names that could escape the upload directory
func SafeFileName(filename string) bool {
	return filename != "" &&
		!strings.Contains(filename, "..") &&
		!strings.ContainsAny(filename, `/\`)
}

// GetAttachmentURL returns the URL path for a locally stored attachment
func GetAttachmentURL(filename string) string {
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/uploads/%s", filename)
}
