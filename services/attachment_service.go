package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/utils"
)

// AttachmentService stores complaint attachments and resolves download links
type AttachmentService interface {
	// Upload validates the file and stores it, returning the storage path
	Upload(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// URL returns a download link for a storage path
	URL(ctx context.Context, storagePath string) (string, error)

	// Delete removes a stored file; missing files are not an error
	Delete(ctx context.Context, storagePath string) error
}

// S3AttachmentService keeps attachments in a private S3 bucket
type S3AttachmentService struct {
	s3 S3Interface
}

func NewS3AttachmentService(s3 S3Interface) *S3AttachmentService {
	return &S3AttachmentService{s3: s3}
}

func (s *S3AttachmentService) Upload(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateAttachment(fileHeader); err != nil {
		return "", err
	}
	key, err := s.s3.UploadFile(ctx, fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}
	return key, nil
}

func (s *S3AttachmentService) URL(ctx context.Context, storagePath string) (string, error) {
	return s.s3.GetPresignedURL(ctx, storagePath)
}

func (s *S3AttachmentService) Delete(ctx context.Context, storagePath string) error {
	if err := s.s3.DeleteFile(ctx, storagePath); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// LocalAttachmentService keeps attachments in a directory on disk
type LocalAttachmentService struct {
	dir string
}

func NewLocalAttachmentService(dir string) *LocalAttachmentService {
	return &LocalAttachmentService{dir: dir}
}

func (s *LocalAttachmentService) Upload(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateAttachment(fileHeader); err != nil {
		return "", err
	}
	name, err := utils.SaveUploadedFile(fileHeader, s.dir)
	if err != nil {
		return "", err
	}
	return utils.LocalAttachmentPrefix + name, nil
}

func (s *LocalAttachmentService) URL(ctx context.Context, storagePath string) (string, error) {
	name, ok := s.fileName(storagePath)
	if !ok {
		return "", fmt.Errorf("invalid storage path %q", storagePath)
	}
	return utils.GetAttachmentURL(name), nil
}

func (s *LocalAttachmentService) Delete(ctx context.Context, storagePath string) error {
	name, ok := s.fileName(storagePath)
	if !ok {
		return fmt.Errorf("invalid storage path %q", storagePath)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// Path returns the file on disk for a bare file name.
func (s *LocalAttachmentService) Path(name string) (string, bool) {
	if !utils.SafeFileName(name) {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

func (s *LocalAttachmentService) fileName(storagePath string) (string, bool) {
	name := strings.TrimPrefix(storagePath, utils.LocalAttachmentPrefix)
	return name, utils.SafeFileName(name)
}

// ResolveURLs fills Attachment.URL for every attachment. Failures leave the
// URL empty.
func ResolveURLs(ctx context.Context, svc AttachmentService, attachments []models.Attachment) {
	for i := range attachments {
		url, err := svc.URL(ctx, attachments[i].StoragePath)
		if err != nil || url == "" {
			continue
		}
		attachments[i].URL = &url
	}
}
