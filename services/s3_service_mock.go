package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"

	"github.com/autoteile-schmidt/service-portal-api/utils"
)

// MockS3Service is an in-memory S3Interface for tests
type MockS3Service struct {
	mu            sync.RWMutex
	uploadedFiles map[string][]byte
	DeleteErr     error
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		uploadedFiles: make(map[string][]byte),
	}
}

func (m *MockS3Service) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	s3Key := utils.S3AttachmentPrefix + utils.AttachmentFileName(fileHeader.Filename)

	m.mu.Lock()
	m.uploadedFiles[s3Key] = content
	m.mu.Unlock()

	return s3Key, nil
}

func (m *MockS3Service) GetPresignedURL(ctx context.Context, s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.uploadedFiles[s3Key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock S3: %s", s3Key)
	}

	return fmt.Sprintf("https://test-bucket.s3.eu-central-1.amazonaws.com/%s?mock=true", s3Key), nil
}

func (m *MockS3Service) DeleteFile(ctx context.Context, s3Key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	delete(m.uploadedFiles, s3Key)
	m.mu.Unlock()

	return nil
}

// Put stores content under key directly (for test setup)
func (m *MockS3Service) Put(s3Key string, content []byte) {
	m.mu.Lock()
	m.uploadedFiles[s3Key] = content
	m.mu.Unlock()
}

// FileExists checks if a file exists in mock storage
func (m *MockS3Service) FileExists(s3Key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedFiles[s3Key]
	return exists
}

// GetUploadedFiles returns a copy of all stored files
func (m *MockS3Service) GetUploadedFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make(map[string][]byte, len(m.uploadedFiles))
	for k, v := range m.uploadedFiles {
		files[k] = v
	}
	return files
}
