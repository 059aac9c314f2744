// Package document stores files attached to sales, projects, quotes and kits.
package document

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Owner types that may carry documents
const (
	OwnerSale    = "sale"
	OwnerProject = "project"
	OwnerQuote   = "quote"
	OwnerKit     = "kit"
)

var ownerTypes = map[string]bool{
	OwnerSale:    true,
	OwnerProject: true,
	OwnerQuote:   true,
	OwnerKit:     true,
}

// ObjectInfo describes one stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStorage is implemented by the infrastructure layer (S3, MinIO, in-memory)
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// Config holds limits for the document service
type Config struct {
	MaxSizeBytes      int64
	DownloadURLExpiry time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		MaxSizeBytes:      20 << 20,
		DownloadURLExpiry: time.Hour,
	}
}

// DocumentResponse is a stored document with a short-lived download link
type DocumentResponse struct {
	OwnerType   string    `json:"owner_type"`
	OwnerID     uuid.UUID `json:"owner_id"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Owner identifies the entity a document belongs to
type Owner struct {
	TenantID uuid.UUID
	Type     string
	ID       uuid.UUID
}

// UploadInput is one file to store
type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// DocumentService keeps documents under <tenant>/<owner_type>/<owner_id>/<file>
type DocumentService struct {
	storage ObjectStorage
	config  Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(storage ObjectStorage, config Config, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxSizeBytes <= 0 {
		config.MaxSizeBytes = DefaultConfig().MaxSizeBytes
	}
	if config.DownloadURLExpiry <= 0 {
		config.DownloadURLExpiry = DefaultConfig().DownloadURLExpiry
	}
	return &DocumentService{storage: storage, config: config, logger: logger, now: time.Now}
}

// Upload stores a file for the owner, replacing one with the same name
func (s *DocumentService) Upload(ctx context.Context, owner Owner, input UploadInput) (*DocumentResponse, error) {
	prefix, err := ownerPrefix(owner)
	if err != nil {
		return nil, err
	}
	name, err := cleanFileName(input.FileName)
	if err != nil {
		return nil, err
	}
	if len(input.Data) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "file is empty")
	}
	if int64(len(input.Data)) > s.config.MaxSizeBytes {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxSizeBytes))
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := prefix + name
	if err := s.storage.Upload(ctx, key, input.Data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	s.logger.Info("document uploaded",
		zap.String("tenant_id", owner.TenantID.String()),
		zap.String("key", key),
		zap.Int("size", len(input.Data)))

	return s.describe(ctx, owner, ObjectInfo{
		Key:          key,
		Size:         int64(len(input.Data)),
		ContentType:  contentType,
		LastModified: s.now(),
	})
}

// List returns the owner's documents ordered by file name
func (s *DocumentService) List(ctx context.Context, owner Owner) ([]DocumentResponse, error) {
	prefix, err := ownerPrefix(owner)
	if err != nil {
		return nil, err
	}
	objects, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	docs := make([]DocumentResponse, 0, len(objects))
	for _, obj := range objects {
		doc, err := s.describe(ctx, owner, obj)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Delete removes one document
func (s *DocumentService) Delete(ctx context.Context, owner Owner, fileName string) error {
	prefix, err := ownerPrefix(owner)
	if err != nil {
		return err
	}
	name, err := cleanFileName(fileName)
	if err != nil {
		return err
	}
	key := prefix + name
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check document: %w", err)
	}
	if !exists {
		return shared.NewDomainError(shared.CodeNotFound, "document not found")
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	s.logger.Info("document deleted", zap.String("tenant_id", owner.TenantID.String()), zap.String("key", key))
	return nil
}

func (s *DocumentService) describe(ctx context.Context, owner Owner, obj ObjectInfo) (*DocumentResponse, error) {
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, obj.Key, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download URL: %w", err)
	}
	return &DocumentResponse{
		OwnerType:   strings.ToLower(owner.Type),
		OwnerID:     owner.ID,
		FileName:    path.Base(obj.Key),
		Size:        obj.Size,
		ContentType: obj.ContentType,
		UploadedAt:  obj.LastModified,
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	}, nil
}

// StorageKey builds the object key of a document
func StorageKey(owner Owner, fileName string) (string, error) {
	prefix, err := ownerPrefix(owner)
	if err != nil {
		return "", err
	}
	name, err := cleanFileName(fileName)
	if err != nil {
		return "", err
	}
	return prefix + name, nil
}

func ownerPrefix(owner Owner) (string, error) {
	if owner.TenantID == uuid.Nil || owner.ID == uuid.Nil {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "owner is required")
	}
	ownerType := strings.ToLower(owner.Type)
	if !ownerTypes[ownerType] {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "unknown owner type: "+owner.Type)
	}
	return fmt.Sprintf("%s/%s/%s/", owner.TenantID, ownerType, owner.ID), nil
}

func cleanFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "invalid file name")
	}
	if len(name) > 200 {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "file name is too long")
	}
	return name, nil
}
