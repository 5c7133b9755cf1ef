package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/dto"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/storage"
)

const uploadFolder = "uploads"

// UploadServiceConfig holds upload limits.
type UploadServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
}

type signedURLParser interface {
	Parse(token string) (subject, key string, err error)
}

// UploadService validates and stores user supplied documents and images, and
// serves files behind signed links.
type UploadService struct {
	store   storage.ObjectStore
	signer  signedURLParser
	logger  *zap.Logger
	cfg     UploadServiceConfig
	mimeSet map[string]struct{}
}

// NewUploadService constructs the service with defaults.
func NewUploadService(store storage.ObjectStore, signer signedURLParser, logger *zap.Logger, cfg UploadServiceConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 << 20
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/png", "image/jpeg", "image/webp", "application/pdf"}
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}
	return &UploadService{store: store, signer: signer, logger: logger, cfg: cfg, mimeSet: mimeSet}
}

// Upload sniffs the content type, enforces the limits and stores the file.
func (s *UploadService) Upload(ctx context.Context, filename string, r io.Reader, size int64) (*dto.UploadResponse, error) {
	if r == nil || size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, internalError(err, "failed to read upload")
	}
	head = head[:n]
	mimeType := strings.ToLower(strings.TrimSpace(strings.Split(http.DetectContentType(head), ";")[0]))
	if _, ok := s.mimeSet[mimeType]; !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "file type "+mimeType+" is not allowed")
	}

	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(r, s.cfg.MaxFileSize-int64(n)))
	obj, err := s.store.Put(ctx, storage.NewKey(uploadFolder, filename), mimeType, body)
	if err != nil {
		return nil, internalError(err, "failed to store upload")
	}
	s.logger.Info("file uploaded", zap.String("key", obj.Key), zap.String("content_type", mimeType), zap.Int64("size", obj.Size))
	return &dto.UploadResponse{URL: obj.URL, Key: obj.Key, Size: obj.Size, ContentType: mimeType}, nil
}

// OpenSigned resolves a signed link to the stored file. Invalid or expired
// tokens yield 403, missing objects 404.
func (s *UploadService) OpenSigned(ctx context.Context, token string) (io.ReadCloser, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.ErrNotFound
	}
	_, key, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "link is invalid or has expired")
	}
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, "", internalError(err, "failed to open file")
	}
	return rc, key, nil
}
