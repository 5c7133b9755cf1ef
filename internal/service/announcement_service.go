package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

const categoriesCacheKey = "announcements:categories"

type announcementStore interface {
	EnsureCategory(ctx context.Context, slug, label string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, a *models.Announcement) error
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	Update(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	AddLike(ctx context.Context, announcementID, userID string) error
	RemoveLike(ctx context.Context, announcementID, userID string) error
	AddComment(ctx context.Context, c *models.Comment) error
	CommentExists(ctx context.Context, announcementID, commentID string) (bool, error)
	AddReply(ctx context.Context, reply *models.Reply) error
}

// AnnouncementServiceConfig tunes listing and header handling.
type AnnouncementServiceConfig struct {
	NormalizeHeaders bool
	DefaultPageSize  int
	MaxPageSize      int
	CategoryTTL      time.Duration
}

// AnnouncementService runs the announcement board.
type AnnouncementService struct {
	repo      announcementStore
	cache     *CacheService
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       AnnouncementServiceConfig
	now       func() time.Time
}

// NewAnnouncementService constructs an AnnouncementService.
func NewAnnouncementService(repo announcementStore, cache *CacheService, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg AnnouncementServiceConfig) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AnnouncementService{repo: repo, cache: cache, validator: validate, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
}

// normalizeHeader collapses inner whitespace and lower-cases the header.
func normalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

func (s *AnnouncementService) headerKey(header string) string {
	if s.cfg.NormalizeHeaders {
		return normalizeHeader(header)
	}
	return strings.TrimSpace(header)
}

// headerLabel is the display form of a header. Without normalization it is
// the same string as the key.
func (s *AnnouncementService) headerLabel(header string) string {
	if s.cfg.NormalizeHeaders {
		return strings.Join(strings.Fields(header), " ")
	}
	return strings.TrimSpace(header)
}

func (s *AnnouncementService) ensureCategory(ctx context.Context, header string) (*models.Category, error) {
	category, err := s.repo.EnsureCategory(ctx, s.headerKey(header), s.headerLabel(header))
	if err != nil {
		return nil, internalError(err, "failed to register header")
	}
	s.cache.Delete(ctx, categoriesCacheKey)
	return category, nil
}

func canPublish(identity *models.Identity) error {
	if identity == nil {
		return appErrors.ErrUnauthorized
	}
	if !identity.HasRole(models.RoleSRC, models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "only SRC members and admins can publish announcements")
	}
	return nil
}

func requireFields(title, content, header string) error {
	if title == "" || content == "" || header == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title, content and header are required")
	}
	return nil
}

// Create publishes an announcement authored by the caller.
func (s *AnnouncementService) Create(ctx context.Context, identity *models.Identity, req dto.CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := canPublish(identity); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	header := strings.TrimSpace(req.Header)
	if err := requireFields(title, content, header); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	date := now
	if req.Date != nil && !req.Date.IsZero() {
		startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if req.Date.UTC().Before(startOfToday) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date cannot be in the past")
		}
		date = req.Date.UTC()
	}

	category, err := s.ensureCategory(ctx, header)
	if err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		Title:      title,
		Content:    content,
		Header:     category.Slug,
		Date:       date,
		PostedByID: identity.ID,
		PostedBy:   models.UserSummary{ID: identity.ID, Name: identity.Name, Email: identity.Email},
		Likes:      []string{},
		Comments:   []models.Comment{},
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, internalError(err, "failed to create announcement")
	}
	s.logger.Info("announcement created", zap.String("announcement_id", announcement.ID), zap.String("user_id", identity.ID))
	return announcement, nil
}

// List returns announcements newest first.
func (s *AnnouncementService) List(ctx context.Context, query dto.AnnouncementListQuery) ([]models.Announcement, *models.Pagination, error) {
	limit, skip := normalizePage(query.Limit, query.Skip, s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	filter := models.AnnouncementFilter{Limit: limit, Skip: skip}
	if strings.TrimSpace(query.Header) != "" {
		filter.Header = s.headerKey(query.Header)
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list announcements")
	}
	return items, models.NewPagination(limit, skip, total), nil
}

// Get returns one announcement with its interactions.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, internalError(err, "failed to load announcement")
	}
	return announcement, nil
}

// Headers lists the known announcement categories.
func (s *AnnouncementService) Headers(ctx context.Context) ([]models.Category, error) {
	var cached []models.Category
	if s.cache.Get(ctx, categoriesCacheKey, &cached) {
		return cached, nil
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list headers")
	}
	s.cache.Set(ctx, categoriesCacheKey, categories, s.cfg.CategoryTTL)
	return categories, nil
}

// CreateCategory registers a header ahead of its first use.
func (s *AnnouncementService) CreateCategory(ctx context.Context, identity *models.Identity, req dto.CreateCategoryRequest) (*models.Category, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !identity.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	req.Label = strings.TrimSpace(req.Label)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid category payload")
	}
	return s.ensureCategory(ctx, req.Label)
}

// actingUser checks that an optional userId in the payload names the caller.
func actingUser(identity *models.Identity, userID string) error {
	if identity == nil {
		return appErrors.ErrUnauthorized
	}
	if userID = strings.TrimSpace(userID); userID != "" && userID != identity.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot act on behalf of another user")
	}
	return nil
}

func (s *AnnouncementService) requireAnnouncement(ctx context.Context, id string) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return internalError(err, "failed to load announcement")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	return nil
}

// ToggleLike adds or removes the caller's like. Repeating a request leaves the
// like set unchanged.
func (s *AnnouncementService) ToggleLike(ctx context.Context, identity *models.Identity, id string, req dto.LikeRequest) (*models.Announcement, error) {
	if err := actingUser(identity, req.UserID); err != nil {
		return nil, err
	}
	if err := s.requireAnnouncement(ctx, id); err != nil {
		return nil, err
	}
	var err error
	if req.Like {
		err = s.repo.AddLike(ctx, id, identity.ID)
	} else {
		err = s.repo.RemoveLike(ctx, id, identity.ID)
	}
	if err != nil {
		return nil, internalError(err, "failed to update like")
	}
	if req.Like {
		s.metrics.RecordInteraction("like")
	} else {
		s.metrics.RecordInteraction("unlike")
	}
	return s.Get(ctx, id)
}

// AddComment appends the caller's comment.
func (s *AnnouncementService) AddComment(ctx context.Context, identity *models.Identity, id string, req dto.CommentRequest) (*models.Announcement, error) {
	if err := actingUser(identity, req.UserID); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment text is required")
	}
	if err := s.requireAnnouncement(ctx, id); err != nil {
		return nil, err
	}
	comment := &models.Comment{AnnouncementID: id, UserID: identity.ID, Text: text, Date: s.now().UTC()}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, internalError(err, "failed to add comment")
	}
	s.metrics.RecordInteraction("comment")
	return s.Get(ctx, id)
}

// AddReply appends the caller's reply under an existing comment.
func (s *AnnouncementService) AddReply(ctx context.Context, identity *models.Identity, id string, req dto.ReplyRequest) (*models.Announcement, error) {
	if err := actingUser(identity, req.UserID); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	commentID := strings.TrimSpace(req.CommentID)
	if text == "" || commentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "commentId and text are required")
	}
	if err := s.requireAnnouncement(ctx, id); err != nil {
		return nil, err
	}
	exists, err := s.repo.CommentExists(ctx, id, commentID)
	if err != nil {
		return nil, internalError(err, "failed to load comment")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	reply := &models.Reply{CommentID: commentID, AnnouncementID: id, UserID: identity.ID, Text: text, Date: s.now().UTC()}
	if err := s.repo.AddReply(ctx, reply); err != nil {
		return nil, internalError(err, "failed to add reply")
	}
	s.metrics.RecordInteraction("reply")
	return s.Get(ctx, id)
}

// authorize loads the announcement and checks the caller wrote it or is an admin.
func (s *AnnouncementService) authorize(ctx context.Context, identity *models.Identity, id string) (*models.Announcement, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	announcement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if announcement.PostedByID != identity.ID && !identity.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can change this announcement")
	}
	return announcement, nil
}

// Update edits title, content and header.
func (s *AnnouncementService) Update(ctx context.Context, identity *models.Identity, id string, req dto.UpdateAnnouncementRequest) (*models.Announcement, error) {
	announcement, err := s.authorize(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	header := strings.TrimSpace(req.Header)
	if err := requireFields(title, content, header); err != nil {
		return nil, err
	}
	category, err := s.ensureCategory(ctx, header)
	if err != nil {
		return nil, err
	}
	announcement.Title = title
	announcement.Content = content
	announcement.Header = category.Slug
	if err := s.repo.Update(ctx, announcement); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, internalError(err, "failed to update announcement")
	}
	return announcement, nil
}

// Delete removes an announcement and its interactions.
func (s *AnnouncementService) Delete(ctx context.Context, identity *models.Identity, id string) error {
	if _, err := s.authorize(ctx, identity, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return internalError(err, "failed to delete announcement")
	}
	s.logger.Info("announcement deleted", zap.String("announcement_id", id), zap.String("user_id", identity.ID))
	return nil
}
