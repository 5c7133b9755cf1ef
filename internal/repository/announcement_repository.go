package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/student-portal-api/internal/models"
)

const announcementColumns = `a.id, a.title, a.content, a.header, a.date, a.posted_by, u.name AS author_name, u.email AS author_email, a.created_at, a.updated_at`

// AnnouncementRepository persists board posts, categories and interactions.
type AnnouncementRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewAnnouncementRepository constructs an AnnouncementRepository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// EnsureCategory registers a category if the slug is new and returns the stored row.
func (r *AnnouncementRepository) EnsureCategory(ctx context.Context, slug, label string) (*models.Category, error) {
	const insert = `INSERT INTO announcement_categories (slug, label, created_at) VALUES ($1, $2, $3) ON CONFLICT (slug) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, slug, label, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("ensure category: %w", err)
	}
	var category models.Category
	if err := r.db.GetContext(ctx, &category, `SELECT slug, label, created_at FROM announcement_categories WHERE slug = $1`, slug); err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	return &category, nil
}

// ListCategories returns every category ordered by label.
func (r *AnnouncementRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	const query = `SELECT slug, label, created_at FROM announcement_categories ORDER BY label`
	categories := make([]models.Category, 0)
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Date.IsZero() {
		a.Date = now
	}
	const query = `INSERT INTO announcements (id, title, content, header, date, posted_by, created_at, updated_at) VALUES (:id, :title, :content, :header, :date, :posted_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// FindByID returns an announcement with its likes, comments and replies.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements a JOIN users u ON u.id = a.posted_by WHERE a.id = $1`
	var a models.Announcement
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find announcement: %w", err)
	}
	items := []models.Announcement{a}
	if err := r.hydrate(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// List returns newest-first announcements, optionally restricted to one header.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	where := squirrel.And{}
	if filter.Header != "" {
		where = append(where, squirrel.Eq{"a.header": filter.Header})
	}

	listQuery, args, err := r.sb.Select(announcementColumns).
		From("announcements a").
		Join("users u ON u.id = a.posted_by").
		Where(where).
		OrderBy("a.date DESC", "a.created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Skip)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list announcements: %w", err)
	}
	items := make([]models.Announcement, 0)
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("announcements a").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count announcements: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}

	if err := r.hydrate(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update rewrites title, content and header.
func (r *AnnouncementRepository) Update(ctx context.Context, a *models.Announcement) error {
	a.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET title = :title, content = :content, header = :header, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return expectAffected(res, "update announcement")
}

// Delete removes an announcement; interactions cascade.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return expectAffected(res, "delete announcement")
}

// Exists reports whether the announcement is present.
func (r *AnnouncementRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM announcements WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("announcement exists: %w", err)
	}
	return exists, nil
}

// AddLike records the user in the like set. Repeating it is a no-op.
func (r *AnnouncementRepository) AddLike(ctx context.Context, announcementID, userID string) error {
	const query = `INSERT INTO announcement_likes (announcement_id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (announcement_id, user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, announcementID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add like: %w", err)
	}
	return nil
}

// RemoveLike drops the user from the like set. Removing an absent like is a no-op.
func (r *AnnouncementRepository) RemoveLike(ctx context.Context, announcementID, userID string) error {
	const query = `DELETE FROM announcement_likes WHERE announcement_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, announcementID, userID); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	return nil
}

// AddComment appends a comment to the announcement.
func (r *AnnouncementRepository) AddComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	const query = `INSERT INTO announcement_comments (id, announcement_id, user_id, text, date) VALUES (:id, :announcement_id, :user_id, :text, :date)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// CommentExists reports whether the comment belongs to the announcement.
func (r *AnnouncementRepository) CommentExists(ctx context.Context, announcementID, commentID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM announcement_comments WHERE id = $1 AND announcement_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, commentID, announcementID); err != nil {
		return false, fmt.Errorf("comment exists: %w", err)
	}
	return exists, nil
}

// AddReply appends a reply under an existing comment.
func (r *AnnouncementRepository) AddReply(ctx context.Context, reply *models.Reply) error {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if reply.Date.IsZero() {
		reply.Date = time.Now().UTC()
	}
	const query = `INSERT INTO announcement_replies (id, comment_id, announcement_id, user_id, text, date) VALUES (:id, :comment_id, :announcement_id, :user_id, :text, :date)`
	if _, err := r.db.NamedExecContext(ctx, query, reply); err != nil {
		return fmt.Errorf("add reply: %w", err)
	}
	return nil
}

// hydrate loads likes, comments and replies for the given announcements in
// three batched queries, preserving insertion order.
func (r *AnnouncementRepository) hydrate(ctx context.Context, items []models.Announcement) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	index := make(map[string]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = i
		items[i].PostedBy = models.UserSummary{ID: items[i].PostedByID, Name: items[i].AuthorName, Email: items[i].AuthorEmail}
		items[i].Likes = []string{}
		items[i].Comments = []models.Comment{}
	}

	var likes []models.Like
	const likesQuery = `SELECT announcement_id, user_id FROM announcement_likes WHERE announcement_id = ANY($1) ORDER BY created_at, user_id`
	if err := r.db.SelectContext(ctx, &likes, likesQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("load likes: %w", err)
	}
	for _, like := range likes {
		i := index[like.AnnouncementID]
		items[i].Likes = append(items[i].Likes, like.UserID)
	}

	var comments []models.Comment
	const commentsQuery = `SELECT c.id, c.announcement_id, c.user_id, u.name AS author_name, u.email AS author_email, c.text, c.date FROM announcement_comments c JOIN users u ON u.id = c.user_id WHERE c.announcement_id = ANY($1) ORDER BY c.seq`
	if err := r.db.SelectContext(ctx, &comments, commentsQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	var replies []models.Reply
	const repliesQuery = `SELECT rp.id, rp.comment_id, rp.announcement_id, rp.user_id, u.name AS author_name, u.email AS author_email, rp.text, rp.date FROM announcement_replies rp JOIN users u ON u.id = rp.user_id WHERE rp.announcement_id = ANY($1) ORDER BY rp.seq`
	if err := r.db.SelectContext(ctx, &replies, repliesQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("load replies: %w", err)
	}
	repliesByComment := make(map[string][]models.Reply, len(replies))
	for _, reply := range replies {
		reply.User = models.UserSummary{ID: reply.UserID, Name: reply.AuthorName, Email: reply.AuthorEmail}
		repliesByComment[reply.CommentID] = append(repliesByComment[reply.CommentID], reply)
	}

	for _, c := range comments {
		c.User = models.UserSummary{ID: c.UserID, Name: c.AuthorName, Email: c.AuthorEmail}
		c.Replies = repliesByComment[c.ID]
		if c.Replies == nil {
			c.Replies = []models.Reply{}
		}
		i := index[c.AnnouncementID]
		items[i].Comments = append(items[i].Comments, c)
	}
	return nil
}
