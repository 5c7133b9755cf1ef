package models

import "time"

// Announcement is a board post with its likes and threaded comments.
type Announcement struct {
	ID          string      `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Content     string      `db:"content" json:"content"`
	Header      string      `db:"header" json:"header"`
	Date        time.Time   `db:"date" json:"date"`
	PostedByID  string      `db:"posted_by" json:"-"`
	AuthorName  string      `db:"author_name" json:"-"`
	AuthorEmail string      `db:"author_email" json:"-"`
	PostedBy    UserSummary `db:"-" json:"postedBy"`
	Likes       []string    `db:"-" json:"likes"`
	Comments    []Comment   `db:"-" json:"comments"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// Comment is an append-only remark on an announcement.
type Comment struct {
	ID             string      `db:"id" json:"id"`
	AnnouncementID string      `db:"announcement_id" json:"-"`
	UserID         string      `db:"user_id" json:"-"`
	AuthorName     string      `db:"author_name" json:"-"`
	AuthorEmail    string      `db:"author_email" json:"-"`
	User           UserSummary `db:"-" json:"user"`
	Text           string      `db:"text" json:"text"`
	Date           time.Time   `db:"date" json:"date"`
	Replies        []Reply     `db:"-" json:"replies"`
}

// Reply is an append-only answer to a comment.
type Reply struct {
	ID             string      `db:"id" json:"id"`
	CommentID      string      `db:"comment_id" json:"-"`
	AnnouncementID string      `db:"announcement_id" json:"-"`
	UserID         string      `db:"user_id" json:"-"`
	AuthorName     string      `db:"author_name" json:"-"`
	AuthorEmail    string      `db:"author_email" json:"-"`
	User           UserSummary `db:"-" json:"user"`
	Text           string      `db:"text" json:"text"`
	Date           time.Time   `db:"date" json:"date"`
}

// Like is one (announcement, user) membership row.
type Like struct {
	AnnouncementID string `db:"announcement_id"`
	UserID         string `db:"user_id"`
}

// Category is a managed announcement header.
type Category struct {
	Slug      string    `db:"slug" json:"slug"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// AnnouncementFilter allows listing announcements.
type AnnouncementFilter struct {
	Header string
	Limit  int
	Skip   int
}
