package dto

import "time"

// CreateAnnouncementRequest publishes a board post. Date defaults to now.
type CreateAnnouncementRequest struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Header  string     `json:"header"`
	Date    *time.Time `json:"date"`
}

// UpdateAnnouncementRequest edits an existing post.
type UpdateAnnouncementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Header  string `json:"header"`
}

// AnnouncementListQuery captures list filters.
type AnnouncementListQuery struct {
	Header string `form:"header"`
	Limit  int    `form:"limit"`
	Skip   int    `form:"skip"`
}

// LikeRequest sets whether the caller likes a post.
type LikeRequest struct {
	UserID string `json:"userId"`
	Like   bool   `json:"like"`
}

// CommentRequest appends a comment.
type CommentRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

// ReplyRequest appends a reply under a comment.
type ReplyRequest struct {
	CommentID string `json:"commentId"`
	UserID    string `json:"userId"`
	Text      string `json:"text"`
}

// CreateCategoryRequest registers a header.
type CreateCategoryRequest struct {
	Label string `json:"label" validate:"required,max=80"`
}
