package feedclient

import "time"

// Author identifies who wrote a post, comment or reply.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Announcement is a board post as the API serves it.
type Announcement struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Content   string                `json:"content"`
	Header    string                `json:"header"`
	Date      time.Time             `json:"date"`
	PostedBy  Author                `json:"postedBy"`
	Likes     []string              `json:"likes"`
	Comments  []AnnouncementComment `json:"comments"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// AnnouncementComment is a comment with its replies.
type AnnouncementComment struct {
	ID      string         `json:"id"`
	User    Author         `json:"user"`
	Text    string         `json:"text"`
	Date    time.Time      `json:"date"`
	Replies []CommentReply `json:"replies"`
}

// CommentReply is an answer to a comment.
type CommentReply struct {
	ID   string    `json:"id"`
	User Author    `json:"user"`
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

type likeRequest struct {
	UserID string `json:"userId"`
	Like   bool   `json:"like"`
}

type commentRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

type replyRequest struct {
	CommentID string `json:"commentId"`
	UserID    string `json:"userId"`
	Text      string `json:"text"`
}
