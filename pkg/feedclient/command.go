package feedclient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Command is a board interaction with an explicit inverse. Revert undoes
// exactly what the last Apply changed.
type Command interface {
	Apply(a *Announcement)
	Revert(a *Announcement)
	Send(ctx context.Context, c *Client, announcementID string) (*Announcement, error)
}

// Like adds or removes UserID from the like set.
type Like struct {
	UserID string
	Like   bool

	changed bool
}

func (l *Like) Apply(a *Announcement) {
	idx := indexOf(a.Likes, l.UserID)
	switch {
	case l.Like && idx < 0:
		a.Likes = append(a.Likes, l.UserID)
		l.changed = true
	case !l.Like && idx >= 0:
		a.Likes = append(a.Likes[:idx:idx], a.Likes[idx+1:]...)
		l.changed = true
	default:
		l.changed = false
	}
}

func (l *Like) Revert(a *Announcement) {
	if !l.changed {
		return
	}
	if l.Like {
		if idx := indexOf(a.Likes, l.UserID); idx >= 0 {
			a.Likes = append(a.Likes[:idx:idx], a.Likes[idx+1:]...)
		}
	} else if indexOf(a.Likes, l.UserID) < 0 {
		a.Likes = append(a.Likes, l.UserID)
	}
	l.changed = false
}

func (l *Like) Send(ctx context.Context, c *Client, announcementID string) (*Announcement, error) {
	return c.Like(ctx, announcementID, likeRequest{UserID: l.UserID, Like: l.Like})
}

// Comment appends a provisional comment until the server confirms it.
type Comment struct {
	UserID string
	Text   string

	localID string
}

func (cm *Comment) Apply(a *Announcement) {
	cm.localID = provisionalID()
	a.Comments = append(a.Comments, AnnouncementComment{
		ID:      cm.localID,
		User:    Author{ID: cm.UserID},
		Text:    cm.Text,
		Date:    time.Now().UTC(),
		Replies: []CommentReply{},
	})
}

func (cm *Comment) Revert(a *Announcement) {
	for i := range a.Comments {
		if a.Comments[i].ID == cm.localID {
			a.Comments = append(a.Comments[:i:i], a.Comments[i+1:]...)
			return
		}
	}
}

func (cm *Comment) Send(ctx context.Context, c *Client, announcementID string) (*Announcement, error) {
	return c.Comment(ctx, announcementID, commentRequest{UserID: cm.UserID, Text: cm.Text})
}

// Reply appends a provisional reply under CommentID. Apply does nothing when
// the comment is not in the local view; the server decides.
type Reply struct {
	CommentID string
	UserID    string
	Text      string

	localID string
}

func (r *Reply) Apply(a *Announcement) {
	r.localID = ""
	for i := range a.Comments {
		if a.Comments[i].ID != r.CommentID {
			continue
		}
		r.localID = provisionalID()
		a.Comments[i].Replies = append(a.Comments[i].Replies, CommentReply{
			ID:   r.localID,
			User: Author{ID: r.UserID},
			Text: r.Text,
			Date: time.Now().UTC(),
		})
		return
	}
}

func (r *Reply) Revert(a *Announcement) {
	if r.localID == "" {
		return
	}
	for i := range a.Comments {
		if a.Comments[i].ID != r.CommentID {
			continue
		}
		replies := a.Comments[i].Replies
		for j := range replies {
			if replies[j].ID == r.localID {
				a.Comments[i].Replies = append(replies[:j:j], replies[j+1:]...)
				return
			}
		}
	}
}

func (r *Reply) Send(ctx context.Context, c *Client, announcementID string) (*Announcement, error) {
	return c.Reply(ctx, announcementID, replyRequest{CommentID: r.CommentID, UserID: r.UserID, Text: r.Text})
}

func provisionalID() string {
	return "local-" + uuid.NewString()
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
