package feedclient

import (
	"context"
	"fmt"
	"sync"
)

// Feed is a local view of board announcements. Interactions are applied
// immediately and rolled back if the server rejects them.
type Feed struct {
	client *Client

	mu    sync.RWMutex
	order []string
	items map[string]*Announcement
}

// NewFeed returns an empty feed backed by client.
func NewFeed(client *Client) *Feed {
	return &Feed{client: client, items: make(map[string]*Announcement)}
}

// Refresh replaces the local view with the server's current page.
func (f *Feed) Refresh(ctx context.Context, header string, limit, skip int) error {
	list, err := f.client.List(ctx, header, limit, skip)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = f.order[:0]
	f.items = make(map[string]*Announcement, len(list))
	for i := range list {
		item := list[i]
		f.order = append(f.order, item.ID)
		f.items[item.ID] = &item
	}
	return nil
}

// Items returns deep copies of the local announcements in display order.
func (f *Feed) Items() []Announcement {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Announcement, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, clone(f.items[id]))
	}
	return out
}

// Announcement returns a copy of one local announcement.
func (f *Feed) Announcement(id string) (Announcement, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	item, ok := f.items[id]
	if !ok {
		return Announcement{}, false
	}
	return clone(item), true
}

// Do applies cmd locally, sends it, and reverts it if the server call fails.
// On success the local copy is replaced by the server's.
func (f *Feed) Do(ctx context.Context, announcementID string, cmd Command) error {
	f.mu.Lock()
	item, ok := f.items[announcementID]
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("announcement %s is not in the local feed", announcementID)
	}
	cmd.Apply(item)
	f.mu.Unlock()

	updated, err := cmd.Send(ctx, f.client, announcementID)

	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.items[announcementID]
	if err != nil {
		if ok {
			cmd.Revert(current)
		}
		return err
	}
	if ok && updated != nil {
		fresh := clone(updated)
		f.items[announcementID] = &fresh
	}
	return nil
}

func clone(a *Announcement) Announcement {
	out := *a
	out.Likes = append([]string(nil), a.Likes...)
	out.Comments = make([]AnnouncementComment, len(a.Comments))
	for i, c := range a.Comments {
		c.Replies = append([]CommentReply(nil), c.Replies...)
		out.Comments[i] = c
	}
	return out
}
