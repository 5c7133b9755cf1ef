package feedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBoard serves one announcement and can be switched into failure mode.
type fakeBoard struct {
	mu    sync.Mutex
	item  Announcement
	fail  bool
	token string
}

func (b *fakeBoard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = r.Header.Get("Authorization")

	write := func(status int, body interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	if b.fail {
		write(http.StatusInternalServerError, map[string]interface{}{
			"error": map[string]interface{}{"code": "INTERNAL_ERROR", "message": "internal server error", "status": 500},
		})
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/announcements":
		write(http.StatusOK, map[string]interface{}{"data": []Announcement{b.item}})
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/announcements/a1/like":
		var req likeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.item.Likes = []string{}
		if req.Like {
			b.item.Likes = []string{req.UserID}
		}
		write(http.StatusOK, map[string]interface{}{"data": b.item})
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/announcements/a1/comments":
		var req commentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.item.Comments = append(b.item.Comments, AnnouncementComment{ID: "c-server", Text: req.Text, Replies: []CommentReply{}})
		write(http.StatusCreated, map[string]interface{}{"data": b.item})
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/announcements/a1/replies":
		write(http.StatusNotFound, map[string]interface{}{
			"error": map[string]interface{}{"code": "NOT_FOUND", "message": "comment not found", "status": 404},
		})
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBoard) setFail(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = fail
}

func (b *fakeBoard) lastToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

func newTestFeed(t *testing.T) (*Feed, *fakeBoard) {
	t.Helper()
	board := &fakeBoard{item: Announcement{
		ID:    "a1",
		Title: "Exams",
		Likes: []string{},
		Comments: []AnnouncementComment{
			{ID: "c1", Text: "first", Replies: []CommentReply{}},
		},
	}}
	srv := httptest.NewServer(board)
	t.Cleanup(srv.Close)

	feed := NewFeed(NewClient(srv.URL+"/api/v1/", "session-token", srv.Client()))
	require.NoError(t, feed.Refresh(context.Background(), "", 0, 0))
	return feed, board
}

func TestFeedRefresh(t *testing.T) {
	feed, board := newTestFeed(t)

	items := feed.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Exams", items[0].Title)
	assert.Equal(t, "Bearer session-token", board.lastToken())
}

func TestFeedLikeSuccessTakesServerCopy(t *testing.T) {
	feed, _ := newTestFeed(t)

	require.NoError(t, feed.Do(context.Background(), "a1", &Like{UserID: "u1", Like: true}))

	item, ok := feed.Announcement("a1")
	require.True(t, ok)
	assert.Equal(t, []string{"u1"}, item.Likes)
}

func TestFeedLikeRollsBack(t *testing.T) {
	feed, board := newTestFeed(t)
	board.setFail(true)

	err := feed.Do(context.Background(), "a1", &Like{UserID: "u1", Like: true})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	item, _ := feed.Announcement("a1")
	assert.Empty(t, item.Likes)
}

func TestFeedUnlikeRollbackRestoresLike(t *testing.T) {
	feed, board := newTestFeed(t)
	require.NoError(t, feed.Do(context.Background(), "a1", &Like{UserID: "u1", Like: true}))
	board.setFail(true)

	require.Error(t, feed.Do(context.Background(), "a1", &Like{UserID: "u1", Like: false}))

	item, _ := feed.Announcement("a1")
	assert.Equal(t, []string{"u1"}, item.Likes)
}

func TestLikeRevertOnlyUndoesItsOwnChange(t *testing.T) {
	a := &Announcement{Likes: []string{"u1"}}
	cmd := &Like{UserID: "u1", Like: true}

	cmd.Apply(a)
	cmd.Revert(a)

	assert.Equal(t, []string{"u1"}, a.Likes)
}

func TestFeedCommentRollsBack(t *testing.T) {
	feed, board := newTestFeed(t)
	board.setFail(true)

	require.Error(t, feed.Do(context.Background(), "a1", &Comment{UserID: "u1", Text: "hello"}))

	item, _ := feed.Announcement("a1")
	require.Len(t, item.Comments, 1)
	assert.Equal(t, "c1", item.Comments[0].ID)
}

func TestFeedCommentSuccess(t *testing.T) {
	feed, _ := newTestFeed(t)

	require.NoError(t, feed.Do(context.Background(), "a1", &Comment{UserID: "u1", Text: "hello"}))

	item, _ := feed.Announcement("a1")
	require.Len(t, item.Comments, 2)
	assert.Equal(t, "c-server", item.Comments[1].ID)
}

func TestFeedReplyRollsBack(t *testing.T) {
	feed, _ := newTestFeed(t)

	err := feed.Do(context.Background(), "a1", &Reply{CommentID: "c1", UserID: "u1", Text: "thanks"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "comment not found", apiErr.Message)
	item, _ := feed.Announcement("a1")
	assert.Empty(t, item.Comments[0].Replies)
}

func TestReplyRevertKeepsOtherReplies(t *testing.T) {
	a := &Announcement{Comments: []AnnouncementComment{{ID: "c1"}}}
	first := &Reply{CommentID: "c1", Text: "one"}
	second := &Reply{CommentID: "c1", Text: "two"}

	first.Apply(a)
	second.Apply(a)
	first.Revert(a)

	require.Len(t, a.Comments[0].Replies, 1)
	assert.Equal(t, "two", a.Comments[0].Replies[0].Text)
}

func TestFeedDoUnknownAnnouncement(t *testing.T) {
	feed, _ := newTestFeed(t)

	assert.Error(t, feed.Do(context.Background(), "missing", &Like{UserID: "u1", Like: true}))
}

func TestItemsAreCopies(t *testing.T) {
	feed, _ := newTestFeed(t)

	items := feed.Items()
	items[0].Comments[0].Text = "mutated"

	item, _ := feed.Announcement("a1")
	assert.Equal(t, "first", item.Comments[0].Text)
}
