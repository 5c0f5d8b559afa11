package frontpage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishedPosts(n int, base time.Time) []PostSummary {
	posts := make([]PostSummary, 0, n)
	for i := 1; i <= n; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		posts = append(posts, PostSummary{
			ID:          uint(i),
			Title:       "Sak",
			Status:      StatusPublished,
			DisplaySize: DisplaySizeLarge,
			PublishedAt: &at,
		})
	}
	return posts
}

func TestResolveReportsAllStates(t *testing.T) {
	lookup := Index([]PostSummary{
		{ID: 1, Status: StatusPublished},
		{ID: 2, Status: StatusDraft},
	})

	assert.Equal(t, RefResolved, Resolve(Entry{PostID: 1}, lookup).Status)
	assert.Equal(t, RefUnpublished, Resolve(Entry{PostID: 2}, lookup).Status)

	missing := Resolve(Entry{PostID: 3}, lookup)
	assert.Equal(t, RefMissing, missing.Status)
	assert.Nil(t, missing.Post)
	assert.Equal(t, uint(3), missing.PostID)

	assert.Equal(t, RefMissing, Resolve(Entry{}, lookup).Status)
}

func TestResolveDisplaySizePrecedence(t *testing.T) {
	small := PostSummary{ID: 1, DisplaySize: DisplaySizeSmall}

	assert.Equal(t, DisplaySizeLarge, ResolveDisplaySize(Entry{DisplaySize: DisplaySizeLarge}, &small))
	assert.Equal(t, DisplaySizeSmall, ResolveDisplaySize(Entry{}, &small))
	assert.Equal(t, DisplaySizeLarge, ResolveDisplaySize(Entry{}, nil))
}

func TestAutomaticQueueAfterResetIsNewestFifty(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	published := publishedPosts(60, base)

	s := NewStack([]Entry{{Key: "a", PostID: 3}, {Key: "b", PostID: 7}})
	require.True(t, s.Reset())

	queue := AutomaticQueue(published, s.Entries(), Index(published), DefaultMaxItems)
	require.Len(t, queue, DefaultMaxItems)
	assert.Equal(t, uint(60), queue[0].ID)
	assert.Equal(t, uint(11), queue[len(queue)-1].ID)
}

func TestAutomaticQueueFillsRemainingSlots(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	published := publishedPosts(10, base)
	lookup := Index(published, []PostSummary{{ID: 99, Status: StatusDraft}})

	entries := []Entry{
		{Key: "a", PostID: 2},
		{Key: "b", PostID: 99},
		{Key: "c", PostID: 404},
	}

	queue := AutomaticQueue(published, entries, lookup, 5)
	require.Len(t, queue, 4)
	assert.Equal(t, []uint{10, 9, 8, 7}, []uint{queue[0].ID, queue[1].ID, queue[2].ID, queue[3].ID})
}

func TestPoolSkipsDraftsAndPinned(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := publishedPosts(3, base)
	posts = append(posts, PostSummary{ID: 4, Status: StatusDraft})

	pool := Pool(posts, []Entry{{Key: "a", PostID: 3}})
	require.Len(t, pool, 2)
	assert.Equal(t, uint(2), pool[0].ID)
	assert.Equal(t, uint(1), pool[1].ID)
}

func TestSortByPublishedDescTieBreaks(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := []PostSummary{
		{ID: 1, PublishedAt: &at},
		{ID: 2},
		{ID: 3, PublishedAt: &at},
	}
	SortByPublishedDesc(posts)
	assert.Equal(t, []uint{3, 1, 2}, []uint{posts[0].ID, posts[1].ID, posts[2].ID})
}

func TestBuildBoard(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	published := publishedPosts(4, base)
	published[0].Title = "Studentvalget"
	published[1].Title = "Kulturnatt"
	draft := PostSummary{ID: 8, Title: "Kladd", Status: StatusDraft, DisplaySize: DisplaySizeSmall}
	lookup := Index(published, []PostSummary{draft})

	entries := []Entry{
		{Key: "a", PostID: 4, DisplaySize: DisplaySizeSmall},
		{Key: "b", PostID: 8},
		{Key: "c", PostID: 77},
	}

	board := BuildBoard(entries, published, lookup, 3, "kultur")

	require.Len(t, board.Pinned, 3)
	assert.Equal(t, RefResolved, board.Pinned[0].Status)
	assert.Equal(t, DisplaySizeSmall, board.Pinned[0].DisplaySize)
	assert.Equal(t, RefUnpublished, board.Pinned[1].Status)
	assert.Equal(t, DisplaySizeSmall, board.Pinned[1].DisplaySize)
	assert.Equal(t, RefMissing, board.Pinned[2].Status)
	assert.Equal(t, DisplaySizeLarge, board.Pinned[2].DisplaySize)

	assert.Equal(t, 3, board.PinnedCount)
	assert.Equal(t, 1, board.PinnedPublished)
	assert.Equal(t, 3, board.FrontPageCount)
	assert.True(t, board.Full)

	require.Len(t, board.Automatic, 1)
	assert.Equal(t, "Kulturnatt", board.Automatic[0].Title)
}
