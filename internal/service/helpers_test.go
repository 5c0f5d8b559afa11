package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDBCounter atomic.Int64

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), testDBCounter.Add(1))
	gdb, err := db.Open(dsn)
	require.NoError(t, err, "open test database")
	return gdb
}

type testServices struct {
	db    *gorm.DB
	posts *PostService
	front *FrontPageService
	sync  *DisplaySizeSync
	home  *HomeRevision
}

func newTestServices(t *testing.T, maxItems int) *testServices {
	t.Helper()
	gdb := setupServiceTestDB(t)

	home := NewHomeRevision(gdb, nil)
	posts := NewPostService(gdb, nil)
	posts.SetHomeInvalidator(home)
	front := NewFrontPageService(gdb, posts, maxItems, nil)
	front.SetHomeInvalidator(home)
	sync := NewDisplaySizeSync(posts, front, nil)
	sync.Register()

	return &testServices{db: gdb, posts: posts, front: front, sync: sync, home: home}
}

func createDraft(t *testing.T, posts *PostService, title string) *db.Post {
	t.Helper()
	post, err := posts.Create(context.Background(), PostInput{
		Title:   title,
		Summary: "Ingress for " + title,
		Content: "Brødtekst for " + title,
	})
	require.NoError(t, err, "create %s", title)
	return post
}

func createPublished(t *testing.T, posts *PostService, title string, at time.Time) *db.Post {
	t.Helper()
	post := createDraft(t, posts, title)
	published, err := posts.Publish(context.Background(), post.ID, &at)
	require.NoError(t, err, "publish %s", title)
	return published
}

// seedPublished 创建 n 篇已发布文章，发布时间按序递增，返回按创建顺序排列的 ID。
func seedPublished(t *testing.T, posts *PostService, n int) []uint {
	t.Helper()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	ids := make([]uint, 0, n)
	for i := 1; i <= n; i++ {
		post := createPublished(t, posts, fmt.Sprintf("Sak %d", i), base.Add(time.Duration(i)*time.Hour))
		ids = append(ids, post.ID)
	}
	return ids
}
