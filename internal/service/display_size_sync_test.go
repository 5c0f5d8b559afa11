package service

import (
	"context"
	"testing"

	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplaySizeSync_ListSavePropagatesToPost(t *testing.T) {
	s := newTestServices(t, 0)
	ctx := context.Background()
	ids := seedPublished(t, s.posts, 1)

	_, err := s.front.Save(ctx, []frontpage.Entry{{Key: "a", PostID: ids[0]}}, frontpage.OriginUserEdit)
	require.NoError(t, err)

	_, err = s.front.Apply(ctx, Gesture{Type: GestureSetSize, Key: "a", DisplaySize: "small"})
	require.NoError(t, err)

	post, err := s.posts.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "small", post.DisplaySize)

	// 列表保存两次（初始保存 + 改尺寸），文章被反向写入一次，
	// 由同步产生的文章保存不会再写回列表。
	stats := s.sync.Stats()
	assert.EqualValues(t, 2, stats.ListSaves)
	assert.EqualValues(t, 1, stats.Propagated)
	assert.EqualValues(t, 1, stats.Skipped)
}

func TestDisplaySizeSync_PostEditPropagatesToList(t *testing.T) {
	s := newTestServices(t, 0)
	ctx := context.Background()
	ids := seedPublished(t, s.posts, 2)

	_, err := s.front.Save(ctx, []frontpage.Entry{
		{Key: "a", PostID: ids[0], DisplaySize: frontpage.DisplaySizeLarge},
		{Key: "b", PostID: ids[1], DisplaySize: frontpage.DisplaySizeLarge},
	}, frontpage.OriginUserEdit)
	require.NoError(t, err)
	listSavesBefore := s.sync.Stats().ListSaves

	_, err = s.posts.SetDisplaySize(ctx, ids[1], frontpage.DisplaySizeSmall, frontpage.OriginUserEdit)
	require.NoError(t, err)

	entries, err := s.front.Get(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, frontpage.DisplaySizeLarge, entries[0].DisplaySize)
	assert.Equal(t, frontpage.DisplaySizeSmall, entries[1].DisplaySize)
	assert.Equal(t, "b", entries[1].Key)

	// 同步写入的列表保存只会触发一次钩子，并被跳过
	stats := s.sync.Stats()
	assert.Equal(t, listSavesBefore+1, stats.ListSaves)
	assert.EqualValues(t, 1, stats.Skipped)
}

func TestDisplaySizeSync_UnchangedSizeDoesNotTouchList(t *testing.T) {
	s := newTestServices(t, 0)
	ctx := context.Background()
	ids := seedPublished(t, s.posts, 1)

	_, err := s.front.Save(ctx, []frontpage.Entry{{Key: "a", PostID: ids[0]}}, frontpage.OriginUserEdit)
	require.NoError(t, err)
	listSavesBefore := s.sync.Stats().ListSaves

	post, err := s.posts.Get(ctx, ids[0])
	require.NoError(t, err)
	_, err = s.posts.Update(ctx, ids[0], PostInput{
		Title:   post.Title + " (oppdatert)",
		Content: post.Content,
	}, frontpage.OriginUserEdit)
	require.NoError(t, err)

	assert.Equal(t, listSavesBefore, s.sync.Stats().ListSaves)
}

func TestDisplaySizeSync_SkipsMissingPosts(t *testing.T) {
	s := newTestServices(t, 0)
	ctx := context.Background()

	_, err := s.front.Save(ctx, []frontpage.Entry{
		{Key: "a", PostID: 4242, DisplaySize: frontpage.DisplaySizeSmall},
	}, frontpage.OriginUserEdit)
	require.NoError(t, err)
	assert.Zero(t, s.sync.Stats().Propagated)
}

func TestDisplaySizeSync_SyncOriginIsIgnored(t *testing.T) {
	s := newTestServices(t, 0)
	ctx := context.Background()
	ids := seedPublished(t, s.posts, 1)

	_, err := s.front.Save(ctx, []frontpage.Entry{
		{Key: "a", PostID: ids[0], DisplaySize: frontpage.DisplaySizeSmall},
	}, frontpage.OriginSync)
	require.NoError(t, err)

	post, err := s.posts.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "large", post.DisplaySize)
}
