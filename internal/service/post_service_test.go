package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreateGeneratesUniqueSlug(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t), nil)

	first := createDraft(t, svc, "Årets fadderuke")
	second := createDraft(t, svc, "Årets fadderuke")

	assert.Equal(t, "arets-fadderuke", first.Slug)
	assert.Equal(t, "arets-fadderuke-2", second.Slug)
	assert.Equal(t, db.PostStatusDraft, first.Status)
	assert.Equal(t, string(frontpage.DisplaySizeLarge), first.DisplaySize)
}

func TestPostService_CreateRequiresTitle(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t), nil)

	_, err := svc.Create(context.Background(), PostInput{Content: "tekst"})
	assert.ErrorIs(t, err, ErrPostTitleRequired)

	_, err = svc.Create(context.Background(), PostInput{Title: "Sak", DisplaySize: "medium"})
	assert.ErrorIs(t, err, frontpage.ErrInvalidDisplaySize)
}

func TestPostService_ListCountsDraftsAndPublished(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t), nil)
	ctx := context.Background()

	createDraft(t, svc, "Kladd")
	createPublished(t, svc, "Publisert", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	list, err := svc.List(ctx, PostFilter{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)
	assert.EqualValues(t, 1, list.PublishedCount)
	assert.EqualValues(t, 1, list.DraftCount)
	assert.Equal(t, 1, list.TotalPages)

	published, err := svc.List(ctx, PostFilter{Status: db.PostStatusPublished})
	require.NoError(t, err)
	require.Len(t, published.Posts, 1)
	assert.Equal(t, "Publisert", published.Posts[0].Title)
}

func TestPostService_ListPublishedOrdersByPublishTime(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t), nil)
	ctx := context.Background()

	ids := seedPublished(t, svc, 4)
	createDraft(t, svc, "Kladd")

	posts, err := svc.ListPublished(ctx, 0)
	require.NoError(t, err)
	require.Len(t, posts, 4)
	assert.Equal(t, ids[3], posts[0].ID)
	assert.Equal(t, ids[0], posts[3].ID)

	limited, err := svc.ListPublishedExcluding(ctx, []uint{ids[3]}, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[2], limited[0].ID)
	assert.Equal(t, ids[1], limited[1].ID)
}

func TestPostService_GetPublishedBySlugHidesDrafts(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t), nil)
	ctx := context.Background()

	draft := createDraft(t, svc, "Hemmelig sak")
	_, err := svc.GetPublishedBySlug(ctx, draft.Slug)
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = svc.Publish(ctx, draft.ID, nil)
	require.NoError(t, err)

	got, err := svc.GetPublishedBySlug(ctx, draft.Slug)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
	require.NotNil(t, got.PublishedAt)
}

func TestPostService_PublishKeepsExistingTimestamp(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t), nil)
	ctx := context.Background()

	at := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	post := createPublished(t, svc, "Valg", at)

	_, err := svc.Unpublish(ctx, post.ID)
	require.NoError(t, err)

	republished, err := svc.Publish(ctx, post.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, republished.PublishedAt)
	assert.True(t, republished.PublishedAt.Equal(at))
}

func TestPostService_DeleteAndFindByIDs(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t), nil)
	ctx := context.Background()

	keep := createDraft(t, svc, "Bli")
	gone := createDraft(t, svc, "Borte")

	require.NoError(t, svc.Delete(ctx, gone.ID))
	assert.ErrorIs(t, svc.Delete(ctx, gone.ID), ErrPostNotFound)

	summaries, err := svc.FindSummaries(ctx, []uint{keep.ID, gone.ID})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, keep.ID, summaries[0].ID)
	assert.Equal(t, frontpage.StatusDraft, summaries[0].Status)
}

func TestPostService_CategoriesAndListByCategory(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, nil)
	ctx := context.Background()

	kultur := db.Category{Title: "Kultur", Slug: "kultur"}
	require.NoError(t, gdb.Create(&kultur).Error)

	post, err := svc.Create(ctx, PostInput{Title: "Konsert", Content: "Tekst", CategoryIDs: []uint{kultur.ID, kultur.ID}})
	require.NoError(t, err)
	require.Len(t, post.Categories, 1)

	_, err = svc.Create(ctx, PostInput{Title: "Feil", Content: "Tekst", CategoryIDs: []uint{999}})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = svc.Publish(ctx, post.ID, nil)
	require.NoError(t, err)

	list, err := svc.ListByCategory(ctx, "kultur", 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, post.ID, list.Posts[0].ID)
}

func TestPostService_HookErrorFailsSave(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t), nil)
	ctx := context.Background()
	post := createDraft(t, svc, "Sak")

	boom := errors.New("boom")
	var events []PostSaveEvent
	svc.AfterSave(func(_ context.Context, event PostSaveEvent) error {
		events = append(events, event)
		return boom
	})

	_, err := svc.SetDisplaySize(ctx, post.ID, frontpage.DisplaySizeSmall, frontpage.OriginUserEdit)
	assert.ErrorIs(t, err, boom)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Previous)
	assert.Equal(t, "large", events[0].Previous.DisplaySize)
	assert.Equal(t, "small", events[0].Post.DisplaySize)
	assert.Equal(t, frontpage.OriginUserEdit, events[0].Origin)
}

func TestPostService_SetDisplaySizeValidates(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t), nil)
	ctx := context.Background()

	_, err := svc.SetDisplaySize(ctx, 1, frontpage.DisplaySize("huge"), frontpage.OriginUserEdit)
	assert.ErrorIs(t, err, frontpage.ErrInvalidDisplaySize)

	_, err = svc.SetDisplaySize(ctx, 404, frontpage.DisplaySizeSmall, frontpage.OriginUserEdit)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_WritesInvalidateHome(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, nil)
	home := NewHomeRevision(gdb, nil)
	svc.SetHomeInvalidator(home)
	ctx := context.Background()

	post := createDraft(t, svc, "Sak")
	before := home.Current()

	_, err := svc.Publish(ctx, post.ID, nil)
	require.NoError(t, err)
	assert.Greater(t, home.Current(), before)
}

func TestPostService_FailingHookStillInvalidatesHome(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, nil)
	home := NewHomeRevision(gdb, nil)
	svc.SetHomeInvalidator(home)
	ctx := context.Background()

	post := createDraft(t, svc, "Sak")
	hookErr := errors.New("hook failed")
	svc.AfterSave(func(context.Context, PostSaveEvent) error { return hookErr })

	before := home.Current()
	_, err := svc.Publish(ctx, post.ID, nil)
	require.ErrorIs(t, err, hookErr)
	assert.Equal(t, before+1, home.Current())

	stored, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, db.PostStatusPublished, stored.Status)

	_, err = svc.Unpublish(ctx, post.ID)
	require.ErrorIs(t, err, hookErr)
	assert.Equal(t, before+2, home.Current())

	_, err = svc.SetDisplaySize(ctx, post.ID, frontpage.DisplaySizeSmall, frontpage.OriginUserEdit)
	require.ErrorIs(t, err, hookErr)
	assert.Equal(t, before+3, home.Current())
}
