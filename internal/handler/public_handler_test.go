package handler

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publicTestRouter(api *API) (*gin.Engine, *stubHTMLRender) {
	r, stub := newTestRouter(api, false)
	r.GET("/", api.ShowHome)
	r.GET("/posts/:slug", api.ShowPost)
	r.GET("/kategori/:slug", api.ShowCategory)
	r.GET("/:slug", api.ShowPage)
	return r, stub
}

func TestShowHomeOrdersPinnedBeforeNewest(t *testing.T) {
	api := newTestAPI(t)
	r, stub := publicTestRouter(api)
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	older := publishPost(t, api, "Eldre sak", base)
	newer := publishPost(t, api, "Nyere sak", base.Add(time.Hour))
	_, err := api.posts.Create(ctx, service.PostInput{Title: "Utkast", Content: "Ikke publisert"})
	require.NoError(t, err)

	_, err = api.front.Save(ctx, []frontpage.Entry{{Key: "pin", PostID: older.ID, DisplaySize: frontpage.DisplaySizeSmall}}, frontpage.OriginUserEdit)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	name, data := stub.last()
	assert.Equal(t, "home.html", name)
	assert.Equal(t, service.HomePageMetaTitle, data["metaTitle"])

	cards, ok := data["cards"].([]cardView)
	require.True(t, ok)
	require.Len(t, cards, 2)
	assert.Equal(t, older.ID, cards[0].ID)
	assert.False(t, cards[0].Large)
	assert.Equal(t, newer.ID, cards[1].ID)
	assert.True(t, cards[1].Large)
	assert.Equal(t, "1. april 2025", cards[0].PublishedAt)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	_, err = api.front.Apply(ctx, service.Gesture{Type: service.GestureReset})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestShowHomeRevalidatesAfterOutOfProcessWrite(t *testing.T) {
	api := newTestAPI(t)
	r, _ := publicTestRouter(api)
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	first := publishPost(t, api, "Første sak", base)
	second := publishPost(t, api, "Andre sak", base.Add(time.Hour))
	_, err := api.front.Save(ctx, []frontpage.Entry{{Key: "pin", PostID: second.ID, DisplaySize: frontpage.DisplaySizeLarge}}, frontpage.OriginUserEdit)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// 同一个数据库上的独立服务，相当于 seed 命令，不会通知 api.home。
	other := service.NewFrontPageService(api.db, service.NewPostService(api.db, nil), 0, nil)
	_, err = other.Save(ctx, []frontpage.Entry{{Key: "pin", PostID: first.ID, DisplaySize: frontpage.DisplaySizeSmall}}, frontpage.OriginUserEdit)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))

	restarted := NewAPI(Options{DB: api.db, UploadDir: t.TempDir()})
	rr, _ := publicTestRouter(restarted)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	rr.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShowPostRendersMarkdownAndLead(t *testing.T) {
	api := newTestAPI(t)
	r, stub := publicTestRouter(api)
	ctx := context.Background()

	post, err := api.posts.Create(ctx, service.PostInput{
		Title:   "Kantina stenger",
		Content: "Kantina på campus stenger i sommer.\n\nhttps://youtu.be/dQw4w9WgXcQ\n\n<script>alert(1)</script>",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/"+post.Slug, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "drafts are not public")

	_, err = api.posts.Publish(ctx, post.ID, nil)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/"+post.Slug, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	name, data := stub.last()
	assert.Equal(t, "post.html", name)
	assert.Equal(t, "Kantina på campus stenger i sommer.", data["lead"])
	assert.Equal(t, "Kantina stenger – Innposten", data["metaTitle"])

	content, ok := data["content"].(template.HTML)
	require.True(t, ok)
	assert.Contains(t, string(content), "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ")
	assert.NotContains(t, string(content), "<script>")
}

func TestShowCategoryOnlyServesWhitelist(t *testing.T) {
	api := newTestAPI(t)
	r, stub := publicTestRouter(api)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kategori/sport", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	name, _ := stub.last()
	assert.Equal(t, "not_found.html", name)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kategori/nyheter", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	name, data := stub.last()
	assert.Equal(t, "category.html", name)
	assert.Equal(t, false, data["hasMore"])
}

func TestShowPageRedirectsHome(t *testing.T) {
	api := newTestAPI(t)
	r, _ := publicTestRouter(api)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/finnes-ikke", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
