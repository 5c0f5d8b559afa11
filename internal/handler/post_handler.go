package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type postRequest struct {
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	Content         string `json:"content"`
	DisplaySize     string `json:"displaySize"`
	CategoryIDs     []uint `json:"categoryIds"`
	HeroImageURL    string `json:"heroImageUrl"`
	HeroImageAlt    string `json:"heroImageAlt"`
	HeroImageWidth  int    `json:"heroImageWidth"`
	HeroImageHeight int    `json:"heroImageHeight"`
}

func (r postRequest) input(userID uint) service.PostInput {
	return service.PostInput{
		Title:           r.Title,
		Summary:         r.Summary,
		Content:         r.Content,
		DisplaySize:     r.DisplaySize,
		CategoryIDs:     r.CategoryIDs,
		UserID:          userID,
		HeroImageURL:    r.HeroImageURL,
		HeroImageAlt:    r.HeroImageAlt,
		HeroImageWidth:  r.HeroImageWidth,
		HeroImageHeight: r.HeroImageHeight,
	}
}

type publishRequest struct {
	PublishedAt *time.Time `json:"publishedAt"`
}

type displaySizeRequest struct {
	DisplaySize string `json:"displaySize" binding:"required"`
}

type postCategoryView struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type postView struct {
	ID              uint               `json:"id"`
	Title           string             `json:"title"`
	Slug            string             `json:"slug"`
	Summary         string             `json:"summary"`
	Content         string             `json:"content,omitempty"`
	DisplaySize     string             `json:"displaySize"`
	Status          string             `json:"status"`
	PublishedAt     *time.Time         `json:"publishedAt,omitempty"`
	UpdatedAt       time.Time          `json:"updatedAt"`
	HeroImageURL    string             `json:"heroImageUrl,omitempty"`
	HeroImageAlt    string             `json:"heroImageAlt,omitempty"`
	HeroImageWidth  int                `json:"heroImageWidth,omitempty"`
	HeroImageHeight int                `json:"heroImageHeight,omitempty"`
	Categories      []postCategoryView `json:"categories"`
}

func newPostView(post db.Post, withContent bool) postView {
	view := postView{
		ID:              post.ID,
		Title:           post.Title,
		Slug:            post.Slug,
		Summary:         post.Summary,
		DisplaySize:     post.DisplaySize,
		Status:          post.Status,
		PublishedAt:     post.PublishedAt,
		UpdatedAt:       post.UpdatedAt,
		HeroImageURL:    post.HeroImageURL,
		HeroImageAlt:    post.HeroImageAlt,
		HeroImageWidth:  post.HeroImageWidth,
		HeroImageHeight: post.HeroImageHeight,
		Categories:      make([]postCategoryView, 0, len(post.Categories)),
	}
	if withContent {
		view.Content = post.Content
	}
	for _, category := range post.Categories {
		view.Categories = append(view.Categories, postCategoryView{ID: category.ID, Title: category.Title, Slug: category.Slug})
	}
	return view
}

// respondPostError 把 service 层的错误映射为 HTTP 状态码。
func (a *API) respondPostError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "Saken finnes ikke")
	case errors.Is(err, service.ErrPostTitleRequired):
		respondError(c, http.StatusBadRequest, "Tittel mangler")
	case errors.Is(err, service.ErrInvalidPublishState):
		respondError(c, http.StatusBadRequest, "Saken mangler tittel eller brødtekst")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusBadRequest, "Ukjent kategori")
	case errors.Is(err, service.ErrHeroImageInvalid):
		respondError(c, http.StatusBadRequest, "Ugyldig toppbilde")
	case errors.Is(err, frontpage.ErrInvalidDisplaySize):
		respondError(c, http.StatusBadRequest, "Visningsstørrelse må være large eller small")
	default:
		a.logger.Error(fallback, zap.Error(err))
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// ListPosts 返回文章列表。status=published 且未指定 page 时返回全部已发布文章（按发布时间倒序，不分页），
// 供首页编辑器的自动补位栏使用。
func (a *API) ListPosts(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	ctx := c.Request.Context()

	if status == db.PostStatusPublished && c.Query("page") == "" {
		posts, err := a.posts.ListPublished(ctx, 0)
		if err != nil {
			a.respondPostError(c, err, "Kunne ikke hente saker")
			return
		}
		c.JSON(http.StatusOK, gin.H{"posts": service.Summaries(posts), "total": len(posts)})
		return
	}

	result, err := a.posts.List(ctx, service.PostFilter{
		Search:       strings.TrimSpace(c.Query("search")),
		Status:       status,
		CategorySlug: strings.TrimSpace(c.Query("category")),
		Page:         parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage:      parsePositiveInt(c.DefaultQuery("perPage", "20"), 20),
	})
	if err != nil {
		a.respondPostError(c, err, "Kunne ikke hente saker")
		return
	}

	views := make([]postView, 0, len(result.Posts))
	for _, post := range result.Posts {
		views = append(views, newPostView(post, false))
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":          views,
		"total":          result.Total,
		"publishedCount": result.PublishedCount,
		"draftCount":     result.DraftCount,
		"page":           result.Page,
		"totalPages":     result.TotalPages,
	})
}

// GetPost 获取单篇文章
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Ugyldig sak-ID")
		return
	}

	post, err := a.posts.Get(c.Request.Context(), id)
	if err != nil {
		a.respondPostError(c, err, "Kunne ikke hente saken")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": newPostView(*post, true)})
}

// CreatePost 创建草稿
func (a *API) CreatePost(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req, "Ugyldig forespørsel") {
		return
	}

	post, err := a.posts.Create(c.Request.Context(), req.input(currentUserID(c)))
	if err != nil {
		a.respondPostError(c, err, "Kunne ikke opprette saken")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Saken er opprettet", "post": newPostView(*post, true)})
}

// UpdatePost 更新文章。修改展示尺寸会同步到首页列表。
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Ugyldig sak-ID")
		return
	}

	var req postRequest
	if !bindJSON(c, &req, "Ugyldig forespørsel") {
		return
	}

	post, err := a.posts.Update(c.Request.Context(), id, req.input(currentUserID(c)), frontpage.OriginUserEdit)
	if err != nil {
		a.respondPostError(c, err, "Kunne ikke lagre saken")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saken er lagret", "post": newPostView(*post, true)})
}

// SetPostDisplaySize 只修改展示尺寸。
func (a *API) SetPostDisplaySize(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Ugyldig sak-ID")
		return
	}

	var req displaySizeRequest
	if !bindJSON(c, &req, "Visningsstørrelse mangler") {
		return
	}

	post, err := a.posts.SetDisplaySize(c.Request.Context(), id, frontpage.DisplaySize(strings.ToLower(strings.TrimSpace(req.DisplaySize))), frontpage.OriginUserEdit)
	if err != nil {
		a.respondPostError(c, err, "Kunne ikke endre visningsstørrelse")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": newPostView(*post, false)})
}

// PublishPost 发布文章
func (a *API) PublishPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Ugyldig sak-ID")
		return
	}

	var req publishRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "Ugyldig publiseringstidspunkt") {
		return
	}

	post, err := a.posts.Publish(c.Request.Context(), id, req.PublishedAt)
	if err != nil {
		a.respondPostError(c, err, "Kunne ikke publisere saken")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saken er publisert", "post": newPostView(*post, false)})
}

// UnpublishPost 撤回发布
func (a *API) UnpublishPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Ugyldig sak-ID")
		return
	}

	post, err := a.posts.Unpublish(c.Request.Context(), id)
	if err != nil {
		a.respondPostError(c, err, "Kunne ikke avpublisere saken")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saken er avpublisert", "post": newPostView(*post, false)})
}

// DeletePost 删除文章
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Ugyldig sak-ID")
		return
	}

	if err := a.posts.Delete(c.Request.Context(), id); err != nil {
		a.respondPostError(c, err, "Kunne ikke slette saken")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saken er slettet"})
}
