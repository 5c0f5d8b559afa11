package handler

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/Bjorshol/studentavis/internal/locale"
	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const categoryPerPage = 12

// cardView 是首页/栏目页上的一张文章卡片。
type cardView struct {
	ID           uint
	Title        string
	URL          string
	Description  string
	HeroImageURL string
	Large        bool
	PublishedAt  string
}

func newCardView(post frontpage.PostSummary, size frontpage.DisplaySize) cardView {
	view := cardView{
		ID:           post.ID,
		Title:        post.Title,
		URL:          "/posts/" + post.Slug,
		Description:  post.Description,
		HeroImageURL: post.HeroImageURL,
		Large:        size.OrDefault() == frontpage.DisplaySizeLarge,
	}
	if post.PublishedAt != nil {
		view.PublishedAt = locale.FormatDate(*post.PublishedAt)
	}
	return view
}

// ShowHome renders the curated front page.
func (a *API) ShowHome(c *gin.Context) {
	etag, err := a.home.ETag(c.Request.Context())
	if err != nil {
		a.logger.Warn("compute home etag", zap.Error(err))
	}
	if match := c.GetHeader("If-None-Match"); etag != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	meta, err := a.pages.GetBySlug(c.Request.Context(), service.HomePageSlug)
	if err != nil {
		fallback := service.HomeFallback()
		meta = &fallback
	}

	cards, err := a.front.HomeCards(c.Request.Context())
	if err != nil {
		a.logger.Error("load home cards", zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "home.html", gin.H{
			"metaTitle": meta.MetaTitle,
			"error":     "Kunne ikke laste forsiden. Prøv igjen senere.",
			"year":      time.Now().Year(),
		})
		return
	}

	views := make([]cardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, newCardView(card.Post, card.DisplaySize))
	}

	if etag != "" {
		c.Header("ETag", etag)
	}
	c.Header("Cache-Control", "no-cache")
	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"metaTitle":       meta.MetaTitle,
		"metaDescription": meta.MetaDescription,
		"cards":           views,
		"year":            time.Now().Year(),
	})
}

// ShowPost renders a published article by slug.
func (a *API) ShowPost(c *gin.Context) {
	post, err := a.posts.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		a.renderNotFound(c, err)
		return
	}

	content, err := renderMarkdown(post.Content)
	if err != nil {
		a.logger.Error("render post", zap.Uint("post_id", post.ID), zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "post.html", gin.H{
			"title": post.Title,
			"error": "Kunne ikke vise saken.",
			"year":  time.Now().Year(),
		})
		return
	}

	lead := strings.TrimSpace(post.Summary)
	if lead == "" {
		lead = leadParagraph(content)
	}

	var published string
	if post.PublishedAt != nil {
		published = locale.FormatDate(*post.PublishedAt)
	}

	a.renderHTML(c, http.StatusOK, "post.html", gin.H{
		"title":           post.Title,
		"metaDescription": lead,
		"post":            post,
		"lead":            lead,
		"content":         content,
		"published":       published,
		"categories":      post.Categories,
		"year":            time.Now().Year(),
	})
}

// ShowCategory lists published posts in one of the editorial categories.
func (a *API) ShowCategory(c *gin.Context) {
	category, err := a.categories.GetBySlug(c.Param("slug"))
	if err != nil {
		a.renderNotFound(c, err)
		return
	}

	page := parsePositiveInt(c.DefaultQuery("side", "1"), 1)
	result, err := a.posts.ListByCategory(c.Request.Context(), category.Slug, page, categoryPerPage)
	if err != nil {
		a.logger.Error("list category posts", zap.String("category", category.Slug), zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "category.html", gin.H{
			"title":    category.Title,
			"category": category,
			"error":    "Kunne ikke laste sakene.",
			"year":     time.Now().Year(),
		})
		return
	}

	views := make([]cardView, 0, len(result.Posts))
	for _, post := range result.Posts {
		summary := service.Summary(post)
		views = append(views, newCardView(summary, frontpage.DisplaySizeSmall))
	}

	a.renderHTML(c, http.StatusOK, "category.html", gin.H{
		"title":      category.Title,
		"category":   category,
		"cards":      views,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"hasMore":    result.Page < result.TotalPages,
		"nextPage":   result.Page + 1,
		"year":       time.Now().Year(),
	})
}

// ShowPage renders a static page such as /om-oss.
func (a *API) ShowPage(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == service.HomePageSlug {
		c.Redirect(http.StatusMovedPermanently, "/")
		return
	}

	page, err := a.pages.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		a.renderNotFound(c, err)
		return
	}

	content, err := renderMarkdown(page.Content)
	if err != nil {
		content = template.HTML("<p>Innholdet kan ikke vises akkurat nå.</p>")
	}

	data := gin.H{
		"title":   page.Title,
		"page":    page,
		"content": content,
		"year":    time.Now().Year(),
	}
	if page.MetaTitle != "" {
		data["metaTitle"] = page.MetaTitle
	}
	if page.MetaDescription != "" {
		data["metaDescription"] = page.MetaDescription
	}
	a.renderHTML(c, http.StatusOK, "page.html", data)
}

func (a *API) renderNotFound(c *gin.Context, err error) {
	status := http.StatusNotFound
	if !errors.Is(err, service.ErrPostNotFound) &&
		!errors.Is(err, service.ErrPageNotFound) &&
		!errors.Is(err, service.ErrCategoryNotFound) {
		a.logger.Error("public page lookup failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		status = http.StatusInternalServerError
	}
	a.renderHTML(c, status, "not_found.html", gin.H{
		"title": "Fant ikke siden",
		"year":  time.Now().Year(),
	})
}
