package handler

import (
	"github.com/Bjorshol/studentavis/internal/config"
	"github.com/Bjorshol/studentavis/internal/logging"
	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	posts      *service.PostService
	front      *service.FrontPageService
	sync       *service.DisplaySizeSync
	categories *service.CategoryService
	pages      *service.PageService
	media      *service.MediaService
	home       *service.HomeRevision
	site       config.SiteConfig
	logger     *zap.Logger
}

// Options 汇总构建 API 所需的外部依赖。
type Options struct {
	DB        *gorm.DB
	Site      config.SiteConfig
	UploadDir string
	UploadURL string
	Logger    *zap.Logger
}

// NewAPI constructs a handler set with shared services and installs the display size sync hooks.
func NewAPI(opts Options) *API {
	logger := logging.OrNop(opts.Logger)
	site := opts.Site
	if site.Name == "" {
		site = config.DefaultSite()
	}

	home := service.NewHomeRevision(opts.DB, logger)
	posts := service.NewPostService(opts.DB, logger)
	posts.SetHomeInvalidator(home)
	front := service.NewFrontPageService(opts.DB, posts, site.FrontPageMaxItems, logger)
	front.SetHomeInvalidator(home)

	sync := service.NewDisplaySizeSync(posts, front, logger)
	sync.Register()

	return &API{
		db:         opts.DB,
		posts:      posts,
		front:      front,
		sync:       sync,
		categories: service.NewCategoryService(opts.DB, site),
		pages:      service.NewPageService(opts.DB),
		media:      service.NewMediaService(opts.UploadDir, opts.UploadURL, logger),
		home:       home,
		site:       site,
		logger:     logger,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Categories exposes the category service for CLI maintenance commands.
func (a *API) Categories() *service.CategoryService {
	return a.categories
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = gin.H{
			"name":        a.site.Name,
			"description": a.site.Description,
			"categories":  a.site.Categories,
		}
	}
	if _, exists := payload["metaTitle"]; !exists {
		if title, ok := payload["title"].(string); ok && title != "" {
			payload["metaTitle"] = title + " – " + a.site.Name
		} else {
			payload["metaTitle"] = a.site.Name
		}
	}
	if _, exists := payload["metaDescription"]; !exists {
		payload["metaDescription"] = a.site.Description
	}

	c.HTML(status, template, payload)
}
