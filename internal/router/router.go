package router

import (
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/Bjorshol/studentavis/internal/config"
	"github.com/Bjorshol/studentavis/internal/handler"
	"github.com/Bjorshol/studentavis/internal/locale"
	"github.com/Bjorshol/studentavis/internal/logging"
	"github.com/Bjorshol/studentavis/web"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "studentavis_session"

// templateFuncs 供模板做分页计算和日期格式化。
var templateFuncs = template.FuncMap{
	"add": func(a, b int) int {
		return a + b
	},
	"sub": func(a, b int) int {
		return a - b
	},
	"datetime": locale.FormatDateTime,
	"htmlLang": func() string {
		return locale.HTMLLang
	},
}

// LoadTemplates 解析内嵌的全部模板。
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(web.Templates, "templates/*.html")
}

// SetupRouter 配置 Gin 引擎和路由，返回引擎与共享的 API。
func SetupRouter(cfg config.AppConfig, gdb *gorm.DB, logger *zap.Logger) (*gin.Engine, *handler.API, error) {
	logger = logging.OrNop(logger)

	r := gin.New()
	r.Use(logging.GinMiddleware(logger), gin.Recovery())

	// 配置会话中间件
	secret := cfg.SessionSecret
	if secret == "" {
		secret = "studentavis-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode, MaxAge: 7 * 24 * 3600})
	r.Use(sessions.Sessions(sessionName, store))

	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, nil, err
	}
	r.SetHTMLTemplate(tmpl)

	assets, err := fs.Sub(web.Static, "static/assets")
	if err != nil {
		return nil, nil, err
	}
	r.StaticFS("/static/assets", http.FS(assets))

	uploadURL := "/" + strings.Trim(cfg.UploadURLPath, "/")
	if uploadURL == "/" {
		uploadURL = "/static/uploads"
	}
	r.Static(uploadURL, cfg.UploadDir)
	if uploadURL != "/uploads" {
		r.Static("/uploads", cfg.UploadDir)
	}

	api := handler.NewAPI(handler.Options{
		DB:        gdb,
		Site:      cfg.Site,
		UploadDir: cfg.UploadDir,
		UploadURL: uploadURL,
		Logger:    logger,
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// 前台路由
	r.GET("/", api.ShowHome)
	r.GET("/posts/:slug", api.ShowPost)
	r.GET("/kategori/:slug", api.ShowCategory)
	r.GET("/:slug", api.ShowPage)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("", func(c *gin.Context) {
				c.Redirect(http.StatusFound, "/admin/front-page")
			})
			auth.GET("/front-page", api.ShowFrontPageEditor)
			auth.GET("/posts", api.ShowPostList)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/front-page", api.GetFrontPage)
				apiGroup.PUT("/front-page", api.SaveFrontPage)
				apiGroup.POST("/front-page/gestures", api.ApplyFrontPageGesture)
				apiGroup.POST("/front-page/drag", api.ApplyFrontPageDrag)
				apiGroup.POST("/front-page/reset", api.ResetFrontPage)
				apiGroup.GET("/front-page/sync-stats", api.GetDisplaySyncStats)

				apiGroup.GET("/posts", api.ListPosts)
				apiGroup.POST("/posts", api.CreatePost)
				apiGroup.GET("/posts/:id", api.GetPost)
				apiGroup.PUT("/posts/:id", api.UpdatePost)
				apiGroup.PUT("/posts/:id/display-size", api.SetPostDisplaySize)
				apiGroup.POST("/posts/:id/publish", api.PublishPost)
				apiGroup.POST("/posts/:id/unpublish", api.UnpublishPost)
				apiGroup.DELETE("/posts/:id", api.DeletePost)

				apiGroup.GET("/categories", api.GetCategories)
				apiGroup.POST("/categories", api.RejectCategoryChange)
				apiGroup.PUT("/categories/:id", api.RejectCategoryChange)
				apiGroup.DELETE("/categories/:id", api.RejectCategoryChange)

				apiGroup.GET("/pages", api.ListPages)
				apiGroup.PUT("/pages/:slug", api.SavePage)

				apiGroup.POST("/upload", api.UploadHeroImage)
			}
		}
	}

	return r, api, nil
}
