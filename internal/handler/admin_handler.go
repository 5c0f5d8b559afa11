package handler

import (
	"net/http"
	"strings"

	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "Logg inn",
	})
}

// Login 校验账号密码并写入会话
func (a *API) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	user, err := db.Authenticate(a.db, username, password)
	if err != nil {
		a.logger.Warn("login failed", zap.String("username", username))
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{
			"title":    "Logg inn",
			"error":    "Feil brukernavn eller passord",
			"username": username,
		})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		a.logger.Error("save session", zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": "Logg inn",
			"error": "Kunne ikke lagre innloggingen",
		})
		return
	}

	c.Redirect(http.StatusFound, "/admin/front-page")
}

// Logout 清空会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	c.Redirect(http.StatusFound, "/admin/login")
}

// AuthRequired 未登录时页面请求跳转到登录页，API 请求返回 401。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) == nil {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
				respondError(c, http.StatusUnauthorized, "Du må logge inn")
				c.Abort()
				return
			}
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	switch id := sessions.Default(c).Get(sessionUserIDKey).(type) {
	case uint:
		return id
	case int:
		return uint(id)
	case int64:
		return uint(id)
	default:
		return 0
	}
}

// ShowFrontPageEditor 渲染首页编排的双栏编辑器。
func (a *API) ShowFrontPageEditor(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	board, err := a.front.Board(c.Request.Context(), search)
	if err != nil {
		a.logger.Error("load front page board", zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "front_page.html", gin.H{
			"title": "Forsideredigering",
			"error": "Kunne ikke laste forsiden. Prøv igjen.",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "front_page.html", gin.H{
		"title":       "Forsideredigering",
		"editor":      sessions.Default(c).Get(sessionUsernameKey),
		"board":       board,
		"search":      search,
		"containerId": frontpage.StackContainerID,
	})
}

// ShowPostList 渲染后台文章列表。
func (a *API) ShowPostList(c *gin.Context) {
	filter := service.PostFilter{
		Search:       strings.TrimSpace(c.Query("search")),
		Status:       strings.TrimSpace(c.Query("status")),
		CategorySlug: strings.TrimSpace(c.Query("category")),
		Page:         parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage:      20,
	}

	result, err := a.posts.List(c.Request.Context(), filter)
	if err != nil {
		a.logger.Error("list posts", zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "post_list.html", gin.H{
			"title": "Saker",
			"error": "Kunne ikke hente saker",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "post_list.html", gin.H{
		"title":          "Saker",
		"editor":         sessions.Default(c).Get(sessionUsernameKey),
		"posts":          result.Posts,
		"filter":         filter,
		"total":          result.Total,
		"publishedCount": result.PublishedCount,
		"draftCount":     result.DraftCount,
		"page":           result.Page,
		"totalPages":     result.TotalPages,
	})
}
