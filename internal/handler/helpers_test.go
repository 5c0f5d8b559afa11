package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/stretchr/testify/require"
)

// stubHTMLRender 记录最后一次渲染的模板名与数据，不输出任何内容。
type stubHTMLRender struct {
	mu   sync.Mutex
	name string
	data gin.H
}

type stubHTMLInstance struct{}

func (r *stubHTMLRender) Instance(name string, data interface{}) render.Render {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
	r.data, _ = data.(gin.H)
	return stubHTMLInstance{}
}

func (r *stubHTMLRender) last() (string, gin.H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name, r.data
}

func (stubHTMLInstance) Render(http.ResponseWriter) error {
	return nil
}

func (stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

var handlerDBCounter atomic.Int64

func newTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), handlerDBCounter.Add(1))
	gdb, err := db.Open(dsn)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	api := NewAPI(Options{DB: gdb, UploadDir: t.TempDir(), UploadURL: "/uploads"})
	_, err = api.categories.EnsureEditorialCategories()
	require.NoError(t, err, "seed categories")
	return api
}

// newTestRouter 构造带会话中间件的路由，authed 为 true 时每个请求都已登录。
func newTestRouter(api *API, authed bool) (*gin.Engine, *stubHTMLRender) {
	r := gin.New()
	stub := &stubHTMLRender{}
	r.HTMLRender = stub
	r.Use(sessions.Sessions("studentavis_session", cookie.NewStore([]byte("test-secret"))))
	if authed {
		r.Use(func(c *gin.Context) {
			session := sessions.Default(c)
			session.Set(sessionUserIDKey, uint(1))
			session.Set(sessionUsernameKey, "redaktor")
			c.Next()
		})
	}
	return r, stub
}

func publishPost(t *testing.T, api *API, title string, at time.Time) *db.Post {
	t.Helper()
	ctx := context.Background()
	post, err := api.posts.Create(ctx, service.PostInput{
		Title:   title,
		Summary: "Ingress for " + title,
		Content: "Brødtekst for " + title,
	})
	require.NoError(t, err)
	published, err := api.posts.Publish(ctx, post.ID, &at)
	require.NoError(t, err)
	return published
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
