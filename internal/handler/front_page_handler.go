package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type frontPageRequest struct {
	Entries []frontpage.Entry `json:"entries"`
}

func (a *API) respondFrontPageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, frontpage.ErrTooManyEntries):
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Forsiden kan ha maks %d saker", a.front.MaxItems()))
	case errors.Is(err, frontpage.ErrInvalidDisplaySize):
		respondError(c, http.StatusBadRequest, "Visningsstørrelse må være large eller small")
	case errors.Is(err, frontpage.ErrEntryNotFound):
		respondError(c, http.StatusNotFound, "Fant ikke elementet på forsiden")
	case errors.Is(err, service.ErrPostNotEligible):
		respondError(c, http.StatusBadRequest, "Bare publiserte saker kan legges på forsiden")
	case errors.Is(err, service.ErrUnknownGesture):
		respondError(c, http.StatusBadRequest, "Ukjent handling")
	default:
		a.logger.Error(fallback, zap.Error(err))
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// GetFrontPage 返回编辑器看板：置顶栏、自动补位栏与计数。
func (a *API) GetFrontPage(c *gin.Context) {
	board, err := a.front.Board(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		a.respondFrontPageError(c, err, "Kunne ikke laste forsiden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"board": board})
}

// SaveFrontPage 整体替换置顶列表。
func (a *API) SaveFrontPage(c *gin.Context) {
	var req frontPageRequest
	if !bindJSON(c, &req, "Ugyldig forespørsel") {
		return
	}

	ctx := c.Request.Context()
	if _, err := a.front.Replace(ctx, req.Entries, frontpage.OriginUserEdit); err != nil {
		a.respondFrontPageError(c, err, "Kunne ikke lagre forsiden")
		return
	}

	board, err := a.front.Board(ctx, "")
	if err != nil {
		a.respondFrontPageError(c, err, "Kunne ikke laste forsiden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Forsiden er lagret", "board": board})
}

// ApplyFrontPageGesture 执行一次编辑操作（重排、插入、置顶、移除、改尺寸、重置）。
func (a *API) ApplyFrontPageGesture(c *gin.Context) {
	var gesture service.Gesture
	if !bindJSON(c, &gesture, "Ugyldig forespørsel") {
		return
	}

	result, err := a.front.Apply(c.Request.Context(), gesture)
	if err != nil {
		a.respondFrontPageError(c, err, "Kunne ikke oppdatere forsiden")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ApplyFrontPageDrag 处理拖拽结束事件。
func (a *API) ApplyFrontPageDrag(c *gin.Context) {
	var event frontpage.DragEvent
	if !bindJSON(c, &event, "Ugyldig forespørsel") {
		return
	}

	result, err := a.front.ApplyDrag(c.Request.Context(), event)
	if err != nil {
		a.respondFrontPageError(c, err, "Kunne ikke oppdatere forsiden")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ResetFrontPage 清空置顶列表，首页回到按发布时间排序。
func (a *API) ResetFrontPage(c *gin.Context) {
	result, err := a.front.Apply(c.Request.Context(), service.Gesture{Type: service.GestureReset})
	if err != nil {
		a.respondFrontPageError(c, err, "Kunne ikke tilbakestille forsiden")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetDisplaySyncStats 返回尺寸同步钩子的计数。
func (a *API) GetDisplaySyncStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":        a.sync.Stats(),
		"homeRevision": a.home.Current(),
	})
}
