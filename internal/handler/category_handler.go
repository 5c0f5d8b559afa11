package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetCategories 返回编辑部栏目及已发布文章数
func (a *API) GetCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		a.logger.Error("list categories", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Kunne ikke hente kategorier")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// RejectCategoryChange 栏目由白名单维护，后台不允许增删改。
func (a *API) RejectCategoryChange(c *gin.Context) {
	respondError(c, http.StatusForbidden, "Kategoriene er faste og kan ikke endres")
}
