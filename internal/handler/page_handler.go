package handler

import (
	"errors"
	"net/http"

	"github.com/Bjorshol/studentavis/internal/locale"
	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type pagePayload struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	Draft           bool   `json:"draft"`
}

// ListPages returns all static pages for the admin.
func (a *API) ListPages(c *gin.Context) {
	pages, err := a.pages.List(c.Request.Context())
	if err != nil {
		a.logger.Error("list pages", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Kunne ikke hente sider")
		return
	}

	response := make([]gin.H, 0, len(pages))
	for _, page := range pages {
		response = append(response, gin.H{
			"slug":      page.Slug,
			"title":     page.Title,
			"status":    page.Status,
			"updatedAt": locale.FormatDateTime(page.UpdatedAt),
		})
	}
	c.JSON(http.StatusOK, gin.H{"pages": response})
}

// SavePage creates or updates the page identified by :slug.
func (a *API) SavePage(c *gin.Context) {
	var payload pagePayload
	if !bindJSON(c, &payload, "Ugyldig forespørsel") {
		return
	}

	page, err := a.pages.Save(c.Request.Context(), service.PageInput{
		Slug:            c.Param("slug"),
		Title:           payload.Title,
		Content:         payload.Content,
		MetaTitle:       payload.MetaTitle,
		MetaDescription: payload.MetaDescription,
		Draft:           payload.Draft,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPageContentMissing):
			respondError(c, http.StatusBadRequest, "Siden mangler innhold")
		case errors.Is(err, service.ErrPageSlugInvalid):
			respondError(c, http.StatusBadRequest, "Ugyldig adresse for siden")
		default:
			a.logger.Error("save page", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Kunne ikke lagre siden")
		}
		return
	}

	if page.Slug == service.HomePageSlug {
		a.home.InvalidateHome("home page meta saved")
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Siden er lagret",
		"page": gin.H{
			"slug":      page.Slug,
			"title":     page.Title,
			"summary":   page.Summary,
			"updatedAt": locale.FormatDateTime(page.UpdatedAt),
		},
	})
}
