package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadHeroImage 处理主图上传，返回地址与宽高
func (a *API) UploadHeroImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Fant ikke bildet i forespørselen")
		return
	}

	if contentType := file.Header.Get("Content-Type"); contentType != "" && !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "Bare bildefiler kan lastes opp")
		return
	}
	if file.Size > service.MaxHeroImageBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "Bildet er for stort")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Kunne ikke lese bildet")
		return
	}
	defer src.Close()

	hero, err := a.media.SaveHeroImage(src)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageUnsupported), errors.Is(err, service.ErrHeroImageInvalid):
			respondError(c, http.StatusBadRequest, "Bildeformatet støttes ikke")
		case errors.Is(err, service.ErrImageTooLarge):
			respondError(c, http.StatusRequestEntityTooLarge, "Bildet er for stort")
		default:
			a.logger.Error("store hero image", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Kunne ikke lagre bildet")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bildet er lastet opp", "image": hero})
}
