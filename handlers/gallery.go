package handlers

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"time"

	"cadview/auth"
	"cadview/db"
	"cadview/models"
	"cadview/storage"
	"cadview/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const galleryThumbSize = 640

type GalleryImageInfo struct {
	ID          uint64 `json:"id"`
	Width       uint16 `json:"width"`
	Height      uint16 `json:"height"`
	IsThumbnail bool   `json:"isThumbnail"`
}

// GalleryList returns the gallery for a model the caller may see
func GalleryList(c *gin.Context) {
	m, ok := loadModelParam(c)
	if !ok {
		return
	}
	session := auth.LoadSession(c)
	user := session.User()
	if !models.CanAccess(&m, &user, session.Grants(), time.Now()) {
		c.JSON(http.StatusForbidden, NopeResponse)
		return
	}
	var images []models.GalleryImage
	err := db.Instance.Where("model_id = ?", m.ID).Order("display_order ASC, id ASC").Find(&images).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	result := []GalleryImageInfo{}
	for _, image := range images {
		result = append(result, GalleryImageInfo{
			ID:          image.ID,
			Width:       image.Width,
			Height:      image.Height,
			IsThumbnail: image.IsThumbnail,
		})
	}
	c.JSON(http.StatusOK, result)
}

// GalleryUpload attaches a photo to the model and stores a downscaled thumbnail
func GalleryUpload(c *gin.Context) {
	m, ok := loadModelParam(c)
	if !ok {
		return
	}
	session := auth.LoadSession(c)
	user := session.User()
	if !canManageSharing(&m, &user, session) {
		c.JSON(http.StatusForbidden, NopeResponse)
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{"image is required"})
		return
	}
	reader, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	defer reader.Close()

	var original bytes.Buffer
	if _, err = io.Copy(&original, reader); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	var thumb bytes.Buffer
	converted, err := utils.CreateThumb(galleryThumbSize, bytes.NewReader(original.Bytes()), &thumb)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{"unsupported image"})
		return
	}

	store := storage.StorageFrom(&m.Bucket)
	if store == nil {
		c.JSON(http.StatusInternalServerError, Response{"storage unavailable"})
		return
	}
	key := uuid.NewString()
	path := "gallery/" + key
	thumbPath := "gallery/" + key + "_thumb"
	size, err := store.Save(path, &original)
	if err != nil {
		log.Printf("GalleryUpload: saving image for model %d: %v", m.ID, err)
		c.JSON(http.StatusInternalServerError, Response{"upload failed"})
		return
	}
	if _, err = store.Save(thumbPath, &thumb); err != nil {
		store.Delete(path)
		c.JSON(http.StatusInternalServerError, Response{"upload failed"})
		return
	}

	image := models.GalleryImage{
		ModelID:   m.ID,
		Path:      path,
		ThumbPath: thumbPath,
		Size:      size,
		ThumbSize: converted.ThumbSize,
		Width:     converted.OldX,
		Height:    converted.OldY,
	}
	if err = db.Instance.Create(&image).Error; err != nil {
		store.Delete(path)
		store.Delete(thumbPath)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, GalleryImageInfo{
		ID:     image.ID,
		Width:  image.Width,
		Height: image.Height,
	})
}
