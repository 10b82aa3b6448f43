package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"cadview/auth"
	"cadview/db"
	"cadview/models"
	"cadview/storage"
	"cadview/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ModelInfo struct {
	ID           uint64 `json:"id"`
	Filename     string `json:"filename"`
	Filesize     int64  `json:"filesize"`
	Format       string `json:"format"`
	Created      string `json:"created"`
	SourceSystem string `json:"sourceSystem,omitempty"`
	ShareEnabled bool   `json:"shareEnabled"`
	ShareID      string `json:"shareId,omitempty"`
	HasPassword  bool   `json:"hasPassword"`
	IsPublic     bool   `json:"isPublic"`
}

func modelInfoFrom(m *models.Model) ModelInfo {
	info := ModelInfo{
		ID:           m.ID,
		Filename:     m.Filename,
		Filesize:     m.Filesize,
		Format:       m.Format,
		Created:      utils.UnixToISO(m.CreatedAt),
		SourceSystem: m.SourceSystem,
		ShareEnabled: m.ShareEnabled,
		HasPassword:  m.RequiresPassword(),
		IsPublic:     m.IsPublic,
	}
	if m.ShareID != nil {
		info.ShareID = *m.ShareID
	}
	return info
}

func loadModelParam(c *gin.Context) (models.Model, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{"invalid model ID"})
		return models.Model{}, false
	}
	m, found := models.GetModel(id)
	if !found {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return models.Model{}, false
	}
	return m, true
}

// ModelUpload stores a new CAD file. Anonymous uploads get a view token
// embedded in the model and granted to the session, so the uploader keeps
// access without an account.
func ModelUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{"file is required"})
		return
	}
	format := utils.FormatFromFilename(file.Filename)
	if format == "" {
		c.JSON(http.StatusBadRequest, Response{"unsupported file format"})
		return
	}
	reader, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	defer reader.Close()

	store := storage.GetDefaultStorage()
	path := "models/" + uuid.NewString()
	size, err := store.Save(path, reader)
	if err != nil {
		log.Printf("ModelUpload: saving %s: %v", file.Filename, err)
		c.JSON(http.StatusInternalServerError, Response{"upload failed"})
		return
	}

	session := auth.LoadSession(c)
	user := session.User()
	m := models.Model{
		Filename: file.Filename,
		Filesize: size,
		Format:   format,
		Path:     path,
		BucketID: store.GetBucket().ID,
	}
	email := c.PostForm("email")
	if user.ID != 0 {
		m.UserID = &user.ID
		if email == "" {
			email = user.Email
		}
	} else {
		token := utils.Rand16BytesToBase62()
		m.ViewToken = &token
	}
	if email != "" {
		m.UploaderEmail = &email
	}
	if err = db.Instance.Create(&m).Error; err != nil {
		store.Delete(path)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	if m.ViewToken != nil {
		session.GrantView(m.ID, *m.ViewToken)
	}
	// Auto-share is only honoured for logged-in users
	if user.ID != 0 && c.PostForm("autoShare") == "true" {
		if _, err = Share.Enable(&m, shareEnableOptions(c, "", nil, "")); err != nil {
			log.Printf("ModelUpload: auto-share of model %d: %v", m.ID, err)
		}
	}
	c.JSON(http.StatusOK, modelInfoFrom(&m))
}

// ModelGet returns model metadata to anyone the access decision allows
func ModelGet(c *gin.Context) {
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
	c.JSON(http.StatusOK, modelInfoFrom(&m))
}

// ModelFile serves the CAD file bytes. This is a content view: it enforces
// the share password gate and records a view event.
func ModelFile(c *gin.Context) {
	m, ok := loadModelParam(c)
	if !ok {
		return
	}
	session := auth.LoadSession(c)
	user := session.User()
	now := time.Now()
	if !models.CanAccess(&m, &user, session.Grants(), now) {
		c.JSON(http.StatusForbidden, NopeResponse)
		return
	}

	// Which rule let us in? Owners, admins and the anonymous uploader skip
	// the password gate; share-path viewers must have passed it.
	viaShare := !user.IsAdmin && !m.OwnedBy(&user) && !holdsGrant(&m, session)
	var shareID *string
	authenticated := false
	if viaShare {
		shareID = m.ShareID
		if m.RequiresPassword() {
			if m.ShareID == nil || !session.HasShareAccess(*m.ShareID) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "password required", "requiresPassword": true})
				return
			}
			authenticated = true
		}
		m.TouchShareAccessed(now)
	}
	models.RecordView(m.ID, shareID, c.ClientIP(), userAgentPtr(c), authenticated)

	store := storage.StorageFrom(&m.Bucket)
	if store == nil {
		c.JSON(http.StatusInternalServerError, Response{"storage unavailable"})
		return
	}
	c.Header("content-type", "application/octet-stream")
	c.Header("content-disposition", "attachment; filename=\""+m.Filename+"\"")
	store.Serve(m.Path, c.Request, c.Writer)
}

func holdsGrant(m *models.Model, session *auth.Session) bool {
	if m.ViewToken == nil || *m.ViewToken == "" {
		return false
	}
	return session.Grants()[m.ID] == *m.ViewToken
}

// ModelDelete removes the model, its stored file, gallery images and view
// events. Owner or admin only.
func ModelDelete(c *gin.Context) {
	m, ok := loadModelParam(c)
	if !ok {
		return
	}
	session := auth.LoadSession(c)
	user := session.User()
	if !user.IsAdmin && !m.OwnedBy(&user) {
		c.JSON(http.StatusForbidden, NopeResponse)
		return
	}
	deleteModelFiles(&m)
	if err := m.Delete(); err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func deleteModelFiles(m *models.Model) {
	store := storage.StorageFrom(&m.Bucket)
	if store == nil {
		return
	}
	if err := store.Delete(m.Path); err != nil {
		log.Printf("deleteModelFiles: model %d file: %v", m.ID, err)
	}
	var images []models.GalleryImage
	if db.Instance.Where("model_id = ?", m.ID).Find(&images).Error == nil {
		for _, image := range images {
			if image.Path != "" {
				store.Delete(image.Path)
			}
			if image.ThumbPath != "" {
				store.Delete(image.ThumbPath)
			}
		}
	}
}

// ClientModels lists the user's own models plus shared models whose
// contact email matches the account email
func ClientModels(c *gin.Context, user *models.User) {
	var list []models.Model
	err := db.Instance.
		Where("user_id = ? OR share_email = ?", user.ID, user.Email).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	result := []ModelInfo{}
	for i := range list {
		result = append(result, modelInfoFrom(&list[i]))
	}
	c.JSON(http.StatusOK, result)
}
