package handlers

import (
	"net/http"
	"strconv"

	"cadview/db"
	"cadview/models"

	"github.com/gin-gonic/gin"
)

type AdminModelInfo struct {
	ModelInfo
	ShareEmail        *string `json:"shareEmail,omitempty"`
	ShareExpiryDate   *string `json:"shareExpiryDate,omitempty"`
	ShareLastAccessed *string `json:"shareLastAccessed,omitempty"`
	ViewTokenFragment string  `json:"viewTokenFragment,omitempty"`
	Temporary         bool    `json:"temporary"` // anonymous upload never claimed or shared
}

func adminModelInfoFrom(m *models.Model) AdminModelInfo {
	info := AdminModelInfo{
		ModelInfo:  modelInfoFrom(m),
		ShareEmail: m.ShareEmail,
		Temporary:  m.ViewToken != nil && !m.ShareEnabled,
	}
	if m.ShareExpiresAt != nil && *m.ShareExpiresAt > 0 {
		expiry := isoPtr(*m.ShareExpiresAt)
		info.ShareExpiryDate = expiry
	}
	if m.ShareLastAccessedAt != nil {
		info.ShareLastAccessed = isoPtr(*m.ShareLastAccessedAt)
	}
	if m.ViewToken != nil && len(*m.ViewToken) > 8 {
		// Enough to recognize the token in logs without disclosing it
		info.ViewTokenFragment = (*m.ViewToken)[:8] + "..."
	}
	return info
}

// AdminSharedModels lists shared models and unclaimed anonymous uploads
func AdminSharedModels(c *gin.Context, user *models.User) {
	var list []models.Model
	err := db.Instance.
		Where("share_enabled = ? OR view_token IS NOT NULL", true).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	result := []AdminModelInfo{}
	for i := range list {
		result = append(result, adminModelInfoFrom(&list[i]))
	}
	c.JSON(http.StatusOK, result)
}

func adminLoadModel(c *gin.Context) (models.Model, bool) {
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

// AdminSharedModelStats returns the view statistics derived from the view log
func AdminSharedModelStats(c *gin.Context, user *models.User) {
	m, ok := adminLoadModel(c)
	if !ok {
		return
	}
	stats, err := models.ComputeViewStats(m.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type AdminPasswordRequest struct {
	Password string `json:"password"` // empty removes the password gate
}

// AdminSharedModelPassword sets or clears the share password
func AdminSharedModelPassword(c *gin.Context, user *models.User) {
	m, ok := adminLoadModel(c)
	if !ok {
		return
	}
	if !m.ShareEnabled {
		c.JSON(http.StatusBadRequest, Response{"model is not shared"})
		return
	}
	r := AdminPasswordRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := Share.SetPassword(&m, r.Password); err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasPassword": m.RequiresPassword()})
}

func AdminSharedModelDelete(c *gin.Context, user *models.User) {
	m, ok := adminLoadModel(c)
	if !ok {
		return
	}
	deleteModelFiles(&m)
	if err := m.Delete(); err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}
