package handlers

import (
	"net/http"
	"time"

	"cadview/auth"
	"cadview/models"

	"github.com/gin-gonic/gin"
)

type SharedMetaResponse struct {
	Filename         string `json:"filename"`
	Format           string `json:"format"`
	Created          string `json:"created"`
	RequiresPassword bool   `json:"requiresPassword"`
}

func loadLiveShare(c *gin.Context) (models.Model, bool) {
	m, found := models.GetModelByShareID(c.Param("shareId"))
	if !found || !m.ShareEnabled {
		c.JSON(http.StatusNotFound, Response{"shared model not found"})
		return models.Model{}, false
	}
	if !m.ShareLive(time.Now()) {
		c.JSON(http.StatusForbidden, Response{"this shared link has expired"})
		return models.Model{}, false
	}
	return m, true
}

// SharedMeta is the metadata probe for a share link. It never exposes
// content and is visible without the password; it only counts as a view
// when no password gate exists.
func SharedMeta(c *gin.Context) {
	m, ok := loadLiveShare(c)
	if !ok {
		return
	}
	if !m.RequiresPassword() {
		models.RecordView(m.ID, m.ShareID, c.ClientIP(), userAgentPtr(c), false)
	}
	m.TouchShareAccessed(time.Now())
	c.JSON(http.StatusOK, SharedMetaResponse{
		Filename:         m.Filename,
		Format:           m.Format,
		Created:          modelInfoFrom(&m).Created,
		RequiresPassword: m.RequiresPassword(),
	})
}

type SharedAccessRequest struct {
	Password string `json:"password"`
}

// SharedAccess performs the password challenge for a protected share and
// returns the full model summary on success
func SharedAccess(c *gin.Context) {
	m, ok := loadLiveShare(c)
	if !ok {
		return
	}
	r := SharedAccessRequest{}
	// A missing body is fine for links without a password
	_ = c.ShouldBindJSON(&r)

	if m.RequiresPassword() {
		ip := c.ClientIP()
		if !passwordAttemptAllowed(ip) {
			c.JSON(http.StatusTooManyRequests, Response{"too many attempts, try again later"})
			return
		}
		_, allowed, err := Share.VerifyPassword(*m.ShareID, r.Password)
		if err != nil || !allowed || r.Password == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password", "requiresPassword": true})
			return
		}
		passwordAttemptReset(ip)
		session := auth.LoadSession(c)
		session.MarkShareAccess(*m.ShareID)
		models.RecordView(m.ID, m.ShareID, ip, userAgentPtr(c), true)
	}
	m.TouchShareAccessed(time.Now())
	c.JSON(http.StatusOK, modelInfoFrom(&m))
}

// SharedRevoke is the authenticated revocation variant
func SharedRevoke(c *gin.Context) {
	m, found := models.GetModelByShareID(c.Param("shareId"))
	if !found || !m.ShareEnabled {
		c.JSON(http.StatusNotFound, Response{"shared model not found"})
		return
	}
	session := auth.LoadSession(c)
	user := session.User()
	if user.ID == 0 || (!user.IsAdmin && !m.OwnedBy(&user)) {
		c.JSON(http.StatusForbidden, NopeResponse)
		return
	}
	priorEmail, err := Share.Revoke(&m)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	Share.NotifyRevoked(&m, priorEmail, clientLanguage(c))
	c.JSON(http.StatusOK, OKResponse)
}

// SharedRevokeToken revokes via the secret delete token from the share
// email. The response is identical for unknown shares and wrong tokens.
func SharedRevokeToken(c *gin.Context) {
	m, priorEmail, err := Share.RevokeByDeleteToken(c.Param("shareId"), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{"shared model not found"})
		return
	}
	Share.NotifyRevoked(&m, priorEmail, clientLanguage(c))
	c.JSON(http.StatusOK, OKResponse)
}
