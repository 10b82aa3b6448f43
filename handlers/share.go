package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cadview/auth"
	"cadview/config"
	"cadview/models"
	"cadview/share"
	"cadview/utils"

	"github.com/gin-gonic/gin"
)

type ShareUserData struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Company  string `json:"company"`
}

type ShareRequest struct {
	EnableSharing bool          `json:"enableSharing"`
	Password      string        `json:"password"`
	ExpiryDate    string        `json:"expiryDate"`
	Email         string        `json:"email"`
	Language      string        `json:"language"`
	CreateAccount bool          `json:"createAccount"`
	UserData      ShareUserData `json:"userData"`
}

type ShareResponse struct {
	ModelID          uint64  `json:"modelId"`
	ShareID          *string `json:"shareId"`
	ShareEnabled     bool    `json:"shareEnabled"`
	HasPassword      bool    `json:"hasPassword"`
	ShareURL         *string `json:"shareUrl"`
	ExpiryDate       *string `json:"expiryDate"`
	ShareDeleteToken *string `json:"shareDeleteToken"`
	EmailSent        bool    `json:"emailSent"`
	AccountCreated   bool    `json:"accountCreated"`
}

func baseURL(c *gin.Context) string {
	if config.BASE_URL != "" {
		return config.BASE_URL
	}
	scheme := "http"
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func clientLanguage(c *gin.Context) string {
	accept := c.GetHeader("Accept-Language")
	if len(accept) >= 2 {
		return strings.ToLower(accept[:2])
	}
	return "en"
}

func shareEnableOptions(c *gin.Context, password string, expiresAt *int64, email string) share.EnableOptions {
	return share.EnableOptions{
		Password:  password,
		ExpiresAt: expiresAt,
		Email:     email,
		Language:  clientLanguage(c),
		BaseURL:   baseURL(c),
	}
}

func parseExpiryDate(value string) (*int64, bool) {
	if value == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			ts := t.Unix()
			return &ts, true
		}
	}
	return nil, false
}

// canManageSharing limits lifecycle changes to the admin, the owner, or the
// anonymous uploader still holding the session grant
func canManageSharing(m *models.Model, user *models.User, session *auth.Session) bool {
	if user.ID != 0 && user.IsAdmin {
		return true
	}
	if m.OwnedBy(user) {
		return true
	}
	return m.UserID == nil && holdsGrant(m, session)
}

// ModelShare enables or revokes sharing for a model
func ModelShare(c *gin.Context) {
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
	r := ShareRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}

	if !r.EnableSharing {
		priorEmail, err := Share.Revoke(&m)
		if err != nil {
			c.JSON(http.StatusInternalServerError, DBError1Response)
			return
		}
		Share.NotifyRevoked(&m, priorEmail, clientLanguage(c))
		c.JSON(http.StatusOK, ShareResponse{ModelID: m.ID})
		return
	}

	expiresAt, ok := parseExpiryDate(r.ExpiryDate)
	if !ok {
		c.JSON(http.StatusBadRequest, Response{"invalid expiry date"})
		return
	}
	opts := shareEnableOptions(c, r.Password, expiresAt, r.Email)
	if r.Language != "" {
		opts.Language = r.Language
	}
	opts.CreateAccount = r.CreateAccount
	opts.Account = share.AccountData(r.UserData)

	result, err := Share.Enable(&m, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{"failed to share model"})
		return
	}
	if result.NewUser != nil {
		session.LoginUser(result.NewUser.ID)
	}

	response := ShareResponse{
		ModelID:          m.ID,
		ShareID:          m.ShareID,
		ShareEnabled:     m.ShareEnabled,
		HasPassword:      result.HasPassword,
		ShareDeleteToken: m.ShareDeleteToken,
		EmailSent:        result.EmailSent,
		AccountCreated:   result.AccountCreated,
	}
	if m.ShareID != nil {
		url := baseURL(c) + "/shared/" + *m.ShareID
		response.ShareURL = &url
	}
	if m.ShareExpiresAt != nil && *m.ShareExpiresAt > 0 {
		expiry := utils.UnixToISO(*m.ShareExpiresAt)
		response.ExpiryDate = &expiry
	}
	c.JSON(http.StatusOK, response)
}

type PublicRequest struct {
	IsPublic *bool `json:"isPublic" binding:"required"`
}

// ModelSetPublic toggles the public library listing
func ModelSetPublic(c *gin.Context) {
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
	r := PublicRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := Share.SetPublic(&m, *r.IsPublic); err != nil {
		if errors.Is(err, share.ErrPasswordProtected) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":                   "password-protected models cannot be listed publicly",
				"requiresPasswordRemoval": true,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isPublic": m.IsPublic})
}
