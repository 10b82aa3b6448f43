// Package share owns the sharing lifecycle of a model: enabling a public
// link, the password gate, revocation (authenticated or via the mailed
// delete token) and the public library flag. All registry writes go through
// here, as single atomic row updates.
package share

import (
	"crypto/subtle"
	"errors"
	"log"

	"cadview/db"
	"cadview/models"
	"cadview/notify"
	"cadview/utils"
)

var (
	// ErrNotFound covers both "no such share" and "bad delete token" so the
	// response never reveals which share IDs exist
	ErrNotFound = errors.New("shared model not found")
	// ErrPasswordProtected rejects a library listing while a share password is set
	ErrPasswordProtected = errors.New("model is password-protected")
)

type Manager struct {
	Notifier notify.Notifier
}

type AccountData struct {
	Name     string
	Password string
	Company  string
}

type EnableOptions struct {
	Password      string // plaintext; hashed before it touches the registry
	ExpiresAt     *int64 // unix; nil means no expiration
	Email         string
	Language      string
	BaseURL       string
	CreateAccount bool
	Account       AccountData
}

type EnableResult struct {
	ShareID        string
	DeleteToken    string
	HasPassword    bool
	EmailSent      bool
	AccountCreated bool
	NewUser        *models.User // set when a just-in-time account was created, so the caller can log it in
}

// Enable turns sharing on, reusing the existing shareId and deleteToken if
// the model was shared before. The password, expiry and contact email are
// fully specified by each call: omitting the password removes the gate and
// omitting the email clears the stored contact.
func (mg *Manager) Enable(m *models.Model, opts EnableOptions) (result EnableResult, err error) {
	if m.ShareID == nil || *m.ShareID == "" {
		// Claim tokens atomically; a concurrent Enable that got there first
		// wins and its link stays valid
		claim := db.Instance.Model(&models.Model{}).
			Where("id = ? AND share_id IS NULL", m.ID).
			Updates(map[string]interface{}{
				"share_id":           utils.Rand8BytesToBase62(),
				"share_delete_token": utils.Rand16BytesToBase62(),
			})
		if claim.Error != nil {
			return result, claim.Error
		}
		if err = db.Instance.First(m, m.ID).Error; err != nil {
			return result, err
		}
	} else if m.ShareDeleteToken == nil || *m.ShareDeleteToken == "" {
		token := utils.Rand16BytesToBase62()
		if err = db.Instance.Model(m).Update("share_delete_token", token).Error; err != nil {
			return result, err
		}
		m.ShareDeleteToken = &token
	}
	result.ShareID = *m.ShareID
	result.DeleteToken = *m.ShareDeleteToken

	updates := map[string]interface{}{
		"share_enabled":           true,
		"share_password_hash":     nil,
		"share_expires_at":        nil,
		"share_email":             nil,
		"share_notification_sent": false,
	}
	if opts.Password != "" {
		var hash string
		if hash, err = models.HashPassword(opts.Password); err != nil {
			return result, err
		}
		updates["share_password_hash"] = hash
		result.HasPassword = true
	}
	if opts.ExpiresAt != nil && *opts.ExpiresAt > 0 {
		updates["share_expires_at"] = *opts.ExpiresAt
	}
	if opts.Email != "" {
		updates["share_email"] = opts.Email
	}

	if opts.CreateAccount && opts.Email != "" {
		if newUser := mg.createAccount(opts); newUser != nil {
			updates["user_id"] = newUser.ID
			result.AccountCreated = true
			result.NewUser = newUser
		}
	}

	if err = db.Instance.Model(&models.Model{}).Where("id = ?", m.ID).Updates(updates).Error; err != nil {
		return result, err
	}
	if err = db.Instance.First(m, m.ID).Error; err != nil {
		return result, err
	}

	// Registry write is the durability boundary; notification failure is
	// independent of the transition's success
	if opts.Email != "" {
		if mg.Notifier.SendShareNotification(m, opts.Email, opts.BaseURL, opts.Password, opts.Language) {
			result.EmailSent = true
			db.Instance.Model(m).Update("share_notification_sent", true)
		}
	}
	return result, nil
}

// createAccount creates a user for the share contact. Never fails the share
// operation: the email uniqueness constraint is the authority, and a
// duplicate insert means the account already exists.
func (mg *Manager) createAccount(opts EnableOptions) *models.User {
	if _, exists := models.UserByEmail(opts.Email); exists {
		log.Printf("User %s already exists, skipping account creation", opts.Email)
		return nil
	}
	password := opts.Account.Password
	if password == "" {
		password = opts.Password
	}
	if password == "" {
		password = utils.Rand8BytesToBase62()
	}
	user, err := models.UserCreate(opts.Email, opts.Account.Name, password)
	if err != nil {
		if _, exists := models.UserByEmail(opts.Email); exists {
			// Lost a concurrent registration race; not an error
			log.Printf("User %s created concurrently, skipping account creation", opts.Email)
			return nil
		}
		log.Printf("Account creation for %s failed: %v", opts.Email, err)
		return nil
	}
	if opts.Account.Company != "" {
		user.Company = opts.Account.Company
		db.Instance.Model(&user).Update("company", opts.Account.Company)
	}
	return &user
}

// VerifyPassword checks a supplied share password. It does not mutate any
// state; the caller records the view event on success.
func (mg *Manager) VerifyPassword(shareID, supplied string) (m models.Model, allowed bool, err error) {
	m, found := models.GetModelByShareID(shareID)
	if !found || !m.ShareEnabled {
		return models.Model{}, false, ErrNotFound
	}
	if !m.RequiresPassword() {
		return m, true, nil
	}
	return m, models.CheckPassword(*m.SharePasswordHash, supplied), nil
}

// Revoke clears the whole sharing configuration in one atomic update and
// returns the pre-revocation contact email, so the caller can fire the
// revocation notification after the state change has committed.
func (mg *Manager) Revoke(m *models.Model) (priorEmail string, err error) {
	if m.ShareEmail != nil {
		priorEmail = *m.ShareEmail
	}
	err = db.Instance.Model(&models.Model{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
		"share_enabled":           false,
		"share_id":                nil,
		"share_password_hash":     nil,
		"share_expires_at":        nil,
		"share_delete_token":      nil,
		"share_email":             nil,
		"share_notification_sent": false,
	}).Error
	if err != nil {
		return "", err
	}
	m.ShareEnabled = false
	m.ShareID = nil
	m.SharePasswordHash = nil
	m.ShareExpiresAt = nil
	m.ShareDeleteToken = nil
	m.ShareEmail = nil
	m.ShareNotificationSent = false
	return priorEmail, nil
}

// RevokeByDeleteToken is the unauthenticated revocation path, reached from
// the link mailed to the share contact
func (mg *Manager) RevokeByDeleteToken(shareID, suppliedToken string) (m models.Model, priorEmail string, err error) {
	m, found := models.GetModelByShareID(shareID)
	if !found || !m.ShareEnabled {
		return models.Model{}, "", ErrNotFound
	}
	if m.ShareDeleteToken == nil ||
		subtle.ConstantTimeCompare([]byte(*m.ShareDeleteToken), []byte(suppliedToken)) != 1 {
		return models.Model{}, "", ErrNotFound
	}
	priorEmail, err = mg.Revoke(&m)
	return m, priorEmail, err
}

// NotifyRevoked sends the revocation email; failures are logged only
func (mg *Manager) NotifyRevoked(m *models.Model, recipient, lang string) bool {
	if recipient == "" {
		return false
	}
	sent := mg.Notifier.SendRevocationNotification(m, recipient, lang)
	if !sent {
		log.Printf("Failed to send revocation notification for model %d to %s", m.ID, recipient)
	}
	return sent
}

// SetPassword replaces or removes the password gate of an active share
// without touching the rest of the configuration
func (mg *Manager) SetPassword(m *models.Model, password string) error {
	var value interface{}
	if password != "" {
		hash, err := models.HashPassword(password)
		if err != nil {
			return err
		}
		value = hash
	}
	if err := db.Instance.Model(&models.Model{}).Where("id = ?", m.ID).
		Update("share_password_hash", value).Error; err != nil {
		return err
	}
	return db.Instance.First(m, m.ID).Error
}

// SetPublic toggles the public library listing. A model shared with a
// password cannot be listed; the toggle goes through the same atomic
// update path as the other sharing fields.
func (mg *Manager) SetPublic(m *models.Model, public bool) error {
	if public && m.ShareEnabled && m.RequiresPassword() {
		return ErrPasswordProtected
	}
	if err := db.Instance.Model(&models.Model{}).Where("id = ?", m.ID).
		Update("is_public", public).Error; err != nil {
		return err
	}
	m.IsPublic = public
	return nil
}

// ClaimUploads binds anonymous uploads to a freshly registered account:
// models whose upload email matches, or whose view token is held by the
// registering session. Best effort, partial completion is fine.
func (mg *Manager) ClaimUploads(user *models.User, grants map[uint64]string) {
	var candidates []models.Model
	err := db.Instance.
		Where("view_token IS NOT NULL AND share_enabled = ? AND user_id IS NULL", false).
		Find(&candidates).Error
	if err != nil {
		log.Printf("ClaimUploads: listing candidates for %s: %v", user.Email, err)
		return
	}
	for i := range candidates {
		m := &candidates[i]
		emailMatch := m.UploaderEmail != nil && *m.UploaderEmail == user.Email
		grantMatch := m.ViewToken != nil && grants[m.ID] == *m.ViewToken
		if !emailMatch && !grantMatch {
			continue
		}
		err = db.Instance.Model(m).Updates(map[string]interface{}{
			"user_id":     user.ID,
			"share_email": user.Email,
		}).Error
		if err != nil {
			log.Printf("ClaimUploads: binding model %d to user %d: %v", m.ID, user.ID, err)
			continue
		}
		log.Printf("Model %d claimed by user %d (%s)", m.ID, user.ID, user.Email)
	}
}
