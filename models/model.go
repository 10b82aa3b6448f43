package models

import (
	"time"

	"cadview/db"
	"cadview/storage"
)

// Model is one uploaded CAD file and its current sharing configuration.
// All Share* fields are mutated only by share.Manager, always as a single
// atomic update of the row.
type Model struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt int64
	UpdatedAt int64
	UserID    *uint64 // nil means "unclaimed" - uploaded anonymously and not yet bound to an account
	User      *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`

	Filename     string `gorm:"type:varchar(255);not null"`
	Filesize     int64
	Format       string `gorm:"type:varchar(16)"`  // STEP, IGES, STL, DXF, DWG
	SourceSystem string `gorm:"type:varchar(100)"` // CAD system scraped from the file header, if any
	Path         string `gorm:"type:varchar(255)"` // storage key of the uploaded bytes
	BucketID     uint64
	Bucket       storage.Bucket `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	// Anonymous-upload access fields
	ViewToken     *string `gorm:"type:varchar(100)"` // matched against the uploader's session grant
	UploaderEmail *string `gorm:"type:varchar(150)"` // captured at upload time, used to claim the model on registration

	// Sharing configuration
	ShareID               *string `gorm:"type:varchar(100);index:uniq_share_id,unique"`
	ShareEnabled          bool
	SharePasswordHash     *string `gorm:"type:varchar(100)"`
	ShareExpiresAt        *int64  // unix; nil or 0 means no expiration
	ShareDeleteToken      *string `gorm:"type:varchar(100);index:uniq_share_delete_token,unique"`
	ShareEmail            *string `gorm:"type:varchar(150)"`
	ShareNotificationSent bool
	ShareLastAccessedAt   *int64

	// Public CAD library listing
	IsPublic bool

	// Opaque format-specific metadata (parts/assemblies/properties), JSON
	FormatMeta string `gorm:"type:text"`
}

func GetModel(id uint64) (m Model, found bool) {
	if db.Instance.Joins("Bucket").First(&m, id).Error != nil {
		return Model{}, false
	}
	return m, true
}

func GetModelByShareID(shareID string) (m Model, found bool) {
	if shareID == "" {
		return Model{}, false
	}
	if db.Instance.Joins("Bucket").First(&m, "share_id = ?", shareID).Error != nil {
		return Model{}, false
	}
	return m, true
}

// ShareLive reports whether the public share link currently grants access.
// Expiry is checked lazily; an expired share keeps its fields so the owner
// can re-enable the same link later.
func (m *Model) ShareLive(now time.Time) bool {
	if !m.ShareEnabled {
		return false
	}
	if m.ShareExpiresAt != nil && *m.ShareExpiresAt > 0 && now.Unix() > *m.ShareExpiresAt {
		return false
	}
	return true
}

func (m *Model) RequiresPassword() bool {
	return m.SharePasswordHash != nil && *m.SharePasswordHash != ""
}

func (m *Model) OwnedBy(user *User) bool {
	return user != nil && user.ID != 0 && m.UserID != nil && *m.UserID == user.ID
}

// TouchShareAccessed updates the last-accessed timestamp only; failures are
// not significant to the surrounding request
func (m *Model) TouchShareAccessed(now time.Time) {
	ts := now.Unix()
	m.ShareLastAccessedAt = &ts
	db.Instance.Model(m).Update("share_last_accessed_at", ts)
}

// Delete removes the model row; view events and gallery images cascade
func (m *Model) Delete() error {
	return db.Instance.Delete(&Model{}, m.ID).Error
}
