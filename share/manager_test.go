package share

import (
	"testing"
	"time"

	"cadview/db"
	"cadview/models"
	"cadview/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	shareRecipients      []string
	sharePasswords       []string
	revocationRecipients []string
	fail                 bool
}

func (f *fakeNotifier) SendShareNotification(m *models.Model, recipient, baseURL, password, lang string) bool {
	if f.fail {
		return false
	}
	f.shareRecipients = append(f.shareRecipients, recipient)
	f.sharePasswords = append(f.sharePasswords, password)
	return true
}

func (f *fakeNotifier) SendRevocationNotification(m *models.Model, recipient, lang string) bool {
	if f.fail {
		return false
	}
	f.revocationRecipients = append(f.revocationRecipients, recipient)
	return true
}

func setupManager(t *testing.T) (*Manager, *fakeNotifier) {
	t.Helper()
	dsn := db.SQLiteDSN("file:" + t.Name() + "?mode=memory&cache=shared")
	instance, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	db.Instance = instance
	require.NoError(t, instance.AutoMigrate(&storage.Bucket{}))
	models.Init()
	bucket := storage.Bucket{Name: "test", StorageType: storage.StorageTypeFile, Path: t.TempDir()}
	require.NoError(t, instance.Create(&bucket).Error)
	notifier := &fakeNotifier{}
	return &Manager{Notifier: notifier}, notifier
}

func createModel(t *testing.T, m models.Model) models.Model {
	t.Helper()
	if m.BucketID == 0 {
		var bucket storage.Bucket
		require.NoError(t, db.Instance.First(&bucket).Error)
		m.BucketID = bucket.ID
	}
	require.NoError(t, db.Instance.Create(&m).Error)
	return m
}

func TestEnable_GeneratesAndReusesTokens(t *testing.T) {
	manager, _ := setupManager(t)
	m := createModel(t, models.Model{Filename: "bracket.step", Format: "STEP"})

	result, err := manager.Enable(&m, EnableOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, result.ShareID)
	require.NotEmpty(t, result.DeleteToken)
	require.NotEqual(t, result.ShareID, result.DeleteToken)
	require.True(t, m.ShareEnabled)

	// Re-enabling keeps the same link valid
	again, err := manager.Enable(&m, EnableOptions{})
	require.NoError(t, err)
	require.Equal(t, result.ShareID, again.ShareID)
	require.Equal(t, result.DeleteToken, again.DeleteToken)
}

func TestEnable_PasswordRoundTrip(t *testing.T) {
	manager, _ := setupManager(t)
	m := createModel(t, models.Model{Filename: "bracket.step", Format: "STEP"})

	result, err := manager.Enable(&m, EnableOptions{Password: "s3cr3t"})
	require.NoError(t, err)
	require.True(t, result.HasPassword)
	require.NotNil(t, m.SharePasswordHash)
	// Only the hash is persisted
	require.NotContains(t, *m.SharePasswordHash, "s3cr3t")

	_, allowed, err := manager.VerifyPassword(result.ShareID, "s3cr3t")
	require.NoError(t, err)
	require.True(t, allowed)
	_, allowed, err = manager.VerifyPassword(result.ShareID, "wrong")
	require.NoError(t, err)
	require.False(t, allowed)

	_, _, err = manager.VerifyPassword("no-such-share", "s3cr3t")
	require.ErrorIs(t, err, ErrNotFound)

	// Re-enabling without a password removes the gate
	_, err = manager.Enable(&m, EnableOptions{})
	require.NoError(t, err)
	require.False(t, m.RequiresPassword())
}

func TestEnable_ExpiryIsLazy(t *testing.T) {
	manager, _ := setupManager(t)
	m := createModel(t, models.Model{Filename: "bracket.step", Format: "STEP"})
	past := time.Now().Add(-time.Hour).Unix()

	_, err := manager.Enable(&m, EnableOptions{ExpiresAt: &past})
	require.NoError(t, err)
	require.True(t, m.ShareEnabled)
	require.False(t, m.ShareLive(time.Now()))
	require.False(t, models.CanAccess(&m, &models.User{}, nil, time.Now()))

	// The fields survive expiry, so re-enabling without an expiry revives
	// the same link
	result, err := manager.Enable(&m, EnableOptions{})
	require.NoError(t, err)
	require.True(t, m.ShareLive(time.Now()))
	require.Equal(t, *m.ShareID, result.ShareID)
}

func TestEnable_SendsNotification(t *testing.T) {
	manager, notifier := setupManager(t)
	m := createModel(t, models.Model{Filename: "bracket.step", Format: "STEP"})

	result, err := manager.Enable(&m, EnableOptions{Password: "pw", Email: "bob@example.com", BaseURL: "https://viewer.test"})
	require.NoError(t, err)
	require.True(t, result.EmailSent)
	require.Equal(t, []string{"bob@example.com"}, notifier.shareRecipients)
	require.Equal(t, []string{"pw"}, notifier.sharePasswords)
	require.True(t, m.ShareNotificationSent)

	// Re-enabling without an email clears the stored contact and sends nothing
	again, err := manager.Enable(&m, EnableOptions{})
	require.NoError(t, err)
	require.False(t, again.EmailSent)
	require.Nil(t, m.ShareEmail)
	require.False(t, m.ShareNotificationSent)
	require.Len(t, notifier.shareRecipients, 1)
}

func TestEnable_NotificationFailureDoesNotFailShare(t *testing.T) {
	manager, notifier := setupManager(t)
	notifier.fail = true
	m := createModel(t, models.Model{Filename: "bracket.step", Format: "STEP"})

	result, err := manager.Enable(&m, EnableOptions{Email: "bob@example.com"})
	require.NoError(t, err)
	require.True(t, m.ShareEnabled)
	require.False(t, result.EmailSent)
	require.False(t, m.ShareNotificationSent)
}

func TestRevoke_ClearsEverythingAtomically(t *testing.T) {
	manager, _ := setupManager(t)
	m := createModel(t, models.Model{Filename: "bracket.step", Format: "STEP"})
	future := time.Now().Add(time.Hour).Unix()
	_, err := manager.Enable(&m, EnableOptions{Password: "pw", ExpiresAt: &future, Email: "bob@example.com"})
	require.NoError(t, err)

	priorEmail, err := manager.Revoke(&m)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", priorEmail)
	require.False(t, m.ShareEnabled)
	require.Nil(t, m.ShareID)
	require.Nil(t, m.SharePasswordHash)
	require.Nil(t, m.ShareDeleteToken)
	require.Nil(t, m.ShareExpiresAt)
	require.Nil(t, m.ShareEmail)

	var stored models.Model
	require.NoError(t, db.Instance.First(&stored, m.ID).Error)
	require.False(t, stored.ShareEnabled)
	require.Nil(t, stored.ShareID)

	// A previously shared-only visitor is locked out immediately
	require.False(t, models.CanAccess(&stored, &models.User{}, nil, time.Now()))
}

func TestRevokeByDeleteToken(t *testing.T) {
	manager, _ := setupManager(t)
	m := createModel(t, models.Model{Filename: "bracket.step", Format: "STEP"})
	result, err := manager.Enable(&m, EnableOptions{Email: "bob@example.com"})
	require.NoError(t, err)

	// Wrong token leaves the state untouched and is indistinguishable from
	// an unknown share
	_, _, err = manager.RevokeByDeleteToken(result.ShareID, "bad-token")
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = manager.RevokeByDeleteToken("no-such-share", result.DeleteToken)
	require.ErrorIs(t, err, ErrNotFound)

	var stored models.Model
	require.NoError(t, db.Instance.First(&stored, m.ID).Error)
	require.True(t, stored.ShareEnabled)
	require.NotNil(t, stored.ShareID)

	revoked, priorEmail, err := manager.RevokeByDeleteToken(result.ShareID, result.DeleteToken)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", priorEmail)
	require.Equal(t, m.ID, revoked.ID)

	require.NoError(t, db.Instance.First(&stored, m.ID).Error)
	require.False(t, stored.ShareEnabled)
	require.Nil(t, stored.ShareDeleteToken)
}

func TestEnable_CreatesAccountOnce(t *testing.T) {
	manager, _ := setupManager(t)
	m := createModel(t, models.Model{Filename: "bracket.step", Format: "STEP"})

	result, err := manager.Enable(&m, EnableOptions{
		Email:         "carol@example.com",
		Password:      "sharepw",
		CreateAccount: true,
		Account:       AccountData{Name: "Carol"},
	})
	require.NoError(t, err)
	require.True(t, result.AccountCreated)
	require.NotNil(t, result.NewUser)

	// The share password seeds the account when no explicit one was given
	_, success := models.UserLogin("carol@example.com", "sharepw")
	require.True(t, success)

	// The model is bound to the new account
	require.NotNil(t, m.UserID)
	require.Equal(t, result.NewUser.ID, *m.UserID)

	// A second share for the same email must not create a duplicate
	m2 := createModel(t, models.Model{Filename: "flange.iges", Format: "IGES"})
	result2, err := manager.Enable(&m2, EnableOptions{Email: "carol@example.com", CreateAccount: true})
	require.NoError(t, err)
	require.False(t, result2.AccountCreated)
	require.Nil(t, result2.NewUser)
	require.True(t, m2.ShareEnabled)

	var count int64
	require.NoError(t, db.Instance.Model(&models.User{}).Where("email = ?", "carol@example.com").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSetPublic_BlockedWhilePasswordProtected(t *testing.T) {
	manager, _ := setupManager(t)
	m := createModel(t, models.Model{Filename: "bracket.step", Format: "STEP"})
	_, err := manager.Enable(&m, EnableOptions{Password: "pw"})
	require.NoError(t, err)

	require.ErrorIs(t, manager.SetPublic(&m, true), ErrPasswordProtected)
	require.False(t, m.IsPublic)

	require.NoError(t, manager.SetPassword(&m, ""))
	require.NoError(t, manager.SetPublic(&m, true))
	require.True(t, m.IsPublic)

	var stored models.Model
	require.NoError(t, db.Instance.First(&stored, m.ID).Error)
	require.True(t, stored.IsPublic)
}

func TestClaimUploads(t *testing.T) {
	manager, _ := setupManager(t)
	email := "dave@example.com"
	tokenA := "tokA"
	tokenB := "tokB"
	tokenC := "tokC"
	byEmail := createModel(t, models.Model{Filename: "a.step", Format: "STEP", ViewToken: &tokenA, UploaderEmail: &email})
	byGrant := createModel(t, models.Model{Filename: "b.stl", Format: "STL", ViewToken: &tokenB})
	unrelated := createModel(t, models.Model{Filename: "c.dxf", Format: "DXF", ViewToken: &tokenC})

	user, err := models.UserCreate(email, "Dave", "password")
	require.NoError(t, err)

	manager.ClaimUploads(&user, map[uint64]string{byGrant.ID: tokenB})

	// Fresh destination per lookup: gorm adds a non-zero primary key in the
	// destination to the query conditions
	var claimedByEmail models.Model
	require.NoError(t, db.Instance.First(&claimedByEmail, byEmail.ID).Error)
	require.NotNil(t, claimedByEmail.UserID)
	require.Equal(t, user.ID, *claimedByEmail.UserID)
	require.NotNil(t, claimedByEmail.ShareEmail)
	require.Equal(t, email, *claimedByEmail.ShareEmail)

	var claimedByGrant models.Model
	require.NoError(t, db.Instance.First(&claimedByGrant, byGrant.ID).Error)
	require.NotNil(t, claimedByGrant.UserID)
	require.Equal(t, user.ID, *claimedByGrant.UserID)

	var untouched models.Model
	require.NoError(t, db.Instance.First(&untouched, unrelated.ID).Error)
	require.Nil(t, untouched.UserID)
}
