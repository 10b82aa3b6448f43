package auth

import (
	"encoding/gob"

	"cadview/db"
	"cadview/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	userIdKey      = "id"
	grantsKey      = "grants"       // modelId -> anonymous view token
	shareAccessKey = "share_access" // shareIds that passed a password challenge
)

func init() {
	// Session values are gob-encoded by the store
	gob.Register(map[uint64]string{})
	gob.Register(map[string]bool{})
}

type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{
		Session: sessions.Default(c),
	}
}

func (s *Session) LoginUser(userID uint64) {
	s.Set(userIdKey, userID)
	s.Save()
}

func (s *Session) LogoutUser() {
	s.Delete(userIdKey)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	s.Save()
}

func (s *Session) User() (user models.User) {
	id := s.Get(userIdKey)
	if id == nil {
		return
	}
	user.ID = id.(uint64)
	if db.Instance.First(&user).Error != nil {
		user.ID = 0
	}
	return
}

// Grants returns the session's modelId -> view token map. The returned map
// is a snapshot; mutate only via GrantView.
func (s *Session) Grants() map[uint64]string {
	if grants, ok := s.Get(grantsKey).(map[uint64]string); ok {
		return grants
	}
	return map[uint64]string{}
}

// GrantView remembers that this visitor uploaded the given model, so they
// can keep seeing it without an account
func (s *Session) GrantView(modelID uint64, token string) {
	grants := s.Grants()
	grants[modelID] = token
	s.Set(grantsKey, grants)
	s.Save()
}

// HasShareAccess reports whether this session already passed the password
// challenge for the given share
func (s *Session) HasShareAccess(shareID string) bool {
	if passed, ok := s.Get(shareAccessKey).(map[string]bool); ok {
		return passed[shareID]
	}
	return false
}

func (s *Session) MarkShareAccess(shareID string) {
	passed, ok := s.Get(shareAccessKey).(map[string]bool)
	if !ok {
		passed = map[string]bool{}
	}
	passed[shareID] = true
	s.Set(shareAccessKey, passed)
	s.Save()
}
