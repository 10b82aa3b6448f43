package models

import (
	"time"

	"cadview/db"

	"golang.org/x/crypto/bcrypt"
)

type Permission uint8

const (
	PermissionNone   Permission = 0
	PermissionAdmin  Permission = 1
	PermissionClient Permission = 2
)

type User struct {
	ID           uint64 `gorm:"primaryKey"`
	CreatedAt    int64
	UpdatedAt    int64
	Email        string `gorm:"type:varchar(150);index:uniq_email,unique"`
	Name         string `gorm:"type:varchar(100)"`
	Company      string `gorm:"type:varchar(150)"`
	PasswordHash string `gorm:"type:varchar(100)"`
	IsAdmin      bool
	IsClient     bool
	LastLoginAt  int64
}

// HashPassword hashes with bcrypt, which generates a fresh random salt
// for every call and embeds it in the output.
func HashPassword(plainTextPassword string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares in constant time (bcrypt does internally)
func CheckPassword(hash, plainTextPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plainTextPassword)) == nil
}

func UserCreate(email, name, plainTextPassword string) (u User, err error) {
	u.Email = email
	u.Name = name
	u.IsClient = true
	u.PasswordHash, err = HashPassword(plainTextPassword)
	if err != nil {
		return
	}
	return u, db.Instance.Create(&u).Error
}

func UserLogin(email, plainTextPassword string) (u User, success bool) {
	result := db.Instance.First(&u, "email = ?", email)
	if result.Error != nil {
		return User{}, false
	}
	if !CheckPassword(u.PasswordHash, plainTextPassword) {
		return User{}, false
	}
	u.LastLoginAt = time.Now().Unix()
	db.Instance.Model(&u).Update("last_login_at", u.LastLoginAt)
	return u, true
}

func UserByEmail(email string) (u User, found bool) {
	if db.Instance.First(&u, "email = ?", email).Error != nil {
		return User{}, false
	}
	return u, true
}

func (u *User) HasPermission(required Permission) bool {
	switch required {
	case PermissionAdmin:
		return u.IsAdmin
	case PermissionClient:
		return u.IsClient || u.IsAdmin
	}
	return true
}

func (u *User) HasPermissions(required []Permission) bool {
	for _, permission := range required {
		if !u.HasPermission(permission) {
			return false
		}
	}
	return true
}
