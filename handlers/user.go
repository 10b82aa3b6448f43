package handlers

import (
	"net/http"

	"cadview/auth"
	"cadview/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type UserRegisterRequest struct {
	Email    string `form:"email" binding:"required,email"`
	Name     string `form:"name"`
	Password string `form:"password" binding:"required,min=6"`
}

type UserLoginRequest struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// UserRegister creates an account, logs it in and claims any anonymous
// uploads belonging to this visitor
func UserRegister(c *gin.Context) {
	r := UserRegisterRequest{}
	if err := c.ShouldBindWith(&r, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if _, exists := models.UserByEmail(r.Email); exists {
		c.JSON(http.StatusConflict, Response{"email is already in use"})
		return
	}
	user, err := models.UserCreate(r.Email, r.Name, r.Password)
	if err != nil {
		// A concurrent registration can still win the unique index race
		if _, exists := models.UserByEmail(r.Email); exists {
			c.JSON(http.StatusConflict, Response{"email is already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	session := auth.LoadSession(c)
	Share.ClaimUploads(&user, session.Grants())
	session.LoginUser(user.ID)
	c.JSON(http.StatusOK, gin.H{"error": "", "id": user.ID, "email": user.Email, "name": user.Name})
}

func UserLogin(c *gin.Context) {
	r := UserLoginRequest{}
	if err := c.ShouldBindWith(&r, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	user, success := models.UserLogin(r.Email, r.Password)
	if !success {
		c.JSON(http.StatusUnauthorized, Response{"invalid email or password"})
		return
	}
	session := auth.LoadSession(c)
	session.LoginUser(user.ID)
	c.JSON(http.StatusOK, gin.H{"error": "", "id": user.ID, "email": user.Email, "name": user.Name, "isAdmin": user.IsAdmin})
}

func UserLogout(c *gin.Context) {
	auth.LoadSession(c).LogoutUser()
	c.JSON(http.StatusOK, OKResponse)
}

func UserGetStatus(c *gin.Context) {
	session := auth.LoadSession(c)
	user := session.User()
	if user.ID == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "id": user.ID, "email": user.Email, "name": user.Name, "isAdmin": user.IsAdmin, "isClient": user.IsClient})
}
