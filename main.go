package main

import (
	"log"
	"strings"
	"time"

	"cadview/auth"
	"cadview/config"
	"cadview/db"
	"cadview/handlers"
	"cadview/models"
	"cadview/notify"
	"cadview/share"
	"cadview/storage"
	"cadview/utils"
	"cadview/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName     = "token"
	sessionExpirationTime = 30 * 86400 // 30 days
)

func main() {
	db.Init()
	models.Init()
	storage.Init()
	handlers.Init(&share.Manager{Notifier: &notify.Mailer{}})

	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	// HTML templates (revocation confirmation pages)
	router.LoadHTMLGlob("templates/*.tmpl")

	cookieStore := gormsessions.NewStore(db.Instance, true, []byte(config.SESSION_KEY))
	cookieStore.Options(sessions.Options{MaxAge: sessionExpirationTime})
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/models"})))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler()) // No cache by default

	// User handlers
	router.POST("/user/register", handlers.UserRegister)
	router.POST("/user/login", handlers.UserLogin)
	router.POST("/user/logout", handlers.UserLogout)
	router.GET("/user/status", handlers.UserGetStatus)

	// Model handlers - access checks are done inside (anonymous uploads are allowed)
	router.POST("/models", handlers.ModelUpload)
	router.GET("/models/:id", handlers.ModelGet)
	router.GET("/models/:id/file", handlers.ModelFile)
	router.DELETE("/models/:id", handlers.ModelDelete)
	router.POST("/models/:id/share", handlers.ModelShare)
	router.POST("/models/:id/public", handlers.ModelSetPublic)
	router.GET("/models/:id/gallery", handlers.GalleryList)
	router.POST("/models/:id/gallery", handlers.GalleryUpload)

	// Public share links
	router.GET("/shared/:shareId", handlers.SharedMeta)
	router.POST("/shared/:shareId/access", handlers.SharedAccess)
	router.DELETE("/shared/:shareId", handlers.SharedRevoke)
	router.DELETE("/shared/:shareId/:token", handlers.SharedRevokeToken)

	// Custom Auth Router
	authRouter := &auth.Router{Base: router}
	authRouter.GET("/client/models", handlers.ClientModels, models.PermissionClient)
	authRouter.GET("/admin/shared-models", handlers.AdminSharedModels, models.PermissionAdmin)
	authRouter.GET("/admin/shared-models/:id/stats", handlers.AdminSharedModelStats, models.PermissionAdmin)
	authRouter.POST("/admin/shared-models/:id/password", handlers.AdminSharedModelPassword, models.PermissionAdmin)
	authRouter.DELETE("/admin/shared-models/:id", handlers.AdminSharedModelDelete, models.PermissionAdmin)

	/*
	 *	Web interface
	 */
	router.GET("/revoke-share/:shareId/:token", web.RevokeShareView)
	router.GET("/robots.txt", web.DisallowRobots)

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	log.Fatalf("Server stopped: %v", err)
}
