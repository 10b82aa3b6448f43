package web

import (
	"net/http"
	"strings"

	"cadview/handlers"

	"github.com/gin-gonic/gin"
)

// RevokeShareView handles the revocation link mailed to the share contact.
// It renders a human-facing confirmation page; unknown share IDs and wrong
// tokens get the same page so the URL space cannot be probed.
func RevokeShareView(c *gin.Context) {
	m, priorEmail, err := handlers.Share.RevokeByDeleteToken(c.Param("shareId"), c.Param("token"))
	if err != nil {
		c.HTML(http.StatusNotFound, "revoke_invalid.tmpl", gin.H{})
		return
	}
	lang := "en"
	if accept := c.GetHeader("Accept-Language"); len(accept) >= 2 {
		lang = strings.ToLower(accept[:2])
	}
	handlers.Share.NotifyRevoked(&m, priorEmail, lang)
	c.HTML(http.StatusOK, "revoke_success.tmpl", gin.H{
		"filename": m.Filename,
	})
}

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
}
