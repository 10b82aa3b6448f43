package handlers

import (
	"cadview/share"
	"cadview/utils"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Error string `json:"error"`
}

var (
	// Predefined errors
	OKResponse       = Response{}
	NopeResponse     = Response{"access denied"}
	NotFoundResponse = Response{"not found"}
	DBError1Response = Response{"DB Error 1"}
	DBError2Response = Response{"DB Error 2"}
)

// Share is the lifecycle manager, injected once at startup
var Share *share.Manager

func Init(manager *share.Manager) {
	Share = manager
}

// userAgentPtr returns the User-Agent header, or nil when absent
func userAgentPtr(c *gin.Context) *string {
	agent := c.Request.UserAgent()
	if agent == "" {
		return nil
	}
	return &agent
}

func isoPtr(ts int64) *string {
	iso := utils.UnixToISO(ts)
	return &iso
}
