package handlers

import (
	"time"

	"cadview/config"

	cmap "github.com/orcaman/concurrent-map/v2"
)

type attemptWindow struct {
	count      int
	windowFrom int64
}

// passwordAttempts tracks failed share-password attempts per client IP in a
// fixed window, to slow down brute forcing of share links
var passwordAttempts = cmap.New[attemptWindow]()

func passwordAttemptAllowed(ip string) bool {
	now := time.Now().Unix()
	allowed := true
	passwordAttempts.Upsert(ip, attemptWindow{}, func(exists bool, current, _ attemptWindow) attemptWindow {
		if !exists || now-current.windowFrom > int64(config.PASSWORD_ATTEMPT_WINDOW) {
			return attemptWindow{count: 1, windowFrom: now}
		}
		current.count++
		allowed = current.count <= config.PASSWORD_ATTEMPT_LIMIT
		return current
	})
	return allowed
}

func passwordAttemptReset(ip string) {
	passwordAttempts.Remove(ip)
}
