package models

import "time"

// CanAccess decides whether the caller may see the model at all. It is
// deterministic and side-effect free, so it is safe to call on every
// request, including metadata-only probes.
//
// Rules, first match wins:
//  1. authenticated admin
//  2. authenticated owner
//  3. live public share (password-protected shares still expose metadata;
//     the content-level password gate is enforced by the handlers)
//  4. anonymous uploader holding the matching session grant
func CanAccess(m *Model, user *User, grants map[uint64]string, now time.Time) bool {
	if user != nil && user.ID != 0 && user.IsAdmin {
		return true
	}
	if m.OwnedBy(user) {
		return true
	}
	if m.ShareLive(now) {
		return true
	}
	if m.ViewToken != nil && *m.ViewToken != "" {
		if token, ok := grants[m.ID]; ok && token == *m.ViewToken {
			return true
		}
	}
	return false
}
