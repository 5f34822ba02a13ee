package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const flashCookie = "collab_flash"

// flash stores messages for the next request, the way a form redirect
// carries validation errors back to the page that submitted it.
func (s *Server) flash(c *gin.Context, messages map[string]string) {
	if len(messages) == 0 {
		return
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(raw), 60, "/", "", s.secure, true)
}

// takeFlash returns and clears the pending flash messages.
func (s *Server) takeFlash(c *gin.Context) map[string]string {
	messages := map[string]string{}
	value, err := c.Cookie(flashCookie)
	if err != nil || value == "" {
		return messages
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, "", -1, "/", "", s.secure, true)

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return messages
	}
	_ = json.Unmarshal(raw, &messages)
	return messages
}

// redirectBack sends the client to the page it came from when that page is on
// this host, otherwise to fallback.
func redirectBack(c *gin.Context, fallback string) {
	target := fallback
	if ref := c.Request.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == c.Request.Host) && u.Path != "" {
			target = u.RequestURI()
		}
	}
	c.Redirect(http.StatusSeeOther, target)
}
