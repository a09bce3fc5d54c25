package http

import (
	"net/http"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/server/auth"
)

// readSession returns the active game of the caller. A request without a
// session cookie has no active game.
func (h *Handlers) readSession(r *http.Request) (auth.Session, error) {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil || c.Value == "" {
		return auth.Session{}, common.ErrNoActiveGame
	}
	return auth.ParseToken(c.Value, h.secret)
}

func (h *Handlers) writeSession(w http.ResponseWriter, s auth.Session) error {
	token, err := auth.GenerateToken(s, h.secret, h.ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
