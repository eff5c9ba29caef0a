package portal

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/gateway"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/login"
)

const (
	SessionCookieName = "campus_session"
	flashCookieName   = "campus_flash"
)

// httpUI turns orchestrator side effects into cookies and a redirect target
// for one request.
type httpUI struct {
	w      http.ResponseWriter
	secure bool

	notice      *login.Notice
	destination string
}

func (u *httpUI) KeepSession(s *gateway.Session) {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   u.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !s.ExpiresAt.IsZero() {
		c.Expires = s.ExpiresAt
		c.MaxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	http.SetCookie(u.w, c)
}

func (u *httpUI) Notify(n login.Notice) {
	u.notice = &n
	// success notices survive the redirect; errors render in place
	if n.Kind == login.NoticeSuccess {
		setFlash(u.w, n, u.secure)
	}
}

func (u *httpUI) Navigate(destination string) {
	u.destination = destination
}

func clearSession(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// setFlash stores n for the next page; base64 keeps any character cookie-safe.
func setFlash(w http.ResponseWriter, n login.Notice, secure bool) {
	raw, _ := json.Marshal(flash{Kind: n.Kind.String(), Message: n.Message})
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.URLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(w http.ResponseWriter, r *http.Request, secure bool) *login.Notice {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: secure, SameSite: http.SameSiteLaxMode})

	raw, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	kind := login.NoticeError
	if f.Kind == login.NoticeSuccess.String() {
		kind = login.NoticeSuccess
	}
	return &login.Notice{Kind: kind, Message: f.Message}
}

// safeNext accepts only same-site absolute paths as post-login destinations.
func safeNext(next string) (string, bool) {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "", false
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "", false
	}
	return next, true
}
