package remember

import (
	"net/http"
	"net/url"
)

// defaultCookieMaxAge is about 400 days, the longest lifetime browsers honour.
const defaultCookieMaxAge = 400 * 24 * 60 * 60

// CookieConfig controls the attributes of cookies written by a CookieStore.
type CookieConfig struct {
	Path   string
	MaxAge int
	Secure bool
}

// CookieStore maps the slot onto browser cookies for one request/response pair.
// Writes are visible to later reads on the same store.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	cfg     CookieConfig
	pending map[string]*string
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, cfg CookieConfig) *CookieStore {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = defaultCookieMaxAge
	}
	return &CookieStore{w: w, r: r, cfg: cfg, pending: make(map[string]*string)}
}

func (c *CookieStore) Get(key string) (string, bool) {
	if v, ok := c.pending[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	cookie, err := c.r.Cookie(key)
	if err != nil {
		return "", false
	}
	v, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", false
	}
	return v, true
}

func (c *CookieStore) Set(key, value string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     c.cfg.Path,
		MaxAge:   c.cfg.MaxAge,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	v := value
	c.pending[key] = &v
	return nil
}

func (c *CookieStore) Delete(key string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     c.cfg.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.pending[key] = nil
	return nil
}
