package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// exportedCookie is one entry of a cookie export. Both Playwright's
// storage-state cookies ("expires") and browser-extension exports
// ("expirationDate", "no_restriction") are accepted.
type exportedCookie struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Domain         string  `json:"domain"`
	Path           string  `json:"path"`
	Expires        float64 `json:"expires"`
	ExpirationDate float64 `json:"expirationDate"`
	Session        bool    `json:"session"`
	HTTPOnly       bool    `json:"httpOnly"`
	Secure         bool    `json:"secure"`
	SameSite       string  `json:"sameSite"`
}

// LoadCookies reads a cookie export for the board sessions. Entries without
// a name or domain and cookies that already expired are dropped.
func LoadCookies(path string) ([]playwright.OptionalCookie, error) {
	return loadCookies(path, time.Now())
}

func loadCookies(path string, now time.Time) ([]playwright.OptionalCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	var exported []exportedCookie
	if err := json.Unmarshal(data, &exported); err != nil {
		return nil, fmt.Errorf("parse cookies %s: %w", path, err)
	}

	cookies := make([]playwright.OptionalCookie, 0, len(exported))
	for _, c := range exported {
		if c.Name == "" || c.Domain == "" {
			continue
		}
		expires := c.expiry()
		if expires > 0 && expires < float64(now.Unix()) {
			continue
		}
		cookies = append(cookies, c.toOptional(expires))
	}
	return cookies, nil
}

// expiry is the unix expiry, or 0 for session cookies.
func (c exportedCookie) expiry() float64 {
	if c.Session {
		return 0
	}
	if c.Expires > 0 {
		return c.Expires
	}
	return c.ExpirationDate
}

func (c exportedCookie) toOptional(expires float64) playwright.OptionalCookie {
	path := c.Path
	if path == "" {
		path = "/"
	}
	cookie := playwright.OptionalCookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: playwright.String(c.Domain),
		Path:   playwright.String(path),
	}
	if expires > 0 {
		cookie.Expires = playwright.Float(expires)
	}
	if c.HTTPOnly {
		cookie.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		cookie.Secure = playwright.Bool(true)
	}

	switch strings.ToLower(c.SameSite) {
	case "lax":
		cookie.SameSite = playwright.SameSiteAttributeLax
	case "strict":
		cookie.SameSite = playwright.SameSiteAttributeStrict
	case "none", "no_restriction":
		//browsers reject SameSite=None without Secure
		cookie.SameSite = playwright.SameSiteAttributeNone
		cookie.Secure = playwright.Bool(true)
	}
	return cookie
}
