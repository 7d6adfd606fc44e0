package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"marktplatz/internal/records"
)

const noticeCookie = "notice"

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeWarning = "warning"
)

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func success(title, detail string) *Notice {
	return &Notice{Kind: NoticeSuccess, Title: title, Detail: detail}
}

// failure turns a write error into a notification carrying the backend's raw text.
func failure(title string, err error) *Notice {
	detail := err.Error()
	var apiErr *records.APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		detail = apiErr.Body
	}
	return &Notice{Kind: NoticeError, Title: title, Detail: "Fehler: " + truncate(detail, maxNoticeDetail)}
}

// maxNoticeDetail bounds the cookie size; it counts bytes.
const maxNoticeDetail = 300

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > max {
			break
		}
		cut += size
	}
	return s[:cut] + "…"
}

func setNotice(c *fiber.Ctx, n *Notice) {
	if n == nil {
		return
	}
	b, err := json.Marshal(n)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     noticeCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// takeNotice reads and clears the pending notice, if any.
func takeNotice(c *fiber.Ctx) *Notice {
	raw := c.Cookies(noticeCookie)
	if raw == "" {
		return nil
	}
	c.Cookie(&fiber.Cookie{
		Name:     noticeCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var n Notice
	if json.Unmarshal(b, &n) != nil || n.Title == "" {
		return nil
	}
	return &n
}

// redirectWith stores n for the next page and redirects there.
func redirectWith(c *fiber.Ctx, to string, n *Notice) error {
	setNotice(c, n)
	return c.Redirect(to, fiber.StatusSeeOther)
}
