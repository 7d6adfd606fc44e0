package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestAdminGuardRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, newFakeBackend(t), &fakeAnalyzer{}, nil)

	// Anonymous -> login
	resp := env.get(t, "/", "")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("anonymous: expected redirect to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	// Logged-in non-admin -> 403
	if resp := env.get(t, "/", "sid-user"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin expected 403, got %d", resp.StatusCode)
	}
	if resp := env.get(t, "/api/v1/dashboard", "sid-user"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin api expected 403, got %d", resp.StatusCode)
	}

	// Admin -> 200
	if resp := env.get(t, "/", "sid-admin"); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin expected 200, got %d", resp.StatusCode)
	}
}

func TestLoginLogging(t *testing.T) {
	env := newTestEnv(t, newFakeBackend(t), &fakeAnalyzer{}, nil)

	login := func(email, pass string) (*http.Response, []logEntry) {
		var resp *http.Response
		logs := captureLogs(t, func() {
			form := url.Values{"email": {email}, "password": {pass}, "csrf": {env.csrf}}
			req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.AddCookie(&http.Cookie{Name: "csrf_", Value: env.csrf})
			var err error
			resp, err = env.app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
		})
		return resp, logs
	}

	resp, logs := login("admin@marktplatz.test", "Wr0ngPass!")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password expected 401, got %d", resp.StatusCode)
	}
	if !hasAction(logs, "warn", "auth.login.fail") {
		t.Fatalf("expected auth.login.fail, got %+v", logs)
	}

	resp, logs = login("admin@marktplatz.test", "Passw0rd!")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Fatalf("login expected redirect to /, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if extractCookie(resp, "sid") == "" {
		t.Fatal("login should set a sid cookie")
	}
	if !hasAction(logs, "audit", "auth.login.success") {
		t.Fatalf("expected auth.login.success, got %+v", logs)
	}
}
