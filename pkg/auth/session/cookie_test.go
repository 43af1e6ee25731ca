package session

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"
)

func TestParseCookieHeader(t *testing.T) {
	got := ParseCookieHeader(" theme=dark ; dossiers_session=abc%20def; broken; a=1=2; theme=light; bad=%zz")

	cases := map[string]string{
		"theme":            "dark",
		"dossiers_session": "abc def",
		"a":                "1=2",
		"bad":              "%zz",
	}
	for name, want := range cases {
		if got[name] != want {
			t.Fatalf("cookie %s: expected %q, got %q", name, want, got[name])
		}
	}
	if _, ok := got["broken"]; ok {
		t.Fatal("segment without '=' should be skipped")
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Add("Cookie", "other=1")
	r.Header.Add("Cookie", "dossiers_session=tok123")

	token, ok := TokenFromRequest(r, "")
	if !ok || token != "tok123" {
		t.Fatalf("expected tok123, got %q ok=%v", token, ok)
	}

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := TokenFromRequest(empty, DefaultCookieName); ok {
		t.Fatal("expected no token")
	}
}

func TestNewCookieAttributes(t *testing.T) {
	c := NewCookie(CookieOptions{Secure: true}, "tok")
	if c.Name != DefaultCookieName || c.Value != "tok" || c.Path != "/" {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie flags %+v", c)
	}
	if c.MaxAge != int(DefaultMaxAge/time.Second) {
		t.Fatalf("unexpected max age %d", c.MaxAge)
	}

	cleared := ClearCookie(CookieOptions{})
	if cleared.MaxAge >= 0 || cleared.Value != "" || cleared.Secure {
		t.Fatalf("unexpected cleared cookie %+v", cleared)
	}
}

func TestGenerateTokenAndCode(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(token) {
		t.Fatalf("unexpected token format %q", token)
	}

	other, _ := GenerateToken()
	if other == token {
		t.Fatal("tokens should differ")
	}

	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if !regexp.MustCompile(`^\d{6}$`).MatchString(code) {
			t.Fatalf("unexpected code format %q", code)
		}
	}
}
