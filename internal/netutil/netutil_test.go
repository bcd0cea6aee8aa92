package netutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeIP(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"bare ipv4", "192.0.2.4", "192.0.2.4", true},
		{"ipv4 with port", "192.0.2.4:1234", "192.0.2.4", true},
		{"bare ipv6", "2001:db8::1", "2001:db8::1", true},
		{"bracketed ipv6 with port", "[2001:db8::1]:443", "2001:db8::1", true},
		{"ipv6 with zone", "fe80::1%eth0", "fe80::1", true},
		{"whitespace", "  192.0.2.4  ", "192.0.2.4", true},
		{"empty", "", "", false},
		{"hostname", "example.com", "example.com", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeIP(tc.raw)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("NormalizeIP(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestTruncateUserAgent(t *testing.T) {
	if got := TruncateUserAgent(""); got != "" {
		t.Fatalf("empty in, expected empty out, got %q", got)
	}
	short := "Mozilla/5.0"
	if got := TruncateUserAgent(short); got != short {
		t.Fatalf("short agent must pass through, got %q", got)
	}

	long := strings.Repeat("é", MaxUserAgentLength+100)
	got := TruncateUserAgent(long)
	if n := len([]rune(got)); n != MaxUserAgentLength {
		t.Fatalf("expected %d runes, got %d", MaxUserAgentLength, n)
	}
	// Every rune must survive intact; no split multi-byte characters.
	for _, r := range got {
		if r != 'é' {
			t.Fatalf("unexpected rune %q in truncated agent", r)
		}
	}
}

func TestClientIP(t *testing.T) {
	newReq := func(remote, xff, xreal string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remote
		if xff != "" {
			r.Header.Set("X-Forwarded-For", xff)
		}
		if xreal != "" {
			r.Header.Set("X-Real-IP", xreal)
		}
		return r
	}

	cases := []struct {
		name       string
		req        *http.Request
		trustProxy bool
		want       string
	}{
		{"remote addr only", newReq("192.0.2.4:5678", "", ""), false, "192.0.2.4"},
		{"xff ignored when untrusted", newReq("192.0.2.4:5678", "203.0.113.9", ""), false, "192.0.2.4"},
		{"xff honored when trusted", newReq("192.0.2.4:5678", "203.0.113.9", ""), true, "203.0.113.9"},
		{"first xff entry wins", newReq("192.0.2.4:5678", "203.0.113.9, 10.0.0.1", ""), true, "203.0.113.9"},
		{"x-real-ip fallback", newReq("192.0.2.4:5678", "", "203.0.113.7"), true, "203.0.113.7"},
		{"garbage xff falls back to remote", newReq("192.0.2.4:5678", "not-an-ip", ""), true, "192.0.2.4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClientIP(tc.req, tc.trustProxy); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
