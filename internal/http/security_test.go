package http

import (
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		xRealIP    string
		want       string
	}{
		{"direct connection", "203.0.113.7:4411", "", "", "203.0.113.7"},
		{"untrusted proxy XFF ignored", "203.0.113.7:4411", "198.51.100.9", "", "203.0.113.7"},
		{"trusted proxy honors XFF", "10.0.0.5:4411", "198.51.100.9", "", "198.51.100.9"},
		{"trusted proxy honors first XFF hop", "10.0.0.5:4411", "198.51.100.9, 10.0.0.5", "", "198.51.100.9"},
		{"trusted proxy honors X-Real-IP", "192.168.1.10:4411", "", "198.51.100.12", "198.51.100.12"},
		{"loopback is trusted", "127.0.0.1:4411", "198.51.100.9", "", "198.51.100.9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xRealIP != "" {
				r.Header.Set("X-Real-IP", tc.xRealIP)
			}
			if got := extractClientIP(r); got != tc.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < maxRequestsPerMinute; i++ {
		if !rl.allow("198.51.100.1") {
			t.Fatalf("request %d unexpectedly limited", i)
		}
	}
	if rl.allow("198.51.100.1") {
		t.Fatal("request past the limit should be rejected")
	}
	if !rl.allow("198.51.100.2") {
		t.Fatal("limits must be scoped per client")
	}
}
