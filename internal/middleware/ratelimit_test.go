package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(10, 20)
	defer limiter.Stop()

	if limiter.rate != 10 {
		t.Errorf("Expected rate 10, got %v", limiter.rate)
	}
	if limiter.burst != 20 {
		t.Errorf("Expected burst 20, got %d", limiter.burst)
	}
}

func TestIPRateLimiter_GetLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(10, 20)
	defer limiter.Stop()

	l1 := limiter.GetLimiter("192.168.1.1")
	l2 := limiter.GetLimiter("192.168.1.1")
	if l1 != l2 {
		t.Error("Expected same limiter instance for same IP")
	}

	l3 := limiter.GetLimiter("192.168.1.2")
	if l1 == l3 {
		t.Error("Expected different limiter instance for different IP")
	}
}

func TestIPRateLimiter_Allow(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2) // 1 per second, burst of 2
	defer limiter.Stop()

	ip := "192.168.1.1"

	if !limiter.Allow(ip) {
		t.Error("First request should be allowed")
	}
	if !limiter.Allow(ip) {
		t.Error("Second request should be allowed (within burst)")
	}
	if limiter.Allow(ip) {
		t.Error("Third request should be denied (burst exhausted)")
	}
}

func TestIPRateLimiter_AllowAfterWait(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(10), 1) // 10 per second, burst of 1
	defer limiter.Stop()

	ip := "192.168.1.1"

	if !limiter.Allow(ip) {
		t.Error("First request should be allowed")
	}
	if limiter.Allow(ip) {
		t.Error("Immediate second request should be denied")
	}

	// Wait for token refill
	time.Sleep(150 * time.Millisecond)

	if !limiter.Allow(ip) {
		t.Error("Request after wait should be allowed")
	}
}

func TestIPRateLimiter_EvictIdle(t *testing.T) {
	limiter := NewIPRateLimiter(10, 10)
	defer limiter.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	limiter.Allow("10.0.0.1")

	now = now.Add(10 * time.Minute)
	limiter.Allow("10.0.0.2")

	limiter.evictIdle()

	if limiter.Len() != 1 {
		t.Errorf("Expected only the recent IP to remain, got %d", limiter.Len())
	}
}

func TestIPRateLimiter_Concurrency(t *testing.T) {
	limiter := NewIPRateLimiter(100, 100)
	defer limiter.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Allow("192.168.1.1")
		}()
	}
	wg.Wait()

	if limiter.Len() != 1 {
		t.Errorf("Expected 1 tracked IP, got %d", limiter.Len())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	defer limiter.Stop()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rateLimited := RateLimitMiddleware(limiter)(handler)

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	rateLimited.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("First request should be OK, got %d", w.Result().StatusCode)
	}

	// Same client from another port shares the limiter
	req.RemoteAddr = "192.168.1.1:54321"
	w = httptest.NewRecorder()
	rateLimited.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("Second request should be rate limited, got %d", w.Result().StatusCode)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON body, got %s", ct)
	}
}

func TestGetIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "::1"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}

	tests := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		expected  string
	}{
		{"untrusted peer ignores X-Forwarded-For", "1.2.3.4", "", "192.168.1.1:12345", "192.168.1.1"},
		{"untrusted peer ignores X-Real-IP", "", "5.6.7.8", "192.168.1.1:12345", "192.168.1.1"},
		{"trusted proxy", "1.2.3.4", "", "10.0.0.5:12345", "1.2.3.4"},
		{"trusted proxy chain", "1.2.3.4, 10.0.0.7", "", "10.0.0.5:12345", "1.2.3.4"},
		{"spoofed first hop", "6.6.6.6, 1.2.3.4", "", "10.0.0.5:12345", "1.2.3.4"},
		{"all hops trusted", "10.0.0.9, 10.0.0.7", "", "10.0.0.5:12345", "10.0.0.9"},
		{"trusted X-Real-IP", "", "5.6.7.8", "10.0.0.5:12345", "5.6.7.8"},
		{"trusted IPv6 peer", "1.2.3.4", "", "[::1]:8080", "1.2.3.4"},
		{"trusted proxy without headers", "", "", "10.0.0.5:12345", "10.0.0.5"},
		{"RemoteAddr", "", "", "192.168.1.1:12345", "192.168.1.1"},
		{"RemoteAddr without port", "", "", "192.168.1.1", "192.168.1.1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			req.RemoteAddr = tc.remote

			if ip := getIP(req, trusted); ip != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, ip)
			}
		})
	}
}

func TestGetIP_NoTrustedProxies(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	req.RemoteAddr = "10.0.0.5:12345"

	if ip := getIP(req, nil); ip != "10.0.0.5" {
		t.Errorf("Expected peer address, got %s", ip)
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.1.2.3/8", " 192.168.0.1 ", "", "::ffff:172.16.0.1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{"10.0.0.0/8", "192.168.0.1/32", "172.16.0.1/32"}
	if len(prefixes) != len(want) {
		t.Fatalf("Expected %d prefixes, got %v", len(want), prefixes)
	}
	for i, p := range prefixes {
		if p.String() != want[i] {
			t.Errorf("prefix %d: expected %s, got %s", i, want[i], p)
		}
	}

	if _, err := ParseTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Error("Expected error for invalid proxy")
	}
}

func TestRateLimitMiddleware_SpoofedForwardedFor(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	defer limiter.Stop()

	rateLimited := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 2)
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", spoofed)
		w := httptest.NewRecorder()
		rateLimited.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("Expected spoofed headers to share one limiter, got %v", codes)
	}
}
