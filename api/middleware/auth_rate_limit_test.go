package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	pkgredis "github.com/clodamigoles/dossiers.vevo/pkg/redis"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (pkgredis.Window, error) {
	if f.err != nil {
		return pkgredis.Window{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return pkgredis.Window{
		Allowed:    f.counts[scope] <= limit,
		Count:      f.counts[scope],
		RetryAfter: window - 1500*time.Millisecond,
	}, nil
}

func sendCode(email, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/send-code", strings.NewReader(`{"estimationId":"e1","email":"`+email+`"}`))
	req.RemoteAddr = ip + ":5678"
	return req
}

func TestAuthRateLimit_RestoresBodyUnderLimit(t *testing.T) {
	policy := AuthRateLimitPolicy{Name: "send-code", Window: time.Minute, IPLimit: 2, EmailLimit: 2}
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"email":"tester@example.com"`) {
			t.Fatalf("unexpected body: %s", string(body))
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sendCode("tester@example.com", "1.2.3.4"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRateLimit_EmailLimitAcrossIPs(t *testing.T) {
	policy := AuthRateLimitPolicy{Name: "send-code", Window: time.Minute, IPLimit: 10, EmailLimit: 2}
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := []int{}
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, sendCode("Blocked@Example.com", ip))
		codes = append(codes, rec.Code)

		if rec.Code == http.StatusTooManyRequests {
			var payload struct {
				Error struct {
					Code    string         `json:"code"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)
			// 58.5s remaining rounds up
			assert.Equal(t, "59", rec.Header().Get("Retry-After"))
			assert.EqualValues(t, 59, payload.Error.Details["retryAfterSeconds"])
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestAuthRateLimit_IPLimitTriggersBeforeEmail(t *testing.T) {
	store := newFakeRateStore()
	policy := AuthRateLimitPolicy{Name: "verify-code", Window: time.Minute, IPLimit: 1, EmailLimit: 5}
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, sendCode("a@example.com", "5.6.7.8"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, sendCode("b@example.com", "5.6.7.8"))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	for scope := range store.counts {
		if strings.Contains(scope, ":email:") && store.counts[scope] > 1 {
			t.Fatalf("blocked request must not count against an email, got %v", store.counts)
		}
	}
}

func TestAuthRateLimit_EmailKeyIsCaseInsensitiveAndHashed(t *testing.T) {
	store := newFakeRateStore()
	policy := AuthRateLimitPolicy{Name: "send-code", Window: time.Minute, EmailLimit: 5}
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, email := range []string{"Seller@Example.com", " seller@example.com "} {
		handler.ServeHTTP(httptest.NewRecorder(), sendCode(email, "1.1.1.1"))
	}

	require.Len(t, store.counts, 1)
	for scope, n := range store.counts {
		if strings.Contains(scope, "seller@example.com") {
			t.Fatalf("email leaked into scope %q", scope)
		}
		assert.True(t, strings.HasPrefix(scope, "auth:send-code:email:"))
		assert.Equal(t, int64(2), n)
	}
}

func TestAuthRateLimit_StoreFailureIsDependencyError(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("connection refused")
	policy := AuthRateLimitPolicy{Name: "send-code", Window: time.Minute, IPLimit: 1}
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when the limiter is down")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sendCode("a@example.com", "9.9.9.9"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRateLimit_DisabledPolicyPassesThrough(t *testing.T) {
	called := false
	handler := AuthRateLimit(AuthRateLimitPolicy{Name: "send-code", IPLimit: 1, EmailLimit: 1}, newFakeRateStore(), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }),
	)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	if !called {
		t.Fatal("expected handler to run when the policy has no window")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
