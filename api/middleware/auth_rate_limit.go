package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clodamigoles/dossiers.vevo/api/responses"
	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	pkgredis "github.com/clodamigoles/dossiers.vevo/pkg/redis"
)

// RateWindowStore counts hits in fixed windows.
type RateWindowStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (pkgredis.Window, error)
}

// AuthRateLimitPolicy throttles one code endpoint per client IP and per email.
// A zero limit disables that dimension; a zero window disables the policy.
type AuthRateLimitPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

type rateCheck struct {
	dimension string
	scope     string
	limit     int
	field     string
	value     string
}

func (p AuthRateLimitPolicy) name() string {
	if name := strings.ToLower(strings.TrimSpace(p.Name)); name != "" {
		return name
	}
	return "auth"
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.EmailLimit > 0)
}

// AuthRateLimit guards send-code and verify-code. The email is peeked from the
// JSON body, which is restored for the handler; counters key on its hash.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateWindowStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !policy.enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks, err := policy.checksFor(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			for _, check := range checks {
				window, err := store.FixedWindowAllow(ctx, check.scope, int64(check.limit), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !window.Allowed {
					rejectRateLimited(ctx, logg, w, policy, check, window)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p AuthRateLimitPolicy) checksFor(r *http.Request) ([]rateCheck, error) {
	checks := make([]rateCheck, 0, 2)
	if p.IPLimit > 0 {
		if ip := clientIP(r); ip != "" {
			checks = append(checks, rateCheck{
				dimension: "ip",
				scope:     "auth:" + p.name() + ":ip:" + ip,
				limit:     p.IPLimit,
				field:     "ip",
				value:     ip,
			})
		}
	}
	if p.EmailLimit > 0 && r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		if email := sales.NormalizeEmail(emailFromBody(body)); email != "" {
			hash := sha256Hex(email)
			checks = append(checks, rateCheck{
				dimension: "email",
				scope:     "auth:" + p.name() + ":email:" + hash,
				limit:     p.EmailLimit,
				field:     "email_hash",
				value:     hash,
			})
		}
	}
	return checks, nil
}

func rejectRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, check rateCheck, window pkgredis.Window) {
	retryAfter := int(math.Ceil(window.RetryAfter.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":      policy.name(),
			"dimension":   check.dimension,
			check.field:   check.value,
			"attempts":    window.Count,
			"limit":       check.limit,
			"retry_after": retryAfter,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later").
		WithDetails(map[string]any{"retryAfterSeconds": retryAfter}))
}

// clientIP prefers the first X-Forwarded-For hop set by the platform router.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
