package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
)

// clockSkew tolerates small clock drift between the minting host and the API.
const clockSkew = 30 * time.Second

var (
	ErrMissingSecret = errors.New("jwt secret is required")
	ErrMissingIssuer = errors.New("jwt issuer is required")
	ErrInvalidRole   = errors.New("invalid admin role")
)

// AdminTokenPayload is what an operator token is minted from. An empty JTI
// gets a random one.
type AdminTokenPayload struct {
	Subject string
	Role    enums.AdminRole
	JTI     string
}

// AdminTokenClaims is the bearer token carried by back office requests.
type AdminTokenClaims struct {
	Role enums.AdminRole `json:"role"`
	jwt.RegisteredClaims
}

// MintAdminToken signs an HS256 operator token valid for cfg.Expiration().
func MintAdminToken(cfg config.JWTConfig, now time.Time, payload AdminTokenPayload) (string, error) {
	if err := checkSigning(cfg); err != nil {
		return "", err
	}
	ttl := cfg.Expiration()
	if ttl <= 0 {
		return "", errors.New("jwt expiration must be positive")
	}
	subject := strings.TrimSpace(payload.Subject)
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("%w %q", ErrInvalidRole, payload.Role)
	}
	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	now = now.UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminTokenClaims{
		Role: payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(cfg.Secret))
}

// ParseAdminToken verifies signature, issuer and expiry, then the role.
func ParseAdminToken(cfg config.JWTConfig, raw string) (*AdminTokenClaims, error) {
	if err := checkSigning(cfg); err != nil {
		return nil, err
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)
	claims := &AdminTokenClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidRole, claims.Role)
	}
	return claims, nil
}

func checkSigning(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return ErrMissingSecret
	case cfg.Issuer == "":
		return ErrMissingIssuer
	}
	return nil
}
