package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodamigoles/dossiers.vevo/pkg/auth"
	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
)

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "dossiers-vevo", ExpirationMinutes: 60}
}

func TestMintProducesParsableToken(t *testing.T) {
	cfg := testJWT()
	now := time.Now()

	token, err := mint(cfg, options{subject: "ops@vevo.test", role: "admin", jti: "jti-1", ttl: 2 * time.Hour}, now)
	require.NoError(t, err)

	claims, err := auth.ParseAdminToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "ops@vevo.test", claims.Subject)
	assert.Equal(t, enums.AdminRoleAdmin, claims.Role)
	assert.Equal(t, "jti-1", claims.ID)
	assert.WithinDuration(t, now.Add(2*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestMintRejectsBadInput(t *testing.T) {
	cfg := testJWT()
	now := time.Now()

	if _, err := mint(cfg, options{subject: "ops", role: "owner"}, now); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
	if _, err := mint(cfg, options{subject: "", role: "support"}, now); err == nil {
		t.Fatalf("expected empty subject to fail")
	}
	if _, err := mint(cfg, options{subject: "ops", role: "support", ttl: 10 * time.Second}, now); err == nil {
		t.Fatalf("expected sub-minute ttl to fail")
	}
}
