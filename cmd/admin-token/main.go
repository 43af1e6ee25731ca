package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/clodamigoles/dossiers.vevo/pkg/auth"
	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

type options struct {
	subject string
	role    string
	jti     string
	ttl     time.Duration
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "admin-token", Output: os.Stderr})

	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.subject, "subject", "", "operator identifier stored in the sub claim")
	flag.StringVar(&opts.role, "role", string(enums.AdminRoleSupport), "operator role: admin|support")
	flag.StringVar(&opts.jti, "jti", "", "token id (random when empty)")
	flag.DurationVar(&opts.ttl, "ttl", 0, "override VEVO_JWT_EXPIRATION_MINUTES, e.g. 2h")
	flag.Parse()

	// only the signing settings are needed here, so skip the full config.Load
	var jwtCfg config.JWTConfig
	if err := envconfig.Process(config.EnvPrefix, &jwtCfg); err != nil {
		logg.Error(ctx, "failed to load jwt config", err)
		os.Exit(1)
	}

	token, err := mint(jwtCfg, opts, time.Now())
	if err != nil {
		logg.Error(ctx, "failed to mint admin token", err)
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"subject": opts.subject,
		"role":    opts.role,
	}), "admin token minted")
	fmt.Fprintln(os.Stdout, token)
}

func mint(cfg config.JWTConfig, opts options, now time.Time) (string, error) {
	role, err := enums.ParseAdminRole(opts.role)
	if err != nil {
		return "", err
	}
	if opts.ttl < 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	if opts.ttl > 0 {
		minutes := int(opts.ttl / time.Minute)
		if minutes < 1 {
			return "", fmt.Errorf("ttl must be at least one minute")
		}
		cfg.ExpirationMinutes = minutes
	}
	return auth.MintAdminToken(cfg, now, auth.AdminTokenPayload{
		Subject: opts.subject,
		Role:    role,
		JTI:     opts.jti,
	})
}
