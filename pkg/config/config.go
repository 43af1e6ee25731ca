package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Session       SessionConfig
	FeatureFlags  FeatureFlagsConfig
	Storage       StorageConfig
	S3            S3Config
	GCS           GCSConfig
	Upload        UploadConfig
	SMTP          SMTPConfig
	Payments      PaymentsConfig
	Stripe        StripeConfig
	MercadoPago   MercadoPagoConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Payments.Fee(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string   `envconfig:"VEVO_APP_ENV" required:"true"`
	Port          string   `envconfig:"VEVO_APP_PORT" required:"true"`
	LogLevel      string   `envconfig:"VEVO_LOG_LEVEL" default:"info"`
	LogWarnStack  bool     `envconfig:"VEVO_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string   `envconfig:"VEVO_PUBLIC_BASE_URL" default:"http://localhost:3000"`
	CORSOrigins   []string `envconfig:"VEVO_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VEVO_DB_DSN"`
	Driver string `envconfig:"VEVO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VEVO_DB_HOST"`
	LegacyPort     int    `envconfig:"VEVO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VEVO_DB_USER"`
	LegacyPassword string `envconfig:"VEVO_DB_PASSWORD"`
	LegacyName     string `envconfig:"VEVO_DB_NAME"`
	LegacySSLMode  string `envconfig:"VEVO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VEVO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VEVO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VEVO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VEVO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// UsesMongo reports whether records live in MongoDB instead of a SQL database.
func (db DBConfig) UsesMongo() bool {
	return strings.EqualFold(db.Driver, DBDriverMongo)
}

func (db DBConfig) UsesSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type MongoConfig struct {
	URI            string        `envconfig:"VEVO_MONGO_URI" default:"mongodb://localhost:27017"`
	Database       string        `envconfig:"VEVO_MONGO_DATABASE" default:"dossiers_vevo"`
	ConnectTimeout time.Duration `envconfig:"VEVO_MONGO_CONNECT_TIMEOUT" default:"10s"`
	MaxPoolSize    uint64        `envconfig:"VEVO_MONGO_MAX_POOL_SIZE" default:"20"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VEVO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VEVO_REDIS_ADDR"`
	Password     string        `envconfig:"VEVO_REDIS_PASSWORD"`
	DB           int           `envconfig:"VEVO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VEVO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VEVO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VEVO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VEVO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VEVO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig signs the bearer tokens used by the back office.
type JWTConfig struct {
	Secret            string `envconfig:"VEVO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VEVO_JWT_ISSUER" default:"dossiers-vevo"`
	ExpirationMinutes int    `envconfig:"VEVO_JWT_EXPIRATION_MINUTES" default:"480"`
}

func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type AuthRateLimitConfig struct {
	SendCodeWindow       time.Duration `envconfig:"VEVO_AUTH_RATE_LIMIT_SEND_CODE_WINDOW" default:"15m"`
	SendCodeEmailLimit   int           `envconfig:"VEVO_AUTH_RATE_LIMIT_SEND_CODE_EMAIL_LIMIT" default:"5"`
	SendCodeIPLimit      int           `envconfig:"VEVO_AUTH_RATE_LIMIT_SEND_CODE_IP_LIMIT" default:"20"`
	VerifyCodeWindow     time.Duration `envconfig:"VEVO_AUTH_RATE_LIMIT_VERIFY_CODE_WINDOW" default:"15m"`
	VerifyCodeEmailLimit int           `envconfig:"VEVO_AUTH_RATE_LIMIT_VERIFY_CODE_EMAIL_LIMIT" default:"10"`
	VerifyCodeIPLimit    int           `envconfig:"VEVO_AUTH_RATE_LIMIT_VERIFY_CODE_IP_LIMIT" default:"30"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"VEVO_SESSION_COOKIE_NAME" default:"dossiers_session"`
	MaxAge     time.Duration `envconfig:"VEVO_SESSION_MAX_AGE" default:"87600h"`
	CodeTTL    time.Duration `envconfig:"VEVO_AUTH_CODE_TTL" default:"15m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VEVO_AUTO_MIGRATE" default:"false"`
}

type StorageConfig struct {
	Provider string `envconfig:"VEVO_STORAGE_PROVIDER" default:"s3"`
}

type S3Config struct {
	Endpoint      string `envconfig:"VEVO_S3_ENDPOINT" default:"localhost:9000"`
	AccessKey     string `envconfig:"VEVO_S3_ACCESS_KEY"`
	SecretKey     string `envconfig:"VEVO_S3_SECRET_KEY"`
	Bucket        string `envconfig:"VEVO_S3_BUCKET" default:"vehicle-photos"`
	Region        string `envconfig:"VEVO_S3_REGION" default:"eu-west-3"`
	UseSSL        bool   `envconfig:"VEVO_S3_USE_SSL" default:"false"`
	PublicBaseURL string `envconfig:"VEVO_S3_PUBLIC_BASE_URL"`
}

type GCSConfig struct {
	ProjectID       string `envconfig:"VEVO_GCP_PROJECT_ID"`
	BucketName      string `envconfig:"VEVO_GCS_BUCKET_NAME"`
	CredentialsJSON string `envconfig:"VEVO_GCP_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"VEVO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type UploadConfig struct {
	MaxBodyMB      int `envconfig:"VEVO_UPLOAD_MAX_BODY_MB" default:"60"`
	MaxPhotosBatch int `envconfig:"VEVO_UPLOAD_MAX_PHOTOS" default:"20"`
}

// MaxBodyBytes is the request size accepted by the photo upload route.
func (u UploadConfig) MaxBodyBytes() int64 {
	if u.MaxBodyMB <= 0 {
		return 60 << 20
	}
	return int64(u.MaxBodyMB) << 20
}

type SMTPConfig struct {
	Host        string `envconfig:"VEVO_SMTP_HOST" default:"smtp.zoho.com"`
	Port        int    `envconfig:"VEVO_SMTP_PORT" default:"587"`
	Username    string `envconfig:"VEVO_SMTP_USERNAME"`
	Password    string `envconfig:"VEVO_SMTP_PASSWORD"`
	FromName    string `envconfig:"VEVO_SMTP_FROM_NAME" default:"Dossiers Vevo"`
	FromAddress string `envconfig:"VEVO_SMTP_FROM_ADDRESS" default:"dossiers@vevo.fr"`
}

type PaymentsConfig struct {
	Provider   string `envconfig:"VEVO_PAYMENT_PROVIDER" default:"stripe"`
	FeesAmount string `envconfig:"VEVO_PAYMENT_FEES_AMOUNT" default:"49.00"`
	Currency   string `envconfig:"VEVO_PAYMENT_CURRENCY" default:"EUR"`
}

// Fee returns the processing fee charged once a buyer has been found.
func (p PaymentsConfig) Fee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(p.FeesAmount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvPaymentFeesAmount, err)
	}
	if !fee.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be greater than zero", EnvPaymentFeesAmount)
	}
	return fee, nil
}

type StripeConfig struct {
	APIKey string `envconfig:"VEVO_STRIPE_API_KEY"`
	Env    string `envconfig:"VEVO_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type MercadoPagoConfig struct {
	AccessToken string `envconfig:"VEVO_MERCADOPAGO_ACCESS_TOKEN"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"VEVO_CRON_INTERVAL" default:"1h"`
	ReminderWindow  time.Duration `envconfig:"VEVO_CRON_REMINDER_WINDOW" default:"48h"`
	ReminderBatch   int           `envconfig:"VEVO_CRON_REMINDER_BATCH" default:"100"`
	LockTTL         time.Duration `envconfig:"VEVO_CRON_LOCK_TTL" default:"10m"`
	CodeCleanupSize int           `envconfig:"VEVO_CRON_CODE_CLEANUP_SIZE" default:"500"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.UsesMongo() {
		return nil
	}
	if db.UsesSQLite() {
		db.DSN = "file:dossiers.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
