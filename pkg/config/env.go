package config

const (
	EnvPrefix = "VEVO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DBDriverMongo    = "mongo"

	StorageProviderS3  = "s3"
	StorageProviderGCS = "gcs"

	PaymentProviderStripe      = "stripe"
	PaymentProviderMercadoPago = "mercadopago"
)

const (
	EnvAppEnv        = "VEVO_APP_ENV"
	EnvPort          = "VEVO_APP_PORT"
	EnvLogLevel      = "VEVO_LOG_LEVEL"
	EnvPublicBaseURL = "VEVO_PUBLIC_BASE_URL"

	EnvDBDSN      = "VEVO_DB_DSN"
	EnvDBDriver   = "VEVO_DB_DRIVER"
	EnvDBHost     = "VEVO_DB_HOST"
	EnvDBUser     = "VEVO_DB_USER"
	EnvDBPassword = "VEVO_DB_PASSWORD"
	EnvDBName     = "VEVO_DB_NAME"

	EnvMongoURI      = "VEVO_MONGO_URI"
	EnvMongoDatabase = "VEVO_MONGO_DATABASE"

	EnvRedisURL = "VEVO_REDIS_URL"

	EnvJWTSecret  = "VEVO_JWT_SECRET"
	EnvJWTIssuer  = "VEVO_JWT_ISSUER"
	EnvJWTExpMins = "VEVO_JWT_EXPIRATION_MINUTES"

	EnvSessionCookieName = "VEVO_SESSION_COOKIE_NAME"
	EnvAuthCodeTTL       = "VEVO_AUTH_CODE_TTL"

	EnvStorageProvider = "VEVO_STORAGE_PROVIDER"
	EnvS3Endpoint      = "VEVO_S3_ENDPOINT"
	EnvS3Bucket        = "VEVO_S3_BUCKET"
	EnvGCSBucket       = "VEVO_GCS_BUCKET_NAME"

	EnvSMTPHost = "VEVO_SMTP_HOST"
	EnvSMTPPort = "VEVO_SMTP_PORT"

	EnvPaymentProvider   = "VEVO_PAYMENT_PROVIDER"
	EnvPaymentFeesAmount = "VEVO_PAYMENT_FEES_AMOUNT"
	EnvPaymentCurrency   = "VEVO_PAYMENT_CURRENCY"
	EnvStripeAPIKey      = "VEVO_STRIPE_API_KEY"
	EnvStripeEnv         = "VEVO_STRIPE_ENV"

	EnvCronInterval = "VEVO_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
