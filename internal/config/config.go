package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	NATS     NATSConfig
	Admin    AdminConfig
	Media    MediaConfig
}

type HTTPConfig struct {
	Host               string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port               string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout    time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	MaxMultipartMemory int64         `env:"HTTP_MAX_MULTIPART_MEMORY" env-default:"8388608"`
	// TrustedProxies may set the client IP through forwarding headers.
	// Empty trusts none, so the client IP is the peer address.
	TrustedProxies []string `env:"HTTP_TRUSTED_PROXIES" env-separator:","`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type JWTConfig struct {
	Issuer          string        `env:"JWT_ISSUER" env-default:"go-todo-tenants"`
	SigningKey      string        `env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
}

type NATSConfig struct {
	URL            string        `env:"NATS_URL" env-default:"nats://127.0.0.1:4222"`
	Bucket         string        `env:"NATS_BUCKET" env-default:"profile-media"`
	ConnectTimeout time.Duration `env:"NATS_CONNECT_TIMEOUT" env-default:"5s"`
}

// AdminConfig is read once at boot. Emails is the raw comma-separated
// allow-list; it is parsed into an identity.AllowList before use.
type AdminConfig struct {
	Emails      string `env:"ADMIN_EMAILS"`
	RoutePrefix string `env:"ADMIN_ROUTE_PREFIX" env-default:"/admin"`
	SignInPath  string `env:"SIGN_IN_PATH" env-default:"/sign-in"`
}

type MediaConfig struct {
	// SweepSchedule is a cron spec. Empty disables the orphan sweep.
	SweepSchedule    string        `env:"MEDIA_SWEEP_SCHEDULE"`
	SweepGracePeriod time.Duration `env:"MEDIA_SWEEP_GRACE_PERIOD" env-default:"1h"`
}
