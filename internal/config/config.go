package config

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
)

type MailConfig struct {
	Username        string        `env:"MAIL_USERNAME"`
	Password        string        `env:"MAIL_PASSWORD"`
	From            string        `env:"MAIL_FROM"`
	Server          string        `env:"MAIL_SERVER"`
	Port            int           `env:"MAIL_PORT,default=587"`
	StartTLS        bool          `env:"MAIL_STARTTLS,default=true"`
	SSLTLS          bool          `env:"MAIL_SSL_TLS,default=false"`
	EnableSending   bool          `env:"ENABLE_EMAIL_SENDING,default=false"`
	PreferPlainText bool          `env:"PREFER_PLAIN_TEXT_EMAIL,default=false"`
	FrontendURL     string        `env:"FRONTEND_URL,default=http://localhost:8000"`
	Timeout         time.Duration `env:"MAIL_TIMEOUT,default=15s"`
}

type Config struct {
	Port        string `env:"PORT,default=8080"`
	Environment string `env:"ENV,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	DatabaseURL string `env:"DATABASE_URL"`
	PostgresURL string `env:"POSGRE_URL"`

	SecretKey          string        `env:"SECRET_KEY"`
	Algorithm          string        `env:"ALGORITHM,default=HS256"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL,default=60m"`
	VerificationTTL    time.Duration `env:"EMAIL_VERIFICATION_TOKEN_TTL,default=24h"`
	PasswordResetTTL   time.Duration `env:"PASSWORD_RESET_TOKEN_TTL,default=30m"`
	RevocationSweep    time.Duration `env:"REVOCATION_SWEEP_INTERVAL,default=5m"`
	EnableVerification bool          `env:"ENABLE_EMAIL_VERIFICATION,default=true"`

	EnableDomainRestriction bool   `env:"ENABLE_DOMAIN_RESTRICTION,default=false"`
	AllowedEmailDomains     string `env:"ALLOWED_EMAIL_DOMAINS"`

	CorsOrigins      []string `env:"CORS_ORIGINS"`
	LocalCorsOrigins []string `env:"LOCAL_CORS_ORIGINS"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	Mail MailConfig
}

var ErrNoDatabaseURL = errors.New("config: DATABASE_URL or POSGRE_URL must be set")

// Load reads ENV_FILE (default .env) into the process environment and decodes it.
func Load(ctx context.Context) (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Debug().Str("file", envFile).Msg("no env file found")
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith decodes configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DSN() == "" {
		return ErrNoDatabaseURL
	}
	return nil
}

// DSN prefers DATABASE_URL and falls back to POSGRE_URL.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.PostgresURL
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins is the union of CORS_ORIGINS and LOCAL_CORS_ORIGINS, in order, without duplicates.
func (c Config) AllowedOrigins() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range [][]string{c.CorsOrigins, c.LocalCorsOrigins} {
		for _, o := range list {
			o = strings.TrimSpace(o)
			if o == "" {
				continue
			}
			if _, ok := seen[o]; ok {
				continue
			}
			seen[o] = struct{}{}
			out = append(out, o)
		}
	}
	return out
}

func (c Config) CorsOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   c.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}

func (m MailConfig) CredentialsComplete() bool {
	return m.Username != "" && m.Password != "" && m.From != "" && m.Server != ""
}
