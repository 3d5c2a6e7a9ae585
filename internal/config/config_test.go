package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.VerificationTTL)
	assert.Equal(t, 30*time.Minute, cfg.PasswordResetTTL)
	assert.True(t, cfg.EnableVerification)
	assert.False(t, cfg.EnableDomainRestriction)

	assert.Equal(t, 587, cfg.Mail.Port)
	assert.True(t, cfg.Mail.StartTLS)
	assert.False(t, cfg.Mail.SSLTLS)
	assert.False(t, cfg.Mail.EnableSending)
	assert.Equal(t, "http://localhost:8000", cfg.Mail.FrontendURL)

	assert.ErrorIs(t, cfg.Validate(), ErrNoDatabaseURL)
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"POSGRE_URL":                "postgres://fallback",
		"SECRET_KEY":                "s3cr3t",
		"MAIL_PORT":                 "465",
		"MAIL_SSL_TLS":              "true",
		"ENABLE_EMAIL_VERIFICATION": "false",
		"ENABLE_DOMAIN_RESTRICTION": "true",
		"ALLOWED_EMAIL_DOMAINS":     "example.com,corp.io",
		"CORS_ORIGINS":              "https://blog.example.com,http://localhost:3000",
		"LOCAL_CORS_ORIGINS":        "http://localhost:3000,http://127.0.0.1:3000",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "postgres://fallback", cfg.DSN())
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.True(t, cfg.Mail.SSLTLS)
	assert.False(t, cfg.EnableVerification)
	assert.True(t, cfg.EnableDomainRestriction)
	assert.Equal(t, "example.com,corp.io", cfg.AllowedEmailDomains)
	assert.Equal(t, []string{
		"https://blog.example.com",
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}, cfg.AllowedOrigins())
}

func TestDSN_PrefersDatabaseURL(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://primary", PostgresURL: "postgres://fallback"}
	assert.Equal(t, "postgres://primary", cfg.DSN())
}

func TestCorsOptions(t *testing.T) {
	cfg := Config{CorsOrigins: []string{"https://a.example"}}
	opts := cfg.CorsOptions()

	assert.Equal(t, []string{"https://a.example"}, opts.AllowedOrigins)
	assert.ElementsMatch(t, []string{"GET", "POST", "PUT", "DELETE"}, opts.AllowedMethods)
	assert.Equal(t, []string{"*"}, opts.AllowedHeaders)
	assert.True(t, opts.AllowCredentials)
}

func TestMailCredentialsComplete(t *testing.T) {
	m := MailConfig{Username: "u", Password: "p", From: "noreply@example.com", Server: "smtp.example.com"}
	assert.True(t, m.CredentialsComplete())

	m.Password = ""
	assert.False(t, m.CredentialsComplete())
}
