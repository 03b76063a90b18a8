package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string
	Port string

	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	RedisURL     string
	UserCacheTTL time.Duration

	RollbarToken string

	SendgridAPIKey  string
	EmailSender     string
	EmailSenderName string

	CloudinaryURL       string
	CertificatesEnabled bool

	AdminEmail    string
	AdminPassword string
	AdminFullName string

	ExpirySweepSpec string
	CORSOrigins     string
	LogLevel        string
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from the environment, after loading .env files
// when they exist. Values already set in the environment win over .env.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, errors.Wrapf(err, "loading %s", f)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat %s", f)
		}
	}

	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("USER_CACHE_TTL", 5*time.Minute)
	v.SetDefault("EMAIL_SENDER_NAME", "Classroom")
	v.SetDefault("CERTIFICATES_ENABLED", false)
	v.SetDefault("ADMIN_FULL_NAME", "Administrator")
	v.SetDefault("EXPIRY_SWEEP_SPEC", "@every 1m")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	cfg := &Config{
		Env:             v.GetString("APP_ENV"),
		Port:            v.GetString("PORT"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTTTL:          v.GetDuration("JWT_TTL"),
		RedisURL:        v.GetString("REDIS_URL"),
		UserCacheTTL:    v.GetDuration("USER_CACHE_TTL"),
		RollbarToken:    v.GetString("ROLLBAR_TOKEN"),
		SendgridAPIKey:  v.GetString("SENDGRID_API_KEY"),
		EmailSender:     v.GetString("EMAIL_SENDER"),
		EmailSenderName: v.GetString("EMAIL_SENDER_NAME"),
		CloudinaryURL:   v.GetString("CLOUDINARY_URL"),
		AdminEmail:      v.GetString("ADMIN_EMAIL"),
		AdminPassword:   v.GetString("ADMIN_PASSWORD"),
		AdminFullName:   v.GetString("ADMIN_FULL_NAME"),
		ExpirySweepSpec: v.GetString("EXPIRY_SWEEP_SPEC"),
		CORSOrigins:     v.GetString("CORS_ORIGINS"),
		LogLevel:        v.GetString("LOG_LEVEL"),

		CertificatesEnabled: v.GetBool("CERTIFICATES_ENABLED"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		return nil, errors.Errorf("JWT_TTL must be positive, got %s", cfg.JWTTTL)
	}
	return cfg, nil
}
