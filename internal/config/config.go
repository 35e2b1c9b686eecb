package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"tms-portal/internal/auth"
	"tms-portal/internal/credstore"
)

type Config struct {
	ServerPort    string
	SessionSecret string
	DBDSN         string

	CredentialBackend string
	CredentialPath    string
	BcryptCost        int

	RememberCookie string
	RememberTTL    time.Duration
	// CookieSecure sets the Secure flag on cookies. Enable behind HTTPS.
	CookieSecure   bool

	UploadDir   string
	ProjectsDir string
	LogFile     string
	LogLevel    string

	AdminUsername string
	AdminPassword string
}

// UsesDatabase reports whether a postgres connection is needed.
func (c *Config) UsesDatabase() bool {
	return c.CredentialBackend == credstore.BackendPostgres
}

func Load() *Config {
	_ = godotenv.Load()

	cfg, err := parse(os.Getenv)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func parse(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		ServerPort:        env("SERVER_PORT", "8080"),
		SessionSecret:     getenv("SESSION_SECRET"),
		DBDSN:             getenv("DB_DSN"),
		CredentialBackend: env("CREDENTIAL_BACKEND", credstore.BackendSheet),
		RememberCookie:    env("REMEMBER_COOKIE", "tms_cookie"),
		UploadDir:         env("UPLOAD_DIR", "uploads"),
		ProjectsDir:       env("PROJECTS_DIR", "projects"),
		LogFile:           env("LOG_FILE", "logs/admin_logs.txt"),
		LogLevel:          env("LOG_LEVEL", "info"),
		AdminUsername:     getenv("ADMIN_USERNAME"),
		AdminPassword:     getenv("ADMIN_PASSWORD"),
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set")
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}

	switch cfg.CredentialBackend {
	case credstore.BackendSheet:
		cfg.CredentialPath = env("CREDENTIAL_PATH", "users.csv")
	case credstore.BackendYAML:
		cfg.CredentialPath = env("CREDENTIAL_PATH", "config.yaml")
	case credstore.BackendJSONDB:
		cfg.CredentialPath = env("CREDENTIAL_PATH", "db")
	case credstore.BackendPostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is not set")
		}
	default:
		return nil, fmt.Errorf("CREDENTIAL_BACKEND %q is not supported", cfg.CredentialBackend)
	}

	cost, err := strconv.Atoi(env("BCRYPT_COST", strconv.Itoa(auth.DefaultCost)))
	if err != nil {
		return nil, fmt.Errorf("BCRYPT_COST: %w", err)
	}
	cfg.BcryptCost = cost

	days, err := strconv.Atoi(env("REMEMBER_DAYS", "30"))
	if err != nil || days <= 0 {
		return nil, fmt.Errorf("REMEMBER_DAYS must be a positive number of days")
	}
	cfg.RememberTTL = time.Duration(days) * 24 * time.Hour

	if v := getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = secure
	}

	return cfg, nil
}
