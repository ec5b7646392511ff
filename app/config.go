package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is read from the environment (after config.LoadEnv has merged .env).
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string
	RedisPwd    string
	WebOrigin   string
	JWTSecret   string
	AdminEmails []string
	SessionTTL  time.Duration

	LogLevel  string
	LogFormat string

	TxMaxRetries   int
	RateLimitRPS   float64
	RateLimitBurst int
	IdempotencyTTL time.Duration

	BootstrapEmail string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3001")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("web_origin", "http://localhost:5173")
	v.SetDefault("db_port", "5432")
	v.SetDefault("session_ttl_seconds", 86400)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("tx_max_retries", 3)
	v.SetDefault("rate_limit_rps", 5)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("idempotency_ttl_seconds", 86400)
}

func LoadConfig() Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return Config{
		Port:           v.GetString("port"),
		DatabaseURL:    databaseURL(v),
		RedisAddr:      v.GetString("redis_addr"),
		RedisPwd:       v.GetString("redis_password"),
		WebOrigin:      v.GetString("web_origin"),
		JWTSecret:      v.GetString("jwt_secret"),
		AdminEmails:    splitLower(v.GetString("admin_emails")),
		SessionTTL:     time.Duration(v.GetInt("session_ttl_seconds")) * time.Second,
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		TxMaxRetries:   v.GetInt("tx_max_retries"),
		RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),
		IdempotencyTTL: time.Duration(v.GetInt("idempotency_ttl_seconds")) * time.Second,
		BootstrapEmail: strings.ToLower(strings.TrimSpace(v.GetString("bootstrap_admin_email"))),
	}
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* vars.
func databaseURL(v *viper.Viper) string {
	if u := v.GetString("database_url"); u != "" {
		return u
	}
	if v.GetString("db_host") == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		v.GetString("db_host"),
		v.GetString("db_user"),
		v.GetString("db_password"),
		v.GetString("db_name"),
		v.GetString("db_port"),
	)
}

func splitLower(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL or DB_HOST is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_SECONDS must be positive"))
	}
	if c.TxMaxRetries < 0 {
		errs = append(errs, errors.New("TX_MAX_RETRIES must not be negative"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}

func (c Config) SecureCookies() bool { return strings.HasPrefix(c.WebOrigin, "https://") }
