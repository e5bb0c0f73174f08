package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	SMTP     SMTPConfig
	Reports  ReportsConfig
	Tracker  TrackerConfig
	Calendar CalendarConfig
	Reminder ReminderConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SMTPConfig configures outbound notification mail.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	SendTimeout time.Duration
}

// ReportsConfig governs final-report PDF compilation and retention.
type ReportsConfig struct {
	StorageDir      string
	CompileTimeout  time.Duration
	RetentionTTL    time.Duration
	CleanupInterval time.Duration
}

// TrackerConfig tunes the case-tracker orchestration.
type TrackerConfig struct {
	NotifyTimeout time.Duration
}

// CalendarConfig tunes due-date computation and calendar caching.
type CalendarConfig struct {
	CacheTTL       time.Duration
	WindowMultiple int
	MinWindowDays  int
}

// ReminderConfig governs the periodic submission-reminder sweep.
type ReminderConfig struct {
	Enabled       bool
	SweepInterval time.Duration
	GapDays       int
	Workers       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.SMTP = SMTPConfig{
		Host:        v.GetString("SMTP_HOST"),
		Port:        v.GetInt("SMTP_PORT"),
		Username:    v.GetString("SMTP_USERNAME"),
		Password:    v.GetString("SMTP_PASSWORD"),
		From:        v.GetString("SMTP_FROM"),
		SendTimeout: parseDuration(v.GetString("SMTP_SEND_TIMEOUT"), 15*time.Second),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:      v.GetString("REPORTS_STORAGE_DIR"),
		CompileTimeout:  parseDuration(v.GetString("REPORTS_COMPILE_TIMEOUT"), 30*time.Second),
		RetentionTTL:    parseDuration(v.GetString("REPORTS_RETENTION_TTL"), 0),
		CleanupInterval: parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), 12*time.Hour),
	}

	cfg.Tracker = TrackerConfig{
		NotifyTimeout: parseDuration(v.GetString("TRACKER_NOTIFY_TIMEOUT"), 20*time.Second),
	}

	cfg.Calendar = CalendarConfig{
		CacheTTL:       parseDuration(v.GetString("CALENDAR_CACHE_TTL"), 10*time.Minute),
		WindowMultiple: v.GetInt("CALENDAR_WINDOW_MULTIPLE"),
		MinWindowDays:  v.GetInt("CALENDAR_MIN_WINDOW_DAYS"),
	}

	cfg.Reminder = ReminderConfig{
		Enabled:       v.GetBool("ENABLE_REMINDERS"),
		SweepInterval: parseDuration(v.GetString("REMINDER_SWEEP_INTERVAL"), 6*time.Hour),
		GapDays:       v.GetInt("REMINDER_GAP_DAYS"),
		Workers:       v.GetInt("REMINDER_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bgv_tracker")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "bgv-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "noreply@veriport.example")
	v.SetDefault("SMTP_SEND_TIMEOUT", "15s")

	v.SetDefault("REPORTS_STORAGE_DIR", "./reports")
	v.SetDefault("REPORTS_COMPILE_TIMEOUT", "30s")
	v.SetDefault("REPORTS_RETENTION_TTL", "0")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "12h")

	v.SetDefault("TRACKER_NOTIFY_TIMEOUT", "20s")

	v.SetDefault("CALENDAR_CACHE_TTL", "10m")
	v.SetDefault("CALENDAR_WINDOW_MULTIPLE", 10)
	v.SetDefault("CALENDAR_MIN_WINDOW_DAYS", 370)

	v.SetDefault("ENABLE_REMINDERS", false)
	v.SetDefault("REMINDER_SWEEP_INTERVAL", "6h")
	v.SetDefault("REMINDER_GAP_DAYS", 3)
	v.SetDefault("REMINDER_WORKERS", 2)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
