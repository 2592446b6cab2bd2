package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "ACADEMY"

// DefaultSecretKey is only meant for local development. main warns when it
// is still in use.
const DefaultSecretKey = "academy-dev-secret-change-me"

type Config struct {
	Port      string
	DBPath    string
	BaseURL   string
	LogLevel  string
	LogFormat string
	Location  *time.Location
	SecretKey string

	AdminCPF      string
	AdminEmail    string
	AdminPassword string

	PostmarkToken string
	FromEmail     string

	// MetricsToken enables bearer access to /metrics for scrapers. Without
	// it the endpoint is only served to signed-in staff.
	MetricsToken string

	StatusRefreshInterval time.Duration

	Backup Backup
}

type Backup struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	Passphrase    string
	Hour          int
	RetentionDays int
}

// S3Configured reports whether scheduled backups can run.
func (b Backup) S3Configured() bool {
	return b.Bucket != "" && b.AccessKey != "" && b.SecretKey != ""
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "academy.db")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("timezone", "America/Sao_Paulo")
	v.SetDefault("secret_key", DefaultSecretKey)
	v.SetDefault("admin_cpf", "")
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("postmark_token", "")
	v.SetDefault("from_email", "noreply@localhost")
	v.SetDefault("metrics_token", "")
	v.SetDefault("status_refresh_interval", time.Hour)
	v.SetDefault("backup_s3_endpoint", "")
	v.SetDefault("backup_s3_bucket", "")
	v.SetDefault("backup_s3_region", "us-east-1")
	v.SetDefault("backup_s3_access_key", "")
	v.SetDefault("backup_s3_secret_key", "")
	v.SetDefault("backup_passphrase", "")
	v.SetDefault("backup_hour", 3)
	v.SetDefault("backup_retention_days", 30)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads dotEnvPath when it exists, then the ACADEMY_* environment.
// Variables already present in the environment win over the file.
func Load(dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, fmt.Errorf("load %s: %w", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %s: %w", dotEnvPath, err)
		}
	}

	v := newViper()

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", v.GetString("timezone"), err)
	}

	cfg := &Config{
		Port:          v.GetString("port"),
		DBPath:        v.GetString("db_path"),
		BaseURL:       strings.TrimRight(v.GetString("base_url"), "/"),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
		Location:      loc,
		SecretKey:     v.GetString("secret_key"),
		AdminCPF:      v.GetString("admin_cpf"),
		AdminEmail:    v.GetString("admin_email"),
		AdminPassword: v.GetString("admin_password"),
		PostmarkToken: v.GetString("postmark_token"),
		FromEmail:     v.GetString("from_email"),
		MetricsToken:  v.GetString("metrics_token"),

		StatusRefreshInterval: v.GetDuration("status_refresh_interval"),

		Backup: Backup{
			Endpoint:      v.GetString("backup_s3_endpoint"),
			Bucket:        v.GetString("backup_s3_bucket"),
			Region:        v.GetString("backup_s3_region"),
			AccessKey:     v.GetString("backup_s3_access_key"),
			SecretKey:     v.GetString("backup_s3_secret_key"),
			Passphrase:    v.GetString("backup_passphrase"),
			Hour:          v.GetInt("backup_hour"),
			RetentionDays: v.GetInt("backup_retention_days"),
		},
	}

	if cfg.StatusRefreshInterval <= 0 {
		return nil, fmt.Errorf("status refresh interval must be positive, got %s", cfg.StatusRefreshInterval)
	}
	if cfg.Backup.Hour < 0 || cfg.Backup.Hour > 23 {
		return nil, fmt.Errorf("backup hour must be between 0 and 23, got %d", cfg.Backup.Hour)
	}
	return cfg, nil
}
