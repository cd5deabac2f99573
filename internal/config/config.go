package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Storage      StorageConfig      `json:"storage"`
	Verification VerificationConfig `json:"verification"`
	Issuer       IssuerConfig       `json:"issuer"`
	Logging      LoggingConfig      `json:"logging"`
	Worker       WorkerConfig       `json:"worker"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Mode         string        `json:"mode"` // gin mode: debug, release, test
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// StorageConfig selects and configures the artifact store
type StorageConfig struct {
	Driver          string `json:"driver"` // s3 or memory
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint,omitempty"`
	UsePathStyle    bool   `json:"use_path_style"`
	PublicBaseURL   string `json:"public_base_url,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	Folder          string `json:"folder"`
}

// VerificationConfig configures the verification links embedded in certificates
type VerificationConfig struct {
	BaseURL         string `json:"base_url"`
	QRSize          int    `json:"qr_size"`   // pixels
	QRMargin        int    `json:"qr_margin"` // modules
	ErrorCorrection string `json:"error_correction"`
}

// IssuerConfig holds the branding printed on certificates
type IssuerConfig struct {
	OrganizationName string `json:"organization_name"`
	Tagline          string `json:"tagline"`
	BadgeTitle       string `json:"badge_title"`
	BadgeSubtitle    string `json:"badge_subtitle"`
	SignatoryName    string `json:"signatory_name"`
	SignatoryTitle   string `json:"signatory_title"`
	LegalNotice      string `json:"legal_notice"`
}

// LoggingConfig
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or console
}

// WorkerConfig configures the background certificate generator
type WorkerConfig struct {
	Schedule      string        `json:"schedule"`
	BatchSize     int           `json:"batch_size"`
	MaxConcurrent int           `json:"max_concurrent"`
	JobTimeout    time.Duration `json:"job_timeout"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			Mode:         "release",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "certification",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    30 * time.Minute,
		},
		Storage: StorageConfig{
			Driver: "s3",
			Folder: "certificates",
		},
		Verification: VerificationConfig{
			BaseURL:         "http://localhost:8080",
			QRSize:          240,
			QRMargin:        1,
			ErrorCorrection: "M",
		},
		Issuer: IssuerConfig{
			OrganizationName: "CERTIFICA LINGUE",
			Tagline:          "Language Certification Body",
			BadgeTitle:       "CEFR",
			BadgeSubtitle:    "Compliant",
			SignatoryName:    "Examinations Director",
			SignatoryTitle:   "Director of Certification",
			LegalNotice:      "Certificate issued in accordance with the Common European Framework of Reference for Languages.",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Worker: WorkerConfig{
			Schedule:      "@every 1m",
			BatchSize:     20,
			MaxConcurrent: 4,
			JobTimeout:    2 * time.Minute,
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// A .env file in the working directory is read first when present.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := Default()

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	setString(&config.Server.Host, "SERVER_HOST")
	setInt(&config.Server.Port, "SERVER_PORT")
	setString(&config.Server.Mode, "GIN_MODE")

	setString(&config.Database.Host, "DATABASE_HOST")
	setInt(&config.Database.Port, "DATABASE_PORT")
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DATABASE_DBNAME")
	setString(&config.Database.SSLMode, "DATABASE_SSLMODE")

	setString(&config.Storage.Driver, "STORAGE_DRIVER")
	setString(&config.Storage.Bucket, "STORAGE_BUCKET")
	setString(&config.Storage.Region, "STORAGE_REGION")
	setString(&config.Storage.Endpoint, "STORAGE_ENDPOINT")
	setBool(&config.Storage.UsePathStyle, "STORAGE_USE_PATH_STYLE")
	setString(&config.Storage.PublicBaseURL, "STORAGE_PUBLIC_BASE_URL")
	setString(&config.Storage.AccessKeyID, "STORAGE_ACCESS_KEY_ID")
	setString(&config.Storage.SecretAccessKey, "STORAGE_SECRET_ACCESS_KEY")
	setString(&config.Storage.Folder, "STORAGE_FOLDER")

	setString(&config.Verification.BaseURL, "VERIFICATION_BASE_URL")

	setString(&config.Logging.Level, "LOG_LEVEL")
	setString(&config.Logging.Format, "LOG_FORMAT")

	setString(&config.Worker.Schedule, "WORKER_SCHEDULE")
	setInt(&config.Worker.BatchSize, "WORKER_BATCH_SIZE")
	setInt(&config.Worker.MaxConcurrent, "WORKER_MAX_CONCURRENT")
	if v := os.Getenv("WORKER_JOB_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Worker.JobTimeout = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate reports configuration values the service cannot start without
func (c *Config) Validate() error {
	var problems []string
	if c.Verification.BaseURL == "" {
		problems = append(problems, "verification.base_url is required")
	}
	switch c.Storage.Driver {
	case "s3":
		if c.Storage.Bucket == "" {
			problems = append(problems, "storage.bucket is required for the s3 driver")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Verification.QRSize <= 0 {
		problems = append(problems, "verification.qr_size must be positive")
	}
	if c.Worker.MaxConcurrent < 1 {
		problems = append(problems, "worker.max_concurrent must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
