package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	SSLMode            string `yaml:"sslmode"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	OllamaBaseURL string `yaml:"ollama_base_url"`
	TimeoutSec    int    `yaml:"timeout_sec"`
}

// AnalysisConfig tunes chunking, retry and dispatch of chunk analysis.
type AnalysisConfig struct {
	MaxChunkLength int     `yaml:"max_chunk_length"`
	MaxRetries     int     `yaml:"max_retries"`
	BaseDelayMs    int     `yaml:"base_delay_ms"`
	Concurrency    int     `yaml:"concurrency"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
}

// BaseDelay returns the retry base delay as a duration.
func (a AnalysisConfig) BaseDelay() time.Duration {
	return time.Duration(a.BaseDelayMs) * time.Millisecond
}

// UploadConfig bounds accepted uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from an optional YAML file and environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string         `yaml:"app_host"`
	Port     string         `yaml:"port"`
	Timezone string         `yaml:"timezone"`
	LogLevel string         `yaml:"log_level"`
	Database DatabaseConfig `yaml:"database"`
	MinIO    MinIOConfig    `yaml:"minio"`
	LLM      LLMConfig      `yaml:"llm"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Upload   UploadConfig   `yaml:"upload"`
}

// Location resolves Timezone, falling back to UTC when it is empty or unknown.
func (c *AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Defaults returns the configuration used when neither a file nor the environment sets a value.
func Defaults() *AppConfig {
	return &AppConfig{
		AppHost:  "localhost:8080",
		Port:     "8080",
		Timezone: "UTC",
		LogLevel: "info",
		Database: DatabaseConfig{
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
		MinIO: MinIOConfig{
			Bucket: "documents",
			Region: "us-east-1",
		},
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "gpt-4o-mini",
			BaseURL:       "https://api.openai.com/v1/",
			OllamaBaseURL: "http://localhost:11434",
			TimeoutSec:    120,
		},
		Analysis: AnalysisConfig{
			MaxChunkLength: 4000,
			MaxRetries:     3,
			BaseDelayMs:    3000,
			Concurrency:    1,
		},
		Upload: UploadConfig{
			MaxBytes: 10 << 20,
		},
	}
}

// Load reads configuration from environment variables on top of Defaults.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	cfg := Defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile reads a YAML file over Defaults and then applies environment overrides.
// An empty path behaves like Load.
func LoadFile(path string) (*AppConfig, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(c *AppConfig) {
	c.AppHost = getEnv("APP_HOST", c.AppHost)
	c.Port = getEnv("PORT", c.Port)
	c.Timezone = getEnv("APP_TIMEZONE", c.Timezone)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", c.Database.ConnMaxLifetimeSec)

	c.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", c.MinIO.Endpoint)
	c.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIO.AccessKey)
	c.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", c.MinIO.SecretKey)
	c.MinIO.Bucket = getEnv("MINIO_BUCKET", c.MinIO.Bucket)
	c.MinIO.Region = getEnv("MINIO_REGION", c.MinIO.Region)
	c.MinIO.UseSSL = getEnvBool("MINIO_USE_SSL", c.MinIO.UseSSL)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	// The key is not validated here; a missing key surfaces as an auth failure from the provider.
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.OllamaBaseURL = getEnv("OLLAMA_BASE_URL", c.LLM.OllamaBaseURL)
	c.LLM.TimeoutSec = getEnvInt("LLM_TIMEOUT_SEC", c.LLM.TimeoutSec)

	c.Analysis.MaxChunkLength = getEnvInt("ANALYSIS_MAX_CHUNK_LENGTH", c.Analysis.MaxChunkLength)
	c.Analysis.MaxRetries = getEnvInt("ANALYSIS_MAX_RETRIES", c.Analysis.MaxRetries)
	c.Analysis.BaseDelayMs = getEnvInt("ANALYSIS_BASE_DELAY_MS", c.Analysis.BaseDelayMs)
	c.Analysis.Concurrency = getEnvInt("ANALYSIS_CONCURRENCY", c.Analysis.Concurrency)
	c.Analysis.RateLimitRPS = getEnvFloat("ANALYSIS_RATE_LIMIT_RPS", c.Analysis.RateLimitRPS)

	c.Upload.MaxBytes = int64(getEnvInt("UPLOAD_MAX_BYTES", int(c.Upload.MaxBytes)))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
