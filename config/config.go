package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr       string           `yaml:"addr"`
	LogLevel   string           `yaml:"log_level"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Backend    BackendConfig    `yaml:"backend"`
	Annotation AnnotationConfig `yaml:"annotation"`
}

type DatabaseConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	Migrate  bool   `yaml:"migrate"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// BackendConfig points sessions at a remote annotation backend. When URL is
// empty the local database is used.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type AnnotationConfig struct {
	DismissDelay time.Duration `yaml:"dismiss_delay"`
}

func Defaults() *Config {
	return &Config{
		Addr:     ":8080",
		LogLevel: "info",
		Database: DatabaseConfig{Port: "5432", SSLMode: "require"},
		Gemini:   GeminiConfig{Model: "gemini-2.5-flash"},
		Backend:  BackendConfig{Timeout: 10 * time.Second},
		Annotation: AnnotationConfig{
			DismissDelay: 100 * time.Millisecond,
		},
	}
}

// Load reads .env (if present), the optional YAML file named by CONFIG_FILE,
// and finally environment variables, each layer overriding the previous one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Addr, "ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Database.User, "user")
	setString(&cfg.Database.Password, "password")
	setString(&cfg.Database.Host, "host")
	setString(&cfg.Database.Port, "port")
	setString(&cfg.Database.Name, "dbname")
	setString(&cfg.Database.SSLMode, "sslmode")
	setString(&cfg.Auth.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&cfg.Gemini.APIKey, "API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Backend.URL, "BACKEND_URL")
	setString(&cfg.Backend.Token, "BACKEND_TOKEN")
	if v := strings.TrimSpace(os.Getenv("DB_MIGRATE")); v != "" {
		cfg.Database.Migrate = v == "1" || strings.EqualFold(v, "true")
	}
	if v := strings.TrimSpace(os.Getenv("DISMISS_DELAY")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Annotation.DismissDelay = d
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
