package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"beachrent/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Beach      BeachConfig      `yaml:"beach"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Staff      []models.User    `yaml:"staff"`
	Google     GoogleConfig     `yaml:"google"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
}

type APIHTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// APIAuthConfig verifies HS256 bearer tokens issued by the login service.
type APIAuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken      string  `yaml:"bot_token"`
	ReportChatIDs []int64 `yaml:"report_chat_ids"`
	Debug         bool    `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	ReportsSpreadsheetID  string `yaml:"reports_spreadsheet_id"`
	ReportsSheetName      string `yaml:"reports_sheet_name"`
}

// BeachConfig describes the umbrella map and its prices.
type BeachConfig struct {
	Timezone string `yaml:"timezone"`
	Columns  int    `yaml:"columns"`
	Rows     int    `yaml:"rows"`

	// Umbrellas defaults to Columns*Rows.
	Umbrellas int `yaml:"umbrellas"`

	// DisabledUmbrellas and HotelUmbrellas fall back to the standard map when nil.
	DisabledUmbrellas []int `yaml:"disabled_umbrellas"`
	HotelUmbrellas    []int `yaml:"hotel_umbrellas"`

	Pricing PricingConfig `yaml:"pricing"`
}

type PricingConfig struct {
	Beach            string `yaml:"beach"`
	Hotel            string `yaml:"hotel"`
	IncludeExtraBeds *bool  `yaml:"include_extra_beds"`
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
	// UseLock makes instances sharing Redis elect one runner per date.
	UseLock bool `yaml:"use_lock"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.Auth.JWTSecret == "" {
		return errors.New("api.auth.jwt_secret is required")
	}

	if c.Beach.Umbrellas <= 0 {
		return errors.New("beach.umbrellas must be positive")
	}

	if _, err := time.LoadLocation(c.Beach.Timezone); err != nil {
		return fmt.Errorf("invalid beach.timezone: %w", err)
	}

	return ValidateStaff(c.Staff)
}

func ValidateStaff(staff []models.User) error {
	ids := make(map[int64]bool)
	names := make(map[string]bool)
	for _, u := range staff {
		if u.ID <= 0 {
			return fmt.Errorf("staff member '%s' has invalid ID %d", u.Username, u.ID)
		}
		if u.Username == "" {
			return fmt.Errorf("staff member %d has no username", u.ID)
		}
		if !u.Role.Valid() {
			return fmt.Errorf("staff member '%s' has invalid role %q", u.Username, u.Role)
		}
		if ids[u.ID] {
			return fmt.Errorf("duplicate staff ID found: %d", u.ID)
		}
		if names[u.Username] {
			return fmt.Errorf("duplicate staff username found: %s", u.Username)
		}
		ids[u.ID] = true
		names[u.Username] = true
	}
	return nil
}

// IncludeExtraBedsOrDefault is true unless explicitly disabled.
func (p PricingConfig) IncludeExtraBedsOrDefault() bool {
	return p.IncludeExtraBeds == nil || *p.IncludeExtraBeds
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ReadTimeout == 0 {
		c.API.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.API.HTTP.WriteTimeout == 0 {
		c.API.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.API.Auth.Issuer == "" {
		c.API.Auth.Issuer = "beachrent"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Google.ReportsSheetName == "" {
		c.Google.ReportsSheetName = "Reports"
	}

	if c.Beach.Timezone == "" {
		c.Beach.Timezone = models.DefaultTimezone
	}
	if c.Beach.Columns == 0 {
		c.Beach.Columns = models.DefaultGridColumns
	}
	if c.Beach.Rows == 0 {
		c.Beach.Rows = models.DefaultGridRows
	}
	if c.Beach.Umbrellas == 0 {
		c.Beach.Umbrellas = c.Beach.Columns * c.Beach.Rows
	}
}
