// Package config loads service settings from config.yaml, PRINTQUOTE_ environment
// variables and built-in defaults, in increasing order of precedence: env wins.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"print-area-pricing/db"
	"print-area-pricing/pricing"
	"print-area-pricing/utils"
)

// EnvPrefix prefixes every environment override, e.g. PRINTQUOTE_DB_DSN
const EnvPrefix = "PRINTQUOTE"

type Config struct {
	Env        string           `mapstructure:"env"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Images     ImagesConfig     `mapstructure:"images"`
	QuoteSheet QuoteSheetConfig `mapstructure:"quote_sheet"`
	Admin      AdminConfig      `mapstructure:"admin"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DBConfig selects the store for pricing configs and product sides. An empty driver
// runs without a database: built-in prices and request-supplied calibration only.
type DBConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Name        string `mapstructure:"name"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type PricingConfig struct {
	// ConfigFile is a JSON price table used when the database holds none
	ConfigFile string                 `mapstructure:"config_file"`
	Defaults   pricing.PricingContext `mapstructure:"defaults"`
	// Stale-result tracking keeps at most TrackedCanvases editing sessions, each for
	// VersionIdleTTL after its last pricing pass
	TrackedCanvases int           `mapstructure:"tracked_canvases"`
	VersionIdleTTL  time.Duration `mapstructure:"version_idle_ttl"`
}

type ImagesConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// AllowedHosts are the hosts besides base_url that absolute image URLs may use
	AllowedHosts     []string      `mapstructure:"allowed_hosts"`
	CacheDir         string        `mapstructure:"cache_dir"`
	CacheMaxBytes    int64         `mapstructure:"cache_max_bytes"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxBytes         int64         `mapstructure:"max_bytes"`
	MaxPixels        int64         `mapstructure:"max_pixels"`
	DriveCredentials string        `mapstructure:"drive_credentials"`
}

type QuoteSheetConfig struct {
	ChromePath string        `mapstructure:"chrome_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	DPI        int           `mapstructure:"dpi"`
}

type AdminConfig struct {
	// Token guards the admin routes; empty disables them
	Token string `mapstructure:"token"`
}

// Addr returns the listen address. A leading colon in the port is tolerated.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + strings.TrimPrefix(c.Port, ":")
}

// Enabled reports whether a database is configured
func (c DBConfig) Enabled() bool {
	return strings.TrimSpace(c.Driver) != ""
}

// ConnectionString returns the DSN, building a Postgres one from the discrete fields
// when none is set
func (c DBConfig) ConnectionString() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	driver, err := db.NormalizeDriver(c.Driver)
	if err != nil {
		return "", err
	}
	if driver == db.DriverSQLite {
		return "file:print-pricing.db", nil
	}
	return db.PostgresConfig{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Name:     c.Name,
		SSLMode:  c.SSLMode,
	}.DSN()
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 45*time.Second)
	v.SetDefault("server.max_body_bytes", 8<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("db.driver", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("pricing.config_file", "")
	v.SetDefault("pricing.tracked_canvases", pricing.DefaultTrackedCanvases)
	v.SetDefault("pricing.version_idle_ttl", pricing.DefaultVersionIdleTTL)
	v.SetDefault("pricing.defaults.sensitivity", pricing.DefaultSensitivity)
	v.SetDefault("pricing.defaults.quantity", pricing.DefaultQuantity)
	v.SetDefault("pricing.defaults.default_print_area_width_mm", utils.DefaultPrintAreaWidthMm)
	v.SetDefault("pricing.defaults.pixel_stride", pricing.DefaultPixelStride)
	v.SetDefault("pricing.defaults.alpha_threshold", pricing.DefaultAlphaThreshold)
	v.SetDefault("pricing.defaults.noise_ratio", pricing.DefaultNoiseRatio)
	v.SetDefault("pricing.defaults.max_sample_dimension", pricing.DefaultMaxSampleDimension)
	v.SetDefault("pricing.defaults.concurrency", 4)

	v.SetDefault("images.base_url", "")
	v.SetDefault("images.allowed_hosts", []string{})
	v.SetDefault("images.cache_dir", "cache/images")
	v.SetDefault("images.cache_max_bytes", 512<<20)
	v.SetDefault("images.timeout", 15*time.Second)
	v.SetDefault("images.max_bytes", 32<<20)
	v.SetDefault("images.max_pixels", 36_000_000)
	v.SetDefault("images.drive_credentials", "")

	v.SetDefault("quote_sheet.chrome_path", "")
	v.SetDefault("quote_sheet.timeout", 30*time.Second)
	v.SetDefault("quote_sheet.dpi", 300)

	v.SetDefault("admin.token", "")
}

// LoadDotEnv loads .env outside production. Values in .env override the process
// environment so a local file always wins during development.
func LoadDotEnv(path string) error {
	if strings.EqualFold(os.Getenv("ENV"), "production") {
		return nil
	}
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration. path names an explicit config file; when empty config.yaml
// is searched in ./, ./deploy and /etc/print-area-pricing and may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./")
		v.AddConfigPath("./deploy/")
		v.AddConfigPath("/etc/print-area-pricing/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// platform variables the deployment environment sets without our prefix
	_ = v.BindEnv("env", EnvPrefix+"_ENV", "ENV")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("db.dsn", EnvPrefix+"_DB_DSN", "DATABASE_URL")
	_ = v.BindEnv("images.drive_credentials", EnvPrefix+"_IMAGES_DRIVE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS")
	_ = v.BindEnv("quote_sheet.chrome_path", EnvPrefix+"_QUOTE_SHEET_CHROME_PATH", "CHROME_PATH")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.DB.Enabled() {
		if _, err := db.NormalizeDriver(cfg.DB.Driver); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
