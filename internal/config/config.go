package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port        string
	Environment string
	Debug       bool
	LogDir      string // empty disables the log file

	// Storage
	StoreDriver    string // "postgres" or "sqlite"
	DatabaseURL    string
	SQLiteDir      string
	TablePrefix    string
	MediaRoot      string
	CanonicalOwner string
	TaskCatalog    string

	// Auth
	JWKSURL     string
	CORSOrigins string

	Render RenderConfig
	Print  PrintConfig
}

// RenderConfig configures the export pipeline and its external tools.
type RenderConfig struct {
	ChromiumPath        string
	NoSandbox           bool
	CPDFPath            string
	WorkDir             string
	Timeout             time.Duration
	Attempts            int
	RetryBackoff        time.Duration
	MaxConcurrent       int
	LaunchRate          float64
	PageNumbersRequired bool
	Paper               string
	Margin              float64 // inches
	Scale               float64
	JSDelay             time.Duration
}

// PrintConfig configures the print service client.
type PrintConfig struct {
	Address string
	Timeout time.Duration
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// fileConfig is the optional TOML overlay. Its values replace the built-in
// defaults; environment variables still win.
type fileConfig struct {
	Storage struct {
		Driver         string `toml:"driver"`
		SQLiteDir      string `toml:"sqlite_dir"`
		MediaRoot      string `toml:"media_root"`
		CanonicalOwner string `toml:"canonical_owner"`
		TaskCatalog    string `toml:"task_catalog"`
	} `toml:"storage"`
	Render struct {
		ChromiumPath        string   `toml:"chromium_path"`
		NoSandbox           *bool    `toml:"no_sandbox"`
		CPDFPath            string   `toml:"cpdf_path"`
		WorkDir             string   `toml:"work_dir"`
		Timeout             string   `toml:"timeout"`
		Attempts            int      `toml:"attempts"`
		RetryBackoff        string   `toml:"retry_backoff"`
		MaxConcurrent       int      `toml:"max_concurrent"`
		LaunchRate          float64  `toml:"launch_rate"`
		PageNumbersRequired *bool    `toml:"page_numbers_required"`
		Paper               string   `toml:"paper"`
		Margin              *float64 `toml:"margin"`
		Scale               float64  `toml:"scale"`
		JSDelay             string   `toml:"js_delay"`
	} `toml:"render"`
	Print struct {
		Address string `toml:"address"`
		Timeout string `toml:"timeout"`
	} `toml:"print"`
}

// Load reads configuration from the environment, on top of the TOML file
// named by SCRIBE_CONFIG_FILE when set.
func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("SCRIBE_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	env := getEnv("ENVIRONMENT", "dev")
	p := &parser{}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		Debug:       p.envBool("DEBUG", env != "prod"),
		LogDir:      getEnv("LOG_DIR", ""),

		StoreDriver:    getEnv("STORE_DRIVER", or(fc.Storage.Driver, DriverPostgres)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLiteDir:      getEnv("SQLITE_DIR", or(fc.Storage.SQLiteDir, "./data")),
		TablePrefix:    getTablePrefix(env),
		MediaRoot:      getEnv("MEDIA_ROOT", or(fc.Storage.MediaRoot, "./media")),
		CanonicalOwner: getEnv("CANONICAL_OWNER", or(fc.Storage.CanonicalOwner, "ISC")),
		TaskCatalog:    getEnv("TASK_CATALOG", or(fc.Storage.TaskCatalog, "./tasks/catalog.yaml")),

		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		Render: RenderConfig{
			ChromiumPath:        getEnv("CHROMIUM_PATH", fc.Render.ChromiumPath),
			NoSandbox:           p.envBool("CHROMIUM_NO_SANDBOX", boolOr(fc.Render.NoSandbox, false)),
			CPDFPath:            getEnv("CPDF_PATH", or(fc.Render.CPDFPath, "cpdf")),
			WorkDir:             getEnv("RENDER_WORK_DIR", or(fc.Render.WorkDir, os.TempDir())),
			Timeout:             p.envDuration("RENDER_TIMEOUT", or(fc.Render.Timeout, "60s")),
			Attempts:            p.envInt("RASTERIZE_ATTEMPTS", intOr(fc.Render.Attempts, 1)),
			RetryBackoff:        p.envDuration("RASTERIZE_BACKOFF", or(fc.Render.RetryBackoff, "500ms")),
			MaxConcurrent:       p.envInt("MAX_CONCURRENT_RENDERS", intOr(fc.Render.MaxConcurrent, 2)),
			LaunchRate:          p.envFloat("RENDER_LAUNCH_RATE", fc.Render.LaunchRate),
			PageNumbersRequired: p.envBool("PAGE_NUMBERS_REQUIRED", boolOr(fc.Render.PageNumbersRequired, true)),
			Paper:               getEnv("PDF_PAPER", or(fc.Render.Paper, "letter")),
			Margin:              p.envFloat("PDF_MARGIN", floatOr(fc.Render.Margin, 0.75)),
			Scale:               p.envFloat("PDF_SCALE", nonZero(fc.Render.Scale, 1)),
			JSDelay:             p.envDuration("PDF_JS_DELAY", or(fc.Render.JSDelay, "0s")),
		},
		Print: PrintConfig{
			Address: getEnv("PRINT_SYSTEM_ADDRESS", fc.Print.Address),
			Timeout: p.envDuration("PRINT_TIMEOUT", or(fc.Print.Timeout, "2m")),
		},
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case DriverSQLite:
		if c.SQLiteDir == "" {
			errs = append(errs, errors.New("SQLITE_DIR is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.Render.Attempts < 1 {
		errs = append(errs, errors.New("RASTERIZE_ATTEMPTS must be at least 1"))
	}
	if c.Render.MaxConcurrent < 1 {
		errs = append(errs, errors.New("MAX_CONCURRENT_RENDERS must be at least 1"))
	}
	if c.Render.Timeout <= 0 {
		errs = append(errs, errors.New("RENDER_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser reads typed environment values, collecting every parse error.
type parser struct {
	errs []error
}

func (p *parser) envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// envDuration parses the env value, or def when unset. def comes from the
// file or a literal and is validated the same way.
func (p *parser) envDuration(key, def string) time.Duration {
	v := getEnv(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return 0
	}
	return d
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func intOr(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func nonZero(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func floatOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
