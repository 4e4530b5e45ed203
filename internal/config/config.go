package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Simplici0/pouchquote/internal/pricing"
)

// EnvPrefix namespaces every variable read by Load, e.g. POUCH_PORT.
const EnvPrefix = "POUCH"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

var ErrUnknownEnv = errors.New("unknown environment")

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string `envconfig:"ENV" default:"dev"`
	Port           string `envconfig:"PORT" default:"8080"`
	DBPath         string `envconfig:"DB_PATH" default:"./dev.db"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"false"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"json"`
	AdminToken     string `envconfig:"ADMIN_TOKEN"`

	PrintMode     string `envconfig:"PRINT_MODE" default:"per_layer"`
	FixedCostMode string `envconfig:"FIXED_COST_MODE" default:"amortized"`

	PlateLengthCm        float64 `envconfig:"PLATE_LENGTH_CM" default:"86"`
	PlateCircumferenceCm float64 `envconfig:"PLATE_CIRCUMFERENCE_CM" default:"19"`
	DefaultFXRate        float64 `envconfig:"DEFAULT_FX_RATE" default:"7.2"`
}

// Load reads .env (best effort) and the environment, then validates the
// environment name and the engine modes.
func Load() (Config, error) {
	// Local development convenience; production injects real env.
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	switch strings.ToLower(cfg.Env) {
	case AppEnvDev, AppEnvProd:
	default:
		return Config{}, fmt.Errorf("%s_ENV: %w %q", EnvPrefix, ErrUnknownEnv, cfg.Env)
	}
	if _, err := cfg.EngineOptions(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDev reports whether the service runs in the development environment.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, AppEnvDev)
}

// ShouldMigrate reports whether migrations run at startup. Development always
// migrates; production opts in with MIGRATE_ON_START.
func (c Config) ShouldMigrate() bool {
	return c.IsDev() || c.MigrateOnStart
}

// EngineOptions parses the configured pricing modes.
func (c Config) EngineOptions() (pricing.Options, error) {
	printMode, err := pricing.ParsePrintMode(c.PrintMode)
	if err != nil {
		return pricing.Options{}, fmt.Errorf("%s_PRINT_MODE: %w", EnvPrefix, err)
	}
	fixedMode, err := pricing.ParseFixedCostMode(c.FixedCostMode)
	if err != nil {
		return pricing.Options{}, fmt.Errorf("%s_FIXED_COST_MODE: %w", EnvPrefix, err)
	}
	return pricing.Options{PrintMode: printMode, FixedCostMode: fixedMode}, nil
}

// ApplyPlateDefaults overrides the rate card's default plate size with the
// configured one where set.
func (c Config) ApplyPlateDefaults(rates pricing.RateCard) pricing.RateCard {
	if c.PlateLengthCm > 0 {
		rates.Plate.DefaultLengthCm = c.PlateLengthCm
	}
	if c.PlateCircumferenceCm > 0 {
		rates.Plate.DefaultCircumferenceCm = c.PlateCircumferenceCm
	}
	return rates
}

// loadDotEnv loads KEY=VALUE pairs from path without overwriting variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
