package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite3 | postgres
	DSN    string `mapstructure:"dsn"`
}

// LedgerConfig holds the reimbursement bookkeeping settings.
type LedgerConfig struct {
	ReferenceCurrency string `mapstructure:"reference_currency"`
	BenefactorParty   string `mapstructure:"benefactor_party"`
	BenefactorPattern string `mapstructure:"benefactor_pattern"`
	SurplusPot        string `mapstructure:"surplus_pot"`
	LookbackDays      int    `mapstructure:"lookback_days"`
	Timezone          string `mapstructure:"timezone"`
}

type RatesConfig struct {
	AggregatorURL  string        `mapstructure:"aggregator_url"`
	CentralBankURL string        `mapstructure:"central_bank_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	BaseCurrency   string        `mapstructure:"base_currency"`
}

type PrefsConfig struct {
	Backend   string `mapstructure:"backend"` // sql | redis
	RedisAddr string `mapstructure:"redis_addr"`
}

type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

type AuthConfig struct {
	FirebaseProjectID       string `mapstructure:"firebase_project_id"`
	FirebaseCredentialsJSON string `mapstructure:"firebase_credentials_json"`
}

type ReceiptsConfig struct {
	GeminiModel   string        `mapstructure:"gemini_model"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	ArchiveBucket string        `mapstructure:"archive_bucket"`
	DraftTTL      time.Duration `mapstructure:"draft_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Rates     RatesConfig     `mapstructure:"rates"`
	Prefs     PrefsConfig     `mapstructure:"prefs"`
	Security  SecurityConfig  `mapstructure:"security"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Receipts  ReceiptsConfig  `mapstructure:"receipts"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// Location resolves Ledger.Timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c.Ledger.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "./budget.db")

	v.SetDefault("ledger.reference_currency", "RON")
	v.SetDefault("ledger.benefactor_party", "MOM")
	v.SetDefault("ledger.benefactor_pattern", "")
	v.SetDefault("ledger.surplus_pot", "Mom surplus")
	v.SetDefault("ledger.lookback_days", 14)
	v.SetDefault("ledger.timezone", "")

	v.SetDefault("rates.aggregator_url", "https://api.exchangerate.host")
	v.SetDefault("rates.central_bank_url", "https://www.bnr.ro/nbrfxrates.xml")
	v.SetDefault("rates.timeout", 10*time.Second)
	v.SetDefault("rates.base_currency", "EUR")

	v.SetDefault("prefs.backend", "sql")
	v.SetDefault("prefs.redis_addr", "localhost:6379")

	v.SetDefault("security.encryption_key", "")

	v.SetDefault("auth.firebase_project_id", "")
	v.SetDefault("auth.firebase_credentials_json", "")

	v.SetDefault("receipts.gemini_model", "gemini-2.5-flash")
	v.SetDefault("receipts.gemini_api_key", "")
	v.SetDefault("receipts.archive_bucket", "")
	v.SetDefault("receipts.draft_ttl", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("scheduler.enabled", true)
}

// Load reads configuration from path, or from ./config.yaml when path is
// empty. A missing default file is not an error. Environment variables
// prefixed with BUDGET_ override file values, e.g. BUDGET_SERVER_PORT=9000.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("BUDGET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Prefs.Backend {
	case "sql", "redis":
	default:
		return fmt.Errorf("unsupported prefs backend %q", c.Prefs.Backend)
	}
	if c.Ledger.LookbackDays <= 0 {
		c.Ledger.LookbackDays = 14
	}
	c.Ledger.ReferenceCurrency = strings.ToUpper(c.Ledger.ReferenceCurrency)
	c.Rates.BaseCurrency = strings.ToUpper(c.Rates.BaseCurrency)
	return nil
}
