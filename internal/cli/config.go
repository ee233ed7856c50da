package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "SOPNAV"
	configName = "sopnav"
)

// Store backends selectable with --store.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is the resolved CLI configuration: flags, then SOPNAV_* env
// vars, then sopnav.yaml, then defaults.
type Config struct {
	Store       string        `mapstructure:"store"`
	StoreDir    string        `mapstructure:"store-dir"`
	SessionTTL  time.Duration `mapstructure:"session-ttl"`
	LockTTL     time.Duration `mapstructure:"lock-ttl"`
	RedisAddr   string        `mapstructure:"redis-addr"`
	RedisPass   string        `mapstructure:"redis-password"`
	RedisDB     int           `mapstructure:"redis-db"`
	PostgresURL string        `mapstructure:"postgres-url"`

	EncryptionKey  string   `mapstructure:"encryption-key"`
	FallbackKeys   []string `mapstructure:"encryption-fallback-keys"`
	RedactPII      bool     `mapstructure:"redact-pii"`
	RedactPatterns []string `mapstructure:"redact"`

	AgentsDir   string `mapstructure:"agents-dir"`
	LibraryDir  string `mapstructure:"library-dir"`
	AllowRemote bool   `mapstructure:"allow-remote"`

	Disclosure   string   `mapstructure:"disclosure"`
	Capabilities []string `mapstructure:"capabilities"`
	CatalogSize  int      `mapstructure:"catalog-size"`

	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
}

// RegisterFlags declares the persistent flags shared by every command.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (default: ./sopnav.yaml or $HOME/.config/sopnav/sopnav.yaml)")
	fs.String("store", StoreMemory, "Session store: memory, file, redis, sqlite or postgres")
	fs.String("store-dir", ".sopnav/sessions", "Directory for the file and sqlite stores")
	fs.Duration("session-ttl", 0, "Expire idle sessions after this long (redis only, 0 keeps them)")
	fs.Duration("lock-ttl", 30*time.Second, "Lease of the distributed session lock (redis only)")
	fs.String("redis-addr", "localhost:6379", "Redis address")
	fs.String("redis-password", "", "Redis password")
	fs.Int("redis-db", 0, "Redis database")
	fs.String("postgres-url", "", "PostgreSQL connection URL")
	fs.String("encryption-key", "", "Base64 AES-256 key sealing sessions at rest")
	fs.StringSlice("encryption-fallback-keys", nil, "Previous base64 keys still accepted for reading")
	fs.Bool("redact-pii", false, "Mask emails and phone numbers in stored tasks")
	fs.StringSlice("redact", nil, "Extra regular expressions masked in stored tasks")
	fs.String("agents-dir", "agents", "Directory of agents resolved by name")
	fs.String("library-dir", "", "Agents library read through loam (optional)")
	fs.Bool("allow-remote", false, "Allow loading workflows from http(s) URLs")
	fs.String("disclosure", "full", "Disclosure policy: full or skeleton")
	fs.StringSlice("capabilities", nil, "Extra capability names accepted by node prompts")
	fs.Int("catalog-size", 0, "Compiled graphs kept in memory (0 uses the default)")
	fs.Bool("debug", false, "Enable debug logging")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.String("log-format", "text", "Log format: text or json")
}

// LoadConfig builds the configuration from the bound flags, the environment
// and the optional config file. A .env file in the working directory is
// loaded first when present.
func LoadConfig(fs *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	// agents-dir is read from SOPNAV_AGENTS_DIR
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/sopnav")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Store == StorePostgres && c.PostgresURL == "" {
		return errors.New("--postgres-url is required for the postgres store")
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}
