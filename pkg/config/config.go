// Package config provides configuration management for the tree builder.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/tree-builder/pkg/model"
	"github.com/tree-builder/pkg/tree"
	"github.com/tree-builder/pkg/utils"
)

// EnvPrefix prefixes environment overrides, e.g. TREE_TREE_MODE=node.
const EnvPrefix = "TREE"

// Source types.
const (
	SourceFile     = "file"
	SourceDatabase = "database"
	SourceStorage  = "storage"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputGzip = "gzip"
	OutputZstd = "zstd"
)

// Config holds all configuration for the application.
type Config struct {
	Tree      TreeConfig      `mapstructure:"tree"`
	Source    SourceConfig    `mapstructure:"source"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Output    OutputConfig    `mapstructure:"output"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// TreeConfig binds record fields and selects the build mode.
type TreeConfig struct {
	Fields      tree.FieldNames `mapstructure:",squash"`
	Mode        string          `mapstructure:"mode"`         // map, fields or node
	CyclePolicy string          `mapstructure:"cycle_policy"` // reject or keep
}

// SourceConfig says where records are loaded from.
type SourceConfig struct {
	Type    string `mapstructure:"type"`   // file, database or storage
	Path    string `mapstructure:"path"`   // file source
	Format  string `mapstructure:"format"` // json or yaml, guessed from the extension when empty
	Table   string `mapstructure:"table"`  // database source
	Where   string `mapstructure:"where"`
	OrderBy string `mapstructure:"order_by"`
	Key     string `mapstructure:"key"` // storage source
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // postgres, mysql or sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
	DSN      string `mapstructure:"dsn"` // overrides the fields above; a file path for sqlite
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // local, cos or s3
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"` // s3 only, e.g. "minio.local:9000"
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"` // cos only, e.g. "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	LocalPath string `mapstructure:"local_path"`
}

// OutputConfig says how a built forest is rendered.
type OutputConfig struct {
	Format    string `mapstructure:"format"` // text, json, gzip or zstd
	Path      string `mapstructure:"path"`   // empty writes to stdout
	Pretty    bool   `mapstructure:"pretty"`
	UploadKey string `mapstructure:"upload_key"`
}

// BatchConfig sizes the worker pool used for batch builds.
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// TelemetryConfig enables tracing. Empty values fall back to the OTEL_*
// environment variables.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Protocol string `mapstructure:"protocol"`
	Insecure bool   `mapstructure:"insecure"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"` // empty logs to stderr
}

// Load reads configuration from the specified file path. A missing file
// leaves the defaults in place.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("tree-builder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tree-builder")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), os.IsNotExist(err):
			utils.GetGlobalLogger().Debug("config file not found, using defaults")
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return unmarshal(v)
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg, err := unmarshal(newViper())
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values. Every key is listed so that
// environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	// Tree defaults
	v.SetDefault("tree.id_field", tree.DefaultIDField)
	v.SetDefault("tree.parent_field", tree.DefaultParentField)
	v.SetDefault("tree.children_field", tree.DefaultChildrenField)
	v.SetDefault("tree.mode", string(model.ModeMap))
	v.SetDefault("tree.cycle_policy", tree.CycleReject.String())

	// Source defaults
	v.SetDefault("source.type", SourceFile)
	v.SetDefault("source.path", "")
	v.SetDefault("source.format", "")
	v.SetDefault("source.table", "")
	v.SetDefault("source.where", "")
	v.SetDefault("source.order_by", "")
	v.SetDefault("source.key", "")

	// Database defaults
	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.dsn", "")

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.secret_id", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.domain", "myqcloud.com")
	v.SetDefault("storage.scheme", "https")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.local_path", "./storage")

	// Output defaults
	v.SetDefault("output.format", OutputText)
	v.SetDefault("output.path", "")
	v.SetDefault("output.pretty", false)
	v.SetDefault("output.upload_key", "")

	v.SetDefault("batch.workers", 4)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.protocol", "")
	v.SetDefault("telemetry.insecure", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Tree.Fields.WithDefaults().Validate(); err != nil {
		return err
	}
	if _, err := model.ParseMode(c.Tree.Mode); err != nil {
		return err
	}
	if _, err := tree.ParseCyclePolicy(c.Tree.CyclePolicy); err != nil {
		return err
	}

	switch c.Source.Type {
	case SourceFile:
		if f := strings.ToLower(c.Source.Format); f != "" && f != "json" && f != "yaml" && f != "yml" {
			return fmt.Errorf("unsupported source format: %s", c.Source.Format)
		}
	case SourceDatabase:
		if c.Source.Table == "" {
			return fmt.Errorf("source table is required for database sources")
		}
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case SourceStorage:
		if c.Source.Key == "" {
			return fmt.Errorf("source key is required for storage sources")
		}
	default:
		return fmt.Errorf("unsupported source type: %s", c.Source.Type)
	}

	switch c.Output.Format {
	case OutputText, OutputJSON, OutputGzip, OutputZstd:
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output.Format)
	}

	// Storage config validation is delegated to the storage package

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be at least 1")
	}

	return nil
}

// Validate checks the database settings needed to open a connection.
func (d *DatabaseConfig) Validate() error {
	switch d.Type {
	case "postgres", "mysql":
		if d.DSN == "" && d.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case "sqlite":
		if d.DSN == "" {
			return fmt.Errorf("database dsn is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", d.Type)
	}
	return nil
}

// BuildOptions returns the tree options selected by the configuration.
func (c *Config) BuildOptions(logger utils.Logger) ([]tree.Option, error) {
	policy, err := tree.ParseCyclePolicy(c.Tree.CyclePolicy)
	if err != nil {
		return nil, err
	}
	return []tree.Option{tree.WithCyclePolicy(policy), tree.WithLogger(logger)}, nil
}
