package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the process-wide configuration for both the ingestion
// service and the query-layer service. Both binaries load the same
// struct; each only reads the sections it needs.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Debug    DebugConfig    `yaml:"debug"`
	Database DatabaseConfig `yaml:"database"`
	Programs ProgramsConfig `yaml:"programs"`
	Profile  ProfileConfig  `yaml:"profile"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Query    QueryConfig    `yaml:"query"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"  envconfig:"LOGGING_LEVEL"`
	Format string `yaml:"format" envconfig:"LOGGING_FORMAT"`
}

type DebugConfig struct {
	ListenAddress string `yaml:"address" envconfig:"DEBUG_ADDRESS"`
	ListenPort    uint   `yaml:"port"    envconfig:"DEBUG_PORT"`
}

// DatabaseConfig describes the Postgres-compatible store backing the
// normalized model. The physical storage engine itself is an external
// collaborator; this is just how we reach it.
type DatabaseConfig struct {
	Url          string `yaml:"url"          envconfig:"DATABASE_URL"`
	MaxPoolConns int32  `yaml:"maxPoolConns" envconfig:"DATABASE_MAX_POOL_CONNS"`
}

// ProgramsConfig carries the bit-exact program identities the router
// dispatches on. They are overridable so the same binary can index
// devnet deployments under different program ids without a code change.
type ProgramsConfig struct {
	MEHaus       string `yaml:"meHaus"       envconfig:"PROGRAM_ME_HAUS"`
	RewardCenter string `yaml:"rewardCenter" envconfig:"PROGRAM_REWARD_CENTER"`
}

// ProfileConfig configures the thin third-party profile HTTP
// collaborator. OAuth/bearer-token handling itself is out of scope;
// we only carry a pre-obtained token.
type ProfileConfig struct {
	BaseUrl     string `yaml:"baseUrl"     envconfig:"PROFILE_BASE_URL"`
	BearerToken string `yaml:"bearerToken" envconfig:"PROFILE_BEARER_TOKEN"`
}

// IngestConfig tunes the cooperative ingestion worker pool.
type IngestConfig struct {
	Workers int `yaml:"workers" envconfig:"INGEST_WORKERS"`
}

// QueryConfig configures the query API's HTTP listener. BatchWindowMs
// is loaded but nothing in this module reads it: the batched read
// methods in internal/store take their keys as one slice and issue one
// query per call, without waiting to coalesce keys from other callers.
type QueryConfig struct {
	ListenAddress  string `yaml:"listenAddress"  envconfig:"QUERY_LISTEN_ADDRESS"`
	ListenPort     uint   `yaml:"port"           envconfig:"QUERY_PORT"`
	BatchWindowMs  int    `yaml:"batchWindowMs"  envconfig:"QUERY_BATCH_WINDOW_MS"`
}

// Singleton config instance with default values.
var globalConfig = &Config{
	Logging: LoggingConfig{
		Level:  "info",
		Format: "json",
	},
	Debug: DebugConfig{
		ListenAddress: "localhost",
		ListenPort:    0,
	},
	Database: DatabaseConfig{
		Url:          "postgres://localhost:5432/marketplace?sslmode=disable",
		MaxPoolConns: 10,
	},
	Programs: ProgramsConfig{
		MEHaus:       "M2mx93ekt1fmXSVkTrUL9xVFHkmME8HTUi5Cyc5aF7K",
		RewardCenter: "rewardsk3wwPtuF5jQtHXchbSxCPsrmKBJyVCxWLN8P",
	},
	Ingest: IngestConfig{
		Workers: 8,
	},
	Query: QueryConfig{
		ListenAddress: "localhost",
		ListenPort:    8080,
		BatchWindowMs: 5,
	},
}

// Load reads an optional YAML config file and layers environment
// variable overrides on top of it.
func Load(configFile string) (*Config, error) {
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %s", err)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %s", err)
		}
	}
	// Load config values from environment variables. We use "dummy" as
	// the app name here to (mostly) prevent picking up env vars that
	// we hadn't explicitly specified in annotations above.
	if err := envconfig.Process("dummy", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %s", err)
	}
	return globalConfig, nil
}

// GetConfig returns the global config instance.
func GetConfig() *Config {
	return globalConfig
}
