// Package config loads feedbench settings from defaults, an optional YAML
// file, a .env file and FEEDBENCH_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jacentio/feedbench/bulk"
	"github.com/jacentio/feedbench/social"
	"github.com/jacentio/feedbench/store"
)

// EnvPrefix prefixes every environment override, e.g. FEEDBENCH_STORE_REGION.
const EnvPrefix = "FEEDBENCH"

// Config is the full feedbench configuration.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Layout  LayoutConfig  `mapstructure:"layout"`
	Seed    SeedConfig    `mapstructure:"seed"`
	Measure MeasureConfig `mapstructure:"measure"`
	Log     LogConfig     `mapstructure:"log"`
}

// StoreConfig selects and authenticates the DynamoDB endpoint.
type StoreConfig struct {
	Region           string `mapstructure:"region"`
	Endpoint         string `mapstructure:"endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	Profile          string `mapstructure:"profile"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	PartitionKeyAttr string `mapstructure:"partition_key_attr"`
	Overwrite        bool   `mapstructure:"overwrite"`
}

// LayoutConfig names the tables.
type LayoutConfig struct {
	UsersTable    string `mapstructure:"users_table"`
	PostsTable    string `mapstructure:"posts_table"`
	TimelineIndex string `mapstructure:"timeline_index"`
	NumShards     int    `mapstructure:"num_shards"`
}

// SeedConfig sizes the generated workload.
type SeedConfig struct {
	Users       int   `mapstructure:"users"`
	Posts       int   `mapstructure:"posts"`
	Comments    int   `mapstructure:"comments"`
	Likes       int   `mapstructure:"likes"`
	MaxInFlight int   `mapstructure:"max_in_flight"`
	RandomSeed  int64 `mapstructure:"random_seed"`
}

// MeasureConfig tunes the measured query chain.
type MeasureConfig struct {
	TopPosts    int `mapstructure:"top_posts"`
	Concurrency int `mapstructure:"concurrency"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	counts := social.DefaultCounts()
	layout := social.DefaultLayout()
	measure := social.DefaultMeasureConfig()

	v.SetDefault("store.region", "us-east-1")
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.access_key_id", "")
	v.SetDefault("store.secret_access_key", "")
	v.SetDefault("store.profile", "")
	v.SetDefault("store.max_attempts", 0)
	v.SetDefault("store.partition_key_attr", store.DefaultPartitionKeyAttr)
	v.SetDefault("store.overwrite", false)

	v.SetDefault("layout.users_table", layout.UsersTable)
	v.SetDefault("layout.posts_table", layout.PostsTable)
	v.SetDefault("layout.timeline_index", layout.TimelineIndex)
	v.SetDefault("layout.num_shards", layout.NumShards)

	v.SetDefault("seed.users", counts.Users)
	v.SetDefault("seed.posts", counts.Posts)
	v.SetDefault("seed.comments", counts.Comments)
	v.SetDefault("seed.likes", counts.Likes)
	v.SetDefault("seed.max_in_flight", bulk.DefaultMaxInFlight)
	v.SetDefault("seed.random_seed", 0)

	v.SetDefault("measure.top_posts", measure.TopPosts)
	v.SetDefault("measure.concurrency", measure.Concurrency)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. configFile may be empty, in which case
// feedbench.yaml is looked up in the working directory; a missing file is not
// an error. envFile names a dotenv file whose variables are exported before
// the environment is read; a missing envFile is not an error either.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("feedbench")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	if c.Store.Region == "" {
		return errors.New("config: store.region is required")
	}
	if c.Seed.Users < 0 || c.Seed.Posts < 0 || c.Seed.Comments < 0 || c.Seed.Likes < 0 {
		return errors.New("config: seed counts must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	layout := c.SocialLayout()
	return layout.Validate()
}

// ClientConfig returns the SDK client settings.
func (c *Config) ClientConfig() store.ClientConfig {
	return store.ClientConfig{
		Region:          c.Store.Region,
		Endpoint:        c.Store.Endpoint,
		AccessKeyID:     c.Store.AccessKeyID,
		SecretAccessKey: c.Store.SecretAccessKey,
		Profile:         c.Store.Profile,
		MaxAttempts:     c.Store.MaxAttempts,
	}
}

// StoreConfig returns the store settings for table.
func (c *Config) StoreConfig(table string) store.Config {
	sc := store.DefaultConfig(table)
	if c.Store.PartitionKeyAttr != "" {
		sc.PartitionKeyAttr = c.Store.PartitionKeyAttr
	}
	sc.Overwrite = c.Store.Overwrite
	return sc
}

// SocialLayout returns the table layout.
func (c *Config) SocialLayout() social.Layout {
	return social.Layout{
		UsersTable:    c.Layout.UsersTable,
		PostsTable:    c.Layout.PostsTable,
		TimelineIndex: c.Layout.TimelineIndex,
		NumShards:     c.Layout.NumShards,
	}
}

// Counts returns the workload size.
func (c *Config) Counts() social.Counts {
	return social.Counts{
		Users:    c.Seed.Users,
		Posts:    c.Seed.Posts,
		Comments: c.Seed.Comments,
		Likes:    c.Seed.Likes,
	}
}

// MeasureSettings returns the query chain settings.
func (c *Config) MeasureSettings() social.MeasureConfig {
	return social.MeasureConfig{
		TopPosts:    c.Measure.TopPosts,
		Concurrency: c.Measure.Concurrency,
	}
}
