package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/feedbench/internal/config"
	"github.com/jacentio/feedbench/social"
	"github.com/jacentio/feedbench/store"
)

// Global flag values.
var (
	flagConfig  string
	flagEnvFile string
	flagOutput  string
)

// Loaded by PersistentPreRunE for every command but version.
var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "feedbench",
	Short:         "Seed a feed workload into DynamoDB and measure its query cost",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if _, err := parseFormat(flagOutput); err != nil {
			return err
		}

		c, err := config.Load(flagConfig, flagEnvFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		logger = cfg.Log.Logger(os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./feedbench.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text, yaml or json")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(measureCmd)
}

// tables holds a Store per table.
type tables struct {
	users *store.Store
	posts *store.Store
}

// openTables connects to DynamoDB and binds a Store to each table.
func openTables(ctx context.Context, c *config.Config) (*tables, error) {
	client, err := store.NewClient(ctx, c.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	layout := c.SocialLayout()
	users, err := store.New(client, c.StoreConfig(layout.UsersTable))
	if err != nil {
		return nil, err
	}
	posts, err := store.New(client, c.StoreConfig(layout.PostsTable))
	if err != nil {
		return nil, err
	}
	return &tables{users: users, posts: posts}, nil
}

func (t *tables) targets() social.Targets {
	return social.Targets{Users: t.users, Posts: t.posts}
}

func (t *tables) sources() social.Sources {
	return social.Sources{Users: t.users, Posts: t.posts}
}
