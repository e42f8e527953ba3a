// Package main is the Lambda binary that runs the measured query chain on a schedule.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/feedbench/handler"
	"github.com/jacentio/feedbench/internal/config"
	"github.com/jacentio/feedbench/social"
	"github.com/jacentio/feedbench/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("FEEDBENCH_CONFIG"), "")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Log.Logger(os.Stdout)

	ctx := context.Background()
	client, err := store.NewClient(ctx, cfg.ClientConfig())
	if err != nil {
		logger.Error("create client", "error", err)
		os.Exit(1)
	}

	layout := cfg.SocialLayout()
	users, err := store.New(client, cfg.StoreConfig(layout.UsersTable))
	if err != nil {
		logger.Error("users store", "error", err)
		os.Exit(1)
	}
	posts, err := store.New(client, cfg.StoreConfig(layout.PostsTable))
	if err != nil {
		logger.Error("posts store", "error", err)
		os.Exit(1)
	}

	h := handler.NewHandler(social.Sources{Users: users, Posts: posts}, layout, cfg.MeasureSettings(), logger)
	lambda.Start(h.HandleScheduled)
}
