package store

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ClientConfig holds configuration for creating a DynamoDB client.
type ClientConfig struct {
	// Region is the AWS region. Required.
	Region string

	// Endpoint is an optional custom endpoint URL.
	// Example: "http://localhost:8000" for DynamoDB Local.
	Endpoint string

	// AccessKeyID and SecretAccessKey select static credentials.
	// When empty, the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// Profile is an optional shared config profile name.
	Profile string

	// MaxAttempts overrides the SDK retryer's attempt count (0 = SDK default).
	// Retries of throttled requests happen here, below the bulk loader.
	MaxAttempts int
}

// NewClient creates a DynamoDB client with the given configuration.
//
// For DynamoDB Local:
//
//	client, err := store.NewClient(ctx, store.ClientConfig{
//	    Region:          "us-east-1",
//	    Endpoint:        "http://localhost:8000",
//	    AccessKeyID:     "local",
//	    SecretAccessKey: "local",
//	})
func NewClient(ctx context.Context, cfg ClientConfig) (*dynamodb.Client, error) {
	if cfg.Region == "" {
		return nil, errors.New("store: region is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	var ddbOpts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		ddbOpts = append(ddbOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return dynamodb.NewFromConfig(awsCfg, ddbOpts...), nil
}
