// Package handler provides the AWS Lambda entrypoint that runs the measured
// query chain on a schedule.
package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	jsoniter "github.com/json-iterator/go"

	"github.com/jacentio/feedbench/social"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Detail is the optional event detail of a scheduled run. Zero fields keep
// the handler's configured values.
type Detail struct {
	TopPosts    int `json:"topPosts"`
	Concurrency int `json:"concurrency"`
}

// Response summarizes one scheduled measurement.
type Response struct {
	Posts     int     `json:"posts"`
	TotalCost float64 `json:"totalCost"`
	Queries   int     `json:"queries"`
	Pages     int     `json:"pages"`
	ElapsedMS int64   `json:"elapsedMs"`
}

// Handler runs the measured query chain for EventBridge scheduled events.
type Handler struct {
	sources social.Sources
	layout  social.Layout
	config  social.MeasureConfig
	logger  *slog.Logger
}

// NewHandler creates a new scheduled measurement handler.
func NewHandler(sources social.Sources, layout social.Layout, cfg social.MeasureConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Logger = logger
	return &Handler{
		sources: sources,
		layout:  layout,
		config:  cfg,
		logger:  logger,
	}
}

// HandleScheduled measures the query chain once.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleScheduled(ctx context.Context, event events.CloudWatchEvent) (*Response, error) {
	cfg, err := h.configFor(event)
	if err != nil {
		h.logger.Error("invalid event detail",
			"eventID", event.ID,
			"error", err,
		)
		return nil, err
	}

	h.logger.Info("starting scheduled measurement",
		"eventID", event.ID,
		"source", event.Source,
		"topPosts", cfg.TopPosts,
		"concurrency", cfg.Concurrency,
	)

	m, err := social.Measure(ctx, h.sources, h.layout, cfg)
	if err != nil {
		h.logger.Error("measurement failed",
			"eventID", event.ID,
			"error", err,
		)
		return nil, err // Lambda records the failure; the next schedule runs again
	}

	return &Response{
		Posts:     len(m.Posts),
		TotalCost: m.TotalCost,
		Queries:   m.Queries,
		Pages:     m.Pages,
		ElapsedMS: m.Elapsed.Milliseconds(),
	}, nil
}

// configFor applies the event's detail overrides.
func (h *Handler) configFor(event events.CloudWatchEvent) (social.MeasureConfig, error) {
	cfg := h.config
	d, err := parseDetail(event.Detail)
	if err != nil {
		return cfg, err
	}
	if d.TopPosts > 0 {
		cfg.TopPosts = d.TopPosts
	}
	if d.Concurrency > 0 {
		cfg.Concurrency = d.Concurrency
	}
	return cfg, nil
}

func parseDetail(raw []byte) (Detail, error) {
	var d Detail
	if len(raw) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("handler: parse detail: %w", err)
	}
	if d.TopPosts < 0 || d.Concurrency < 0 {
		return d, fmt.Errorf("handler: negative value in detail %s", raw)
	}
	return d, nil
}
