package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacentio/feedbench/bulk"
	"github.com/jacentio/feedbench/social"
)

var (
	flagSeedUsers       int
	flagSeedPosts       int
	flagSeedComments    int
	flagSeedLikes       int
	flagSeedMaxInFlight int
	flagSeedRandom      int64
	flagSeedDiscard     bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate users, posts, comments and likes and bulk insert them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _ := parseFormat(flagOutput)
		applySeedFlags(cmd)

		ctx := cmd.Context()
		t, err := openTables(ctx, cfg)
		if err != nil {
			return err
		}

		randomSeed := cfg.Seed.RandomSeed
		if randomSeed == 0 {
			randomSeed = time.Now().UnixNano()
		}
		data, err := social.NewGenerator(cfg.SocialLayout(), randomSeed, time.Now()).Generate(cfg.Counts())
		if err != nil {
			return err
		}

		opts := []bulk.Option{bulk.WithMaxInFlight(cfg.Seed.MaxInFlight)}
		if flagSeedDiscard {
			opts = append(opts, bulk.WithCancelPolicy(bulk.CancelDiscardSettled))
		}

		report, err := social.Seed(ctx, t.targets(), data, logger, opts...)
		if report != nil {
			if rerr := render(cmd.OutOrStdout(), f, newSeedView(report)); rerr != nil {
				return rerr
			}
		}
		return err
	},
}

func init() {
	flags := seedCmd.Flags()
	flags.IntVar(&flagSeedUsers, "users", 0, "number of users (default from config)")
	flags.IntVar(&flagSeedPosts, "posts", 0, "number of posts (default from config)")
	flags.IntVar(&flagSeedComments, "comments", 0, "number of comments (default from config)")
	flags.IntVar(&flagSeedLikes, "likes", 0, "number of likes (default from config)")
	flags.IntVar(&flagSeedMaxInFlight, "max-in-flight", 0, "concurrent writes per batch, 0 for unbounded (default from config)")
	flags.Int64Var(&flagSeedRandom, "random-seed", 0, "generator seed (default from config, else time based)")
	flags.BoolVar(&flagSeedDiscard, "discard-on-cancel", false, "report every item as canceled when interrupted")
}

// applySeedFlags overrides config values with flags set on the command line.
func applySeedFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("users") {
		cfg.Seed.Users = flagSeedUsers
	}
	if flags.Changed("posts") {
		cfg.Seed.Posts = flagSeedPosts
	}
	if flags.Changed("comments") {
		cfg.Seed.Comments = flagSeedComments
	}
	if flags.Changed("likes") {
		cfg.Seed.Likes = flagSeedLikes
	}
	if flags.Changed("max-in-flight") {
		cfg.Seed.MaxInFlight = flagSeedMaxInFlight
	}
	if flags.Changed("random-seed") {
		cfg.Seed.RandomSeed = flagSeedRandom
	}
}

type stageView struct {
	Name      string        `json:"name" yaml:"name"`
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Canceled  int           `json:"canceled" yaml:"canceled"`
	Cost      float64       `json:"cost" yaml:"cost"`
	Elapsed   string        `json:"elapsed" yaml:"elapsed"`
	Failures  []failureView `json:"failures,omitempty" yaml:"failures,omitempty"`
}

type failureView struct {
	Index     int    `json:"index" yaml:"index"`
	Kind      string `json:"kind" yaml:"kind"`
	Code      string `json:"code,omitempty" yaml:"code,omitempty"`
	Message   string `json:"message" yaml:"message"`
	Retryable bool   `json:"retryable" yaml:"retryable"`
}

type seedView struct {
	Stages []stageView `json:"stages" yaml:"stages"`
	Cost   float64     `json:"cost" yaml:"cost"`
	Failed int         `json:"failed" yaml:"failed"`
}

func newSeedView(r *social.SeedReport) seedView {
	v := seedView{Cost: r.Cost(), Failed: r.Failed()}
	for _, s := range r.Stages() {
		sv := stageView{
			Name:      s.Name,
			Total:     s.Report.Total,
			Succeeded: s.Report.Succeeded,
			Failed:    s.Report.Failed,
			Canceled:  s.Report.Canceled,
			Cost:      s.Report.Cost,
			Elapsed:   s.Report.Elapsed.String(),
		}
		for _, f := range s.Report.Failures {
			sv.Failures = append(sv.Failures, failureView{
				Index:     f.Index,
				Kind:      f.Kind.String(),
				Code:      f.Code,
				Message:   f.Message,
				Retryable: f.Retryable,
			})
		}
		v.Stages = append(v.Stages, sv)
	}
	return v
}

func (v seedView) writeText(w io.Writer) error {
	for _, s := range v.Stages {
		if _, err := fmt.Fprintf(w, "%-9s total=%d succeeded=%d failed=%d canceled=%d cost=%.2f elapsed=%s\n",
			s.Name, s.Total, s.Succeeded, s.Failed, s.Canceled, s.Cost, s.Elapsed); err != nil {
			return err
		}
		for _, f := range s.Failures {
			if _, err := fmt.Fprintf(w, "  item %d: %s %s: %s\n", f.Index, f.Kind, f.Code, f.Message); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "total cost %.2f, %d failed\n", v.Cost, v.Failed)
	return err
}
