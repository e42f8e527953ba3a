package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jacentio/feedbench/social"
)

var (
	flagMeasureTop         int
	flagMeasureConcurrency int
	flagMeasurePosts       bool
)

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Run the feed query chain and report its total cost",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _ := parseFormat(flagOutput)
		mc := cfg.MeasureSettings()
		if cmd.Flags().Changed("top") {
			mc.TopPosts = flagMeasureTop
		}
		if cmd.Flags().Changed("concurrency") {
			mc.Concurrency = flagMeasureConcurrency
		}
		mc.Logger = logger

		ctx := cmd.Context()
		t, err := openTables(ctx, cfg)
		if err != nil {
			return err
		}

		m, err := social.Measure(ctx, t.sources(), cfg.SocialLayout(), mc)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), f, newMeasureView(m, flagMeasurePosts))
	},
}

func init() {
	flags := measureCmd.Flags()
	flags.IntVar(&flagMeasureTop, "top", 0, "number of recent posts to start from (default from config)")
	flags.IntVar(&flagMeasureConcurrency, "concurrency", 0, "posts looked up concurrently (default from config)")
	flags.BoolVar(&flagMeasurePosts, "posts", false, "include per-post summaries in the output")
}

type measureView struct {
	TotalCost float64              `json:"totalCost" yaml:"totalCost"`
	Queries   int                  `json:"queries" yaml:"queries"`
	Pages     int                  `json:"pages" yaml:"pages"`
	Elapsed   string               `json:"elapsed" yaml:"elapsed"`
	PostCount int                  `json:"postCount" yaml:"postCount"`
	Posts     []social.PostSummary `json:"posts,omitempty" yaml:"posts,omitempty"`
}

func newMeasureView(m *social.Measurement, withPosts bool) measureView {
	v := measureView{
		TotalCost: m.TotalCost,
		Queries:   m.Queries,
		Pages:     m.Pages,
		Elapsed:   m.Elapsed.String(),
		PostCount: len(m.Posts),
	}
	if withPosts {
		v.Posts = m.Posts
	}
	return v
}

func (v measureView) writeText(w io.Writer) error {
	for _, p := range v.Posts {
		if _, err := fmt.Fprintf(w, "%s  %-24s comments=%d likes=%d\n", p.PostID, p.Author, p.Comments, p.Likes); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Total request cost: %.2f in %s (%d queries, %d pages, %d posts)\n",
		v.TotalCost, v.Elapsed, v.Queries, v.Pages, v.PostCount)
	return err
}
