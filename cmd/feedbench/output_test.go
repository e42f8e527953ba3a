package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/feedbench/bulk"
	"github.com/jacentio/feedbench/social"
	"github.com/jacentio/feedbench/store"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    format
		wantErr bool
	}{
		{"", formatText, false},
		{"text", formatText, false},
		{"YAML", formatYAML, false},
		{"yml", formatYAML, false},
		{"json", formatJSON, false},
		{"xml", formatText, true},
	}
	for _, tt := range tests {
		got, err := parseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func sampleSeedReport() *social.SeedReport {
	return &social.SeedReport{
		Users: &bulk.Report{Total: 2, Succeeded: 2, Cost: 2, Elapsed: time.Second},
		Posts: &bulk.Report{
			Total: 3, Succeeded: 2, Failed: 1, Cost: 2,
			Failures: []bulk.Failure{{
				Index: 1, Kind: store.KindThrottled, Code: "ThrottlingException",
				Message: "rate exceeded", StoreReported: true, Retryable: true,
			}},
		},
	}
}

func TestRender_SeedText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatText, newSeedView(sampleSeedReport())))

	out := buf.String()
	assert.Contains(t, out, "users     total=2 succeeded=2 failed=0 canceled=0 cost=2.00 elapsed=1s")
	assert.Contains(t, out, "item 1: Throttled ThrottlingException: rate exceeded")
	assert.Contains(t, out, "total cost 4.00, 1 failed")
}

func TestRender_SeedYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatYAML, newSeedView(sampleSeedReport())))

	out := buf.String()
	assert.Contains(t, out, "stages:")
	assert.Contains(t, out, "name: posts")
	assert.Contains(t, out, "code: ThrottlingException")
	assert.Contains(t, out, "retryable: true")
}

func TestRender_SeedJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatJSON, newSeedView(sampleSeedReport())))

	var decoded seedView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, newSeedView(sampleSeedReport()), decoded)
}

func TestRender_Measure(t *testing.T) {
	m := &social.Measurement{
		Posts:     []social.PostSummary{{PostID: "p1", Author: "river_onyx1", Comments: 2, Likes: 3}},
		TotalCost: 1.5,
		Queries:   4,
		Pages:     4,
		Elapsed:   250 * time.Millisecond,
	}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatText, newMeasureView(m, false)))
	assert.Equal(t, "Total request cost: 1.50 in 250ms (4 queries, 4 pages, 1 posts)\n", buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, formatText, newMeasureView(m, true)))
	assert.Contains(t, buf.String(), "river_onyx1")

	buf.Reset()
	require.NoError(t, render(&buf, formatJSON, newMeasureView(m, false)))
	assert.Contains(t, buf.String(), `"totalCost": 1.5`)
	assert.NotContains(t, buf.String(), `"posts"`)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRender_WriteError(t *testing.T) {
	assert.Error(t, render(failingWriter{}, formatText, newSeedView(sampleSeedReport())))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "feedbench dev\n", buf.String())
}
