package report_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/report"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

func passingReport() *workload.Report {
	return &workload.Report{
		Ops: workload.OpCounts{
			Insert:    2500,
			Erase:     1200,
			EraseMiss: 300,
			Find:      1000,
			FindHit:   600,
		},
		Stats: rbtree.Stats{
			InsertUncleRed:    900,
			InsertOuter:       700,
			InsertInner:       300,
			EraseSiblingBlack: 400,
			Rotations:         1300,
		},
		Seed:          42,
		Operations:    5000,
		Steps:         5000,
		Verifications: 51,
		FinalSize:     1300,
		Duration:      1500 * time.Millisecond,
		Passed:        true,
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, passingReport(), report.FormatTable))

	out := buf.String()
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "5,000 / 5,000")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "3,333 ops/s")
	assert.Contains(t, out, "insert_uncle_red")
	assert.Contains(t, out, "erase_far_child_red")
	assert.Contains(t, out, "1,300")
	assert.Contains(t, out, "PASS: 5,000 steps verified 51 times")
}

func TestWriteTableFailure(t *testing.T) {
	t.Parallel()

	rep := passingReport()
	rep.Passed = false
	rep.Steps = 812
	rep.Divergence = &workload.Divergence{
		Step:   812,
		Op:     "checkpoint",
		Reason: "sorted sequence differs from oracle",
		Diff:   "-17\n",
	}

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, rep, report.FormatTable))

	out := buf.String()
	assert.Contains(t, out, "FAIL at step 812 (checkpoint 0): sorted sequence differs from oracle")
	assert.Contains(t, out, "--- oracle\n+++ tree\n-17\n")
	assert.NotContains(t, out, "PASS")
}

func TestWriteTableInterrupted(t *testing.T) {
	t.Parallel()

	rep := passingReport()
	rep.Passed = false
	rep.Steps = 256

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, rep, report.FormatTable))
	assert.Contains(t, buf.String(), "FAIL: stopped after 256 of 5,000 steps")
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, passingReport(), report.FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, true, decoded["passed"])
	assert.InDelta(t, 1300, decoded["final_size"], 0)

	stats, ok := decoded["stats"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 900, stats["insert_uncle_red"], 0)

	_, hasDivergence := decoded["divergence"]
	assert.False(t, hasDivergence)
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, passingReport(), report.FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, true, decoded["passed"])
	assert.Equal(t, "1.5s", decoded["duration"])
	assert.Equal(t, 42, decoded["seed"])
}

func TestWriteUnknownFormat(t *testing.T) {
	t.Parallel()

	err := report.Write(&bytes.Buffer{}, passingReport(), "xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)
	assert.Contains(t, err.Error(), "table, json, yaml")
}
