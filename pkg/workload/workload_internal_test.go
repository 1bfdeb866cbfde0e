package workload //nolint:testpackage // tests tamper with the oracle.

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
)

func newTestRunner(t *testing.T, keys ...uint32) *runner {
	t.Helper()

	tree, err := rbtree.New[uint32]()
	require.NoError(t, err)

	run := &runner{
		tree:   tree,
		orc:    newOracle(),
		rng:    rand.New(rand.NewPCG(1, 2)),
		report: &Report{},
		opts:   Options{Operations: 1, KeySpace: 100, InsertPercent: 50, ErasePercent: 50},
	}

	for _, key := range keys {
		require.NoError(t, run.insert(0, key))
	}

	return run
}

func TestVerifyReportsOracleDiff(t *testing.T) {
	t.Parallel()

	run := newTestRunner(t, 1, 2, 3)
	run.orc.insert(9)

	err := run.verify(context.Background(), 7, "checkpoint", 0)
	require.ErrorIs(t, err, ErrDivergence)

	div := run.report.Divergence
	require.NotNil(t, div)
	assert.Equal(t, 7, div.Step)
	assert.Equal(t, "-9\n", div.Diff)
}

func TestCheckpointStepMatchesFinal(t *testing.T) {
	t.Parallel()

	// Only lookups of key 0, so the planted key 5 survives until the first check.
	run := newTestRunner(t)
	run.opts = Options{Operations: 10, KeySpace: 1, VerifyEvery: 3}
	run.orc.insert(5)

	err := run.loop(context.Background())
	require.ErrorIs(t, err, ErrDivergence)
	assert.Equal(t, 3, run.report.Steps)
	assert.Equal(t, run.report.Steps, run.report.Divergence.Step)

	final := newTestRunner(t)
	final.opts = Options{Operations: 3, KeySpace: 1}
	final.orc.insert(5)

	require.NoError(t, final.loop(context.Background()))
	require.ErrorIs(t, final.verify(context.Background(), final.report.Steps, "final", 0), ErrDivergence)
	assert.Equal(t, run.report.Divergence.Step, final.report.Divergence.Step)
}

func TestFindDivergence(t *testing.T) {
	t.Parallel()

	run := newTestRunner(t, 4)
	run.orc.insert(5)

	err := run.find(3, 5)
	require.ErrorIs(t, err, ErrDivergence)
	assert.Equal(t, OpFind, run.report.Divergence.Op)
	assert.Equal(t, uint32(5), run.report.Divergence.Key)
}

func TestEraseDivergence(t *testing.T) {
	t.Parallel()

	run := newTestRunner(t, 4)
	require.True(t, run.orc.erase(4))

	err := run.erase(1, 4)
	require.ErrorIs(t, err, ErrDivergence)
	assert.Contains(t, run.report.Divergence.Reason, "tree found true, oracle found false")
}

func TestEraseMissCounts(t *testing.T) {
	t.Parallel()

	run := newTestRunner(t, 4)

	require.NoError(t, run.erase(0, 8))
	require.NoError(t, run.erase(1, 4))

	assert.Equal(t, uint64(1), run.report.Ops.EraseMiss)
	assert.Equal(t, uint64(1), run.report.Ops.Erase)
	assert.Equal(t, 0, run.tree.Len())
}

func TestSequenceDiff(t *testing.T) {
	t.Parallel()

	assert.Empty(t, sequenceDiff([]uint32{1, 2, 3}, []uint32{1, 2, 3}))
	assert.Equal(t, "-2\n+4\n", sequenceDiff([]uint32{1, 2, 3}, []uint32{1, 3, 4}))

	want := make([]uint32, 100)
	for i := range want {
		want[i] = uint32(i)
	}

	out := sequenceDiff(want, nil)
	assert.Equal(t, "-0\n", out[:3])
	assert.Contains(t, out, "-39\n...\n")
	assert.NotContains(t, out, "-40")
}
