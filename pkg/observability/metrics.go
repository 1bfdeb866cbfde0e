package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
)

const (
	metricOpsTotal            = "redblack.ops.total"
	metricFixupsTotal         = "redblack.fixups.total"
	metricRotationsTotal      = "redblack.rotations.total"
	metricVerifyFailuresTotal = "redblack.verify.failures.total"
	metricTreeSize            = "redblack.tree.size"
	metricRunDuration         = "redblack.run.duration.seconds"

	attrOp     = "op"
	attrCase   = "case"
	attrReason = "reason"
	attrStatus = "status"
)

// durationBucketBoundaries spans quick smoke runs up to long soak runs.
var durationBucketBoundaries = []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900}

// TreeMetrics holds the OTel instruments describing tree activity.
type TreeMetrics struct {
	opsTotal       metric.Int64Counter
	fixupsTotal    metric.Int64Counter
	rotationsTotal metric.Int64Counter
	verifyFailures metric.Int64Counter
	treeSize       metric.Int64Gauge
	runDuration    metric.Float64Histogram
}

// NewTreeMetrics creates the tree instruments from the given meter.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	ops, err := mt.Int64Counter(metricOpsTotal,
		metric.WithDescription("Tree operations performed"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOpsTotal, err)
	}

	fixups, err := mt.Int64Counter(metricFixupsTotal,
		metric.WithDescription("Rebalancing fixup iterations by case"),
		metric.WithUnit("{iteration}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFixupsTotal, err)
	}

	rotations, err := mt.Int64Counter(metricRotationsTotal,
		metric.WithDescription("Tree rotations performed"),
		metric.WithUnit("{rotation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRotationsTotal, err)
	}

	failures, err := mt.Int64Counter(metricVerifyFailuresTotal,
		metric.WithDescription("Failed invariant or oracle checks"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricVerifyFailuresTotal, err)
	}

	size, err := mt.Int64Gauge(metricTreeSize,
		metric.WithDescription("Live nodes in the tree"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeSize, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Workload run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	return &TreeMetrics{
		opsTotal:       ops,
		fixupsTotal:    fixups,
		rotationsTotal: rotations,
		verifyFailures: failures,
		treeSize:       size,
		runDuration:    duration,
	}, nil
}

// RecordOps adds count operations of kind op.
func (tm *TreeMetrics) RecordOps(ctx context.Context, op string, count uint64) {
	if count == 0 {
		return
	}

	tm.opsTotal.Add(ctx, safeconv.SaturateUint64ToInt64(count), metric.WithAttributes(attribute.String(attrOp, op)))
}

// RecordFixups adds per-case fixup counts and the rotation count.
func (tm *TreeMetrics) RecordFixups(ctx context.Context, cases map[string]uint64, rotations uint64) {
	for name, count := range cases {
		if count == 0 {
			continue
		}

		tm.fixupsTotal.Add(ctx, safeconv.SaturateUint64ToInt64(count), metric.WithAttributes(attribute.String(attrCase, name)))
	}

	if rotations > 0 {
		tm.rotationsTotal.Add(ctx, safeconv.SaturateUint64ToInt64(rotations))
	}
}

// RecordVerifyFailure counts one failed check.
func (tm *TreeMetrics) RecordVerifyFailure(ctx context.Context, reason string) {
	tm.verifyFailures.Add(ctx, 1, metric.WithAttributes(attribute.String(attrReason, reason)))
}

// RecordSize records the live node count.
func (tm *TreeMetrics) RecordSize(ctx context.Context, size int) {
	tm.treeSize.Record(ctx, int64(size))
}

// RecordRun records a finished run with its outcome.
func (tm *TreeMetrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	tm.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrStatus, status)))
}
