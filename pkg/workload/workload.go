// Package workload drives a red-black tree with a seeded random mix of
// inserts, erases, and lookups, and checks every step against a sorted
// multiset oracle.
package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/redblack/pkg/config"
	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
)

// Errors returned by Run.
var (
	ErrInvalidOptions = errors.New("invalid workload options")
	ErrDivergence     = errors.New("tree diverged from oracle")
	ErrInvariant      = errors.New("tree invariant violated")
)

// Operation kinds.
const (
	OpInsert = "insert"
	OpErase  = "erase"
	OpFind   = "find"
)

const (
	maxPercent       = 100
	maxKeySpace      = 1 << 32
	cancelCheckEvery = 256

	statusPass   = "pass"
	statusFail   = "fail"
	statusCancel = "cancelled"
)

// Options configures one workload run.
type Options struct {
	Seed          int64
	Operations    int
	KeySpace      int64
	InsertPercent int
	ErasePercent  int

	// VerifyEvery runs a full check after every N steps. Zero checks only at the end.
	VerifyEvery int

	// MaxNodes bounds the tree store. Zero means unbounded.
	MaxNodes int
}

// FromConfig converts the workload section of the configuration.
func FromConfig(cfg config.WorkloadConfig) Options {
	return Options{
		Seed:          cfg.Seed,
		Operations:    cfg.Operations,
		KeySpace:      cfg.KeySpace,
		InsertPercent: cfg.InsertPercent,
		ErasePercent:  cfg.ErasePercent,
		VerifyEvery:   cfg.VerifyEvery,
		MaxNodes:      cfg.MaxNodes,
	}
}

func (opts Options) validate() error {
	switch {
	case opts.Operations <= 0:
		return fmt.Errorf("%w: operations %d", ErrInvalidOptions, opts.Operations)
	case opts.KeySpace <= 0 || opts.KeySpace > maxKeySpace:
		return fmt.Errorf("%w: key space %d", ErrInvalidOptions, opts.KeySpace)
	case opts.InsertPercent < 0 || opts.ErasePercent < 0 || opts.InsertPercent+opts.ErasePercent > maxPercent:
		return fmt.Errorf("%w: mix %d/%d", ErrInvalidOptions, opts.InsertPercent, opts.ErasePercent)
	case opts.VerifyEvery < 0:
		return fmt.Errorf("%w: verify every %d", ErrInvalidOptions, opts.VerifyEvery)
	case opts.MaxNodes < 0:
		return fmt.Errorf("%w: max nodes %d", ErrInvalidOptions, opts.MaxNodes)
	}

	return nil
}

// OpCounts tallies the operations a run applied.
type OpCounts struct {
	Insert         uint64 `json:"insert"          yaml:"insert"`
	InsertRejected uint64 `json:"insert_rejected" yaml:"insert_rejected"`
	Erase          uint64 `json:"erase"           yaml:"erase"`
	EraseMiss      uint64 `json:"erase_miss"      yaml:"erase_miss"`
	Find           uint64 `json:"find"            yaml:"find"`
	FindHit        uint64 `json:"find_hit"        yaml:"find_hit"`
}

// Divergence describes the first failed check of a run. Step counts from one:
// it is the failing operation, or the number of operations applied before a failed verification.
type Divergence struct {
	Step   int    `json:"step"           yaml:"step"`
	Op     string `json:"op"             yaml:"op"`
	Key    uint32 `json:"key"            yaml:"key"`
	Reason string `json:"reason"         yaml:"reason"`
	Diff   string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Report summarizes a run.
type Report struct {
	Divergence    *Divergence   `json:"divergence,omitempty" yaml:"divergence,omitempty"`
	Ops           OpCounts      `json:"ops"                  yaml:"ops"`
	Stats         rbtree.Stats  `json:"stats"                yaml:"stats"`
	Seed          int64         `json:"seed"                 yaml:"seed"`
	Operations    int           `json:"operations"           yaml:"operations"`
	Steps         int           `json:"steps"                yaml:"steps"`
	Verifications int           `json:"verifications"        yaml:"verifications"`
	FinalSize     int           `json:"final_size"           yaml:"final_size"`
	Duration      time.Duration `json:"duration"             yaml:"duration"`
	Passed        bool          `json:"passed"               yaml:"passed"`
}

// Option configures the collaborators of a run.
type Option func(*runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) { r.logger = logger }
}

// WithMetrics records the run into metrics.
func WithMetrics(metrics *observability.TreeMetrics) Option {
	return func(r *runner) { r.metrics = metrics }
}

// WithTracer wraps the run in a span from tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *runner) { r.tracer = tracer }
}

type runner struct {
	logger  *slog.Logger
	metrics *observability.TreeMetrics
	tracer  trace.Tracer
	tree    *rbtree.Tree[uint32]
	orc     *oracle
	rng     *rand.Rand
	report  *Report
	opts    Options
}

// Run executes the workload. The returned report is always non-nil once the
// options are valid, even when Run also returns an error.
func Run(ctx context.Context, opts Options, runOpts ...Option) (*Report, error) {
	err := opts.validate()
	if err != nil {
		return nil, err
	}

	tree, err := rbtree.New[uint32](rbtree.WithMaxNodes(opts.MaxNodes))
	if err != nil {
		return nil, fmt.Errorf("create tree: %w", err)
	}

	run := &runner{
		logger: slog.New(slog.DiscardHandler),
		tracer: nooptrace.NewTracerProvider().Tracer(""),
		tree:   tree,
		orc:    newOracle(),
		rng:    rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)^0x9e3779b97f4a7c15)), //nolint:gosec // reproducible, not secret.
		report: &Report{Seed: opts.Seed, Operations: opts.Operations},
		opts:   opts,
	}

	for _, apply := range runOpts {
		apply(run)
	}

	return run.execute(ctx)
}

func (r *runner) execute(ctx context.Context) (*Report, error) {
	ctx, span := r.tracer.Start(ctx, "workload.run", trace.WithAttributes(
		attribute.Int64("workload.seed", r.opts.Seed),
		attribute.Int("workload.operations", r.opts.Operations),
		attribute.Int64("workload.key_space", r.opts.KeySpace),
	))
	defer span.End()

	r.logger.InfoContext(ctx, "workload started",
		slog.Int64("seed", r.opts.Seed),
		slog.Int("operations", r.opts.Operations),
		slog.Int64("key_space", r.opts.KeySpace),
	)

	start := time.Now()
	err := r.loop(ctx)

	if err == nil {
		err = r.verify(ctx, r.report.Steps, "final", 0)
	}

	r.report.Duration = time.Since(start)
	r.report.Stats = r.tree.Stats()
	r.report.FinalSize = r.tree.Len()
	r.report.Passed = err == nil

	// A tree that failed validation may hold cycles; leave it to the collector.
	if !errors.Is(err, ErrInvariant) {
		r.tree.Destroy()
	}

	status := statusPass

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = statusCancel
	case err != nil:
		status = statusFail
	}

	r.record(ctx, status)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		r.logger.ErrorContext(ctx, "workload failed", slog.Int("step", r.report.Steps), slog.Any("error", err))

		return r.report, err
	}

	r.logger.InfoContext(ctx, "workload finished",
		slog.Int("steps", r.report.Steps),
		slog.Int("final_size", r.report.FinalSize),
		slog.Duration("duration", r.report.Duration),
	)

	return r.report, nil
}

func (r *runner) loop(ctx context.Context) error {
	for step := range r.opts.Operations {
		if step%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("workload interrupted at step %d: %w", step, err)
			}
		}

		err := r.step(step + 1)
		if err != nil {
			return err
		}

		r.report.Steps = step + 1

		if r.opts.VerifyEvery > 0 && r.report.Steps%r.opts.VerifyEvery == 0 {
			err = r.verify(ctx, r.report.Steps, "checkpoint", 0)
			if err != nil {
				return err
			}

			r.logger.DebugContext(ctx, "checkpoint verified",
				slog.Int("step", r.report.Steps),
				slog.Int("size", r.tree.Len()),
			)
		}
	}

	return nil
}

// step applies one random operation to the tree and the oracle.
func (r *runner) step(step int) error {
	key := uint32(r.rng.Uint64N(uint64(r.opts.KeySpace))) //nolint:gosec // key space is at most 1<<32.
	roll := r.rng.IntN(maxPercent)

	switch {
	case roll < r.opts.InsertPercent:
		return r.insert(step, key)
	case roll < r.opts.InsertPercent+r.opts.ErasePercent:
		return r.erase(step, key)
	default:
		return r.find(step, key)
	}
}

func (r *runner) insert(step int, key uint32) error {
	_, err := r.tree.Insert(key)
	if errors.Is(err, rbtree.ErrAllocation) {
		r.report.Ops.InsertRejected++

		return nil
	}

	if err != nil {
		return r.diverge(step, OpInsert, key, err.Error(), ErrDivergence)
	}

	r.orc.insert(key)
	r.report.Ops.Insert++

	return r.checkLen(step, OpInsert, key)
}

func (r *runner) erase(step int, key uint32) error {
	ref, found := r.tree.Find(key)
	want := r.orc.erase(key)

	if found != want {
		return r.diverge(step, OpErase, key, fmt.Sprintf("tree found %t, oracle found %t", found, want), ErrDivergence)
	}

	if !found {
		r.report.Ops.EraseMiss++

		return nil
	}

	err := r.tree.Erase(ref)
	if err != nil {
		return r.diverge(step, OpErase, key, err.Error(), ErrDivergence)
	}

	r.report.Ops.Erase++

	return r.checkLen(step, OpErase, key)
}

func (r *runner) find(step int, key uint32) error {
	ref, found := r.tree.Find(key)
	want := r.orc.contains(key)

	if found != want {
		return r.diverge(step, OpFind, key, fmt.Sprintf("tree found %t, oracle found %t", found, want), ErrDivergence)
	}

	r.report.Ops.Find++

	if !found {
		return nil
	}

	r.report.Ops.FindHit++

	if got, ok := r.tree.Key(ref); !ok || got != key {
		return r.diverge(step, OpFind, key, fmt.Sprintf("handle resolves to %d", got), ErrDivergence)
	}

	return nil
}

func (r *runner) checkLen(step int, op string, key uint32) error {
	if r.tree.Len() == r.orc.len() {
		return nil
	}

	reason := fmt.Sprintf("tree holds %d keys, oracle %d", r.tree.Len(), r.orc.len())

	return r.diverge(step, op, key, reason, ErrDivergence)
}

// verify validates the tree invariants and compares the full sorted export with the oracle.
func (r *runner) verify(ctx context.Context, step int, op string, key uint32) error {
	r.report.Verifications++

	err := r.tree.Validate()
	if err != nil {
		r.recordFailure(ctx, "invariant")

		return r.diverge(step, op, key, err.Error(), ErrInvariant)
	}

	got := r.tree.ToSortedSequence(r.tree.Len())
	if slices.Equal(got, r.orc.keys) {
		return nil
	}

	r.recordFailure(ctx, "oracle")

	div := r.divergence(step, op, key, "sorted sequence differs from oracle")
	div.Diff = sequenceDiff(r.orc.keys, got)

	return fmt.Errorf("%w at step %d: %s", ErrDivergence, step, div.Reason)
}

func (r *runner) diverge(step int, op string, key uint32, reason string, kind error) error {
	r.divergence(step, op, key, reason)

	return fmt.Errorf("%w at step %d (%s %d): %s", kind, step, op, key, reason)
}

func (r *runner) divergence(step int, op string, key uint32, reason string) *Divergence {
	div := &Divergence{Step: step, Op: op, Key: key, Reason: reason}
	r.report.Divergence = div

	return div
}

func (r *runner) recordFailure(ctx context.Context, reason string) {
	if r.metrics != nil {
		r.metrics.RecordVerifyFailure(ctx, reason)
	}
}

func (r *runner) record(ctx context.Context, status string) {
	if r.metrics == nil {
		return
	}

	ops := r.report.Ops
	r.metrics.RecordOps(ctx, OpInsert, ops.Insert)
	r.metrics.RecordOps(ctx, OpErase, ops.Erase)
	r.metrics.RecordOps(ctx, OpFind, ops.Find)
	r.metrics.RecordFixups(ctx, r.report.Stats.Cases(), r.report.Stats.Rotations)
	r.metrics.RecordSize(ctx, r.report.FinalSize)
	r.metrics.RecordRun(ctx, status, r.report.Duration)
}
