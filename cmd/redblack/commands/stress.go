package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/pkg/config"
	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/report"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

const (
	stressCmdUse   = "stress"
	stressCmdShort = "Run a randomized workload against the tree and an oracle"
	stressCmdLong  = `Applies a seeded mix of inserts, erases, and lookups to a tree and to a
sorted-slice oracle, validating the red-black invariants every --verify-every
steps. Exits non-zero on the first divergence or invariant violation.`

	seedFlag          = "seed"
	operationsFlag    = "operations"
	keySpaceFlag      = "key-space"
	insertPercentFlag = "insert-percent"
	erasePercentFlag  = "erase-percent"
	verifyEveryFlag   = "verify-every"
	maxNodesFlag      = "max-nodes"
	timeoutFlag       = "timeout"
	formatFlag        = "format"
	metricsFileFlag   = "metrics-file"
)

type stressFlags struct {
	format      string
	metricsFile string
	timeout     time.Duration
	seed        int64
	keySpace    int64
	operations  int
	insertPct   int
	erasePct    int
	verifyEvery int
	maxNodes    int
}

// NewStressCommand creates the stress subcommand.
func NewStressCommand() *cobra.Command {
	var flags stressFlags

	cmd := &cobra.Command{
		Use:   stressCmdUse,
		Short: stressCmdShort,
		Long:  stressCmdLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStress(cmd, &flags)
		},
	}

	fs := cmd.Flags()
	fs.Int64Var(&flags.seed, seedFlag, 0, "PRNG seed")
	fs.IntVar(&flags.operations, operationsFlag, 0, "number of operations to apply")
	fs.Int64Var(&flags.keySpace, keySpaceFlag, 0, "keys are drawn from [0, key-space)")
	fs.IntVar(&flags.insertPct, insertPercentFlag, 0, "percentage of inserts")
	fs.IntVar(&flags.erasePct, erasePercentFlag, 0, "percentage of erases; the rest are lookups")
	fs.IntVar(&flags.verifyEvery, verifyEveryFlag, 0, "full validation interval in steps (0 validates only at the end)")
	fs.IntVar(&flags.maxNodes, maxNodesFlag, 0, "bound on live tree nodes (0 is unbounded)")
	fs.DurationVar(&flags.timeout, timeoutFlag, 0, "abort the run after this long")
	fs.StringVarP(&flags.format, formatFlag, "f", report.FormatTable, "report format: table, json, yaml")
	fs.StringVar(&flags.metricsFile, metricsFileFlag, "", "write Prometheus text metrics to this file")

	return cmd
}

// applyStressFlags overrides configuration values with explicitly set flags.
func applyStressFlags(cmd *cobra.Command, flags *stressFlags, cfg *config.Config) {
	fs := cmd.Flags()
	work := &cfg.Workload

	if fs.Changed(seedFlag) {
		work.Seed = flags.seed
	}

	if fs.Changed(operationsFlag) {
		work.Operations = flags.operations
	}

	if fs.Changed(keySpaceFlag) {
		work.KeySpace = flags.keySpace
	}

	if fs.Changed(insertPercentFlag) {
		work.InsertPercent = flags.insertPct
	}

	if fs.Changed(erasePercentFlag) {
		work.ErasePercent = flags.erasePct
	}

	if fs.Changed(verifyEveryFlag) {
		work.VerifyEvery = flags.verifyEvery
	}

	if fs.Changed(maxNodesFlag) {
		work.MaxNodes = flags.maxNodes
	}

	if fs.Changed(timeoutFlag) {
		work.Timeout = flags.timeout
	}

	if fs.Changed(metricsFileFlag) {
		cfg.Telemetry.MetricsFile = flags.metricsFile
	}
}

func runStress(cmd *cobra.Command, flags *stressFlags) error {
	if !slices.Contains(report.Formats(), flags.format) {
		return fmt.Errorf("%w: %q", report.ErrUnknownFormat, flags.format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	applyStressFlags(cmd, flags, cfg)

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	providers, err := initObservability(cmd, cfg, observability.ModeStress)
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", slog.Any("error", shutdownErr))
		}
	}()

	metrics, err := observability.NewTreeMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Workload.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.Workload.Timeout)
		defer cancel()
	}

	rep, runErr := workload.Run(ctx, workload.FromConfig(cfg.Workload),
		workload.WithLogger(providers.Logger),
		workload.WithMetrics(metrics),
		workload.WithTracer(providers.Tracer),
	)

	if rep != nil {
		writeErr := report.Write(cmd.OutOrStdout(), rep, flags.format)
		if writeErr != nil {
			return errors.Join(runErr, writeErr)
		}
	}

	if cfg.Telemetry.MetricsFile != "" {
		metricsErr := providers.WriteMetricsFile(cfg.Telemetry.MetricsFile)
		if metricsErr != nil {
			return errors.Join(runErr, metricsErr)
		}
	}

	return runErr
}
