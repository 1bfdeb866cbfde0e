package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/pkg/keycodec"
	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
)

const (
	sortCmdUse   = "sort [keys...]"
	sortCmdShort = "Sort unsigned integer keys through the tree"
	sortCmdLong  = `Inserts every key into a red-black tree and prints the in-order sequence.
Keys come from the arguments, from a --input file in the compressed key
format, or from whitespace-separated standard input.`

	limitFlag    = "limit"
	outputFlag   = "output"
	outputShort  = "o"
	inputFlag    = "input"
	compressFlag = "compress"

	outputPerm = 0o640
)

// ErrCompressNeedsOutput is returned when --compress is used without --output.
var ErrCompressNeedsOutput = errors.New("compressed output requires --output")

// ErrBadKey is returned for input that is not an unsigned 32-bit integer.
var ErrBadKey = errors.New("invalid key")

type sortFlags struct {
	output   string
	input    string
	limit    int
	compress bool
}

// NewSortCommand creates the sort subcommand.
func NewSortCommand() *cobra.Command {
	var flags sortFlags

	cmd := &cobra.Command{
		Use:   sortCmdUse,
		Short: sortCmdShort,
		Long:  sortCmdLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.compress && flags.output == "" {
				return ErrCompressNeedsOutput
			}

			return runSort(cmd, args, &flags)
		},
	}

	cmd.Flags().IntVar(&flags.limit, limitFlag, 0, "maximum number of keys to emit (0 emits all)")
	cmd.Flags().StringVarP(&flags.output, outputFlag, outputShort, "", "write the sorted keys to this file")
	cmd.Flags().StringVar(&flags.input, inputFlag, "", "read keys from a file in the compressed key format")
	cmd.Flags().BoolVar(&flags.compress, compressFlag, false, "write --output in the compressed key format")

	return cmd
}

func runSort(cmd *cobra.Command, args []string, flags *sortFlags) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := initObservability(cmd, cfg, observability.ModeSort)
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", slog.Any("error", shutdownErr))
		}
	}()

	keys, err := collectKeys(cmd.InOrStdin(), args, flags.input)
	if err != nil {
		return err
	}

	sorted, stats, err := sortKeys(keys, flags.limit)
	if err != nil {
		return err
	}

	providers.Logger.Debug("keys sorted",
		slog.Int("input", len(keys)),
		slog.Int("emitted", len(sorted)),
		slog.Uint64("rotations", stats.Rotations),
	)

	if flags.output == "" {
		return writeKeys(cmd.OutOrStdout(), sorted)
	}

	return writeOutput(flags.output, sorted, flags.compress)
}

// sortKeys pushes keys through a tree and exports at most limit of them.
// A non-positive limit exports every key.
func sortKeys(keys []uint32, limit int) ([]uint32, rbtree.Stats, error) {
	tree, err := rbtree.New[uint32](rbtree.WithCapacity(len(keys)))
	if err != nil {
		return nil, rbtree.Stats{}, fmt.Errorf("create tree: %w", err)
	}

	defer tree.Destroy()

	for _, key := range keys {
		_, err = tree.Insert(key)
		if err != nil {
			return nil, rbtree.Stats{}, fmt.Errorf("insert %d: %w", key, err)
		}
	}

	if limit <= 0 {
		limit = tree.Len()
	}

	return tree.ToSortedSequence(limit), tree.Stats(), nil
}

func collectKeys(stdin io.Reader, args []string, input string) ([]uint32, error) {
	if input != "" {
		return readCompressed(input)
	}

	if len(args) > 0 {
		return parseKeys(args)
	}

	var fields []string

	scanner := bufio.NewScanner(stdin)
	scanner.Split(bufio.ScanWords)

	for scanner.Scan() {
		fields = append(fields, scanner.Text())
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}

	return parseKeys(fields)
}

func parseKeys(fields []string) ([]uint32, error) {
	keys := make([]uint32, 0, len(fields))

	for _, field := range fields {
		value, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadKey, field)
		}

		keys = append(keys, uint32(value))
	}

	return keys, nil
}

func readCompressed(path string) ([]uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	keys, err := keycodec.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return keys, nil
}

func writeKeys(w io.Writer, keys []uint32) error {
	bw := bufio.NewWriter(w)

	for _, key := range keys {
		_, err := bw.WriteString(strconv.FormatUint(uint64(key), 10) + "\n")
		if err != nil {
			return fmt.Errorf("write keys: %w", err)
		}
	}

	err := bw.Flush()
	if err != nil {
		return fmt.Errorf("write keys: %w", err)
	}

	return nil
}

func writeOutput(path string, keys []uint32, compress bool) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputPerm)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if compress {
		err = keycodec.Encode(file, keys)
	} else {
		err = writeKeys(file, keys)
	}

	closeErr := file.Close()

	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	return nil
}
