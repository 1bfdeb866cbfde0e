// Package report renders workload reports for terminals and machines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatYAML}
}

// Write renders rep to w in the given format.
func Write(w io.Writer, rep *workload.Report, format string) error {
	switch format {
	case FormatTable:
		return writeTable(w, rep)
	case FormatJSON:
		return writeJSON(w, rep)
	case FormatYAML:
		return writeYAML(w, rep)
	default:
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

func writeJSON(w io.Writer, rep *workload.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(rep)
	if err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, rep *workload.Report) error {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write yaml report: %w", err)
	}

	return nil
}

func writeTable(w io.Writer, rep *workload.Report) error {
	sections := []string{
		summaryTable(rep),
		operationsTable(rep.Ops),
		fixupsTable(rep),
	}

	_, err := fmt.Fprintln(w, strings.Join(sections, "\n\n"))
	if err != nil {
		return fmt.Errorf("write table report: %w", err)
	}

	if rep.Passed {
		_, err = color.New(color.FgGreen).Fprintf(w, "PASS: %s steps verified %d times\n",
			humanize.Comma(int64(rep.Steps)), rep.Verifications)
	} else {
		err = writeFailure(w, rep)
	}

	if err != nil {
		return fmt.Errorf("write table report: %w", err)
	}

	return nil
}

func writeFailure(w io.Writer, rep *workload.Report) error {
	div := rep.Divergence
	if div == nil {
		_, err := color.New(color.FgYellow).Fprintf(w, "FAIL: stopped after %s of %s steps\n",
			humanize.Comma(int64(rep.Steps)), humanize.Comma(int64(rep.Operations)))
		if err != nil {
			return fmt.Errorf("write verdict: %w", err)
		}

		return nil
	}

	_, err := color.New(color.FgRed).Fprintf(w, "FAIL at step %d (%s %d): %s\n", div.Step, div.Op, div.Key, div.Reason)
	if err != nil {
		return fmt.Errorf("write verdict: %w", err)
	}

	if div.Diff == "" {
		return nil
	}

	_, err = fmt.Fprintf(w, "--- oracle\n+++ tree\n%s", div.Diff)
	if err != nil {
		return fmt.Errorf("write diff: %w", err)
	}

	return nil
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

func summaryTable(rep *workload.Report) string {
	tbl := newTable("Summary")

	rate := 0.0
	if seconds := rep.Duration.Seconds(); seconds > 0 {
		rate = float64(rep.Steps) / seconds
	}

	tbl.AppendRows([]table.Row{
		{"Seed", rep.Seed},
		{"Steps", humanize.Comma(int64(rep.Steps)) + " / " + humanize.Comma(int64(rep.Operations))},
		{"Verifications", humanize.Comma(int64(rep.Verifications))},
		{"Final size", humanize.Comma(int64(rep.FinalSize))},
		{"Duration", rep.Duration.String()},
		{"Throughput", humanize.CommafWithDigits(rate, 0) + " ops/s"},
	})

	return tbl.Render()
}

func operationsTable(ops workload.OpCounts) string {
	tbl := newTable("Operations")
	tbl.AppendHeader(table.Row{"Operation", "Applied", "Missed"})
	tbl.AppendRows([]table.Row{
		{workload.OpInsert, comma(ops.Insert), comma(ops.InsertRejected)},
		{workload.OpErase, comma(ops.Erase), comma(ops.EraseMiss)},
		{workload.OpFind, comma(ops.FindHit), comma(ops.Find - ops.FindHit)},
	})

	return tbl.Render()
}

func fixupsTable(rep *workload.Report) string {
	tbl := newTable("Rebalancing")
	tbl.AppendHeader(table.Row{"Case", "Count"})

	cases := rep.Stats.Cases()

	names := make([]string, 0, len(cases))
	for name := range cases {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		tbl.AppendRow(table.Row{name, comma(cases[name])})
	}

	tbl.AppendFooter(table.Row{"rotations", comma(rep.Stats.Rotations)})

	return tbl.Render()
}

func comma(count uint64) string {
	return humanize.Comma(safeconv.SaturateUint64ToInt64(count))
}
