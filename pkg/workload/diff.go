package workload

import (
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxDiffLines bounds the rendered diff so a badly broken tree does not flood the report.
const maxDiffLines = 40

// sequenceDiff renders the line diff between the expected and actual key
// sequences. Removed keys are prefixed with "-", unexpected keys with "+".
// Returns "" when the sequences match.
func sequenceDiff(want, got []uint32) string {
	dmp := diffmatchpatch.New()

	wantChars, gotChars, lines := dmp.DiffLinesToChars(joinKeys(want), joinKeys(got))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(wantChars, gotChars, false), lines)

	var (
		out     strings.Builder
		written int
	)

	for _, d := range diffs {
		var prefix string

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffEqual:
			continue
		}

		for line := range strings.SplitSeq(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if written == maxDiffLines {
				out.WriteString("...\n")

				return out.String()
			}

			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteByte('\n')

			written++
		}
	}

	return out.String()
}

func joinKeys(keys []uint32) string {
	var sb strings.Builder

	for _, key := range keys {
		sb.WriteString(strconv.FormatUint(uint64(key), 10))
		sb.WriteByte('\n')
	}

	return sb.String()
}
