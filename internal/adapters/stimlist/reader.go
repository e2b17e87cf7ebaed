// Package stimlist reads the delimited stimulus table that seeds the
// trial schedule.
//
// The file needs a header with a mandatory "stimuli" column; a "run"
// column, when present, is trusted verbatim. Every other column is carried
// through onto the trials untouched.
package stimlist

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/TimManiquet/fmritask/internal/domain/model"
)

// Column names with reserved meaning.
const (
	stimuliColumn = "stimuli"
	runColumn     = "run"
)

// Read parses the table at path. The delimiter is sniffed from the header
// line: a tab wins over a comma, which keeps both .tsv and .csv lists
// working without configuration.
func Read(path string) (model.StimulusTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.StimulusTable{}, fmt.Errorf("%w: %s: %w", ErrOpenList, path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	headerLine, err := br.Peek(4096)
	if err != nil && len(headerLine) == 0 {
		return model.StimulusTable{}, fmt.Errorf("%w: %s: empty file", ErrOpenList, path)
	}

	delimiter := ','
	if firstLine := string(headerLine); strings.ContainsRune(strings.SplitN(firstLine, "\n", 2)[0], '\t') {
		delimiter = '\t'
	}

	r := csv.NewReader(br)
	r.Comma = delimiter
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return model.StimulusTable{}, fmt.Errorf("parse stimulus list %s: %w", path, err)
	}
	if len(records) == 0 {
		return model.StimulusTable{}, fmt.Errorf("%w: %s: no header row", ErrOpenList, path)
	}

	header := records[0]
	stimIdx := -1
	runIdx := -1
	var extras []string
	extraIdx := make([]int, 0, len(header))
	for i, col := range header {
		name := strings.TrimSpace(col)
		switch name {
		case stimuliColumn:
			stimIdx = i
		case runColumn:
			runIdx = i
		default:
			extras = append(extras, name)
			extraIdx = append(extraIdx, i)
		}
	}
	if stimIdx < 0 {
		return model.StimulusTable{}, fmt.Errorf("%w: %q", ErrMissingColumn, stimuliColumn)
	}

	table := model.StimulusTable{
		Columns: extras,
		HasRun:  runIdx >= 0,
		Rows:    make([]model.StimulusRow, 0, len(records)-1),
	}

	for lineNo, rec := range records[1:] {
		row := model.StimulusRow{Stimulus: strings.TrimSpace(rec[stimIdx])}
		if row.Stimulus == "" {
			return model.StimulusTable{}, fmt.Errorf("%w: line %d has an empty stimulus", ErrBadRow, lineNo+2)
		}

		if runIdx >= 0 {
			run, convErr := strconv.Atoi(strings.TrimSpace(rec[runIdx]))
			if convErr != nil || run < 1 {
				return model.StimulusTable{}, fmt.Errorf("%w: line %d run value %q", ErrBadRow, lineNo+2, rec[runIdx])
			}
			row.Run = run
		}

		if len(extras) > 0 {
			row.Extra = make(map[string]string, len(extras))
			for j, idx := range extraIdx {
				row.Extra[extras[j]] = rec[idx]
			}
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
