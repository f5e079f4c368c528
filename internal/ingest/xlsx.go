package ingest

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// readSheet returns the non-blank rows of the first worksheet.
func readSheet(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		blank := true
		for j, cell := range row.Cells {
			cells[j] = cell.String()
			if strings.TrimSpace(cells[j]) != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

// sliceReader feeds in-memory rows to csvutil.
type sliceReader struct {
	rows [][]string
	pos  int
}

func (s *sliceReader) Read() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}
