package domain

import "fmt"

// Warning reports a best-effort repair or an intentional information drop
// made during conversion. Warnings are values returned alongside results
// rather than log side effects, so the engine stays testable without
// capturing output. They are never fatal.
type Warning struct {
	Message string
}

// Warningf builds a Warning from a format string.
func Warningf(format string, args ...any) Warning {
	return Warning{Message: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	return w.Message
}

// SquareTable makes rows rectangular against the first (header) row: short
// rows are padded with empty cells and over-long rows are truncated. Both
// repairs are reported as warnings. An empty input is returned as-is.
func SquareTable(rows [][]Cell) ([][]Cell, []Warning) {
	if len(rows) == 0 {
		return rows, nil
	}
	width := len(rows[0])
	var warnings []Warning
	for i := 1; i < len(rows); i++ {
		switch {
		case len(rows[i]) < width:
			warnings = append(warnings, Warningf("table row %d padded from %d to %d cells", i+1, len(rows[i]), width))
			for len(rows[i]) < width {
				rows[i] = append(rows[i], Cell(nil))
			}
		case len(rows[i]) > width:
			warnings = append(warnings, Warningf("table row %d truncated from %d to %d cells", i+1, len(rows[i]), width))
			rows[i] = rows[i][:width]
		}
	}
	return rows, warnings
}
