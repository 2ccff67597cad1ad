package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrFileNotFound reports that the workbook file does not exist.
	ErrFileNotFound = errors.New("workbook file not found")
	// ErrSheetNotFound reports that the workbook has no sheet with the requested name.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrCorruptWorkbook reports a workbook that exists but cannot be parsed.
	ErrCorruptWorkbook = errors.New("workbook cannot be read")
)

const emptyHeader = "__EMPTY"

// ListSheets returns the sheet names of the workbook at path in tab order.
func ListSheets(path string) ([]string, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadSheet converts the named sheet into rows keyed by its header row.
//
// The first non-blank row supplies the keys. Blank header cells become
// __EMPTY, __EMPTY_1, ... and repeated headers gain _1, _2 suffixes. Blank
// rows are skipped and missing cells default to "". Numeric cells decode as
// float64 and boolean cells as bool; everything else stays a string.
func ReadSheet(path, sheet string) ([]Row, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name, ok := resolveSheet(f.GetSheetList(), sheet)
	if !ok {
		return nil, fmt.Errorf("sheet %q: %w", sheet, ErrSheetNotFound)
	}

	grid, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w: %w", name, ErrCorruptWorkbook, err)
	}

	headerIdx, minCol, width := bounds(grid)
	if headerIdx < 0 {
		return []Row{}, nil
	}
	headers := makeHeaders(grid[headerIdx], minCol, width)

	rows := make([]Row, 0, len(grid)-headerIdx-1)
	for r := headerIdx + 1; r < len(grid); r++ {
		if blank(grid[r]) {
			continue
		}
		row := make(Row, 0, len(headers))
		for i, key := range headers {
			col := minCol + i
			var raw string
			if col < len(grid[r]) {
				raw = grid[r][col]
			}
			value, err := typedValue(f, name, col, r, raw)
			if err != nil {
				return nil, fmt.Errorf("read sheet %q: %w: %w", name, ErrCorruptWorkbook, err)
			}
			row = append(row, Cell{Key: key, Value: value})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func open(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w: %w", path, ErrCorruptWorkbook, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, ErrCorruptWorkbook, err)
	}
	return f, nil
}

// resolveSheet matches byte-for-byte first, then under Unicode NFC so names
// typed on one platform find tabs saved on another.
func resolveSheet(names []string, requested string) (string, bool) {
	for _, name := range names {
		if name == requested {
			return name, true
		}
	}
	want := norm.NFC.String(requested)
	for _, name := range names {
		if norm.NFC.String(name) == want {
			return name, true
		}
	}
	return "", false
}

// bounds locates the header row and the used column range.
func bounds(grid [][]string) (headerIdx, minCol, width int) {
	headerIdx = -1
	minCol = -1
	for r, row := range grid {
		for c, v := range row {
			if v == "" {
				continue
			}
			if headerIdx < 0 {
				headerIdx = r
			}
			if minCol < 0 || c < minCol {
				minCol = c
			}
			break
		}
		if len(row) > width {
			width = len(row)
		}
	}
	if minCol < 0 {
		minCol = 0
	}
	return headerIdx, minCol, width
}

func makeHeaders(cells []string, minCol, width int) []string {
	headers := make([]string, 0, width-minCol)
	seen := map[string]int{}
	for c := minCol; c < width; c++ {
		base := ""
		if c < len(cells) {
			base = cells[c]
		}
		if base == "" {
			base = emptyHeader
		}
		key := base
		if count, dup := seen[base]; dup {
			for {
				key = base + "_" + strconv.Itoa(count)
				count++
				if _, taken := seen[key]; !taken {
					break
				}
			}
			seen[base] = count
			seen[key] = 1
		} else {
			seen[base] = 1
		}
		headers = append(headers, key)
	}
	return headers
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func typedValue(f *excelize.File, sheet string, col, row int, raw string) (any, error) {
	if raw == "" {
		return "", nil
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return nil, err
	}
	kind, err := f.GetCellType(sheet, cell)
	if err != nil {
		return nil, err
	}
	switch kind {
	case excelize.CellTypeBool:
		switch strings.ToUpper(raw) {
		case "1", "TRUE":
			return true, nil
		case "0", "FALSE":
			return false, nil
		}
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n, nil
		}
	}
	return raw, nil
}
