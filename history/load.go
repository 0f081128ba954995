package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrDataLoad is wrapped by every failure to produce a History from a source
	ErrDataLoad = errors.New("unable to load historical data")

	ErrUnknownFormat = errors.New("unknown data source format")
	ErrMissingColumn = errors.New("required column missing from header")
	ErrEmptySource   = errors.New("data source has no header row")
	ErrInvalidCell   = errors.New("invalid cell value")
	ErrNoSheets      = errors.New("workbook has no sheets")
)

const (
	DefaultYearColumn  = "year"
	DefaultValueColumn = "co2"
	DefaultAfterYear   = 2000
)

// Format is the tabular encoding of a data source
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options configures how rows are selected from a tabular source
type Options struct {
	YearColumn  string
	ValueColumn string

	// only rows with a year strictly greater than After are kept
	After int

	// when EntityColumn is set only rows matching Entity are kept
	EntityColumn string
	Entity       string

	// spreadsheet sheet name, defaults to the first sheet
	Sheet string
}

func NewDefaultOptions() *Options {
	return &Options{
		YearColumn:  DefaultYearColumn,
		ValueColumn: DefaultValueColumn,
		After:       DefaultAfterYear,
	}
}

// FormatFromPath infers the source format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%s, %w", path, ErrUnknownFormat)
}

// Load reads the tabular file at path once and returns the filtered annual series.
// Every failure wraps ErrDataLoad.
func Load(path string, opt *Options) (*History, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, loadErr("unable to infer format", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, loadErr("unable to open data source", err)
	}
	defer file.Close()

	return Decode(file, format, opt)
}

// Decode reads a tabular source of the given format and returns the filtered annual series.
// Every failure wraps ErrDataLoad.
func Decode(r io.Reader, format Format, opt *Options) (*History, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}

	var rows [][]string
	var err error
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r, opt.Sheet)
	default:
		err = fmt.Errorf("%s, %w", format, ErrUnknownFormat)
	}
	if err != nil {
		return nil, loadErr("unable to read data source", err)
	}

	h, err := fromRows(rows, opt)
	if err != nil {
		return nil, loadErr("unable to parse data source", err)
	}
	return h, nil
}

func loadErr(msg string, err error) error {
	return fmt.Errorf("%s, %w, %w", msg, err, ErrDataLoad)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheets
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet)
}

func fromRows(rows [][]string, opt *Options) (*History, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySource
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	yearIdx, err := columnIndex(header, opt.YearColumn)
	if err != nil {
		return nil, err
	}
	valueIdx, err := columnIndex(header, opt.ValueColumn)
	if err != nil {
		return nil, err
	}
	entityIdx := -1
	if opt.EntityColumn != "" {
		entityIdx, err = columnIndex(header, opt.EntityColumn)
		if err != nil {
			return nil, err
		}
	}

	points := make([]Point, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if entityIdx >= 0 && cell(row, entityIdx) != opt.Entity {
			continue
		}

		year, err := parseYear(cell(row, yearIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d column %s, %w", line, opt.YearColumn, err)
		}
		if year <= opt.After {
			continue
		}

		// missing observations are dropped rather than plotted
		valStr := cell(row, valueIdx)
		if valStr == "" {
			continue
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("row %d column %s value %q, %w", line, opt.ValueColumn, valStr, ErrInvalidCell)
		}
		points = append(points, Point{Year: year, Value: val})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Year < points[j].Year
	})
	return FromPoints(points)
}

func columnIndex(header []string, name string) (int, error) {
	for i, col := range header {
		if strings.TrimSpace(col) == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s, %w", name, ErrMissingColumn)
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseYear(s string) (int, error) {
	if year, err := strconv.Atoi(s); err == nil {
		return year, nil
	}

	// spreadsheets may store years as floats e.g. 2001.0
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("year %q, %w", s, ErrInvalidCell)
	}
	return int(f), nil
}
