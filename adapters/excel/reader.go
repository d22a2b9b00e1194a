package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"mixaudit/domain/feed"
	"mixaudit/internal/errors"
)

// ReadOptions shapes how a workbook becomes a raw table. Export
// sheets carry junk heading rows and an index column before the real
// data; the options cut those away before headers are resolved.
type ReadOptions struct {
	SheetName         string   `json:"sheet_name"`
	SkipRows          int      `json:"skip_rows"`
	RemoveFirstColumn bool     `json:"remove_first_column"`
	ColumnsToRemove   []string `json:"columns_to_remove"`
}

// Reader loads a workbook or CSV file from disk
type Reader struct {
	path string
	opts ReadOptions
}

// NewReader creates a reader for an .xlsx or .csv file
func NewReader(path string, opts ReadOptions) *Reader {
	return &Reader{path: path, opts: opts}
}

// Load reads the file into the raw table contract
func (r *Reader) Load(ctx context.Context) (feed.RawTable, error) {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return feed.RawTable{}, errors.IngestError(fmt.Sprintf("input file not found: %s", r.path), err)
	}

	if strings.EqualFold(filepath.Ext(r.path), ".csv") {
		return r.loadCSV()
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return feed.RawTable{}, errors.IngestError("open workbook", err)
	}
	defer f.Close()

	return tableFromWorkbook(f, r.opts)
}

func (r *Reader) loadCSV() (feed.RawTable, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return feed.RawTable{}, errors.IngestError("open csv", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return feed.RawTable{}, errors.IngestError("read csv", err)
	}
	return tableFromRows(rows, r.opts)
}

// UploadReader loads a workbook from an in-memory stream, the shape
// uploads arrive in.
type UploadReader struct {
	src  io.Reader
	opts ReadOptions
}

// NewUploadReader creates a reader over an uploaded workbook stream
func NewUploadReader(src io.Reader, opts ReadOptions) *UploadReader {
	return &UploadReader{src: src, opts: opts}
}

// Load reads the stream into the raw table contract
func (u *UploadReader) Load(ctx context.Context) (feed.RawTable, error) {
	f, err := excelize.OpenReader(u.src)
	if err != nil {
		return feed.RawTable{}, errors.IngestError("open uploaded workbook", err)
	}
	defer f.Close()

	return tableFromWorkbook(f, u.opts)
}

// FromCSV reads CSV content from a stream, for uploads that arrive as
// plain CSV rather than a workbook.
func FromCSV(src io.Reader, opts ReadOptions) (feed.RawTable, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return feed.RawTable{}, errors.IngestError("read uploaded csv", err)
	}
	return tableFromRows(rows, opts)
}

func tableFromWorkbook(f *excelize.File, opts ReadOptions) (feed.RawTable, error) {
	sheet := opts.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return feed.RawTable{}, errors.IngestError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return feed.RawTable{}, errors.IngestError(fmt.Sprintf("read sheet %s", sheet), err)
	}
	return tableFromRows(rows, opts)
}

// tableFromRows applies the options and produces the table: skip the
// junk rows, take the next row as headers, drop the index column and
// the configured junk columns.
func tableFromRows(rows [][]string, opts ReadOptions) (feed.RawTable, error) {
	if opts.SkipRows > 0 {
		if opts.SkipRows >= len(rows) {
			rows = nil
		} else {
			rows = rows[opts.SkipRows:]
		}
	}
	if len(rows) < 2 {
		return feed.RawTable{}, errors.IngestError("sheet must have at least a header row and one data row", nil)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := feed.RawTable{Headers: headers}
	for _, row := range rows[1:] {
		cells := make(feed.RawRow, len(row))
		for i, c := range row {
			cells[i] = strings.TrimSpace(c)
		}
		table.Rows = append(table.Rows, cells)
	}

	if opts.RemoveFirstColumn {
		table = dropColumnAt(table, 0)
	}
	for _, name := range opts.ColumnsToRemove {
		for {
			i := indexOfHeader(table.Headers, name)
			if i < 0 {
				break
			}
			table = dropColumnAt(table, i)
		}
	}

	log.Debug().
		Int("columns", len(table.Headers)).
		Int("rows", len(table.Rows)).
		Msg("table loaded")

	return table, nil
}

func indexOfHeader(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

func dropColumnAt(t feed.RawTable, col int) feed.RawTable {
	if col < 0 || col >= len(t.Headers) {
		return t
	}
	out := feed.RawTable{
		Headers: append(append([]string{}, t.Headers[:col]...), t.Headers[col+1:]...),
	}
	for _, row := range t.Rows {
		if col >= len(row) {
			out.Rows = append(out.Rows, row)
			continue
		}
		cells := append(append(feed.RawRow{}, row[:col]...), row[col+1:]...)
		out.Rows = append(out.Rows, cells)
	}
	return out
}
