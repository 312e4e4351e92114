package market

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"
)

// LoadCSV reads a historical price series from a CSV file:
//
//	time,price
//
// where time is RFC3339 or unix seconds. A header row is allowed; when
// present, a "close" column is used as the price column so raw OHLCV
// exports can be fed directly. Rows are returned in file order; callers
// are expected to feed chronologically sorted datasets.
//
// Compressed datasets are handled transparently by extension: .gz and .xz
// are streamed, .zip bundles are extracted to a temp directory and the
// first CSV member is loaded.
func LoadCSV(path string) (Series, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return loadZip(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		r, err := decompress(path, f)
		if err != nil {
			return nil, err
		}
		return readBars(r)
	}
}

func decompress(path string, f io.Reader) (io.Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return gzip.NewReader(f)
	case ".xz":
		return xz.NewReader(f)
	default:
		return f, nil
	}
}

func loadZip(path string) (Series, error) {
	dir, err := os.MkdirTemp("", "sologrid-data-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if err := unzip.Extract(path, dir); err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	var csvPath string
	err = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if csvPath == "" && !info.IsDir() && strings.EqualFold(filepath.Ext(p), ".csv") {
			csvPath = p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if csvPath == "" {
		return nil, fmt.Errorf("no CSV member in %s", path)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readBars(f)
}

func readBars(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		bars     Series
		sawFirst bool
		timeCol  = 0
		priceCol = 1
	)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 2 {
			continue
		}

		if !sawFirst {
			sawFirst = true
			if cols, ok := headerColumns(row); ok {
				timeCol, priceCol = cols[0], cols[1]
				continue
			}
		}

		if timeCol >= len(row) || priceCol >= len(row) {
			continue
		}

		ts, err := parseTime(strings.TrimSpace(row[timeCol]))
		if err != nil {
			return nil, err
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(row[priceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad price %q: %w", row[priceCol], err)
		}

		bars = append(bars, Bar{Time: ts, Price: price})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable rows in dataset")
	}
	return bars, nil
}

// headerColumns detects a header row and returns [time, price] column
// indexes. Price prefers an explicit "price" column, then "close".
func headerColumns(row []string) ([2]int, bool) {
	cols := [2]int{0, 1}
	header := false

	for i, cell := range row {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "time", "date", "timestamp":
			cols[0] = i
			header = true
		case "price":
			cols[1] = i
			header = true
		case "close":
			if !hasColumn(row, "price") {
				cols[1] = i
			}
			header = true
		}
	}
	return cols, header
}

func hasColumn(row []string, name string) bool {
	for _, cell := range row {
		if strings.EqualFold(strings.TrimSpace(cell), name) {
			return true
		}
	}
	return false
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}
