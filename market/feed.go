package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Feed yields bars one at a time. Implementations should be deterministic
// and return (ok=false, err=nil) at EOF.
type Feed interface {
	Next() (b Bar, ok bool, err error)
	Close() error
}

// SliceFeed replays an in-memory Series. Used by tests and the sweep, where
// the dataset is loaded once and shared read-only across runs.
type SliceFeed struct {
	bars Series
	idx  int
}

func NewSliceFeed(bars Series) *SliceFeed {
	return &SliceFeed{bars: bars}
}

func (f *SliceFeed) Next() (Bar, bool, error) {
	if f.idx >= len(f.bars) {
		return Bar{}, false, nil
	}
	b := f.bars[f.idx]
	f.idx++
	return b, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// CSVFeed streams bars from a dataset file without loading the whole
// series up front. Zip bundles are not streamable; use LoadCSV for those.
type CSVFeed struct {
	f    *os.File
	rows *csv.Reader

	sawFirst bool
	timeCol  int
	priceCol int
}

func OpenCSVFeed(path string) (*CSVFeed, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return nil, fmt.Errorf("market: cannot stream %s, load it with LoadCSV", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := decompress(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}

	rows := csv.NewReader(r)
	rows.FieldsPerRecord = -1
	return &CSVFeed{f: f, rows: rows, timeCol: 0, priceCol: 1}, nil
}

func (c *CSVFeed) Next() (Bar, bool, error) {
	for {
		row, err := c.rows.Read()
		if err == io.EOF {
			return Bar{}, false, nil
		}
		if err != nil {
			return Bar{}, false, err
		}
		if len(row) < 2 {
			continue
		}

		if !c.sawFirst {
			c.sawFirst = true
			if cols, ok := headerColumns(row); ok {
				c.timeCol, c.priceCol = cols[0], cols[1]
				continue
			}
		}
		if c.timeCol >= len(row) || c.priceCol >= len(row) {
			continue
		}

		ts, err := parseTime(strings.TrimSpace(row[c.timeCol]))
		if err != nil {
			return Bar{}, false, err
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(row[c.priceCol]), 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad price %q: %w", row[c.priceCol], err)
		}
		return Bar{Time: ts, Price: price}, true, nil
	}
}

func (c *CSVFeed) Close() error { return c.f.Close() }
