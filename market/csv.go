package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Columns every signal file must carry. Matching is case-insensitive and
// column order is free; any other columns (indicators, volume) are ignored.
const (
	ColDate   = "date"
	ColClose  = "close"
	ColSignal = "signal"
)

// dateLayouts are tried in order. The last two cover timestamps written by
// dataframe exports of daily bars.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
}

// LoadSeriesCSV opens path and reads it with ReadSeriesCSV.
func LoadSeriesCSV(path, symbol string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadSeriesCSV(f, symbol)
}

// ReadSeriesCSV reads a header row followed by one row per time step:
//
//	Date,Close,Signal[,...]
//
// Blank lines are skipped. The result is validated, so a returned series is
// always safe to simulate.
func ReadSeriesCSV(r io.Reader, symbol string) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Series{}, invalid(symbol, -1, "empty file")
	}
	if err != nil {
		return Series{}, err
	}

	cols, err := columnIndex(symbol, header)
	if err != nil {
		return Series{}, err
	}

	s := Series{Symbol: symbol}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Series{}, err
		}
		if blank(rec) {
			continue
		}

		row, err := parseRow(symbol, len(s.Rows), rec, cols)
		if err != nil {
			return Series{}, err
		}
		s.Rows = append(s.Rows, row)
	}

	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

type columns struct {
	date, close, signal int
}

func columnIndex(symbol string, header []string) (columns, error) {
	idx := map[string]int{}
	for i, h := range header {
		// strip a UTF-8 BOM from spreadsheet exports
		h = strings.TrimPrefix(h, "\ufeff")
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var c columns
	var ok bool
	for _, want := range []struct {
		name string
		dst  *int
	}{
		{ColDate, &c.date},
		{ColClose, &c.close},
		{ColSignal, &c.signal},
	} {
		if *want.dst, ok = idx[want.name]; !ok {
			return columns{}, invalid(symbol, -1, "missing column %q", want.name)
		}
	}
	return c, nil
}

func parseRow(symbol string, i int, rec []string, c columns) (Row, error) {
	field := func(col int) (string, error) {
		if col >= len(rec) {
			return "", invalid(symbol, i, "short row: %d fields", len(rec))
		}
		return strings.TrimSpace(rec[col]), nil
	}

	ds, err := field(c.date)
	if err != nil {
		return Row{}, err
	}
	t, err := parseTime(ds)
	if err != nil {
		return Row{}, invalid(symbol, i, "bad date %q", ds)
	}

	cs, err := field(c.close)
	if err != nil {
		return Row{}, err
	}
	px, err := strconv.ParseFloat(cs, 64)
	if err != nil {
		return Row{}, invalid(symbol, i, "bad close %q", cs)
	}

	ss, err := field(c.signal)
	if err != nil {
		return Row{}, err
	}
	act, err := ParseAction(ss)
	if err != nil {
		return Row{}, invalid(symbol, i, "%v", err)
	}

	return Row{Bar: Bar{Time: t, Close: px}, Signal: act}, nil
}

func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
