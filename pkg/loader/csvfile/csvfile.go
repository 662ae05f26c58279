package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"ppmigraph/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// CSVTableLoader reads a source table from a local CSV file. Parsed
// records are cached so repeated loads of the same table within a run
// hit the disk once.
type CSVTableLoader struct {
	path string

	cache   []loader.Record
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewCSVTableLoader creates a loader for the CSV file at path.
func NewCSVTableLoader(path string) *CSVTableLoader {
	return &CSVTableLoader{path: path}
}

// Load reads and parses the file into header-addressed records.
func (l *CSVTableLoader) Load(ctx context.Context) ([]loader.Record, error) {
	l.cacheMu.RLock()
	if l.cache != nil {
		defer l.cacheMu.RUnlock()
		return l.cache, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(l.path, func() (any, error) {
		l.cacheMu.RLock()
		if l.cache != nil {
			defer l.cacheMu.RUnlock()
			return l.cache, nil
		}
		l.cacheMu.RUnlock()

		content, err := os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read table file: %w", err)
		}

		records, err := ParseRecords(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", l.path, err)
		}

		l.cacheMu.Lock()
		l.cache = records
		l.cacheMu.Unlock()

		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]loader.Record), nil
}

// ParseRecords parses CSV content into header-addressed records. The
// first non-empty row is the header; a UTF-8 byte order mark on the
// first header field is stripped. Short data rows leave trailing
// fields absent; rows that are entirely empty are dropped.
func ParseRecords(content []byte) ([]loader.Record, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var header []string
	var records []loader.Record

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if isEmptyRow(row) {
			continue
		}

		if header == nil {
			header = make([]string, len(row))
			for i, field := range row {
				if i == 0 {
					field = strings.TrimPrefix(field, "\ufeff")
				}
				header[i] = strings.TrimSpace(field)
			}
			continue
		}

		record := make(loader.Record, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			record[name] = row[i]
		}
		records = append(records, record)
	}

	if header == nil {
		return nil, fmt.Errorf("CSV content is empty or contains no header row")
	}

	return records, nil
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
