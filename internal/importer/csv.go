package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"label-store/internal/label"
	"label-store/internal/logger"
	"label-store/internal/models"
)

const defaultBatchSize = 10000

// RecordCreator is the part of a store the importer needs
type RecordCreator interface {
	BulkCreateRecords(ctx context.Context, labels []label.Label) ([]models.Record, error)
}

// Options controls an import
type Options struct {
	// DecodeIDN converts "xn--" A-labels to Unicode before validation
	DecodeIDN bool
	// BatchSize is the number of labels per BulkCreateRecords call
	BatchSize int
}

// ImportStats tracks statistics for an import
type ImportStats struct {
	Imported      int // Records created
	Skipped       int
	HeaderSkipped bool
	Errors        []string
	StartTime     time.Time
	MaxMemoryMB   uint64
}

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Import creates one record per valid label found in the first column of a
// CSV or XLSX file. Invalid values are skipped and reported in the stats;
// storage failures abort the import.
func Import(ctx context.Context, store RecordCreator, path string, opts Options) (*ImportStats, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ImportCSV(ctx, store, path, opts)
	case ".xlsx":
		return ImportXLSX(ctx, store, path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// batcher accumulates labels and flushes them to the store
type batcher struct {
	ctx   context.Context
	store RecordCreator
	opts  Options
	stats *ImportStats
	batch []label.Label

	// expectHeader is set until the first non-empty value of a file or sheet
	expectHeader bool
	// header holds a header-like first value until the next value decides it
	header *pendingValue
}

type pendingValue struct {
	where, raw string
}

func newBatcher(ctx context.Context, store RecordCreator, opts Options) *batcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &batcher{
		ctx:   ctx,
		store: store,
		opts:  opts,
		stats: &ImportStats{StartTime: time.Now(), Errors: make([]string, 0)},
		batch: make([]label.Label, 0, opts.BatchSize),

		expectHeader: true,
	}
}

// add handles one first-column value. where identifies it in error messages.
//
// A first value such as "label" or "name" is only a header when the value
// after it is a valid label; otherwise it is imported like any other value.
func (b *batcher) add(where, raw string) error {
	if strings.TrimSpace(raw) == "" {
		b.stats.Skipped++
		return nil
	}

	if b.expectHeader {
		b.expectHeader = false
		if isHeaderRow(raw) {
			b.header = &pendingValue{where: where, raw: raw}
			return nil
		}
	}

	if h := b.header; h != nil {
		b.header = nil
		if _, err := parseLabel(raw, b.opts.DecodeIDN); err == nil {
			b.stats.HeaderSkipped = true
			b.stats.Skipped++
		} else if err := b.addLabel(h.where, h.raw); err != nil {
			return err
		}
	}

	return b.addLabel(where, raw)
}

// endSection closes a file or sheet. A header-like value with nothing after
// it is a label.
func (b *batcher) endSection() error {
	b.expectHeader = true
	h := b.header
	if h == nil {
		return nil
	}
	b.header = nil
	return b.addLabel(h.where, h.raw)
}

func (b *batcher) addLabel(where, raw string) error {
	l, err := parseLabel(raw, b.opts.DecodeIDN)
	if err != nil {
		b.stats.Skipped++
		b.stats.Errors = append(b.stats.Errors, fmt.Sprintf("%s: skipped invalid label %q: %v", where, raw, err))
		return nil
	}

	b.batch = append(b.batch, l)
	if len(b.batch) >= b.opts.BatchSize {
		return b.flush()
	}
	return nil
}

func (b *batcher) flush() error {
	if len(b.batch) == 0 {
		return nil
	}
	records, err := b.store.BulkCreateRecords(b.ctx, b.batch)
	if err != nil {
		return fmt.Errorf("failed to create records: %w", err)
	}
	b.stats.Imported += len(records)
	b.batch = b.batch[:0]

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if memMB := m.Alloc / 1024 / 1024; memMB > b.stats.MaxMemoryMB {
		b.stats.MaxMemoryMB = memMB
	}
	logger.FromContext(b.ctx).Debug("Imported batch", "records", len(records), "total", b.stats.Imported)
	return nil
}

// ImportCSV imports labels from the first column of a CSV file
func ImportCSV(ctx context.Context, store RecordCreator, csvPath string, opts Options) (*ImportStats, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Allow variable number of fields per record
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	b := newBatcher(ctx, store, opts)
	lineNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			// Malformed lines are reported, the rest of the file is still read
			b.stats.Errors = append(b.stats.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			b.stats.Skipped++
			continue
		}

		if len(record) == 0 {
			b.stats.Skipped++
			continue
		}

		if err := b.add(fmt.Sprintf("line %d", lineNum), record[0]); err != nil {
			return b.stats, err
		}
	}

	if err := b.endSection(); err != nil {
		return b.stats, err
	}
	if err := b.flush(); err != nil {
		return b.stats, err
	}
	return b.stats, nil
}

// CountCSVLines counts the total number of lines in a CSV file
func CountCSVLines(csvPath string) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	count := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}
