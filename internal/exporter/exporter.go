package exporter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"label-store/internal/label"
	"label-store/internal/logger"
	"label-store/internal/models"
)

// RecordLister is the part of a store the exporter needs
type RecordLister interface {
	ListRecords(ctx context.Context) ([]models.Record, error)
}

// ErrUnsupportedFormat is returned for output paths that are neither CSV nor XLSX
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Header is the first row of every export
var Header = []string{"id", "label", "label_nullable", "label_array", "label_array_nullable"}

const sheetName = "Records"

// Export writes every stored record to outputPath. The format follows the
// file extension (.csv or .xlsx). It returns the number of records written.
func Export(ctx context.Context, store RecordLister, outputPath string) (int, error) {
	var write func([]models.Record, string) error
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".csv":
		write = writeCSV
	case ".xlsx":
		write = writeXLSX
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, outputPath)
	}

	records, err := store.ListRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list records: %w", err)
	}

	if err := write(records, outputPath); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	logger.FromContext(ctx).Debug("Exported records", "count", len(records), "path", outputPath)
	return len(records), nil
}

// Row renders a record as export cells. An absent nullable label is an empty
// cell; arrays use the {a,b} array literal form, so an absent array ("") and
// an empty one ("{}") stay distinct.
func Row(rec models.Record) []string {
	nullable := ""
	if rec.LabelNullable.Valid {
		nullable = rec.LabelNullable.Label.String()
	}
	nullableArr := ""
	if rec.LabelArrayNullable.Valid {
		nullableArr = arrayLiteral(rec.LabelArrayNullable.Labels)
	}
	return []string{
		strconv.FormatInt(rec.ID, 10),
		rec.Label.String(),
		nullable,
		arrayLiteral(rec.LabelArray),
		nullableArr,
	}
}

// labels never contain braces or commas, so no quoting is needed
func arrayLiteral(labels []label.Label) string {
	return "{" + strings.Join(label.Strings(labels), ",") + "}"
}

// writeCSV writes the records to a CSV file
func writeCSV(records []models.Record, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write header
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		if err := writer.Write(Row(rec)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return file.Close()
}

// writeXLSX writes the records to a single-sheet Excel file
func writeXLSX(records []models.Record, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	writeRow := func(rowNum int, cells []string) error {
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		return sw.SetRow(cell, values)
	}

	if err := writeRow(1, Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, rec := range records {
		if err := writeRow(i+2, Row(rec)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
