package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"label-store/internal/logger"
)

// ImportXLSX imports labels from the first column of every sheet in an Excel
// file. Sheets whose first column holds no label at all are skipped.
func ImportXLSX(ctx context.Context, store RecordCreator, xlsxPath string, opts Options) (*ImportStats, error) {
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	log := logger.FromContext(ctx)
	b := newBatcher(ctx, store, opts)
	for _, sheetName := range sheetList {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			b.stats.Errors = append(b.stats.Errors, fmt.Sprintf("sheet %q: failed to read: %v", sheetName, err))
			continue
		}

		if !isLabelSheet(rows, opts.DecodeIDN) {
			log.Info("Skipping sheet without labels in first column", "sheet", sheetName)
			continue
		}

		for i, row := range rows {
			if len(row) == 0 {
				b.stats.Skipped++
				continue
			}
			if err := b.add(fmt.Sprintf("sheet %q row %d", sheetName, i+1), row[0]); err != nil {
				return b.stats, err
			}
		}
		if err := b.endSection(); err != nil {
			return b.stats, err
		}
	}

	if err := b.flush(); err != nil {
		return b.stats, err
	}
	return b.stats, nil
}

// isLabelSheet checks if any of the first rows of a sheet holds a valid label
// in its first column. A header-like first value counts too, since it is
// imported whenever no valid label follows it.
func isLabelSheet(rows [][]string, decodeIDN bool) bool {
	for i := 0; i < len(rows) && i < 11; i++ { // Header plus up to 10 rows
		if len(rows[i]) == 0 || strings.TrimSpace(rows[i][0]) == "" {
			continue
		}
		if _, err := parseLabel(rows[i][0], decodeIDN); err == nil {
			return true
		}
	}
	return false
}
