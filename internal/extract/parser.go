package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	apperrors "chcli/internal/errors"
	"chcli/internal/infrastructure"
	"chcli/pkg/contracts/domain"
)

// Snapshot column headers. Companies House publishes some headers with
// leading spaces, so matching happens on the trimmed name.
const (
	colCompanyName     = "CompanyName"
	colCompanyNumber   = "CompanyNumber"
	colCompanyURI      = "URI"
	colSICCode         = "SICCode.SicText_1"
	colCompanyStatus   = "CompanyStatus"
	colCompanyCategory = "CompanyCategory"
	colAddressLine     = "RegAddress.AddressLine1"
	colAddressTown     = "RegAddress.PostTown"
	colPostcode        = "RegAddress.PostCode"
	colIncDate         = "IncorporationDate"
	colAccCat          = "Accounts.AccountCategory"
)

// requiredColumns must all be present for a snapshot CSV to be usable.
var requiredColumns = []string{colCompanyName, colCompanyNumber, colPostcode, colIncDate}

// snapshotDateLayout is how Companies House formats IncorporationDate.
const snapshotDateLayout = "02/01/2006"

// ParseStats counts what happened to the rows of one CSV.
type ParseStats struct {
	RowsRead    int64
	RowsSkipped int64
}

// ParseSnapshotCSV streams a snapshot CSV into batches of CompanyRow and
// hands each batch to emit. Rows without a company number are skipped and
// counted; every other row survives, with the incorporation date
// normalised to ISO-8601 when it parses and kept as raw text when it
// does not.
func ParseSnapshotCSV(ctx context.Context, csvPath string, batchSize int, emit func([]domain.CompanyRow) error) (ParseStats, error) {
	var stats ParseStats
	if batchSize < 1 {
		batchSize = 1
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return stats, apperrors.SnapshotError(csvPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return stats, apperrors.SnapshotError(csvPath, fmt.Errorf("failed to read header: %w", err))
	}

	columnMap, err := mapColumns(header)
	if err != nil {
		return stats, apperrors.SnapshotError(csvPath, err)
	}

	infrastructure.DebugContext(ctx, "Mapped snapshot columns",
		"csv", csvPath,
		"columns", len(columnMap))

	batch := make([]domain.CompanyRow, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := emit(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, apperrors.SnapshotError(csvPath, err)
		}
		stats.RowsRead++

		getString := func(col string) string {
			if idx, exists := columnMap[col]; exists && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		number := getString(colCompanyNumber)
		if number == "" {
			stats.RowsSkipped++
			continue
		}

		batch = append(batch, domain.CompanyRow{
			CompanyName:     getString(colCompanyName),
			CompanyNumber:   number,
			CompanyURI:      getString(colCompanyURI),
			SICCode:         getString(colSICCode),
			CompanyStatus:   getString(colCompanyStatus),
			CompanyCategory: getString(colCompanyCategory),
			AddressLine:     getString(colAddressLine),
			AddressTown:     getString(colAddressTown),
			AddressPostcode: getString(colPostcode),
			IncDate:         normalizeIncDate(getString(colIncDate)),
			AccCat:          getString(colAccCat),
		})

		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	return stats, flush()
}

// mapColumns maps header names to column positions. Header cells are
// trimmed and the first is stripped of a UTF-8 BOM before matching.
func mapColumns(header []string) (map[string]int, error) {
	columnMap := make(map[string]int, len(header))
	for i, cell := range header {
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\uFEFF")
		}
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		if _, exists := columnMap[name]; !exists {
			columnMap[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, exists := columnMap[col]; !exists {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewWithDetails("MISSING_COLUMNS",
			"Snapshot is missing required columns",
			strings.Join(missing, ", "))
	}

	return columnMap, nil
}

// normalizeIncDate converts the snapshot's DD/MM/YYYY dates to ISO-8601.
// Anything else, ISO dates included, is returned as-is so the row stays
// accountable downstream.
func normalizeIncDate(raw string) string {
	if t, err := time.Parse(snapshotDateLayout, raw); err == nil {
		return t.Format(domain.IncDateLayout)
	}
	return raw
}
