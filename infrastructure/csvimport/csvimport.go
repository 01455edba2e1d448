package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/dto"
	"pin-scheduler/infrastructure/logger"
)

var requiredColumns = []string{"title", "description", "imageurl"}

// Result holds the accepted pins plus the rows that were skipped.
type Result struct {
	Pins    []dto.CSVPin
	Skipped []dto.RowError
}

// Open opens a bulk import file read-only.
func Open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("path", path).Error("Error while open file")
		return nil, err
	}
	return file, nil
}

// Parse reads a header row plus data rows. Headers are matched case-insensitively;
// title, description and imageurl are required, link is optional.
func Parse(r io.Reader) (*Result, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, apperror.Validation("CSV file must contain at least a header row and one data row")
	}

	headers := make([]string, len(records[0]))
	index := make(map[string]int, len(headers))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
		if _, seen := index[headers[i]]; !seen {
			index[headers[i]] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperror.Validationf("Missing required columns: %s", strings.Join(missing, ", "))
	}

	res := &Result{}
	for i, rec := range records[1:] {
		row := i + 2
		if len(rec) != len(headers) {
			logger.GetLogger().WithField("row", row).Warn("Skipping row: incorrect number of columns")
			res.Skipped = append(res.Skipped, dto.RowError{Row: row, Error: "incorrect number of columns"})
			continue
		}
		get := func(col string) string {
			if j, ok := index[col]; ok {
				return strings.TrimSpace(rec[j])
			}
			return ""
		}
		pin := dto.CSVPin{
			Row:         row,
			Title:       get("title"),
			Description: get("description"),
			ImageURL:    get("imageurl"),
			Link:        get("link"),
		}
		if pin.Title == "" || pin.Description == "" || pin.ImageURL == "" {
			logger.GetLogger().WithField("row", row).Warn("Skipping row: missing required fields")
			res.Skipped = append(res.Skipped, dto.RowError{Row: row, Error: "missing required fields"})
			continue
		}
		res.Pins = append(res.Pins, pin)
	}
	if len(res.Pins) == 0 {
		return nil, apperror.Validation("No valid pins found in CSV file")
	}
	return res, nil
}

// readRecords drops blank lines and keeps malformed rows so the caller can count them as skipped.
func readRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				logger.GetLogger().WithField("line", pe.Line).WithField("error", pe.Err).Warn("Skipping unparsable CSV line")
				records = append(records, nil)
				continue
			}
			return nil, apperror.Validation(fmt.Sprintf("read csv: %v", err))
		}
		if blank(rec) {
			continue
		}
		records = append(records, rec)
	}
	if len(records) > 0 && records[0] == nil {
		return nil, apperror.Validation("CSV header row could not be parsed")
	}
	return records, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Template is a minimal example file with every supported column.
func Template() string {
	return strings.Join([]string{
		"title,description,imageUrl,link",
		"Example Pin Title,A great description of the pin,https://example.com/image.jpg,https://example.com",
	}, "\n") + "\n"
}
