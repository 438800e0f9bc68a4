// Package excel loads tabular files into datasets. Excel workbooks are
// read from Sheet1; CSV files are read whole. Every column must be
// numeric since downstream estimation works on float64 columns only.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"causalkit/domain/dataset"
)

// DataReader handles reading Excel and CSV files into datasets.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader for the given path, dispatching on the
// file extension.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadDataset reads the file into a dataset. The first row is the
// header; every subsequent cell must parse as a float64.
func (r *DataReader) ReadDataset() (*dataset.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}
	return r.buildDataset(rows)
}

// readExcelRows reads all rows from Sheet1.
func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	return rows, nil
}

// readCSVRows reads all rows from a CSV file.
func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// buildDataset converts raw string rows into numeric columns keyed by
// the trimmed header names.
func (r *DataReader) buildDataset(rows [][]string) (*dataset.Dataset, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
		if headers[i] == "" {
			return nil, fmt.Errorf("column %d has an empty header", i+1)
		}
	}

	cols := make(map[string][]float64, len(headers))
	for _, h := range headers {
		cols[h] = make([]float64, 0, len(rows)-1)
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) != len(headers) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i+1, len(row), len(headers))
		}
		for j, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %q is not numeric", i+1, headers[j], cell)
			}
			cols[headers[j]] = append(cols[headers[j]], v)
		}
	}

	return dataset.FromColumns(headers, cols)
}
