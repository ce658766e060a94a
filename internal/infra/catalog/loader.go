// Package catalog loads the product catalog articles are written about.
// Products come either from a CSV export or from a directory of plain
// text files, one product per file.
package catalog

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"autobloom/internal/domain/entity"
)

// Header aliases accepted in CSV exports. Matching is case-insensitive.
var (
	nameHeaders        = []string{"product name", "name", "title"}
	descriptionHeaders = []string{"description", "content", "details"}
	keywordHeaders     = []string{"keywords", "tags"}
)

// Load reads products from the given path: a directory of .txt files or
// a .csv export.
func Load(path string) ([]entity.Product, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return LoadCSV(path)
	}
	return nil, fmt.Errorf("unsupported catalog source %s", path)
}

// LoadCSV reads products from a CSV export. Column order is free; the
// header row names the columns. Rows without a usable name or description
// are skipped with a warning, not fatal.
func LoadCSV(path string) ([]entity.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("catalog csv has no data rows")
	}

	nameIdx := findColumn(records[0], nameHeaders)
	descIdx := findColumn(records[0], descriptionHeaders)
	keywordIdx := findColumn(records[0], keywordHeaders)
	if nameIdx < 0 {
		return nil, fmt.Errorf("catalog csv has no recognizable name column")
	}

	products := make([]entity.Product, 0, len(records)-1)
	for i, row := range records[1:] {
		p := entity.Product{
			Name:        cell(row, nameIdx),
			Description: cell(row, descIdx),
			Keywords:    splitKeywords(cell(row, keywordIdx)),
		}
		if err := p.Validate(); err != nil {
			slog.Warn("skipping catalog row",
				slog.Int("row", i+2),
				slog.Any("error", err))
			continue
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("catalog csv yielded no valid products")
	}
	return products, nil
}

// LoadDir reads products from a directory of .txt files. The first
// non-empty line is the product name, the rest is the description.
func LoadDir(dir string) ([]entity.Product, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("scan catalog dir: %w", err)
	}

	products := make([]entity.Product, 0, len(paths))
	for _, path := range paths {
		p, err := loadTextFile(path)
		if err != nil {
			slog.Warn("skipping catalog file",
				slog.String("path", path),
				slog.Any("error", err))
			continue
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("catalog dir %s yielded no valid products", dir)
	}
	return products, nil
}

func loadTextFile(path string) (entity.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Product{}, err
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	var name string
	var body []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if name == "" {
			if trimmed != "" {
				name = trimmed
			}
			continue
		}
		body = append(body, line)
	}

	p := entity.Product{
		Name:        name,
		Description: strings.TrimSpace(strings.Join(body, "\n")),
	}
	if err := p.Validate(); err != nil {
		return entity.Product{}, err
	}
	return p, nil
}

func findColumn(header []string, aliases []string) int {
	for i, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(col))
		for _, alias := range aliases {
			if normalized == alias {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// splitKeywords splits a keyword cell on commas and semicolons.
func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}
